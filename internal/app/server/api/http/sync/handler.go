package sync

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"pharmsync/internal/app/server/api/http/middleware/auth"
	"pharmsync/internal/domain/sync"
)

type Handler struct {
	service    sync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.runOp(), h.run)
	huma.Register(api, h.uploadOp(), h.upload)
	huma.Register(api, h.changesOp(), h.changes)
	huma.Register(api, h.statusOp(), h.status)
	huma.Register(api, h.logsOp(), h.logs)
}

func (h *Handler) run(ctx context.Context, input *runInput) (*runOutput, error) {
	tenantID, ok := auth.GetTenantID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	resp, err := h.service.Sync(ctx, tenantID, input.Body)
	if err != nil {
		// A run that finished in the conflict state is a success from the
		// transport's point of view: the caller gets the conflict list and
		// resubmits with resolutions.
		if errors.Is(err, sync.ErrConflictUnresolved) && resp != nil {
			return &runOutput{Body: *resp}, nil
		}
		return nil, h.mapError(err)
	}
	return &runOutput{Body: *resp}, nil
}

func (h *Handler) upload(ctx context.Context, input *uploadInput) (*uploadOutput, error) {
	tenantID, ok := auth.GetTenantID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	resp, err := h.service.Upload(ctx, tenantID, input.Body)
	if err != nil {
		return nil, h.mapError(err)
	}
	return &uploadOutput{Body: *resp}, nil
}

func (h *Handler) changes(ctx context.Context, input *changesInput) (*changesOutput, error) {
	tenantID, ok := auth.GetTenantID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	var since *time.Time
	if input.Since != "" {
		t, err := time.Parse(time.RFC3339Nano, input.Since)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("invalid since timestamp", err)
		}
		since = &t
	}

	resp, err := h.service.Changes(ctx, tenantID, input.EntityType, since, input.Limit)
	if err != nil {
		return nil, h.mapError(err)
	}
	return &changesOutput{Body: *resp}, nil
}

func (h *Handler) status(ctx context.Context, _ *statusInput) (*statusOutput, error) {
	tenantID, ok := auth.GetTenantID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	resp, err := h.service.Status(ctx, tenantID)
	if err != nil {
		return nil, h.mapError(err)
	}
	return &statusOutput{Body: *resp}, nil
}

func (h *Handler) logs(ctx context.Context, input *logsInput) (*logsOutput, error) {
	tenantID, ok := auth.GetTenantID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	sessions, err := h.service.Logs(ctx, tenantID, input.Limit)
	if err != nil {
		return nil, h.mapError(err)
	}
	return &logsOutput{Body: logsResponse{Sessions: sessions}}, nil
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, sync.ErrInvalidDirection),
		errors.Is(err, sync.ErrUnknownEntityType),
		errors.Is(err, sync.ErrInvalidResolution):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, sync.ErrConcurrentSync),
		errors.Is(err, sync.ErrDuplicateSyncID),
		errors.Is(err, sync.ErrBaselineMoved):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, sync.ErrRemoteUnavailable):
		return huma.Error502BadGateway(err.Error())
	default:
		h.log.Error("sync request failed", "error", err)
		return huma.Error500InternalServerError("internal error")
	}
}
