package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) runOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-run",
		Method:      http.MethodPost,
		Path:        "/api/sync",
		Summary:     "Run a synchronization session",
		Description: "Pushes local changes, pulls remote ones and advances the sync baseline",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) uploadOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-upload",
		Method:      http.MethodPost,
		Path:        "/api/sync/upload",
		Summary:     "Apply a batch of records",
		Description: "Idempotently upserts one batch for a single entity type",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) changesOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-changes",
		Method:      http.MethodGet,
		Path:        "/api/sync/changes/{entity_type}",
		Summary:     "Get changed records",
		Description: "Returns one page of records changed since the given timestamp",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) statusOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-status",
		Method:      http.MethodGet,
		Path:        "/api/sync/status",
		Summary:     "Get synchronization status",
		Description: "Returns the last session and pending change counts per entity type",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) logsOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-logs",
		Method:      http.MethodGet,
		Path:        "/api/sync/logs",
		Summary:     "Get synchronization history",
		Description: "Returns past sessions, most recent first",
		Tags:        []string{"sync"},
		Middlewares: h.middleware,
	}
}
