package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
)

// Servicer is the sync coordinator: one call orchestrates one run.
type Servicer interface {
	// Sync runs one synchronization session for the tenant.
	Sync(ctx context.Context, tenantID int64, req SyncRequest) (*SyncResponse, error)

	// Upload applies one inbound batch for a single entity type.
	Upload(ctx context.Context, tenantID int64, req UploadPayload) (*UploadResponse, error)

	// Changes returns records changed since the given timestamp.
	Changes(ctx context.Context, tenantID int64, entityType string, since *time.Time, limit int) (*ChangesResponse, error)

	// Status returns the tenant's sync dashboard.
	Status(ctx context.Context, tenantID int64) (*StatusResponse, error)

	// Logs returns the tenant's session history, most recent first.
	Logs(ctx context.Context, tenantID int64, limit int) ([]Session, error)
}

// Service wires the selector, upserter and resolver around the session log
// and the tenant baseline.
type Service struct {
	sessions  SessionRepository
	baselines BaselineRepository
	stores    Stores
	remote    RemoteFetcher
	selector  *Selector
	upserter  *Upserter
	resolver  *Resolver
	config    Config
	log       *slog.Logger
	now       func() time.Time
}

func NewService(sessions SessionRepository, baselines BaselineRepository, stores Stores, remote RemoteFetcher, config Config, log *slog.Logger) *Service {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.RemoteTimeout <= 0 {
		config.RemoteTimeout = DefaultConfig().RemoteTimeout
	}

	upserter := NewUpserter(stores, log)
	return &Service{
		sessions:  sessions,
		baselines: baselines,
		stores:    stores,
		remote:    remote,
		selector:  NewSelector(stores, log),
		upserter:  upserter,
		resolver:  NewResolver(upserter, log),
		config:    config,
		log:       log.With("component", "sync_coordinator"),
		now:       time.Now,
	}
}

// Sync runs one session: validate, select and push local changes, pull and
// apply remote ones, resolve supplied conflicts, then advance the baseline
// with a compare-and-swap. The baseline moves only together with a
// completed session; any failure finalizes the session as failed and is
// returned to the caller.
func (s *Service) Sync(ctx context.Context, tenantID int64, req SyncRequest) (*SyncResponse, error) {
	// Validation happens before any session row exists.
	direction, err := ParseDirection(req.Direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, req.Direction)
	}
	types, err := parseEntityTypes(req.EntityTypes)
	if err != nil {
		return nil, err
	}

	session := &Session{
		RunID:     uuid.NewString(),
		TenantID:  tenantID,
		Direction: direction,
		Status:    StatusInProgress,
		StartedAt: s.now().UTC(),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("sync started",
		"tenant_id", tenantID, "run_id", session.RunID, "direction", direction)

	// The baseline read here is the CAS expectation at commit time.
	expected, err := s.baselines.Baseline(ctx, tenantID)
	if err != nil {
		return nil, s.fail(ctx, session, fmt.Errorf("read baseline: %w", err))
	}

	// Everything selected below has updated_at <= StartedAt covered, so
	// StartedAt is a safe advancement target; a page cut short by the
	// batch limit pulls it back to just before the last shipped record.
	advanceTo := session.StartedAt

	if direction == DirectionUpload || direction == DirectionBidirectional {
		capped, err := s.uploadLeg(ctx, tenantID, session, types, expected)
		if err != nil {
			return nil, s.fail(ctx, session, err)
		}
		if capped != nil && capped.Before(advanceTo) {
			advanceTo = *capped
		}
	}

	var detected []Conflict
	if direction == DirectionDownload || direction == DirectionBidirectional {
		detected, err = s.downloadLeg(ctx, tenantID, session, types, expected)
		if err != nil {
			return nil, s.fail(ctx, session, err)
		}
	}

	if len(req.Conflicts) > 0 {
		resolved, applied, err := s.resolver.Resolve(ctx, tenantID, req.Conflicts)
		if err != nil {
			return nil, s.fail(ctx, session, err)
		}
		// Records resolved in this run are re-detected by the download leg
		// (both sides still sit past the frozen baseline); without this the
		// conflict state could never be left.
		if applied > 0 {
			detected = dropResolved(detected, resolved)
		}
	}

	if len(detected) > 0 {
		session.Status = StatusConflict
		session.Conflicts = len(detected)
		if err := s.finalize(ctx, session, ""); err != nil {
			return nil, err
		}
		resp := s.response(session, detected, "synchronization finished with conflicts, resolutions required")
		return resp, ErrConflictUnresolved
	}

	if err := s.baselines.AdvanceBaseline(ctx, tenantID, expected, advanceTo); err != nil {
		if errors.Is(err, ErrBaselineMoved) {
			ferr := s.fail(ctx, session, ErrConcurrentSync)
			return nil, ferr
		}
		return nil, s.fail(ctx, session, fmt.Errorf("advance baseline: %w", err))
	}

	session.Status = StatusCompleted
	if err := s.finalize(ctx, session, ""); err != nil {
		return nil, err
	}

	s.log.Info("sync completed",
		"tenant_id", tenantID, "run_id", session.RunID,
		"uploaded", session.Uploaded, "downloaded", session.Downloaded)

	return s.response(session, nil, "synchronization completed successfully"), nil
}

// uploadLeg pushes one change-set page per entity type. It returns a
// non-nil cap on the baseline advancement when any page was cut short.
func (s *Service) uploadLeg(ctx context.Context, tenantID int64, session *Session, types []entity.Type, baseline *time.Time) (*time.Time, error) {
	var capAt *time.Time

	for _, t := range types {
		store, ok := s.stores.For(t)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, t)
		}

		cs, err := s.selector.Select(ctx, tenantID, t, baseline, s.config.BatchSize)
		if err != nil {
			return nil, err
		}
		if len(cs.Records) == 0 {
			continue
		}

		// Assign cross-device identifiers before the records leave this
		// installation, so both sides store the same sync_id.
		for i := range cs.Records {
			if m := cs.Records[i].Meta(); m.SyncID == nil {
				id := uuid.NewString()
				m.SyncID = &id
			}
		}

		pushCtx, cancel := context.WithTimeout(ctx, s.config.RemoteTimeout)
		n, err := s.remote.Push(pushCtx, tenantID, t, cs.Records)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: push %s: %v", ErrRemoteUnavailable, t, err)
		}

		if err := store.MarkSynced(ctx, tenantID, cs.Records, s.now().UTC()); err != nil {
			return nil, fmt.Errorf("mark %s synced: %w", t, err)
		}
		session.Uploaded += n

		if cs.HasMore {
			// Rows past the page keep their eligibility: cap the new
			// baseline just below the last shipped record so ties at the
			// page boundary are still selected next run.
			last := cs.Records[len(cs.Records)-1].UpdatedAt().Add(-time.Microsecond)
			if capAt == nil || last.Before(*capAt) {
				capAt = &last
			}
		}
	}

	return capAt, nil
}

// downloadLeg pulls remote changes since the baseline and applies them,
// flagging a conflict instead of overwriting when both sides modified the
// same record after the baseline.
func (s *Service) downloadLeg(ctx context.Context, tenantID int64, session *Session, types []entity.Type, baseline *time.Time) ([]Conflict, error) {
	var conflicts []Conflict

	for _, t := range types {
		fetchCtx, cancel := context.WithTimeout(ctx, s.config.RemoteTimeout)
		records, err := s.remote.Fetch(fetchCtx, tenantID, t, baseline)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("%w: fetch %s: %v", ErrRemoteUnavailable, t, err)
		}

		store, ok := s.stores.For(t)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, t)
		}

		for _, remote := range records {
			if syncID := remote.SyncID(); syncID != "" {
				local, err := store.GetBySyncID(ctx, tenantID, syncID)
				if err != nil {
					return nil, fmt.Errorf("lookup %s %s: %w", t, syncID, err)
				}
				if local != nil && modifiedSince(*local, baseline) && modifiedSince(remote, baseline) {
					conflicts = append(conflicts, Conflict{
						EntityType: t,
						EntityID:   syncID,
						Local:      *local,
						Remote:     remote,
					})
					continue
				}
			}

			if _, _, err := s.upserter.Apply(ctx, tenantID, remote); err != nil {
				return nil, fmt.Errorf("apply remote %s: %w", t, err)
			}
			session.Downloaded++
		}
	}

	return conflicts, nil
}

// Upload applies one inbound batch. Processed counts records applied, not
// records changed: replaying an identical batch reports the batch size.
func (s *Service) Upload(ctx context.Context, tenantID int64, req UploadPayload) (*UploadResponse, error) {
	t, err := entity.ParseType(req.EntityType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, req.EntityType)
	}

	var processed int
	for i, item := range req.Items {
		if item.Type == "" {
			item.Type = t
		}
		if item.Type != t {
			return nil, fmt.Errorf("%w: item %d is %q, batch is %q", ErrUnknownEntityType, i, item.Type, t)
		}
		if _, _, err := s.upserter.Apply(ctx, tenantID, item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		processed++
	}

	return &UploadResponse{Processed: processed}, nil
}

// Changes serves the download query: one page of records changed since the
// given timestamp, including never-synced rows.
func (s *Service) Changes(ctx context.Context, tenantID int64, entityType string, since *time.Time, limit int) (*ChangesResponse, error) {
	t, err := entity.ParseType(entityType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, entityType)
	}
	if limit <= 0 || limit > s.config.BatchSize {
		limit = s.config.BatchSize
	}

	cs, err := s.selector.Select(ctx, tenantID, t, since, limit)
	if err != nil {
		return nil, err
	}

	return &ChangesResponse{
		EntityType: t,
		Records:    cs.Records,
		HasMore:    cs.HasMore,
		ServerTime: cs.WindowEnd,
	}, nil
}

// Status reports the last finished session and the per-entity-type pending
// counts, so callers can show "N unsynced changes" without running a sync.
func (s *Service) Status(ctx context.Context, tenantID int64) (*StatusResponse, error) {
	baseline, err := s.baselines.Baseline(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}

	last, err := s.sessions.LastFinished(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("last session: %w", err)
	}

	pending := make(map[string]int, len(s.stores))
	var total int
	for t, store := range s.stores {
		n, err := store.PendingCount(ctx, tenantID, baseline)
		if err != nil {
			return nil, fmt.Errorf("pending count %s: %w", t, err)
		}
		pending[string(t)] = n
		total += n
	}

	resp := &StatusResponse{
		TenantID:     tenantID,
		LastSyncAt:   baseline,
		Pending:      pending,
		PendingTotal: total,
		IsSynced:     total == 0,
	}
	if last != nil {
		resp.LastRunID = last.RunID
	}
	return resp, nil
}

// Logs returns the tenant's session history, most recent first.
func (s *Service) Logs(ctx context.Context, tenantID int64, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.sessions.ListSessions(ctx, tenantID, limit)
}

// fail finalizes the session as failed with the error message and returns
// the error so it is never silently swallowed.
func (s *Service) fail(ctx context.Context, session *Session, cause error) error {
	session.Status = StatusFailed
	if err := s.finalize(ctx, session, cause.Error()); err != nil {
		s.log.Error("finalize failed session",
			"run_id", session.RunID, "error", err, "cause", cause)
	}
	return cause
}

func (s *Service) finalize(ctx context.Context, session *Session, errMsg string) error {
	done := s.now().UTC()
	session.CompletedAt = &done
	session.ErrorMessage = errMsg
	if err := s.sessions.FinalizeSession(ctx, session); err != nil {
		return fmt.Errorf("finalize session %s: %w", session.RunID, err)
	}
	return nil
}

func (s *Service) response(session *Session, unresolved []Conflict, msg string) *SyncResponse {
	return &SyncResponse{
		RunID:      session.RunID,
		Status:     session.Status,
		Uploaded:   session.Uploaded,
		Downloaded: session.Downloaded,
		Conflicts:  session.Conflicts,
		Unresolved: unresolved,
		Message:    msg,
	}
}

func parseEntityTypes(raw []string) ([]entity.Type, error) {
	if len(raw) == 0 {
		return entity.AllTypes(), nil
	}
	types := make([]entity.Type, 0, len(raw))
	for _, s := range raw {
		t, err := entity.ParseType(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, s)
		}
		types = append(types, t)
	}
	return types, nil
}

// dropResolved removes from detected every conflict whose resolution was
// applied in this run, matched by entity type and sync_id.
func dropResolved(detected, resolved []Conflict) []Conflict {
	type key struct {
		t  entity.Type
		id string
	}
	done := make(map[key]struct{}, len(resolved))
	for _, c := range resolved {
		if c.Resolved {
			done[key{c.EntityType, c.EntityID}] = struct{}{}
		}
	}

	kept := detected[:0]
	for _, c := range detected {
		if _, ok := done[key{c.EntityType, c.EntityID}]; !ok {
			kept = append(kept, c)
		}
	}
	return kept
}

func modifiedSince(rec entity.Record, baseline *time.Time) bool {
	if baseline == nil {
		return !rec.UpdatedAt().IsZero()
	}
	return rec.UpdatedAt().After(*baseline)
}
