package sync

import (
	"context"
	"time"

	"pharmsync/internal/domain/entity"
)

// SessionRepository is the append-only audit log of sync runs.
type SessionRepository interface {
	// CreateSession persists a new in_progress session row.
	CreateSession(ctx context.Context, s *Session) error

	// FinalizeSession moves a session to a terminal state. Implementations
	// must refuse to touch rows that are already terminal.
	FinalizeSession(ctx context.Context, s *Session) error

	// ListSessions returns a tenant's sessions, most recent first.
	ListSessions(ctx context.Context, tenantID int64, limit int) ([]Session, error)

	// LastFinished returns the most recent completed or conflict session,
	// nil when the tenant never synced.
	LastFinished(ctx context.Context, tenantID int64) (*Session, error)
}

// BaselineRepository owns the tenant's "synced up to" watermark.
type BaselineRepository interface {
	// Baseline returns the tenant's baseline, nil when it never synced.
	Baseline(ctx context.Context, tenantID int64) (*time.Time, error)

	// AdvanceBaseline sets the baseline to next only if the stored value
	// still equals expected (compare-and-swap). Returns ErrBaselineMoved
	// when another run advanced it first.
	AdvanceBaseline(ctx context.Context, tenantID int64, expected *time.Time, next time.Time) error
}

// EntityStore is what each entity type must expose to the engine: change
// selection, an idempotent upsert, sync_id lookup and a pending count. The
// engine implements no entity business rules itself.
type EntityStore interface {
	Type() entity.Type

	// SelectChanged returns up to limit records with
	// last_sync_at IS NULL OR updated_at > baseline, restricted to
	// updated_at <= windowEnd, ordered by updated_at ascending. A nil
	// baseline selects only never-synced rows.
	SelectChanged(ctx context.Context, tenantID int64, baseline *time.Time, windowEnd time.Time, limit int) ([]entity.Record, error)

	// Upsert applies one inbound record: match by sync_id, then local id,
	// else insert. Supplied fields overwrite, absent fields survive, child
	// collections are replaced wholesale. Stamps last_sync_at and assigns
	// a sync_id on insert when none was supplied. Returns the stored
	// record and whether a row was created.
	Upsert(ctx context.Context, tenantID int64, rec entity.Record) (entity.Record, bool, error)

	// GetBySyncID returns the tenant's record with the given sync_id, or
	// nil when it does not exist.
	GetBySyncID(ctx context.Context, tenantID int64, syncID string) (*entity.Record, error)

	// MarkSynced stamps last_sync_at on the given rows after a successful
	// upload and persists sync_ids the coordinator assigned before the
	// push. A stored sync_id is never overwritten.
	MarkSynced(ctx context.Context, tenantID int64, records []entity.Record, at time.Time) error

	// PendingCount counts rows that would appear in the next change set.
	PendingCount(ctx context.Context, tenantID int64, baseline *time.Time) (int, error)
}

// Stores maps every known entity type to its store.
type Stores map[entity.Type]EntityStore

// For returns the store for t.
func (s Stores) For(t entity.Type) (EntityStore, bool) {
	st, ok := s[t]
	return st, ok
}

// RemoteFetcher is the engine's view of the central store. Fetch pulls
// records changed since a timestamp; Push ships a local change set. Both
// carry the caller's deadline.
type RemoteFetcher interface {
	Fetch(ctx context.Context, tenantID int64, t entity.Type, since *time.Time) ([]entity.Record, error)
	Push(ctx context.Context, tenantID int64, t entity.Type, records []entity.Record) (int, error)
}
