package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/sync"
)

// SyncRepository persists the append-only session log and owns the tenant
// baseline compare-and-swap.
type SyncRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewSyncRepository(pool *pgxpool.Pool, log *slog.Logger) *SyncRepository {
	return &SyncRepository{
		pool: pool,
		log:  log.With("component", "sync_repository"),
	}
}

func (r *SyncRepository) CreateSession(ctx context.Context, s *sync.Session) error {
	const query = `
		INSERT INTO sync_sessions
			(run_id, pharmacy_id, direction, status, records_uploaded,
			 records_downloaded, conflicts_count, started_at)
		VALUES ($1, $2, $3, $4, 0, 0, 0, $5)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		s.RunID, s.TenantID, s.Direction, s.Status, s.StartedAt,
	).Scan(&s.ID)
	if err != nil {
		r.log.Error("failed to create session",
			"run_id", s.RunID, "tenant_id", s.TenantID, "error", err)
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FinalizeSession writes the terminal state. The status filter keeps the
// log append-only: a row already in a terminal state is never touched.
func (r *SyncRepository) FinalizeSession(ctx context.Context, s *sync.Session) error {
	const query = `
		UPDATE sync_sessions
		SET status = $2, records_uploaded = $3, records_downloaded = $4,
		    conflicts_count = $5, error_message = NULLIF($6, ''), completed_at = $7
		WHERE run_id = $1 AND status IN ('pending', 'in_progress')`

	tag, err := r.pool.Exec(ctx, query,
		s.RunID, s.Status, s.Uploaded, s.Downloaded, s.Conflicts,
		s.ErrorMessage, s.CompletedAt,
	)
	if err != nil {
		r.log.Error("failed to finalize session", "run_id", s.RunID, "error", err)
		return fmt.Errorf("finalize session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sync.ErrSessionFinalized
	}
	return nil
}

func (r *SyncRepository) ListSessions(ctx context.Context, tenantID int64, limit int) ([]sync.Session, error) {
	const query = `
		SELECT id, run_id, pharmacy_id, direction, status, records_uploaded,
		       records_downloaded, conflicts_count, COALESCE(error_message, ''),
		       started_at, completed_at
		FROM sync_sessions
		WHERE pharmacy_id = $1
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		r.log.Error("failed to list sessions", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []sync.Session
	for rows.Next() {
		var s sync.Session
		if err := rows.Scan(
			&s.ID, &s.RunID, &s.TenantID, &s.Direction, &s.Status,
			&s.Uploaded, &s.Downloaded, &s.Conflicts, &s.ErrorMessage,
			&s.StartedAt, &s.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *SyncRepository) LastFinished(ctx context.Context, tenantID int64) (*sync.Session, error) {
	const query = `
		SELECT id, run_id, pharmacy_id, direction, status, records_uploaded,
		       records_downloaded, conflicts_count, COALESCE(error_message, ''),
		       started_at, completed_at
		FROM sync_sessions
		WHERE pharmacy_id = $1 AND status IN ('completed', 'conflict')
		ORDER BY completed_at DESC
		LIMIT 1`

	var s sync.Session
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(
		&s.ID, &s.RunID, &s.TenantID, &s.Direction, &s.Status,
		&s.Uploaded, &s.Downloaded, &s.Conflicts, &s.ErrorMessage,
		&s.StartedAt, &s.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last finished session: %w", err)
	}
	return &s, nil
}

func (r *SyncRepository) Baseline(ctx context.Context, tenantID int64) (*time.Time, error) {
	const query = `SELECT last_sync_at FROM pharmacies WHERE id = $1`

	var baseline *time.Time
	if err := r.pool.QueryRow(ctx, query, tenantID).Scan(&baseline); err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	return baseline, nil
}

// AdvanceBaseline is the single compare-and-swap of the engine: the update
// only lands when the stored baseline still equals the value read at the
// start of the run. Zero rows affected means a concurrent run won.
func (r *SyncRepository) AdvanceBaseline(ctx context.Context, tenantID int64, expected *time.Time, next time.Time) error {
	const query = `
		UPDATE pharmacies
		SET last_sync_at = $2
		WHERE id = $1 AND last_sync_at IS NOT DISTINCT FROM $3`

	tag, err := r.pool.Exec(ctx, query, tenantID, next, expected)
	if err != nil {
		r.log.Error("failed to advance baseline", "tenant_id", tenantID, "error", err)
		return fmt.Errorf("advance baseline: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sync.ErrBaselineMoved
	}
	return nil
}
