package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pharmsync/internal/domain/entity"
	"pharmsync/internal/domain/sync"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the matching
// and scanning helpers work inside and outside transactions.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// matchRow resolves an inbound record to an existing row: by sync_id first
// (globally, so a sync_id owned by another tenant is caught here), then by
// the per-installation id. Zero means no match: insert.
func matchRow(ctx context.Context, q querier, table string, tenantID int64, meta entity.SyncMeta) (int64, error) {
	if meta.SyncID != nil {
		var id, owner int64
		err := q.QueryRow(ctx,
			`SELECT id, pharmacy_id FROM `+table+` WHERE sync_id = $1`,
			*meta.SyncID,
		).Scan(&id, &owner)
		switch {
		case err == nil:
			if owner != tenantID {
				return 0, sync.ErrDuplicateSyncID
			}
			return id, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return 0, fmt.Errorf("match %s by sync_id: %w", table, err)
		}
	}

	if meta.LocalID != 0 {
		var id int64
		err := q.QueryRow(ctx,
			`SELECT id FROM `+table+` WHERE pharmacy_id = $1 AND id = $2`,
			tenantID, meta.LocalID,
		).Scan(&id)
		switch {
		case err == nil:
			return id, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return 0, fmt.Errorf("match %s by id: %w", table, err)
		}
	}

	return 0, nil
}

// markSynced stamps the upload bookkeeping on a set of rows in one batch.
func markSynced(ctx context.Context, pool batchSender, table string, tenantID int64, records []entity.Record, at time.Time) error {
	b := &pgx.Batch{}
	for _, rec := range records {
		m := rec.Meta()
		if m == nil {
			continue
		}
		b.Queue(
			`UPDATE `+table+` SET last_sync_at = $3, sync_id = COALESCE(sync_id, $4)
			 WHERE pharmacy_id = $1 AND id = $2`,
			tenantID, m.LocalID, at, m.SyncID,
		)
	}

	br := pool.SendBatch(ctx, b)
	defer br.Close()
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("mark %s synced: %w", table, err)
		}
	}
	return nil
}

type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// dbPool is the subset of *pgxpool.Pool the entity stores depend on.
type dbPool interface {
	querier
	batchSender
	Begin(ctx context.Context) (pgx.Tx, error)
}

// pendingCount counts rows eligible for the next change set.
func pendingCount(ctx context.Context, q querier, table string, tenantID int64, baseline *time.Time) (int, error) {
	query := `
		SELECT count(*) FROM ` + table + `
		WHERE pharmacy_id = $1
		  AND (last_sync_at IS NULL OR ($2::timestamptz IS NOT NULL AND updated_at > $2))`

	var n int
	if err := q.QueryRow(ctx, query, tenantID, baseline).Scan(&n); err != nil {
		return 0, fmt.Errorf("pending count %s: %w", table, err)
	}
	return n, nil
}
