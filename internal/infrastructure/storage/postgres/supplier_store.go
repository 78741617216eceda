package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
	"pharmsync/internal/domain/sync"
)

const supplierColumns = `
	id, sync_id, updated_at, last_sync_at, name, contact_name, phone, email,
	address, tax_id, is_active`

type SupplierStore struct {
	pool dbPool
	log  *slog.Logger
}

func NewSupplierStore(pool *pgxpool.Pool, log *slog.Logger) *SupplierStore {
	return &SupplierStore{
		pool: pool,
		log:  log.With("component", "supplier_store"),
	}
}

func (s *SupplierStore) Type() entity.Type { return entity.TypeSuppliers }

func (s *SupplierStore) SelectChanged(ctx context.Context, tenantID int64, baseline *time.Time, windowEnd time.Time, limit int) ([]entity.Record, error) {
	const query = `
		SELECT ` + supplierColumns + `
		FROM suppliers
		WHERE pharmacy_id = $1
		  AND (last_sync_at IS NULL OR ($2::timestamptz IS NOT NULL AND updated_at > $2))
		  AND updated_at <= $3
		ORDER BY updated_at
		LIMIT $4`

	rows, err := s.pool.Query(ctx, query, tenantID, baseline, windowEnd, limit)
	if err != nil {
		s.log.Error("failed to select changed suppliers", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("select changed suppliers: %w", err)
	}
	defer rows.Close()

	var records []entity.Record
	for rows.Next() {
		sp, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, entity.Record{Type: entity.TypeSuppliers, Supplier: sp})
	}
	return records, rows.Err()
}

func (s *SupplierStore) Upsert(ctx context.Context, tenantID int64, rec entity.Record) (entity.Record, bool, error) {
	sp := rec.Supplier

	id, err := matchRow(ctx, s.pool, "suppliers", tenantID, sp.SyncMeta)
	if err != nil {
		return entity.Record{}, false, err
	}

	var row pgx.Row
	created := id == 0
	if created {
		const query = `
			INSERT INTO suppliers
				(pharmacy_id, sync_id, name, contact_name, phone, email, address,
				 tax_id, is_active, updated_at, last_sync_at)
			VALUES ($1, COALESCE($2, gen_random_uuid()::text), $3, $4, $5, $6, $7,
			        $8, COALESCE($9, true), COALESCE($10, now()), now())
			RETURNING ` + supplierColumns

		row = s.pool.QueryRow(ctx, query,
			tenantID, sp.SyncID, sp.Name, sp.ContactName, sp.Phone, sp.Email,
			sp.Address, sp.TaxID, sp.IsActive, tsPtr(sp.UpdatedAt),
		)
	} else {
		const query = `
			UPDATE suppliers SET
				sync_id = COALESCE(sync_id, $3),
				name = COALESCE($4, name),
				contact_name = COALESCE($5, contact_name),
				phone = COALESCE($6, phone),
				email = COALESCE($7, email),
				address = COALESCE($8, address),
				tax_id = COALESCE($9, tax_id),
				is_active = COALESCE($10, is_active),
				updated_at = COALESCE($11, updated_at),
				last_sync_at = now()
			WHERE pharmacy_id = $1 AND id = $2
			RETURNING ` + supplierColumns

		row = s.pool.QueryRow(ctx, query,
			tenantID, id, sp.SyncID, sp.Name, sp.ContactName, sp.Phone,
			sp.Email, sp.Address, sp.TaxID, sp.IsActive, tsPtr(sp.UpdatedAt),
		)
	}

	stored, err := scanSupplier(row)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.Record{}, false, sync.ErrDuplicateSyncID
		}
		s.log.Error("failed to upsert supplier",
			"tenant_id", tenantID, "local_id", sp.LocalID, "error", err)
		return entity.Record{}, false, fmt.Errorf("upsert supplier: %w", err)
	}

	return entity.Record{Type: entity.TypeSuppliers, Supplier: stored}, created, nil
}

func (s *SupplierStore) GetBySyncID(ctx context.Context, tenantID int64, syncID string) (*entity.Record, error) {
	const query = `
		SELECT ` + supplierColumns + `
		FROM suppliers
		WHERE pharmacy_id = $1 AND sync_id = $2`

	sp, err := scanSupplier(s.pool.QueryRow(ctx, query, tenantID, syncID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier by sync_id: %w", err)
	}
	return &entity.Record{Type: entity.TypeSuppliers, Supplier: sp}, nil
}

func (s *SupplierStore) MarkSynced(ctx context.Context, tenantID int64, records []entity.Record, at time.Time) error {
	return markSynced(ctx, s.pool, "suppliers", tenantID, records, at)
}

func (s *SupplierStore) PendingCount(ctx context.Context, tenantID int64, baseline *time.Time) (int, error) {
	return pendingCount(ctx, s.pool, "suppliers", tenantID, baseline)
}

func scanSupplier(row pgx.Row) (*entity.Supplier, error) {
	var sp entity.Supplier
	err := row.Scan(
		&sp.LocalID, &sp.SyncID, &sp.UpdatedAt, &sp.LastSyncAt, &sp.Name,
		&sp.ContactName, &sp.Phone, &sp.Email, &sp.Address, &sp.TaxID,
		&sp.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}
