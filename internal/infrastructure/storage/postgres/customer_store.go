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

const customerColumns = `
	id, sync_id, updated_at, last_sync_at, first_name, last_name, email, phone,
	address, city, date_of_birth, allergies, medical_notes, is_active`

type CustomerStore struct {
	pool dbPool
	log  *slog.Logger
}

func NewCustomerStore(pool *pgxpool.Pool, log *slog.Logger) *CustomerStore {
	return &CustomerStore{
		pool: pool,
		log:  log.With("component", "customer_store"),
	}
}

func (s *CustomerStore) Type() entity.Type { return entity.TypeCustomers }

func (s *CustomerStore) SelectChanged(ctx context.Context, tenantID int64, baseline *time.Time, windowEnd time.Time, limit int) ([]entity.Record, error) {
	const query = `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE pharmacy_id = $1
		  AND (last_sync_at IS NULL OR ($2::timestamptz IS NOT NULL AND updated_at > $2))
		  AND updated_at <= $3
		ORDER BY updated_at
		LIMIT $4`

	rows, err := s.pool.Query(ctx, query, tenantID, baseline, windowEnd, limit)
	if err != nil {
		s.log.Error("failed to select changed customers", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("select changed customers: %w", err)
	}
	defer rows.Close()

	var records []entity.Record
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, entity.Record{Type: entity.TypeCustomers, Customer: c})
	}
	return records, rows.Err()
}

func (s *CustomerStore) Upsert(ctx context.Context, tenantID int64, rec entity.Record) (entity.Record, bool, error) {
	c := rec.Customer

	id, err := matchRow(ctx, s.pool, "customers", tenantID, c.SyncMeta)
	if err != nil {
		return entity.Record{}, false, err
	}

	var row pgx.Row
	created := id == 0
	if created {
		const query = `
			INSERT INTO customers
				(pharmacy_id, sync_id, first_name, last_name, email, phone, address,
				 city, date_of_birth, allergies, medical_notes, is_active,
				 updated_at, last_sync_at)
			VALUES ($1, COALESCE($2, gen_random_uuid()::text), $3, $4, $5, $6, $7,
			        $8, $9, $10, $11, COALESCE($12, true), COALESCE($13, now()), now())
			RETURNING ` + customerColumns

		row = s.pool.QueryRow(ctx, query,
			tenantID, c.SyncID, c.FirstName, c.LastName, c.Email, c.Phone,
			c.Address, c.City, c.DateOfBirth, c.Allergies, c.MedicalNotes,
			c.IsActive, tsPtr(c.UpdatedAt),
		)
	} else {
		const query = `
			UPDATE customers SET
				sync_id = COALESCE(sync_id, $3),
				first_name = COALESCE($4, first_name),
				last_name = COALESCE($5, last_name),
				email = COALESCE($6, email),
				phone = COALESCE($7, phone),
				address = COALESCE($8, address),
				city = COALESCE($9, city),
				date_of_birth = COALESCE($10, date_of_birth),
				allergies = COALESCE($11, allergies),
				medical_notes = COALESCE($12, medical_notes),
				is_active = COALESCE($13, is_active),
				updated_at = COALESCE($14, updated_at),
				last_sync_at = now()
			WHERE pharmacy_id = $1 AND id = $2
			RETURNING ` + customerColumns

		row = s.pool.QueryRow(ctx, query,
			tenantID, id, c.SyncID, c.FirstName, c.LastName, c.Email, c.Phone,
			c.Address, c.City, c.DateOfBirth, c.Allergies, c.MedicalNotes,
			c.IsActive, tsPtr(c.UpdatedAt),
		)
	}

	stored, err := scanCustomer(row)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.Record{}, false, sync.ErrDuplicateSyncID
		}
		s.log.Error("failed to upsert customer",
			"tenant_id", tenantID, "local_id", c.LocalID, "error", err)
		return entity.Record{}, false, fmt.Errorf("upsert customer: %w", err)
	}

	return entity.Record{Type: entity.TypeCustomers, Customer: stored}, created, nil
}

func (s *CustomerStore) GetBySyncID(ctx context.Context, tenantID int64, syncID string) (*entity.Record, error) {
	const query = `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE pharmacy_id = $1 AND sync_id = $2`

	c, err := scanCustomer(s.pool.QueryRow(ctx, query, tenantID, syncID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer by sync_id: %w", err)
	}
	return &entity.Record{Type: entity.TypeCustomers, Customer: c}, nil
}

func (s *CustomerStore) MarkSynced(ctx context.Context, tenantID int64, records []entity.Record, at time.Time) error {
	return markSynced(ctx, s.pool, "customers", tenantID, records, at)
}

func (s *CustomerStore) PendingCount(ctx context.Context, tenantID int64, baseline *time.Time) (int, error) {
	return pendingCount(ctx, s.pool, "customers", tenantID, baseline)
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	err := row.Scan(
		&c.LocalID, &c.SyncID, &c.UpdatedAt, &c.LastSyncAt, &c.FirstName,
		&c.LastName, &c.Email, &c.Phone, &c.Address, &c.City, &c.DateOfBirth,
		&c.Allergies, &c.MedicalNotes, &c.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
