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

const productColumns = `
	id, sync_id, updated_at, last_sync_at, name, description, barcode, sku,
	quantity, min_quantity, purchase_price, selling_price, expiry_date,
	is_active, is_prescription_required`

type ProductStore struct {
	pool dbPool
	log  *slog.Logger
}

func NewProductStore(pool *pgxpool.Pool, log *slog.Logger) *ProductStore {
	return &ProductStore{
		pool: pool,
		log:  log.With("component", "product_store"),
	}
}

func (s *ProductStore) Type() entity.Type { return entity.TypeProducts }

func (s *ProductStore) SelectChanged(ctx context.Context, tenantID int64, baseline *time.Time, windowEnd time.Time, limit int) ([]entity.Record, error) {
	const query = `
		SELECT ` + productColumns + `
		FROM products
		WHERE pharmacy_id = $1
		  AND (last_sync_at IS NULL OR ($2::timestamptz IS NOT NULL AND updated_at > $2))
		  AND updated_at <= $3
		ORDER BY updated_at
		LIMIT $4`

	rows, err := s.pool.Query(ctx, query, tenantID, baseline, windowEnd, limit)
	if err != nil {
		s.log.Error("failed to select changed products", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("select changed products: %w", err)
	}
	defer rows.Close()

	var records []entity.Record
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, entity.Record{Type: entity.TypeProducts, Product: p})
	}
	return records, rows.Err()
}

func (s *ProductStore) Upsert(ctx context.Context, tenantID int64, rec entity.Record) (entity.Record, bool, error) {
	p := rec.Product

	id, err := matchRow(ctx, s.pool, "products", tenantID, p.SyncMeta)
	if err != nil {
		return entity.Record{}, false, err
	}

	var row pgx.Row
	created := id == 0
	if created {
		const query = `
			INSERT INTO products
				(pharmacy_id, sync_id, name, description, barcode, sku, quantity,
				 min_quantity, purchase_price, selling_price, expiry_date, is_active,
				 is_prescription_required, updated_at, last_sync_at)
			VALUES ($1, COALESCE($2, gen_random_uuid()::text), $3, $4, $5, $6, $7,
			        $8, $9, $10, $11, COALESCE($12, true), COALESCE($13, false),
			        COALESCE($14, now()), now())
			RETURNING ` + productColumns

		row = s.pool.QueryRow(ctx, query,
			tenantID, p.SyncID, p.Name, p.Description, p.Barcode, p.SKU,
			p.Quantity, p.MinQuantity, p.PurchasePrice, p.SellingPrice,
			p.ExpiryDate, p.IsActive, p.IsPrescriptionRequired, tsPtr(p.UpdatedAt),
		)
	} else {
		// Supplied fields overwrite, absent ones survive; a stored sync_id
		// is never replaced.
		const query = `
			UPDATE products SET
				sync_id = COALESCE(sync_id, $3),
				name = COALESCE($4, name),
				description = COALESCE($5, description),
				barcode = COALESCE($6, barcode),
				sku = COALESCE($7, sku),
				quantity = COALESCE($8, quantity),
				min_quantity = COALESCE($9, min_quantity),
				purchase_price = COALESCE($10, purchase_price),
				selling_price = COALESCE($11, selling_price),
				expiry_date = COALESCE($12, expiry_date),
				is_active = COALESCE($13, is_active),
				is_prescription_required = COALESCE($14, is_prescription_required),
				updated_at = COALESCE($15, updated_at),
				last_sync_at = now()
			WHERE pharmacy_id = $1 AND id = $2
			RETURNING ` + productColumns

		row = s.pool.QueryRow(ctx, query,
			tenantID, id, p.SyncID, p.Name, p.Description, p.Barcode, p.SKU,
			p.Quantity, p.MinQuantity, p.PurchasePrice, p.SellingPrice,
			p.ExpiryDate, p.IsActive, p.IsPrescriptionRequired, tsPtr(p.UpdatedAt),
		)
	}

	stored, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.Record{}, false, sync.ErrDuplicateSyncID
		}
		s.log.Error("failed to upsert product",
			"tenant_id", tenantID, "local_id", p.LocalID, "error", err)
		return entity.Record{}, false, fmt.Errorf("upsert product: %w", err)
	}

	return entity.Record{Type: entity.TypeProducts, Product: stored}, created, nil
}

func (s *ProductStore) GetBySyncID(ctx context.Context, tenantID int64, syncID string) (*entity.Record, error) {
	const query = `
		SELECT ` + productColumns + `
		FROM products
		WHERE pharmacy_id = $1 AND sync_id = $2`

	p, err := scanProduct(s.pool.QueryRow(ctx, query, tenantID, syncID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by sync_id: %w", err)
	}
	return &entity.Record{Type: entity.TypeProducts, Product: p}, nil
}

func (s *ProductStore) MarkSynced(ctx context.Context, tenantID int64, records []entity.Record, at time.Time) error {
	return markSynced(ctx, s.pool, "products", tenantID, records, at)
}

func (s *ProductStore) PendingCount(ctx context.Context, tenantID int64, baseline *time.Time) (int, error) {
	return pendingCount(ctx, s.pool, "products", tenantID, baseline)
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.LocalID, &p.SyncID, &p.UpdatedAt, &p.LastSyncAt, &p.Name,
		&p.Description, &p.Barcode, &p.SKU, &p.Quantity, &p.MinQuantity,
		&p.PurchasePrice, &p.SellingPrice, &p.ExpiryDate, &p.IsActive,
		&p.IsPrescriptionRequired,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
