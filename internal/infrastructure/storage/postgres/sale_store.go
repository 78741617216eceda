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

const saleColumns = `
	id, sync_id, updated_at, last_sync_at, sale_number, customer_id,
	total_amount, discount, tax, final_amount, payment_method, status, notes`

// SaleStore mirrors OrderStore: line items are replaced wholesale when the
// inbound record carries a non-nil Items slice.
type SaleStore struct {
	pool dbPool
	log  *slog.Logger
}

func NewSaleStore(pool *pgxpool.Pool, log *slog.Logger) *SaleStore {
	return &SaleStore{
		pool: pool,
		log:  log.With("component", "sale_store"),
	}
}

func (s *SaleStore) Type() entity.Type { return entity.TypeSales }

func (s *SaleStore) SelectChanged(ctx context.Context, tenantID int64, baseline *time.Time, windowEnd time.Time, limit int) ([]entity.Record, error) {
	const query = `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE pharmacy_id = $1
		  AND (last_sync_at IS NULL OR ($2::timestamptz IS NOT NULL AND updated_at > $2))
		  AND updated_at <= $3
		ORDER BY updated_at
		LIMIT $4`

	rows, err := s.pool.Query(ctx, query, tenantID, baseline, windowEnd, limit)
	if err != nil {
		s.log.Error("failed to select changed sales", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("select changed sales: %w", err)
	}

	var sales []*entity.Sale
	var ids []int64
	for rows.Next() {
		sl, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sales = append(sales, sl)
		ids = append(ids, sl.LocalID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadItems(ctx, sales, ids); err != nil {
		return nil, err
	}

	records := make([]entity.Record, 0, len(sales))
	for _, sl := range sales {
		records = append(records, entity.Record{Type: entity.TypeSales, Sale: sl})
	}
	return records, nil
}

func (s *SaleStore) loadItems(ctx context.Context, sales []*entity.Sale, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	const query = `
		SELECT sale_id, product_id, quantity, unit_price, discount, total
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load sale items: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*entity.Sale, len(sales))
	for _, sl := range sales {
		byID[sl.LocalID] = sl
	}
	for rows.Next() {
		var saleID int64
		var it entity.SaleItem
		if err := rows.Scan(&saleID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Discount, &it.Total); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		if sl := byID[saleID]; sl != nil {
			sl.Items = append(sl.Items, it)
		}
	}
	return rows.Err()
}

func (s *SaleStore) Upsert(ctx context.Context, tenantID int64, rec entity.Record) (entity.Record, bool, error) {
	sl := rec.Sale

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return entity.Record{}, false, fmt.Errorf("begin sale upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	id, err := matchRow(ctx, tx, "sales", tenantID, sl.SyncMeta)
	if err != nil {
		return entity.Record{}, false, err
	}

	var row pgx.Row
	created := id == 0
	if created {
		const query = `
			INSERT INTO sales
				(pharmacy_id, sync_id, sale_number, customer_id, total_amount,
				 discount, tax, final_amount, payment_method, status, notes,
				 updated_at, last_sync_at)
			VALUES ($1, COALESCE($2, gen_random_uuid()::text), $3, $4, $5,
			        COALESCE($6, 0), COALESCE($7, 0), $8, $9,
			        COALESCE($10, 'completed'), $11, COALESCE($12, now()), now())
			RETURNING ` + saleColumns

		row = tx.QueryRow(ctx, query,
			tenantID, sl.SyncID, sl.SaleNumber, sl.CustomerID, sl.TotalAmount,
			sl.Discount, sl.Tax, sl.FinalAmount, sl.PaymentMethod, sl.Status,
			sl.Notes, tsPtr(sl.UpdatedAt),
		)
	} else {
		const query = `
			UPDATE sales SET
				sync_id = COALESCE(sync_id, $3),
				sale_number = COALESCE($4, sale_number),
				customer_id = COALESCE($5, customer_id),
				total_amount = COALESCE($6, total_amount),
				discount = COALESCE($7, discount),
				tax = COALESCE($8, tax),
				final_amount = COALESCE($9, final_amount),
				payment_method = COALESCE($10, payment_method),
				status = COALESCE($11, status),
				notes = COALESCE($12, notes),
				updated_at = COALESCE($13, updated_at),
				last_sync_at = now()
			WHERE pharmacy_id = $1 AND id = $2
			RETURNING ` + saleColumns

		row = tx.QueryRow(ctx, query,
			tenantID, id, sl.SyncID, sl.SaleNumber, sl.CustomerID,
			sl.TotalAmount, sl.Discount, sl.Tax, sl.FinalAmount,
			sl.PaymentMethod, sl.Status, sl.Notes, tsPtr(sl.UpdatedAt),
		)
	}

	stored, err := scanSale(row)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.Record{}, false, sync.ErrDuplicateSyncID
		}
		s.log.Error("failed to upsert sale",
			"tenant_id", tenantID, "local_id", sl.LocalID, "error", err)
		return entity.Record{}, false, fmt.Errorf("upsert sale: %w", err)
	}

	if sl.Items != nil {
		if _, err := tx.Exec(ctx,
			`DELETE FROM sale_items WHERE sale_id = $1`, stored.LocalID,
		); err != nil {
			return entity.Record{}, false, fmt.Errorf("replace sale items: %w", err)
		}
		for _, it := range sl.Items {
			if _, err := tx.Exec(ctx,
				`INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, discount, total)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				stored.LocalID, it.ProductID, it.Quantity, it.UnitPrice, it.Discount, it.Total,
			); err != nil {
				return entity.Record{}, false, fmt.Errorf("insert sale item: %w", err)
			}
		}
		stored.Items = sl.Items
	} else if err := s.loadItemsOne(ctx, tx, stored); err != nil {
		return entity.Record{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return entity.Record{}, false, fmt.Errorf("commit sale upsert: %w", err)
	}
	return entity.Record{Type: entity.TypeSales, Sale: stored}, created, nil
}

func (s *SaleStore) loadItemsOne(ctx context.Context, q querier, sl *entity.Sale) error {
	rows, err := q.Query(ctx,
		`SELECT product_id, quantity, unit_price, discount, total
		 FROM sale_items WHERE sale_id = $1 ORDER BY id`, sl.LocalID)
	if err != nil {
		return fmt.Errorf("load sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.UnitPrice, &it.Discount, &it.Total); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		sl.Items = append(sl.Items, it)
	}
	return rows.Err()
}

func (s *SaleStore) GetBySyncID(ctx context.Context, tenantID int64, syncID string) (*entity.Record, error) {
	const query = `
		SELECT ` + saleColumns + `
		FROM sales
		WHERE pharmacy_id = $1 AND sync_id = $2`

	sl, err := scanSale(s.pool.QueryRow(ctx, query, tenantID, syncID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale by sync_id: %w", err)
	}
	if err := s.loadItemsOne(ctx, s.pool, sl); err != nil {
		return nil, err
	}
	return &entity.Record{Type: entity.TypeSales, Sale: sl}, nil
}

func (s *SaleStore) MarkSynced(ctx context.Context, tenantID int64, records []entity.Record, at time.Time) error {
	return markSynced(ctx, s.pool, "sales", tenantID, records, at)
}

func (s *SaleStore) PendingCount(ctx context.Context, tenantID int64, baseline *time.Time) (int, error) {
	return pendingCount(ctx, s.pool, "sales", tenantID, baseline)
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var sl entity.Sale
	err := row.Scan(
		&sl.LocalID, &sl.SyncID, &sl.UpdatedAt, &sl.LastSyncAt, &sl.SaleNumber,
		&sl.CustomerID, &sl.TotalAmount, &sl.Discount, &sl.Tax, &sl.FinalAmount,
		&sl.PaymentMethod, &sl.Status, &sl.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &sl, nil
}
