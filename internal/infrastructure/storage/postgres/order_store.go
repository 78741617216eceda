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

const orderColumns = `
	id, sync_id, updated_at, last_sync_at, supplier_id, expected_delivery_date,
	status, notes, tax, shipping_cost, total_amount`

// OrderStore handles supplier orders together with their line items. Items
// travel inside the order record and carry no identity of their own, so a
// write that includes them replaces the stored set inside one transaction.
type OrderStore struct {
	pool dbPool
	log  *slog.Logger
}

func NewOrderStore(pool *pgxpool.Pool, log *slog.Logger) *OrderStore {
	return &OrderStore{
		pool: pool,
		log:  log.With("component", "order_store"),
	}
}

func (s *OrderStore) Type() entity.Type { return entity.TypeOrders }

func (s *OrderStore) SelectChanged(ctx context.Context, tenantID int64, baseline *time.Time, windowEnd time.Time, limit int) ([]entity.Record, error) {
	const query = `
		SELECT ` + orderColumns + `
		FROM supplier_orders
		WHERE pharmacy_id = $1
		  AND (last_sync_at IS NULL OR ($2::timestamptz IS NOT NULL AND updated_at > $2))
		  AND updated_at <= $3
		ORDER BY updated_at
		LIMIT $4`

	rows, err := s.pool.Query(ctx, query, tenantID, baseline, windowEnd, limit)
	if err != nil {
		s.log.Error("failed to select changed orders", "tenant_id", tenantID, "error", err)
		return nil, fmt.Errorf("select changed orders: %w", err)
	}

	var orders []*entity.Order
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.LocalID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadItems(ctx, orders, ids); err != nil {
		return nil, err
	}

	records := make([]entity.Record, 0, len(orders))
	for _, o := range orders {
		records = append(records, entity.Record{Type: entity.TypeOrders, Order: o})
	}
	return records, nil
}

func (s *OrderStore) loadItems(ctx context.Context, orders []*entity.Order, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	const query = `
		SELECT order_id, product_id, quantity, unit_price, total
		FROM supplier_order_items
		WHERE order_id = ANY($1)
		ORDER BY id`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*entity.Order, len(orders))
	for _, o := range orders {
		byID[o.LocalID] = o
	}
	for rows.Next() {
		var orderID int64
		var it entity.OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Total); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o := byID[orderID]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (s *OrderStore) Upsert(ctx context.Context, tenantID int64, rec entity.Record) (entity.Record, bool, error) {
	o := rec.Order

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return entity.Record{}, false, fmt.Errorf("begin order upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	id, err := matchRow(ctx, tx, "supplier_orders", tenantID, o.SyncMeta)
	if err != nil {
		return entity.Record{}, false, err
	}

	var row pgx.Row
	created := id == 0
	if created {
		const query = `
			INSERT INTO supplier_orders
				(pharmacy_id, sync_id, supplier_id, expected_delivery_date, status,
				 notes, tax, shipping_cost, total_amount, updated_at, last_sync_at)
			VALUES ($1, COALESCE($2, gen_random_uuid()::text), $3, $4,
			        COALESCE($5, 'pending'), $6, $7, $8, $9, COALESCE($10, now()), now())
			RETURNING ` + orderColumns

		row = tx.QueryRow(ctx, query,
			tenantID, o.SyncID, o.SupplierID, o.ExpectedDeliveryDate, o.Status,
			o.Notes, o.Tax, o.ShippingCost, o.TotalAmount, tsPtr(o.UpdatedAt),
		)
	} else {
		const query = `
			UPDATE supplier_orders SET
				sync_id = COALESCE(sync_id, $3),
				supplier_id = COALESCE($4, supplier_id),
				expected_delivery_date = COALESCE($5, expected_delivery_date),
				status = COALESCE($6, status),
				notes = COALESCE($7, notes),
				tax = COALESCE($8, tax),
				shipping_cost = COALESCE($9, shipping_cost),
				total_amount = COALESCE($10, total_amount),
				updated_at = COALESCE($11, updated_at),
				last_sync_at = now()
			WHERE pharmacy_id = $1 AND id = $2
			RETURNING ` + orderColumns

		row = tx.QueryRow(ctx, query,
			tenantID, id, o.SyncID, o.SupplierID, o.ExpectedDeliveryDate,
			o.Status, o.Notes, o.Tax, o.ShippingCost, o.TotalAmount,
			tsPtr(o.UpdatedAt),
		)
	}

	stored, err := scanOrder(row)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.Record{}, false, sync.ErrDuplicateSyncID
		}
		s.log.Error("failed to upsert order",
			"tenant_id", tenantID, "local_id", o.LocalID, "error", err)
		return entity.Record{}, false, fmt.Errorf("upsert order: %w", err)
	}

	if o.Items != nil {
		if _, err := tx.Exec(ctx,
			`DELETE FROM supplier_order_items WHERE order_id = $1`, stored.LocalID,
		); err != nil {
			return entity.Record{}, false, fmt.Errorf("replace order items: %w", err)
		}
		for _, it := range o.Items {
			if _, err := tx.Exec(ctx,
				`INSERT INTO supplier_order_items (order_id, product_id, quantity, unit_price, total)
				 VALUES ($1, $2, $3, $4, $5)`,
				stored.LocalID, it.ProductID, it.Quantity, it.UnitPrice, it.Total,
			); err != nil {
				return entity.Record{}, false, fmt.Errorf("insert order item: %w", err)
			}
		}
		stored.Items = o.Items
	} else if err := s.loadItemsTx(ctx, tx, stored); err != nil {
		return entity.Record{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return entity.Record{}, false, fmt.Errorf("commit order upsert: %w", err)
	}
	return entity.Record{Type: entity.TypeOrders, Order: stored}, created, nil
}

func (s *OrderStore) loadItemsTx(ctx context.Context, q querier, o *entity.Order) error {
	rows, err := q.Query(ctx,
		`SELECT product_id, quantity, unit_price, total
		 FROM supplier_order_items WHERE order_id = $1 ORDER BY id`, o.LocalID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.UnitPrice, &it.Total); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (s *OrderStore) GetBySyncID(ctx context.Context, tenantID int64, syncID string) (*entity.Record, error) {
	const query = `
		SELECT ` + orderColumns + `
		FROM supplier_orders
		WHERE pharmacy_id = $1 AND sync_id = $2`

	o, err := scanOrder(s.pool.QueryRow(ctx, query, tenantID, syncID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order by sync_id: %w", err)
	}
	if err := s.loadItemsTx(ctx, s.pool, o); err != nil {
		return nil, err
	}
	return &entity.Record{Type: entity.TypeOrders, Order: o}, nil
}

func (s *OrderStore) MarkSynced(ctx context.Context, tenantID int64, records []entity.Record, at time.Time) error {
	return markSynced(ctx, s.pool, "supplier_orders", tenantID, records, at)
}

func (s *OrderStore) PendingCount(ctx context.Context, tenantID int64, baseline *time.Time) (int, error) {
	return pendingCount(ctx, s.pool, "supplier_orders", tenantID, baseline)
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	err := row.Scan(
		&o.LocalID, &o.SyncID, &o.UpdatedAt, &o.LastSyncAt, &o.SupplierID,
		&o.ExpectedDeliveryDate, &o.Status, &o.Notes, &o.Tax, &o.ShippingCost,
		&o.TotalAmount,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
