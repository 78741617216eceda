package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
)

func TestOrderStore_Upsert_ReplacesLineItems(t *testing.T) {
	updated := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	tx := &fakeTx{
		rows: map[string]fakeRow{
			"FROM supplier_orders WHERE sync_id": {vals: []any{int64(7), int64(1)}},
			"UPDATE supplier_orders SET": {vals: []any{
				int64(7), "so-1", updated, updated, int64(2), nil,
				"pending", nil, 0.0, 0.0, 30.0,
			}},
		},
	}
	store := &OrderStore{pool: &fakePool{tx: tx}, log: slog.Default()}

	syncID := "so-1"
	rec := entity.Record{
		Type: entity.TypeOrders,
		Order: &entity.Order{
			SyncMeta: entity.SyncMeta{SyncID: &syncID, UpdatedAt: updated},
			Items: []entity.OrderItem{
				{ProductID: 4, Quantity: 3, UnitPrice: 10, Total: 30},
			},
		},
	}

	stored, created, err := store.Upsert(context.Background(), 1, rec)

	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, tx.committed)

	require.Len(t, tx.execs, 2)
	assert.Contains(t, tx.execs[0].sql, "DELETE FROM supplier_order_items")
	assert.Equal(t, []any{int64(7)}, tx.execs[0].args)
	assert.Contains(t, tx.execs[1].sql, "INSERT INTO supplier_order_items")
	assert.Equal(t, int64(7), tx.execs[1].args[0])
	assert.Equal(t, int64(4), tx.execs[1].args[1])

	require.Len(t, stored.Order.Items, 1)
	assert.Equal(t, int64(4), stored.Order.Items[0].ProductID)
}
