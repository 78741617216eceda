package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func boolPtr(b bool) *bool { return &b }

func timePtr(t time.Time) *time.Time { return &t }

func TestProduct_Overlay_AbsentFieldsKeepReceiver(t *testing.T) {
	base := Product{
		SyncMeta:     SyncMeta{LocalID: 3, UpdatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		Name:         strPtr("Aspirin"),
		Quantity:     intPtr(5),
		SellingPrice: floatPtr(4.20),
		IsActive:     boolPtr(true),
	}
	in := Product{
		SyncMeta: SyncMeta{UpdatedAt: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)},
		Name:     strPtr("Aspirin 500mg"),
		Quantity: intPtr(8),
	}

	out := base.Overlay(in)

	assert.Equal(t, "Aspirin 500mg", *out.Name)
	assert.Equal(t, 8, *out.Quantity)
	assert.Equal(t, 4.20, *out.SellingPrice)
	assert.True(t, *out.IsActive)
	assert.Equal(t, int64(3), out.LocalID)
	assert.Equal(t, in.UpdatedAt, out.UpdatedAt)
}

func TestSyncMeta_Overlay_LaterTimestampWins(t *testing.T) {
	newer := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	base := Product{SyncMeta: SyncMeta{UpdatedAt: newer, SyncID: strPtr("sp-1")}}
	in := Product{SyncMeta: SyncMeta{UpdatedAt: older}}

	out := base.Overlay(in)

	assert.Equal(t, newer, out.UpdatedAt)
	require.NotNil(t, out.SyncID)
	assert.Equal(t, "sp-1", *out.SyncID)
}

func TestOrder_Overlay_ItemsReplacedWholesale(t *testing.T) {
	base := Order{
		Status: strPtr("pending"),
		Items: []OrderItem{
			{ProductID: 1, Quantity: 10, UnitPrice: 2, Total: 20},
			{ProductID: 2, Quantity: 5, UnitPrice: 3, Total: 15},
		},
	}
	in := Order{
		Items: []OrderItem{{ProductID: 3, Quantity: 1, UnitPrice: 9, Total: 9}},
	}

	out := base.Overlay(in)

	require.Len(t, out.Items, 1)
	assert.Equal(t, int64(3), out.Items[0].ProductID)
	assert.Equal(t, "pending", *out.Status)
}

func TestOrder_Overlay_NilItemsKeepStoredSet(t *testing.T) {
	base := Order{
		Items: []OrderItem{{ProductID: 1, Quantity: 10, UnitPrice: 2, Total: 20}},
	}
	in := Order{Status: strPtr("received")}

	out := base.Overlay(in)

	assert.Len(t, out.Items, 1)
	assert.Equal(t, "received", *out.Status)
}

func TestRecord_Overlay_DispatchesByTag(t *testing.T) {
	delivery := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	local := Record{
		Type: TypeOrders,
		Order: &Order{
			SyncMeta:             SyncMeta{LocalID: 9},
			Status:               strPtr("pending"),
			ExpectedDeliveryDate: timePtr(delivery),
		},
	}
	remote := Record{
		Type:  TypeOrders,
		Order: &Order{Status: strPtr("shipped")},
	}

	out := local.Overlay(remote)

	require.NotNil(t, out.Order)
	assert.Equal(t, "shipped", *out.Order.Status)
	assert.Equal(t, delivery, *out.Order.ExpectedDeliveryDate)
	assert.Equal(t, int64(9), out.Order.LocalID)
}
