package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
)

func TestUpserter_Apply_RejectsInvalidRecord(t *testing.T) {
	store := &mockStore{typ: entity.TypeProducts}
	up := NewUpserter(Stores{entity.TypeProducts: store}, slog.Default())

	tests := []struct {
		name string
		rec  entity.Record
	}{
		{"empty record", entity.Record{Type: entity.TypeProducts}},
		{"unknown tag", entity.Record{Type: "gadgets", Product: &entity.Product{}}},
		{"tag and payload disagree", entity.Record{Type: entity.TypeProducts, Customer: &entity.Customer{}}},
		{
			"two payloads",
			entity.Record{Type: entity.TypeProducts, Product: &entity.Product{}, Customer: &entity.Customer{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := up.Apply(context.Background(), 1, tt.rec)
			assert.ErrorIs(t, err, ErrUnknownEntityType)
		})
	}
	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpserter_Apply_DispatchesToStore(t *testing.T) {
	store := &mockStore{typ: entity.TypeProducts}
	up := NewUpserter(Stores{entity.TypeProducts: store}, slog.Default())

	rec := productRecord(0, strPtr("sp-5"), time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC))
	stored := productRecord(12, strPtr("sp-5"), rec.UpdatedAt())
	store.On("Upsert", mock.Anything, int64(1), rec).Return(stored, true, nil)

	got, created, err := up.Apply(context.Background(), 1, rec)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(12), got.Meta().LocalID)
	store.AssertExpectations(t)
}

func TestUpserter_Apply_NoStoreForType(t *testing.T) {
	up := NewUpserter(Stores{}, slog.Default())

	rec := productRecord(0, nil, time.Now())
	_, _, err := up.Apply(context.Background(), 1, rec)

	assert.ErrorIs(t, err, ErrUnknownEntityType)
}
