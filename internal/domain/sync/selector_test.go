package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
)

func TestSelector_Select_TrimsOverfetchedPage(t *testing.T) {
	store := &mockStore{typ: entity.TypeProducts}
	sel := NewSelector(Stores{entity.TypeProducts: store}, slog.Default())
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sel.now = func() time.Time { return fixed }

	dirty := []entity.Record{
		productRecord(1, nil, fixed.Add(-3*time.Minute)),
		productRecord(2, nil, fixed.Add(-2*time.Minute)),
		productRecord(3, nil, fixed.Add(-1*time.Minute)),
	}
	store.On("SelectChanged", mock.Anything, int64(1), (*time.Time)(nil), fixed, 3).
		Return(dirty, nil)

	cs, err := sel.Select(context.Background(), 1, entity.TypeProducts, nil, 2)

	require.NoError(t, err)
	assert.Len(t, cs.Records, 2)
	assert.True(t, cs.HasMore)
	assert.Equal(t, fixed, cs.WindowEnd)
}

func TestSelector_Select_FullPageWithoutMore(t *testing.T) {
	store := &mockStore{typ: entity.TypeProducts}
	sel := NewSelector(Stores{entity.TypeProducts: store}, slog.Default())

	dirty := []entity.Record{
		productRecord(1, nil, time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)),
		productRecord(2, nil, time.Date(2025, 6, 1, 11, 1, 0, 0, time.UTC)),
	}
	store.On("SelectChanged", mock.Anything, int64(1), (*time.Time)(nil), mock.Anything, 3).
		Return(dirty, nil)

	cs, err := sel.Select(context.Background(), 1, entity.TypeProducts, nil, 2)

	require.NoError(t, err)
	assert.Len(t, cs.Records, 2)
	assert.False(t, cs.HasMore)
}

func TestSelector_Select_UnknownType(t *testing.T) {
	sel := NewSelector(Stores{}, slog.Default())

	_, err := sel.Select(context.Background(), 1, entity.Type("gadgets"), nil, 10)

	assert.ErrorIs(t, err, ErrUnknownEntityType)
}

func TestSelector_Select_StoreError(t *testing.T) {
	store := &mockStore{typ: entity.TypeProducts}
	sel := NewSelector(Stores{entity.TypeProducts: store}, slog.Default())

	store.On("SelectChanged", mock.Anything, int64(1), (*time.Time)(nil), mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset"))

	_, err := sel.Select(context.Background(), 1, entity.TypeProducts, nil, 10)

	assert.Error(t, err)
}
