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

func newTestResolver(store *mockStore) *Resolver {
	up := NewUpserter(Stores{entity.TypeProducts: store}, slog.Default())
	return NewResolver(up, slog.Default())
}

func productConflict(resolution Resolution) Conflict {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return Conflict{
		EntityType: entity.TypeProducts,
		EntityID:   "sp-1",
		Local:      productRecord(3, strPtr("sp-1"), base.Add(30*time.Minute)),
		Remote:     productRecord(0, strPtr("sp-1"), base.Add(45*time.Minute)),
		Resolution: resolution,
	}
}

func TestResolver_Resolve_LocalWinsWithoutWrite(t *testing.T) {
	store := &mockStore{typ: entity.TypeProducts}
	r := newTestResolver(store)

	out, applied, err := r.Resolve(context.Background(), 1, []Conflict{productConflict(ResolutionLocal)})

	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.True(t, out[0].Resolved)
	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_Resolve_CloudAppliesRemoteVersion(t *testing.T) {
	store := &mockStore{typ: entity.TypeProducts}
	r := newTestResolver(store)

	c := productConflict(ResolutionCloud)
	store.On("Upsert", mock.Anything, int64(1), c.Remote).Return(c.Remote, false, nil)

	out, applied, err := r.Resolve(context.Background(), 1, []Conflict{c})

	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.True(t, out[0].Resolved)
	store.AssertExpectations(t)
}

func TestResolver_Resolve_MergeLetsLaterSideDonateFields(t *testing.T) {
	store := &mockStore{typ: entity.TypeProducts}
	r := newTestResolver(store)

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	qty := 5
	local := entity.Record{
		Type: entity.TypeProducts,
		Product: &entity.Product{
			SyncMeta: entity.SyncMeta{LocalID: 3, SyncID: strPtr("sp-1"), UpdatedAt: base.Add(30 * time.Minute)},
			Name:     strPtr("Aspirin"),
			Quantity: &qty,
		},
	}
	remote := entity.Record{
		Type: entity.TypeProducts,
		Product: &entity.Product{
			SyncMeta: entity.SyncMeta{SyncID: strPtr("sp-1"), UpdatedAt: base.Add(45 * time.Minute)},
			Name:     strPtr("Aspirin 500mg"),
		},
	}
	c := Conflict{
		EntityType: entity.TypeProducts,
		EntityID:   "sp-1",
		Local:      local,
		Remote:     remote,
		Resolution: ResolutionMerge,
	}

	// Remote is newer, so its name wins; the quantity it omits survives
	// from the local version.
	store.On("Upsert", mock.Anything, int64(1), mock.MatchedBy(func(rec entity.Record) bool {
		p := rec.Product
		return p != nil &&
			*p.Name == "Aspirin 500mg" &&
			p.Quantity != nil && *p.Quantity == 5 &&
			p.UpdatedAt.Equal(base.Add(45*time.Minute))
	})).Return(local, false, nil)

	_, applied, err := r.Resolve(context.Background(), 1, []Conflict{c})

	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	store.AssertExpectations(t)
}

func TestResolver_Resolve_SkipsAlreadyResolved(t *testing.T) {
	store := &mockStore{typ: entity.TypeProducts}
	r := newTestResolver(store)

	c := productConflict(ResolutionCloud)
	c.Resolved = true

	out, applied, err := r.Resolve(context.Background(), 1, []Conflict{c})

	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	assert.True(t, out[0].Resolved)
	store.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_Resolve_UnknownResolution(t *testing.T) {
	store := &mockStore{typ: entity.TypeProducts}
	r := newTestResolver(store)

	_, _, err := r.Resolve(context.Background(), 1, []Conflict{productConflict("coin_flip")})

	assert.ErrorIs(t, err, ErrInvalidResolution)
}
