package client

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmsync/internal/domain/entity"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	storage, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "pharmacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func strPtr(s string) *string { return &s }

func testProduct(syncID *string, updatedAt time.Time, name string) entity.Record {
	return entity.Record{
		Type: entity.TypeProducts,
		Product: &entity.Product{
			SyncMeta: entity.SyncMeta{SyncID: syncID, UpdatedAt: updatedAt},
			Name:     strPtr(name),
		},
	}
}

func TestSQLiteStorage_SaveAndListPending(t *testing.T) {
	storage := newTestStorage(t)
	updated := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	require.NoError(t, storage.SaveRecord(testProduct(nil, updated, "Aspirin")))

	pending, err := storage.PendingRecords(entity.TypeProducts, nil, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Aspirin", *pending[0].Product.Name)
	// The row id must come back so MarkSynced can address the row.
	assert.NotZero(t, pending[0].Meta().LocalID)
}

func TestSQLiteStorage_SaveRecord_MatchesBySyncID(t *testing.T) {
	storage := newTestStorage(t)
	updated := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	syncID := strPtr("sp-1")

	require.NoError(t, storage.SaveRecord(testProduct(syncID, updated, "Aspirin")))
	require.NoError(t, storage.SaveRecord(testProduct(syncID, updated.Add(time.Minute), "Aspirin 500mg")))

	pending, err := storage.PendingRecords(entity.TypeProducts, nil, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Aspirin 500mg", *pending[0].Product.Name)
}

func TestSQLiteStorage_MarkSyncedExcludesFromPending(t *testing.T) {
	storage := newTestStorage(t)
	updated := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	require.NoError(t, storage.SaveRecord(testProduct(nil, updated, "Aspirin")))

	pending, err := storage.PendingRecords(entity.TypeProducts, nil, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Assign an identifier at push time, the way a sync run does.
	pending[0].Meta().SyncID = strPtr("sp-1")
	syncedAt := updated.Add(time.Hour)
	require.NoError(t, storage.MarkSynced(pending, syncedAt))
	require.NoError(t, storage.SetBaseline(syncedAt))

	baseline, err := storage.Baseline()
	require.NoError(t, err)
	require.NotNil(t, baseline)

	counts, err := storage.CountPending(baseline)
	require.NoError(t, err)
	assert.Zero(t, counts["products"])

	// A later local edit makes the row pending again.
	edit := testProduct(strPtr("sp-1"), syncedAt.Add(time.Minute), "Aspirin Forte")
	require.NoError(t, storage.SaveRecord(edit))

	counts, err = storage.CountPending(baseline)
	require.NoError(t, err)
	assert.Equal(t, 1, counts["products"])
}

func TestSQLiteStorage_FirstSyncPagesAdvance(t *testing.T) {
	storage := newTestStorage(t)
	base := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)

	require.NoError(t, storage.SaveRecord(testProduct(nil, base, "Aspirin")))
	require.NoError(t, storage.SaveRecord(testProduct(nil, base.Add(time.Minute), "Ibuprofen")))
	require.NoError(t, storage.SaveRecord(testProduct(nil, base.Add(2*time.Minute), "Paracetamol")))

	// First page of a never-synced installation: baseline is still nil.
	page, err := storage.PendingRecords(entity.TypeProducts, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NoError(t, storage.MarkSynced(page, base.Add(time.Hour)))

	// Stamped rows must drop out even though the baseline has not moved,
	// otherwise the push loop re-uploads the same page forever.
	page, err = storage.PendingRecords(entity.TypeProducts, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Paracetamol", *page[0].Product.Name)
}

func TestSQLiteStorage_BaselineRoundTrip(t *testing.T) {
	storage := newTestStorage(t)

	baseline, err := storage.Baseline()
	require.NoError(t, err)
	assert.Nil(t, baseline)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, storage.SetBaseline(at))
	require.NoError(t, storage.SetBaseline(at.Add(time.Hour)))

	baseline, err = storage.Baseline()
	require.NoError(t, err)
	require.NotNil(t, baseline)
	assert.True(t, baseline.Equal(at.Add(time.Hour)))
}
