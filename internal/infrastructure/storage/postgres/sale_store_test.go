package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
)

// fakeRow answers a single Scan with canned values. Pointer destinations
// get nil for a nil value and a fresh pointer otherwise.
type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		v := r.vals[i]
		switch p := d.(type) {
		case *int64:
			*p = v.(int64)
		case *time.Time:
			*p = v.(time.Time)
		case **time.Time:
			if v == nil {
				*p = nil
			} else {
				t := v.(time.Time)
				*p = &t
			}
		case **string:
			if v == nil {
				*p = nil
			} else {
				s := v.(string)
				*p = &s
			}
		case **int64:
			if v == nil {
				*p = nil
			} else {
				n := v.(int64)
				*p = &n
			}
		case **float64:
			if v == nil {
				*p = nil
			} else {
				f := v.(float64)
				*p = &f
			}
		default:
			return fmt.Errorf("unexpected scan destination %T", d)
		}
	}
	return nil
}

type execCall struct {
	sql  string
	args []any
}

// fakeTx satisfies pgx.Tx, routing QueryRow by a distinctive query fragment
// and recording every Exec.
type fakeTx struct {
	rows      map[string]fakeRow
	execs     []execCall
	committed bool
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	for frag, row := range t.rows {
		if strings.Contains(sql, frag) {
			return row
		}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(context.Context) error { t.committed = true; return nil }

func (t *fakeTx) Rollback(context.Context) error { return nil }

func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("unexpected copy")
}

func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("unexpected prepare")
}

func (t *fakeTx) Conn() *pgx.Conn { return nil }

type fakePool struct {
	tx *fakeTx
}

func (p *fakePool) Begin(context.Context) (pgx.Tx, error) { return p.tx, nil }

func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.tx.QueryRow(ctx, sql, args...)
}

func (p *fakePool) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (p *fakePool) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected exec")
}

func (p *fakePool) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func saleFakeTx(updated time.Time) *fakeTx {
	return &fakeTx{
		rows: map[string]fakeRow{
			"FROM sales WHERE sync_id": {vals: []any{int64(5), int64(1)}},
			"UPDATE sales SET": {vals: []any{
				int64(5), "ss-1", updated, updated, "S-1", nil,
				9.0, 0.0, 0.0, 9.0, "cash", "completed", nil,
			}},
		},
	}
}

func TestSaleStore_Upsert_ReplacesLineItems(t *testing.T) {
	updated := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	tx := saleFakeTx(updated)
	store := &SaleStore{pool: &fakePool{tx: tx}, log: slog.Default()}

	syncID := "ss-1"
	rec := entity.Record{
		Type: entity.TypeSales,
		Sale: &entity.Sale{
			SyncMeta: entity.SyncMeta{SyncID: &syncID, UpdatedAt: updated},
			Items: []entity.SaleItem{
				{ProductID: 9, Quantity: 1, UnitPrice: 4.5, Total: 4.5},
			},
		},
	}

	stored, created, err := store.Upsert(context.Background(), 1, rec)

	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, tx.committed)

	// Delete then insert: whatever set of child rows existed, exactly the
	// incoming one remains.
	require.Len(t, tx.execs, 2)
	assert.Contains(t, tx.execs[0].sql, "DELETE FROM sale_items")
	assert.Equal(t, []any{int64(5)}, tx.execs[0].args)
	assert.Contains(t, tx.execs[1].sql, "INSERT INTO sale_items")
	assert.Equal(t, int64(5), tx.execs[1].args[0])
	assert.Equal(t, int64(9), tx.execs[1].args[1])

	require.Len(t, stored.Sale.Items, 1)
	assert.Equal(t, int64(9), stored.Sale.Items[0].ProductID)
}

func TestSaleStore_Upsert_EmptyItemsClearsChildren(t *testing.T) {
	updated := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	tx := saleFakeTx(updated)
	store := &SaleStore{pool: &fakePool{tx: tx}, log: slog.Default()}

	syncID := "ss-1"
	rec := entity.Record{
		Type: entity.TypeSales,
		Sale: &entity.Sale{
			SyncMeta: entity.SyncMeta{SyncID: &syncID, UpdatedAt: updated},
			Items:    []entity.SaleItem{},
		},
	}

	stored, _, err := store.Upsert(context.Background(), 1, rec)

	require.NoError(t, err)
	require.Len(t, tx.execs, 1)
	assert.Contains(t, tx.execs[0].sql, "DELETE FROM sale_items")
	assert.Empty(t, stored.Sale.Items)
}
