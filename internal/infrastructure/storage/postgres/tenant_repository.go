package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/tenant"
)

type TenantRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewTenantRepository(pool *pgxpool.Pool, log *slog.Logger) *TenantRepository {
	return &TenantRepository{
		pool: pool,
		log:  log.With("component", "tenant_repository"),
	}
}

func (r *TenantRepository) GetByID(ctx context.Context, id int64) (*tenant.Pharmacy, error) {
	const query = `
		SELECT id, name, api_key_hash, is_active, last_sync_at, created_at
		FROM pharmacies
		WHERE id = $1`

	var p tenant.Pharmacy
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.APIKeyHash, &p.IsActive, &p.LastSyncAt, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tenant.ErrNotFound
		}
		r.log.Error("failed to get pharmacy", "id", id, "error", err)
		return nil, fmt.Errorf("get pharmacy: %w", err)
	}
	return &p, nil
}
