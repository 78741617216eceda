package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"pharmsync/internal/domain/entity"
	"pharmsync/internal/domain/sync"
)

// NewStores builds the per-entity store registry the engine dispatches on.
func NewStores(pool *pgxpool.Pool, log *slog.Logger) sync.Stores {
	return sync.Stores{
		entity.TypeProducts:  NewProductStore(pool, log),
		entity.TypeCustomers: NewCustomerStore(pool, log),
		entity.TypeSuppliers: NewSupplierStore(pool, log),
		entity.TypeOrders:    NewOrderStore(pool, log),
		entity.TypeSales:     NewSaleStore(pool, log),
	}
}
