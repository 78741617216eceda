package tenant

import "context"

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Pharmacy, error)
}
