package customer

import (
	"context"

	"salesorder-api/internal/domain"
)

// Repository persists and fetches customers.
type Repository interface {
	List(ctx context.Context) ([]domain.Customer, error)
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	// Upsert inserts c, or overwrites the row with c.ID when it is set.
	Upsert(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	// Delete fails with domain.ErrCustomerInUse while orders reference the customer.
	Delete(ctx context.Context, id int64) error
}
