package salesorder

import (
	"context"

	"salesorder-api/internal/domain"
)

// Repository persists sales orders together with their lines. Every write
// touches the header and the full line set in a single transaction.
type Repository interface {
	// List returns all orders, newest first, with customer and lines loaded.
	List(ctx context.Context) ([]domain.SalesOrder, error)
	GetByID(ctx context.Context, id int64) (*domain.SalesOrder, error)
	Create(ctx context.Context, order domain.SalesOrder) (*domain.SalesOrder, error)
	// Update replaces the header and the whole line set of order.ID. When
	// expectedVersion is set and differs from the stored version, nothing is
	// written and domain.ErrConflict is returned.
	Update(ctx context.Context, order domain.SalesOrder, expectedVersion *int) (*domain.SalesOrder, error)
	Delete(ctx context.Context, id int64) error
}
