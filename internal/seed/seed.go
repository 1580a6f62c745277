package seed

import (
	"context"
	"fmt"

	"salesorder-api/internal/domain"
)

// CustomerWriter is the subset of the customer repository seeding needs.
type CustomerWriter interface {
	Upsert(ctx context.Context, c domain.Customer) (*domain.Customer, error)
}

// Customers is the reference data every environment starts with.
var Customers = []domain.Customer{
	{
		ID:       1,
		Name:     "John Doe",
		Address1: "123 Main Street",
		Suburb:   "Springfield",
		State:    "NSW",
		PostCode: "2000",
	},
	{
		ID:       2,
		Name:     "Jane Smith",
		Address1: "456 Queen Street",
		Address2: "Suite 100",
		Suburb:   "Melbourne",
		State:    "VIC",
		PostCode: "3000",
	},
	{
		ID:       3,
		Name:     "ABC Corporation",
		Address1: "789 Business Park",
		Address2: "Level 5",
		Suburb:   "Brisbane",
		State:    "QLD",
		PostCode: "4000",
	},
}

// Apply upserts the seed customers by id. It is idempotent.
func Apply(ctx context.Context, repo CustomerWriter) (int, error) {
	for i, c := range Customers {
		if err := c.Validate(); err != nil {
			return i, fmt.Errorf("seed customer %d: %w", c.ID, err)
		}
		if _, err := repo.Upsert(ctx, c); err != nil {
			return i, fmt.Errorf("upsert customer %d: %w", c.ID, err)
		}
	}
	return len(Customers), nil
}
