package customer

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"salesorder-api/internal/domain"
	"salesorder-api/internal/migrate"
)

func TestPostgres_UpsertListGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	seeded, err := repo.Upsert(ctx, domain.Customer{ID: 5, Name: "John Doe", Suburb: "Springfield", State: "NSW", PostCode: "2000"})
	if err != nil {
		t.Fatalf("Upsert with id: %v", err)
	}
	if seeded.ID != 5 {
		t.Fatalf("expected id 5, got %d", seeded.ID)
	}

	inserted, err := repo.Upsert(ctx, domain.Customer{Name: "Jane Smith"})
	if err != nil {
		t.Fatalf("Upsert without id: %v", err)
	}
	if inserted.ID <= 5 {
		t.Fatalf("expected sequence past explicit ids, got %d", inserted.ID)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != 5 {
		t.Fatalf("unexpected list %+v", list)
	}

	got, err := repo.GetByID(ctx, 5)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.State != "NSW" || got.PostCode != "2000" {
		t.Fatalf("unexpected customer %+v", got)
	}

	if _, err := repo.GetByID(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgres_DeleteReferencedCustomer(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	c, err := repo.Upsert(ctx, domain.Customer{Name: "ABC Corporation"})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO sales_orders (customer_id, invoice_no, invoice_date) VALUES ($1, 'INV-1', now())`, c.ID); err != nil {
		t.Fatalf("insert order: %v", err)
	}

	if err := repo.Delete(ctx, c.ID); !errors.Is(err, domain.ErrCustomerInUse) {
		t.Fatalf("expected ErrCustomerInUse, got %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM sales_orders`); err != nil {
		t.Fatalf("delete orders: %v", err)
	}
	if err := repo.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE sales_order_lines, sales_orders, customers RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
