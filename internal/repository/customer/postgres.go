package customer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"salesorder-api/internal/domain"
	"salesorder-api/internal/logger"
)

const foreignKeyViolation = "23503"

const selectColumns = `customer_id, customer_name, address1, address2, address3, suburb, state, post_code`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, log *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.OrNop(log).Named("customer_repo")}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM customers ORDER BY customer_id ASC`)
	if err != nil {
		r.logger.Error("list customers", zap.Error(err))
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	result := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list customers rows", zap.Error(err))
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM customers WHERE customer_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get customer", zap.Int64("customer_id", id), zap.Error(err))
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return c, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if c.ID == 0 {
		const insert = `
INSERT INTO customers (customer_name, address1, address2, address3, suburb, state, post_code)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + selectColumns
		out, err := scanCustomer(r.pool.QueryRow(ctx, insert,
			c.Name, c.Address1, c.Address2, c.Address3, c.Suburb, c.State, c.PostCode))
		if err != nil {
			r.logger.Error("insert customer", zap.String("name", c.Name), zap.Error(err))
			return nil, fmt.Errorf("insert customer: %w", err)
		}
		return out, nil
	}

	const upsert = `
INSERT INTO customers (customer_id, customer_name, address1, address2, address3, suburb, state, post_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (customer_id) DO UPDATE
SET customer_name = EXCLUDED.customer_name,
    address1 = EXCLUDED.address1,
    address2 = EXCLUDED.address2,
    address3 = EXCLUDED.address3,
    suburb = EXCLUDED.suburb,
    state = EXCLUDED.state,
    post_code = EXCLUDED.post_code
RETURNING ` + selectColumns

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin upsert customer: %w", err)
	}
	defer tx.Rollback(ctx)

	out, err := scanCustomer(tx.QueryRow(ctx, upsert,
		c.ID, c.Name, c.Address1, c.Address2, c.Address3, c.Suburb, c.State, c.PostCode))
	if err != nil {
		r.logger.Error("upsert customer", zap.Int64("customer_id", c.ID), zap.Error(err))
		return nil, fmt.Errorf("upsert customer %d: %w", c.ID, err)
	}
	// Explicit ids bypass the sequence; keep it ahead of them.
	if _, err := tx.Exec(ctx, `SELECT setval(pg_get_serial_sequence('customers', 'customer_id'), GREATEST((SELECT MAX(customer_id) FROM customers), 1))`); err != nil {
		return nil, fmt.Errorf("align customer sequence: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit upsert customer %d: %w", c.ID, err)
	}
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE customer_id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return domain.ErrCustomerInUse
		}
		r.logger.Error("delete customer", zap.Int64("customer_id", id), zap.Error(err))
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Address1,
		&c.Address2,
		&c.Address3,
		&c.Suburb,
		&c.State,
		&c.PostCode,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
