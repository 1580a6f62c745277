package salesorder

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

const (
	foreignKeyViolation    = "23503"
	numericValueOutOfRange = "22003"
)

const orderQuery = `
SELECT o.sales_order_id, o.customer_id, o.invoice_no, o.invoice_date, o.reference_no, o.note,
       o.total_excl, o.total_tax, o.total_incl, o.version, o.created_date, o.modified_date,
       c.customer_id, c.customer_name, c.address1, c.address2, c.address3, c.suburb, c.state, c.post_code
FROM sales_orders o
JOIN customers c ON c.customer_id = o.customer_id
`

const lineColumns = `sales_order_line_id, sales_order_id, item_code, description, note,
       quantity, price, tax, excl_amount, tax_amount, incl_amount`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, log *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.OrNop(log).Named("salesorder_repo")}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.SalesOrder, error) {
	rows, err := r.pool.Query(ctx, orderQuery+`ORDER BY o.created_date DESC, o.sales_order_id DESC`)
	if err != nil {
		r.logger.Error("list sales orders", zap.Error(err))
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.SalesOrder{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sales order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if ls, ok := lines[orders[i].ID]; ok {
			orders[i].Lines = ls
		}
	}
	return orders, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.SalesOrder, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, orderQuery+`WHERE o.sales_order_id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get sales order", zap.Int64("sales_order_id", id), zap.Error(err))
		return nil, fmt.Errorf("get sales order %d: %w", id, err)
	}
	lines, err := r.loadLines(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if ls, ok := lines[id]; ok {
		o.Lines = ls
	}
	return o, nil
}

func (r *postgresRepo) Create(ctx context.Context, order domain.SalesOrder) (*domain.SalesOrder, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin create sales order: %w", err)
	}
	defer tx.Rollback(ctx)

	const insert = `
INSERT INTO sales_orders (customer_id, invoice_no, invoice_date, reference_no, note,
                          total_excl, total_tax, total_incl, version, created_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, now())
RETURNING sales_order_id
`
	var id int64
	if err := tx.QueryRow(ctx, insert,
		order.CustomerID, order.InvoiceNo, order.InvoiceDate, order.ReferenceNo, order.Note,
		order.TotalExcl, order.TotalTax, order.TotalIncl,
	).Scan(&id); err != nil {
		return nil, r.writeError("create sales order", err)
	}
	if err := insertLines(ctx, tx, id, order.Lines); err != nil {
		return nil, r.writeError("insert sales order lines", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create sales order: %w", err)
	}
	r.logger.Debug("sales order created", zap.Int64("sales_order_id", id), zap.Int("lines", len(order.Lines)))
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Update(ctx context.Context, order domain.SalesOrder, expectedVersion *int) (*domain.SalesOrder, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin update sales order: %w", err)
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx, `SELECT version FROM sales_orders WHERE sales_order_id = $1 FOR UPDATE`, order.ID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock sales order %d: %w", order.ID, err)
	}
	if expectedVersion != nil && *expectedVersion != current {
		r.logger.Info("sales order version conflict",
			zap.Int64("sales_order_id", order.ID),
			zap.Int("expected", *expectedVersion),
			zap.Int("current", current),
		)
		return nil, domain.ErrConflict
	}

	const update = `
UPDATE sales_orders
SET customer_id = $2,
    invoice_no = $3,
    invoice_date = $4,
    reference_no = $5,
    note = $6,
    total_excl = $7,
    total_tax = $8,
    total_incl = $9,
    version = version + 1,
    modified_date = now()
WHERE sales_order_id = $1
`
	if _, err := tx.Exec(ctx, update,
		order.ID, order.CustomerID, order.InvoiceNo, order.InvoiceDate, order.ReferenceNo, order.Note,
		order.TotalExcl, order.TotalTax, order.TotalIncl,
	); err != nil {
		return nil, r.writeError("update sales order", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sales_order_lines WHERE sales_order_id = $1`, order.ID); err != nil {
		return nil, fmt.Errorf("clear sales order lines %d: %w", order.ID, err)
	}
	if err := insertLines(ctx, tx, order.ID, order.Lines); err != nil {
		return nil, r.writeError("insert sales order lines", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update sales order %d: %w", order.ID, err)
	}
	return r.GetByID(ctx, order.ID)
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	// Lines go with the header via ON DELETE CASCADE.
	cmd, err := r.pool.Exec(ctx, `DELETE FROM sales_orders WHERE sales_order_id = $1`, id)
	if err != nil {
		r.logger.Error("delete sales order", zap.Int64("sales_order_id", id), zap.Error(err))
		return fmt.Errorf("delete sales order %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) writeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolation:
			return domain.NewValidationError(domain.UnknownCustomerMessage)
		case numericValueOutOfRange:
			return domain.NewValidationError("a numeric value is out of range")
		}
	}
	r.logger.Error(op, zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

func (r *postgresRepo) loadLines(ctx context.Context, orderIDs []int64) (map[int64][]domain.SalesOrderLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lineColumns+`
FROM sales_order_lines
WHERE sales_order_id = ANY($1)
ORDER BY sales_order_id, line_no`, orderIDs)
	if err != nil {
		r.logger.Error("load sales order lines", zap.Error(err))
		return nil, fmt.Errorf("load sales order lines: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]domain.SalesOrderLine, len(orderIDs))
	for rows.Next() {
		var l domain.SalesOrderLine
		if err := rows.Scan(
			&l.ID, &l.SalesOrderID, &l.ItemCode, &l.Description, &l.Note,
			&l.Quantity, &l.Price, &l.TaxRate, &l.ExclAmount, &l.TaxAmount, &l.InclAmount,
		); err != nil {
			return nil, fmt.Errorf("scan sales order line: %w", err)
		}
		out[l.SalesOrderID] = append(out[l.SalesOrderID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load sales order lines: %w", err)
	}
	return out, nil
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID int64, lines []domain.SalesOrderLine) error {
	const insert = `
INSERT INTO sales_order_lines (sales_order_id, line_no, item_code, description, note,
                               quantity, price, tax, excl_amount, tax_amount, incl_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	if len(lines) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, l := range lines {
		batch.Queue(insert, orderID, i+1, l.ItemCode, l.Description, l.Note,
			l.Quantity, l.Price, l.TaxRate, l.ExclAmount, l.TaxAmount, l.InclAmount)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func scanOrder(row pgx.Row) (*domain.SalesOrder, error) {
	var (
		o domain.SalesOrder
		c domain.Customer
	)
	if err := row.Scan(
		&o.ID, &o.CustomerID, &o.InvoiceNo, &o.InvoiceDate, &o.ReferenceNo, &o.Note,
		&o.TotalExcl, &o.TotalTax, &o.TotalIncl, &o.Version, &o.CreatedDate, &o.ModifiedDate,
		&c.ID, &c.Name, &c.Address1, &c.Address2, &c.Address3, &c.Suburb, &c.State, &c.PostCode,
	); err != nil {
		return nil, err
	}
	o.Customer = &c
	o.Lines = []domain.SalesOrderLine{}
	return &o, nil
}
