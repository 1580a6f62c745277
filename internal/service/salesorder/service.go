// Package salesorder implements the create, update, read and delete
// workflows of the sales order aggregate.
package salesorder

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"salesorder-api/internal/domain"
	"salesorder-api/internal/events"
	"salesorder-api/internal/logger"
	"salesorder-api/internal/metrics"
	"salesorder-api/internal/pricing"
)

type orderRepo interface {
	List(ctx context.Context) ([]domain.SalesOrder, error)
	GetByID(ctx context.Context, id int64) (*domain.SalesOrder, error)
	Create(ctx context.Context, order domain.SalesOrder) (*domain.SalesOrder, error)
	Update(ctx context.Context, order domain.SalesOrder, expectedVersion *int) (*domain.SalesOrder, error)
	Delete(ctx context.Context, id int64) error
}

type customerLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
}

// Service recalculates every submitted order before it is stored and
// publishes a lifecycle event once the write has committed.
type Service struct {
	repo      orderRepo
	customers customerLookup
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a Service. publisher, m and log may be nil.
func New(repo orderRepo, customers customerLookup, publisher events.Publisher, m *metrics.Metrics, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		repo:      repo,
		customers: customers,
		publisher: publisher,
		metrics:   m,
		logger:    logger.OrNop(log).Named("salesorder_service"),
		now:       time.Now,
	}
}

// List returns every order, newest first.
func (s *Service) List(ctx context.Context) ([]domain.SalesOrder, error) {
	orders, err := s.repo.List(ctx)
	s.metrics.RecordOperation("list", err)
	if err != nil {
		s.logger.Error("list sales orders failed", zap.Error(err))
		return nil, err
	}
	return orders, nil
}

// Get returns one order with its customer and lines.
func (s *Service) Get(ctx context.Context, id int64) (*domain.SalesOrder, error) {
	order, err := s.repo.GetByID(ctx, id)
	s.metrics.RecordOperation("get", err)
	return order, err
}

// Create validates and recalculates order, then stores it with a fresh
// identity. Any ids, totals or line amounts on order are ignored.
func (s *Service) Create(ctx context.Context, order domain.SalesOrder) (*domain.SalesOrder, error) {
	order.ID = 0
	prepared, err := s.prepare(ctx, order)
	if err != nil {
		s.metrics.RecordOperation("create", err)
		return nil, err
	}

	created, err := s.repo.Create(ctx, prepared)
	s.metrics.RecordOperation("create", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sales order created",
		zap.Int64("sales_order_id", created.ID),
		zap.Int64("customer_id", created.CustomerID),
		zap.Int("lines", len(created.Lines)),
		zap.String("total_incl", created.TotalIncl.StringFixed(pricing.Places)),
	)
	s.publish(ctx, events.TypeCreated, *created)
	return created, nil
}

// Update replaces the header and the whole line set of order id. When
// expectedVersion is set it must match the stored version, otherwise
// domain.ErrConflict is returned and nothing changes.
func (s *Service) Update(ctx context.Context, id int64, order domain.SalesOrder, expectedVersion *int) (*domain.SalesOrder, error) {
	order.ID = id
	prepared, err := s.prepare(ctx, order)
	if err != nil {
		s.metrics.RecordOperation("update", err)
		return nil, err
	}

	updated, err := s.repo.Update(ctx, prepared, expectedVersion)
	s.metrics.RecordOperation("update", err)
	if err != nil {
		return nil, err
	}
	s.logger.Info("sales order updated",
		zap.Int64("sales_order_id", updated.ID),
		zap.Int("version", updated.Version),
		zap.Int("lines", len(updated.Lines)),
		zap.String("total_incl", updated.TotalIncl.StringFixed(pricing.Places)),
	)
	s.publish(ctx, events.TypeUpdated, *updated)
	return updated, nil
}

// Delete removes order id and all of its lines.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	s.metrics.RecordOperation("delete", err)
	if err != nil {
		return err
	}
	s.logger.Info("sales order deleted", zap.Int64("sales_order_id", id))
	s.publish(ctx, events.TypeDeleted, domain.SalesOrder{ID: id})
	return nil
}

// prepare normalises input, validates it, checks the customer and derives
// every amount.
func (s *Service) prepare(ctx context.Context, order domain.SalesOrder) (domain.SalesOrder, error) {
	order = normalize(order)
	if order.InvoiceDate.IsZero() {
		order.InvoiceDate = s.now().UTC()
	}
	if err := order.Validate(); err != nil {
		return domain.SalesOrder{}, err
	}

	if _, err := s.customers.GetByID(ctx, order.CustomerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.SalesOrder{}, domain.NewValidationError(domain.UnknownCustomerMessage)
		}
		return domain.SalesOrder{}, err
	}
	order = pricing.Recalculate(order)
	if err := order.ValidateAmounts(); err != nil {
		return domain.SalesOrder{}, err
	}
	return order, nil
}

// normalize trims text fields and rounds price and tax rate to the stored
// precision, so that amounts derived now match a later recalculation of the
// stored row.
func normalize(order domain.SalesOrder) domain.SalesOrder {
	order.Customer = nil
	order.InvoiceNo = strings.TrimSpace(order.InvoiceNo)
	order.ReferenceNo = strings.TrimSpace(order.ReferenceNo)
	order.Note = strings.TrimSpace(order.Note)

	lines := make([]domain.SalesOrderLine, len(order.Lines))
	for i, l := range order.Lines {
		l.ID = 0
		l.SalesOrderID = order.ID
		l.ItemCode = strings.TrimSpace(l.ItemCode)
		l.Description = strings.TrimSpace(l.Description)
		l.Note = strings.TrimSpace(l.Note)
		l.Price = l.Price.Round(pricing.Places)
		l.TaxRate = l.TaxRate.Round(pricing.Places)
		lines[i] = l
	}
	order.Lines = lines
	return order
}

// publish never fails the caller: the write has already committed.
func (s *Service) publish(ctx context.Context, t events.Type, order domain.SalesOrder) {
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(t, order, s.now())); err != nil {
		s.metrics.EventPublishFailed()
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(t)),
			zap.Int64("sales_order_id", order.ID),
			zap.Error(err),
		)
	}
}
