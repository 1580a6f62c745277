package customer

import (
	"context"

	"go.uber.org/zap"

	"salesorder-api/internal/domain"
	"salesorder-api/internal/logger"
	"salesorder-api/internal/metrics"
)

type customerRepo interface {
	List(ctx context.Context) ([]domain.Customer, error)
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
}

// Service serves the read-only customer reference data.
type Service struct {
	repo    customerRepo
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a Service. m may be nil.
func New(repo customerRepo, m *metrics.Metrics, log *zap.Logger) *Service {
	return &Service{repo: repo, metrics: m, logger: logger.OrNop(log).Named("customer_service")}
}

// List returns every customer ordered by id.
func (s *Service) List(ctx context.Context) ([]domain.Customer, error) {
	list, err := s.repo.List(ctx)
	s.metrics.RecordOperation("customer_list", err)
	if err != nil {
		s.logger.Error("list customers failed", zap.Error(err))
		return nil, err
	}
	return list, nil
}

// Get returns one customer or domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	c, err := s.repo.GetByID(ctx, id)
	s.metrics.RecordOperation("customer_get", err)
	return c, err
}
