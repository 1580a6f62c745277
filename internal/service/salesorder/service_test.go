package salesorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"salesorder-api/internal/domain"
	"salesorder-api/internal/events"
	"salesorder-api/internal/metrics"
)

type stubRepo struct {
	stored          map[int64]domain.SalesOrder
	nextID          int64
	createErr       error
	updateErr       error
	deleteErr       error
	createCalls     int
	updateCalls     int
	lastCreate      domain.SalesOrder
	lastUpdate      domain.SalesOrder
	lastExpectedVer *int
}

func newStubRepo() *stubRepo {
	return &stubRepo{stored: map[int64]domain.SalesOrder{}, nextID: 1}
}

func (s *stubRepo) List(_ context.Context) ([]domain.SalesOrder, error) {
	out := make([]domain.SalesOrder, 0, len(s.stored))
	for _, o := range s.stored {
		out = append(out, o)
	}
	return out, nil
}

func (s *stubRepo) GetByID(_ context.Context, id int64) (*domain.SalesOrder, error) {
	o, ok := s.stored[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &o, nil
}

func (s *stubRepo) Create(_ context.Context, order domain.SalesOrder) (*domain.SalesOrder, error) {
	s.createCalls++
	s.lastCreate = order
	if s.createErr != nil {
		return nil, s.createErr
	}
	order.ID = s.nextID
	order.Version = 1
	s.nextID++
	s.stored[order.ID] = order
	return &order, nil
}

func (s *stubRepo) Update(_ context.Context, order domain.SalesOrder, expectedVersion *int) (*domain.SalesOrder, error) {
	s.updateCalls++
	s.lastUpdate = order
	s.lastExpectedVer = expectedVersion
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	current, ok := s.stored[order.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if expectedVersion != nil && *expectedVersion != current.Version {
		return nil, domain.ErrConflict
	}
	order.Version = current.Version + 1
	s.stored[order.ID] = order
	return &order, nil
}

func (s *stubRepo) Delete(_ context.Context, id int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.stored[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.stored, id)
	return nil
}

type stubCustomers struct {
	known map[int64]bool
	err   error
}

func (s *stubCustomers) GetByID(_ context.Context, id int64) (*domain.Customer, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.known[id] {
		return nil, domain.ErrNotFound
	}
	return &domain.Customer{ID: id, Name: "John Doe"}, nil
}

type stubPublisher struct {
	events []events.Event
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, e events.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func draft() domain.SalesOrder {
	return domain.SalesOrder{
		CustomerID: 1,
		InvoiceNo:  "  INV-100 ",
		TotalExcl:  dec("999"),
		TotalIncl:  dec("999"),
		Lines: []domain.SalesOrderLine{
			{ItemCode: "A", Quantity: 3, Price: dec("10.00"), TaxRate: dec("10"), InclAmount: dec("1")},
			{ItemCode: "B", Quantity: 2, Price: dec("10.00")},
		},
	}
}

func newService(repo *stubRepo, pub *stubPublisher) *Service {
	svc := New(repo, &stubCustomers{known: map[int64]bool{1: true}}, pub, metrics.New(), nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestService_CreateRecalculatesTotals(t *testing.T) {
	repo := newStubRepo()
	pub := &stubPublisher{}
	svc := newService(repo, pub)

	created, err := svc.Create(context.Background(), draft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created.TotalExcl.Equal(dec("50.00")) || !created.TotalTax.Equal(dec("3.00")) || !created.TotalIncl.Equal(dec("53.00")) {
		t.Fatalf("unexpected totals %s/%s/%s", created.TotalExcl, created.TotalTax, created.TotalIncl)
	}
	if !created.Lines[0].InclAmount.Equal(dec("33.00")) {
		t.Fatalf("expected caller-supplied line amount to be replaced, got %s", created.Lines[0].InclAmount)
	}
	if repo.lastCreate.InvoiceNo != "INV-100" {
		t.Fatalf("expected trimmed invoice no, got %q", repo.lastCreate.InvoiceNo)
	}
	if !repo.lastCreate.InvoiceDate.Equal(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("expected invoice date to default to now, got %s", repo.lastCreate.InvoiceDate)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.TypeCreated || pub.events[0].SalesOrderID != created.ID {
		t.Fatalf("unexpected events %+v", pub.events)
	}
}

func TestService_CreateKeepsSuppliedInvoiceDate(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, &stubPublisher{})

	in := draft()
	in.InvoiceDate = time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !repo.lastCreate.InvoiceDate.Equal(in.InvoiceDate) {
		t.Fatalf("expected supplied invoice date, got %s", repo.lastCreate.InvoiceDate)
	}
}

func TestService_CreateRoundsPriceAndRate(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, &stubPublisher{})

	in := draft()
	in.Lines = []domain.SalesOrderLine{{Quantity: 1, Price: dec("9.999"), TaxRate: dec("12.345")}}
	created, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	line := created.Lines[0]
	if !line.Price.Equal(dec("10.00")) || !line.TaxRate.Equal(dec("12.35")) {
		t.Fatalf("expected stored precision, got price=%s rate=%s", line.Price, line.TaxRate)
	}
	if !line.TaxAmount.Equal(dec("1.24")) {
		t.Fatalf("expected tax from rounded inputs, got %s", line.TaxAmount)
	}
}

func TestService_CreateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(o *domain.SalesOrder)
		want   string
	}{
		{name: "missing_customer", mutate: func(o *domain.SalesOrder) { o.CustomerID = 0 }, want: "customerId is required"},
		{name: "missing_invoice", mutate: func(o *domain.SalesOrder) { o.InvoiceNo = "   " }, want: "invoiceNo is required"},
		{name: "empty_lines", mutate: func(o *domain.SalesOrder) { o.Lines = nil }, want: "salesOrderLines must contain at least one line"},
		{name: "unknown_customer", mutate: func(o *domain.SalesOrder) { o.CustomerID = 42 }, want: domain.UnknownCustomerMessage},
		{name: "price_too_large", mutate: func(o *domain.SalesOrder) { o.Lines[0].Price = dec("1e17") }, want: "salesOrderLines[0].price must be less than 10000000000000000"},
		{
			name: "amount_too_large",
			mutate: func(o *domain.SalesOrder) {
				o.Lines[0].Quantity = 1_000_000_000_000_000
				o.Lines[0].Price = dec("100")
			},
			want: "salesOrderLines[0].exclAmount must be less than 10000000000000000",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubRepo()
			pub := &stubPublisher{}
			svc := newService(repo, pub)

			in := draft()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), in)

			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(vErr.Errors) == 0 || vErr.Errors[0] != tc.want {
				t.Fatalf("expected %q, got %v", tc.want, vErr.Errors)
			}
			if repo.createCalls != 0 || len(pub.events) != 0 {
				t.Fatalf("expected nothing persisted or published")
			}
		})
	}
}

func TestService_CreateCustomerLookupError(t *testing.T) {
	repo := newStubRepo()
	svc := New(repo, &stubCustomers{err: errors.New("db down")}, nil, nil, nil)

	_, err := svc.Create(context.Background(), draft())
	if err == nil || errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("expected no create call")
	}
}

func TestService_UpdateReplacesLines(t *testing.T) {
	repo := newStubRepo()
	pub := &stubPublisher{}
	svc := newService(repo, pub)

	created, err := svc.Create(context.Background(), draft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	in := draft()
	in.Lines = []domain.SalesOrderLine{{ItemCode: "C", Quantity: 1, Price: dec("5.00")}}
	ver := created.Version
	updated, err := svc.Update(context.Background(), created.ID, in, &ver)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Lines) != 1 || updated.Lines[0].ItemCode != "C" {
		t.Fatalf("expected replaced line set, got %+v", updated.Lines)
	}
	if !updated.TotalIncl.Equal(dec("5.00")) || updated.Version != 2 {
		t.Fatalf("unexpected updated order total=%s version=%d", updated.TotalIncl, updated.Version)
	}
	if repo.lastUpdate.ID != created.ID || repo.lastExpectedVer == nil || *repo.lastExpectedVer != 1 {
		t.Fatalf("expected update of id %d at version 1", created.ID)
	}
	if len(pub.events) != 2 || pub.events[1].Type != events.TypeUpdated {
		t.Fatalf("unexpected events %+v", pub.events)
	}
}

func TestService_UpdateEmptyLinesRejected(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, &stubPublisher{})

	created, err := svc.Create(context.Background(), draft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	in := draft()
	in.Lines = []domain.SalesOrderLine{}
	if _, err := svc.Update(context.Background(), created.ID, in, nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.updateCalls != 0 {
		t.Fatalf("expected no update call")
	}
	if got := repo.stored[created.ID]; len(got.Lines) != 2 {
		t.Fatalf("expected prior line set unchanged, got %d lines", len(got.Lines))
	}
}

func TestService_UpdateConflict(t *testing.T) {
	repo := newStubRepo()
	pub := &stubPublisher{}
	svc := newService(repo, pub)

	created, err := svc.Create(context.Background(), draft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	stale := 7
	if _, err := svc.Update(context.Background(), created.ID, draft(), &stale); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected no event for rejected update, got %d", len(pub.events))
	}
}

func TestService_UpdateNotFound(t *testing.T) {
	svc := newService(newStubRepo(), &stubPublisher{})
	if _, err := svc.Update(context.Background(), 99, draft(), nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	repo := newStubRepo()
	pub := &stubPublisher{}
	svc := newService(repo, pub)

	created, err := svc.Create(context.Background(), draft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	last := pub.events[len(pub.events)-1]
	if last.Type != events.TypeDeleted || last.SalesOrderID != created.ID {
		t.Fatalf("unexpected last event %+v", last)
	}
}

func TestService_PublishFailureDoesNotFailWrite(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, &stubPublisher{err: errors.New("broker down")})

	created, err := svc.Create(context.Background(), draft())
	if err != nil {
		t.Fatalf("expected create to succeed despite publish failure, got %v", err)
	}
	if _, ok := repo.stored[created.ID]; !ok {
		t.Fatalf("expected order to be stored")
	}
}

func TestService_RepoErrorPropagates(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = errors.New("tx aborted")
	pub := &stubPublisher{}
	svc := newService(repo, pub)

	if _, err := svc.Create(context.Background(), draft()); err == nil {
		t.Fatalf("expected error")
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no event on failed write")
	}
}
