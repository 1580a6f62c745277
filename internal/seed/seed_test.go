package seed

import (
	"context"
	"errors"
	"testing"

	"salesorder-api/internal/domain"
)

type recordingWriter struct {
	saved map[int64]domain.Customer
	calls int
	err   error
}

func (w *recordingWriter) Upsert(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	w.calls++
	if w.err != nil {
		return nil, w.err
	}
	w.saved[c.ID] = c
	return &c, nil
}

func TestApply_IsIdempotent(t *testing.T) {
	w := &recordingWriter{saved: map[int64]domain.Customer{}}

	for i := 0; i < 2; i++ {
		n, err := Apply(context.Background(), w)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		if n != 3 {
			t.Fatalf("expected 3 customers, got %d", n)
		}
	}
	if len(w.saved) != 3 {
		t.Fatalf("expected 3 distinct customers, got %d", len(w.saved))
	}
	if got := w.saved[3]; got.Name != "ABC Corporation" || got.State != "QLD" {
		t.Fatalf("unexpected customer 3: %+v", got)
	}
}

func TestApply_StopsOnError(t *testing.T) {
	w := &recordingWriter{saved: map[int64]domain.Customer{}, err: errors.New("db down")}

	n, err := Apply(context.Background(), w)
	if err == nil {
		t.Fatalf("expected error")
	}
	if n != 0 || w.calls != 1 {
		t.Fatalf("expected to stop after first failure, n=%d calls=%d", n, w.calls)
	}
}
