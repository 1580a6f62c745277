package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"salesorder-api/internal/domain"
)

type stubCustomerRepo struct {
	upserts   []domain.Customer
	deletes   []int64
	deleteErr error
}

func (s *stubCustomerRepo) Upsert(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	s.upserts = append(s.upserts, c)
	return &c, nil
}

func (s *stubCustomerRepo) Delete(_ context.Context, id int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletes = append(s.deletes, id)
	return nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `customerId,customerName,address1,address2,address3,suburb,state,postCode,deleted
1,John Doe,123 Main Street,,,Springfield,NSW,2000,
,Acme Pty Ltd,1 George St,,,Sydney,NSW,2000,false
,,,,,,,,
3,,,,,,,,true
`
	repo := &stubCustomerRepo{}
	res, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if res.Upserted != 2 || res.Deleted != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if repo.upserts[0].ID != 1 || repo.upserts[0].Suburb != "Springfield" || repo.upserts[0].PostCode != "2000" {
		t.Fatalf("unexpected first customer %+v", repo.upserts[0])
	}
	if repo.upserts[1].ID != 0 || repo.upserts[1].Name != "Acme Pty Ltd" {
		t.Fatalf("expected insert without id, got %+v", repo.upserts[1])
	}
	if len(repo.deletes) != 1 || repo.deletes[0] != 3 {
		t.Fatalf("expected customer 3 deleted, got %v", repo.deletes)
	}
}

func TestCSVImporter_HeaderCaseInsensitive(t *testing.T) {
	csvData := "CustomerName,Suburb\nJane Smith,Melbourne\n"
	repo := &stubCustomerRepo{}
	res, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if res.Upserted != 1 || repo.upserts[0].Suburb != "Melbourne" {
		t.Fatalf("unexpected import %+v %+v", res, repo.upserts)
	}
}

func TestCSVImporter_Errors(t *testing.T) {
	longName := strings.Repeat("x", domain.CustomerNameMaxLen+1)
	cases := []struct {
		name    string
		csv     string
		applied int
	}{
		{name: "missing_name_column", csv: "customerId,suburb\n1,Sydney\n"},
		{name: "missing_name", csv: "customerId,customerName\n1,John\n2,\n", applied: 1},
		{name: "too_long", csv: "customerName\n" + longName + "\n"},
		{name: "bad_id", csv: "customerId,customerName\nabc,John\n"},
		{name: "bad_flag", csv: "customerId,customerName,deleted\n1,John,maybe\n"},
		{name: "delete_without_id", csv: "customerId,customerName,deleted\n,John,true\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubCustomerRepo{}
			res, err := NewCSVImporter(strings.NewReader(tc.csv), repo).Run(context.Background())
			if err == nil {
				t.Fatalf("expected error")
			}
			if res.Upserted != tc.applied {
				t.Fatalf("expected %d applied rows, got %d", tc.applied, res.Upserted)
			}
		})
	}
}

func TestCSVImporter_DeleteReferencedCustomer(t *testing.T) {
	repo := &stubCustomerRepo{deleteErr: domain.ErrCustomerInUse}
	_, err := NewCSVImporter(strings.NewReader("customerId,customerName,deleted\n1,,true\n"), repo).Run(context.Background())
	if !errors.Is(err, domain.ErrCustomerInUse) {
		t.Fatalf("expected ErrCustomerInUse, got %v", err)
	}
}
