package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"salesorder-api/internal/domain"
)

// CustomerWriter is the subset of the customer repository the importer needs.
type CustomerWriter interface {
	Upsert(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Result counts what a run changed.
type Result struct {
	Upserted int
	Deleted  int
}

// CSVImporter reads customer reference data exports and applies them row by row.
type CSVImporter struct {
	reader *csv.Reader
	repo   CustomerWriter
}

func NewCSVImporter(r io.Reader, repo CustomerWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, repo: repo}
}

type csvRow struct {
	line     int
	customer domain.Customer
	deleted  bool
}

// Run reads the header, then upserts each row by customerId (inserting when
// it is empty) or deletes it when the deleted column is true. The first bad
// row stops the run; rows before it stay applied.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result

	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["customername"]; !ok {
		return res, errors.New("missing customerName column")
	}

	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseRow(record, index, line)
		if err != nil {
			return res, err
		}
		if row == nil {
			continue
		}

		if row.deleted {
			if err := i.repo.Delete(ctx, row.customer.ID); err != nil {
				return res, fmt.Errorf("row %d: delete customer %d: %w", line, row.customer.ID, err)
			}
			res.Deleted++
			continue
		}
		if err := row.customer.Validate(); err != nil {
			return res, fmt.Errorf("row %d: %w", line, err)
		}
		if _, err := i.repo.Upsert(ctx, row.customer); err != nil {
			return res, fmt.Errorf("row %d: upsert customer %q: %w", line, row.customer.Name, err)
		}
		res.Upserted++
	}

	return res, nil
}

// headerIndex matches columns case-insensitively.
func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) (*csvRow, error) {
	row := &csvRow{
		line: line,
		customer: domain.Customer{
			Name:     pick(record, index, "customername"),
			Address1: pick(record, index, "address1"),
			Address2: pick(record, index, "address2"),
			Address3: pick(record, index, "address3"),
			Suburb:   pick(record, index, "suburb"),
			State:    pick(record, index, "state"),
			PostCode: pick(record, index, "postcode"),
		},
	}

	idStr := pick(record, index, "customerid")
	if idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("row %d: invalid customerId %q", line, idStr)
		}
		row.customer.ID = id
	}

	if d := pick(record, index, "deleted"); d != "" {
		deleted, err := strconv.ParseBool(d)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid deleted flag %q", line, d)
		}
		row.deleted = deleted
	}

	if row.deleted && row.customer.ID == 0 {
		return nil, fmt.Errorf("row %d: deleted rows need a customerId", line)
	}
	if !row.deleted && row.customer.ID == 0 && isBlank(row.customer) {
		return nil, nil
	}
	return row, nil
}

func isBlank(c domain.Customer) bool {
	return c.Name == "" && c.Address1 == "" && c.Address2 == "" && c.Address3 == "" &&
		c.Suburb == "" && c.State == "" && c.PostCode == ""
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
