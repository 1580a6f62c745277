package httpserver

import (
	"encoding/json"
	"strings"
	"time"

	"salesorder-api/internal/domain"
	"salesorder-api/internal/pricing"
)

// lenientNumber accepts a JSON number, a numeric string, or null. Anything
// it cannot read as a number later parses to zero.
type lenientNumber string

func (n *lenientNumber) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*n = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*n = ""
			return nil
		}
		*n = lenientNumber(s)
		return nil
	}
	*n = lenientNumber(raw)
	return nil
}

type salesOrderRequest struct {
	SalesOrderID int64                   `json:"salesOrderId"`
	CustomerID   int64                   `json:"customerId"`
	InvoiceNo    string                  `json:"invoiceNo"`
	InvoiceDate  string                  `json:"invoiceDate"`
	ReferenceNo  string                  `json:"referenceNo"`
	Note         string                  `json:"note"`
	Version      *int                    `json:"version"`
	Lines        []salesOrderLineRequest `json:"salesOrderLines"`
}

type salesOrderLineRequest struct {
	ItemCode    string        `json:"itemCode"`
	Description string        `json:"description"`
	Note        string        `json:"note"`
	Quantity    lenientNumber `json:"quantity"`
	Price       lenientNumber `json:"price"`
	Tax         lenientNumber `json:"tax"`
}

var invoiceDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseInvoiceDate returns the zero time for an empty value, letting the
// service default it to the creation time.
func parseInvoiceDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	for _, layout := range invoiceDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// toDomain converts the request. Totals and line amounts are not read:
// they are always derived server-side.
func (r salesOrderRequest) toDomain() (domain.SalesOrder, error) {
	date, ok := parseInvoiceDate(r.InvoiceDate)
	if !ok {
		return domain.SalesOrder{}, domain.NewValidationError("invoiceDate must be an ISO-8601 date")
	}

	lines := make([]domain.SalesOrderLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, domain.SalesOrderLine{
			ItemCode:    l.ItemCode,
			Description: l.Description,
			Note:        l.Note,
			Quantity:    pricing.ParseQuantity(string(l.Quantity)),
			Price:       pricing.ParseDecimal(string(l.Price)),
			TaxRate:     pricing.ParseDecimal(string(l.Tax)),
		})
	}

	return domain.SalesOrder{
		ID:          r.SalesOrderID,
		CustomerID:  r.CustomerID,
		InvoiceNo:   r.InvoiceNo,
		InvoiceDate: date,
		ReferenceNo: r.ReferenceNo,
		Note:        r.Note,
		Lines:       lines,
	}, nil
}
