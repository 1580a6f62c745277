package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceNoMaxLen   = 50
	ReferenceNoMaxLen = 100
	OrderNoteMaxLen   = 500
	ItemCodeMaxLen    = 50
	DescriptionMaxLen = 500
	LineNoteMaxLen    = 500
)

// AmountLimit is the exclusive upper bound for every stored monetary value
// and rate: NUMERIC(18,2) holds 16 integer digits.
var AmountLimit = decimal.New(1, 16)

// UnknownCustomerMessage is reported when an order names a customer id that
// does not exist.
const UnknownCustomerMessage = "customerId does not reference an existing customer"

// SalesOrder is the aggregate root: a header plus its full line set.
// Totals are derived from Lines and are never taken from callers.
type SalesOrder struct {
	ID           int64
	CustomerID   int64
	Customer     *Customer
	InvoiceNo    string
	InvoiceDate  time.Time
	ReferenceNo  string
	Note         string
	TotalExcl    decimal.Decimal
	TotalTax     decimal.Decimal
	TotalIncl    decimal.Decimal
	Version      int
	CreatedDate  time.Time
	ModifiedDate *time.Time
	Lines        []SalesOrderLine
}

// SalesOrderLine belongs to exactly one order. ExclAmount, TaxAmount and
// InclAmount are derived from Quantity, Price and TaxRate.
type SalesOrderLine struct {
	ID           int64
	SalesOrderID int64
	ItemCode     string
	Description  string
	Note         string
	Quantity     int64
	Price        decimal.Decimal
	// TaxRate is a percentage: 10 means 10%.
	TaxRate    decimal.Decimal
	ExclAmount decimal.Decimal
	TaxAmount  decimal.Decimal
	InclAmount decimal.Decimal
}

// Validate checks the header and every line against the write rules:
// customer and invoice number present, at least one line, field bounds,
// and non-negative numerics.
func (o SalesOrder) Validate() error {
	v := NewValidator()
	if o.CustomerID <= 0 {
		v.Add("customerId is required")
	}
	v.Required("invoiceNo", o.InvoiceNo)
	v.MaxLen("invoiceNo", o.InvoiceNo, InvoiceNoMaxLen)
	v.MaxLen("referenceNo", o.ReferenceNo, ReferenceNoMaxLen)
	v.MaxLen("note", o.Note, OrderNoteMaxLen)
	if len(o.Lines) == 0 {
		v.Add("salesOrderLines must contain at least one line")
	}
	for i, l := range o.Lines {
		l.validate(v, i)
	}
	return v.Err()
}

func (l SalesOrderLine) validate(v *Validator, idx int) {
	field := func(name string) string {
		return "salesOrderLines[" + strconv.Itoa(idx) + "]." + name
	}
	v.MaxLen(field("itemCode"), l.ItemCode, ItemCodeMaxLen)
	v.MaxLen(field("description"), l.Description, DescriptionMaxLen)
	v.MaxLen(field("note"), l.Note, LineNoteMaxLen)
	if l.Quantity < 0 {
		v.Add(field("quantity") + " must not be negative")
	}
	if l.Price.IsNegative() {
		v.Add(field("price") + " must not be negative")
	}
	if l.TaxRate.IsNegative() {
		v.Add(field("tax") + " must not be negative")
	}
	if l.Price.GreaterThanOrEqual(AmountLimit) {
		v.Add(field("price") + " must be less than " + AmountLimit.String())
	}
	if l.TaxRate.GreaterThanOrEqual(AmountLimit) {
		v.Add(field("tax") + " must be less than " + AmountLimit.String())
	}
}

// ValidateAmounts checks that derived line amounts and header totals fit
// the stored precision. Call it after the amounts have been calculated.
func (o SalesOrder) ValidateAmounts() error {
	v := NewValidator()
	tooLarge := func(name string, d decimal.Decimal) {
		if d.Abs().GreaterThanOrEqual(AmountLimit) {
			v.Add(name + " must be less than " + AmountLimit.String())
		}
	}
	for i, l := range o.Lines {
		prefix := "salesOrderLines[" + strconv.Itoa(i) + "]."
		tooLarge(prefix+"exclAmount", l.ExclAmount)
		tooLarge(prefix+"taxAmount", l.TaxAmount)
		tooLarge(prefix+"inclAmount", l.InclAmount)
	}
	tooLarge("totalExcl", o.TotalExcl)
	tooLarge("totalTax", o.TotalTax)
	tooLarge("totalIncl", o.TotalIncl)
	return v.Err()
}
