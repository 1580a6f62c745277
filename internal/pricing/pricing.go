// Package pricing derives line and order amounts for sales orders.
//
// Line amounts are rounded to two decimal places as they are derived and
// order totals are sums of the rounded line amounts, so a stored order
// always satisfies total == Σ line amount exactly.
package pricing

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"salesorder-api/internal/domain"
)

// Places is the number of fractional digits kept for monetary amounts.
const Places = 2

var (
	hundred = decimal.NewFromInt(100)

	minQuantity = decimal.NewFromInt(math.MinInt64)
	maxQuantity = decimal.NewFromInt(math.MaxInt64)
)

// LineAmounts holds the derived amounts of a single line.
type LineAmounts struct {
	Excl decimal.Decimal
	Tax  decimal.Decimal
	Incl decimal.Decimal
}

// CalculateLine derives excl = quantity*price, tax = excl*rate/100 and
// incl = excl + tax. Excl and Tax are rounded half away from zero; Incl is
// the exact sum of the two rounded parts.
func CalculateLine(quantity int64, price, taxRatePercent decimal.Decimal) LineAmounts {
	excl := decimal.NewFromInt(quantity).Mul(price).Round(Places)
	tax := excl.Mul(taxRatePercent).Div(hundred).Round(Places)
	return LineAmounts{
		Excl: excl,
		Tax:  tax,
		Incl: excl.Add(tax),
	}
}

// Recalculate returns a copy of order with every line's amounts derived
// from its quantity, price and tax rate, and the header totals summed from
// those lines. Any amounts already present on order are discarded.
func Recalculate(order domain.SalesOrder) domain.SalesOrder {
	out := order
	out.TotalExcl = decimal.Zero
	out.TotalTax = decimal.Zero
	out.TotalIncl = decimal.Zero
	out.Lines = make([]domain.SalesOrderLine, len(order.Lines))

	for i, line := range order.Lines {
		amounts := CalculateLine(line.Quantity, line.Price, line.TaxRate)
		line.ExclAmount = amounts.Excl
		line.TaxAmount = amounts.Tax
		line.InclAmount = amounts.Incl
		out.Lines[i] = line

		out.TotalExcl = out.TotalExcl.Add(amounts.Excl)
		out.TotalTax = out.TotalTax.Add(amounts.Tax)
		out.TotalIncl = out.TotalIncl.Add(amounts.Incl)
	}
	return out
}

// ParseDecimal reads a user-supplied numeric string. Empty or malformed
// input yields zero so one bad field only zeroes its own contribution.
func ParseDecimal(raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantity reads a user-supplied quantity, truncating any fraction.
// Empty, malformed or out-of-int64-range input yields zero.
func ParseQuantity(raw string) int64 {
	d := ParseDecimal(raw).Truncate(0)
	if d.LessThan(minQuantity) || d.GreaterThan(maxQuantity) {
		return 0
	}
	return d.IntPart()
}
