// Package render draws merged forecast series and formats panel values for display.
package render

import (
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// NotAvailable is shown for absent values.
const NotAvailable = "N/A"

func round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Money formats v as dollars with two decimals, e.g. "$189.50" or "-$2.00".
func Money(v float64) string {
	d := round2(v)
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// SignedMoney is Money with an explicit plus sign for gains.
func SignedMoney(v float64) string {
	if round2(v).IsPositive() {
		return "+" + Money(v)
	}
	return Money(v)
}

// Percent formats v (already in percent) with two decimals, e.g. "2.54%".
func Percent(v float64) string {
	return round2(v).StringFixed(2) + "%"
}

// Signed formats v (already in percent) with an explicit sign, e.g. "+2.54%".
func Signed(v float64) string {
	d := round2(v)
	if d.IsPositive() {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

// Number formats v with the given number of decimals.
func Number(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// OptionalMoney formats a present value as Money and an absent one as NotAvailable.
func OptionalMoney(v null.Float) string {
	if !v.Valid {
		return NotAvailable
	}
	return Money(v.Float64)
}

// OptionalSigned formats a present value as Signed and an absent one as NotAvailable.
func OptionalSigned(v null.Float) string {
	if !v.Valid {
		return NotAvailable
	}
	return Signed(v.Float64)
}
