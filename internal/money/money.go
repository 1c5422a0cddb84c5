// Package money holds the decimal helpers shared by the ledger and its
// presentation layers.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency holdings are quoted in
const DefaultCurrency = money.CNY

// DefaultDigits is the number of fraction digits used for fund prices
const DefaultDigits = 4

var hundred = decimal.NewFromInt(100)

// Round rounds d half away from zero to the given number of places
func Round(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// Percent returns part / whole x 100, or zero when whole is zero
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// FormatCurrency renders d in the given currency with a fixed number of
// fraction digits, e.g. "1,234.5678 元" for CNY with 4 digits.
func FormatCurrency(d decimal.Decimal, code string, digits int) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		cur = money.GetCurrency(DefaultCurrency)
	}
	f := money.NewFormatter(digits, cur.Decimal, cur.Thousand, cur.Grapheme, cur.Template)
	return f.Format(d.Shift(int32(digits)).Round(0).IntPart())
}

// FormatPercent renders a percentage with two decimals and an explicit sign
// for non-negative values, e.g. "+1.23%".
func FormatPercent(d decimal.Decimal) string {
	s := d.StringFixed(2) + "%"
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}
