package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name  string
		part  decimal.Decimal
		whole decimal.Decimal
		want  decimal.Decimal
	}{
		{name: "gain", part: decimal.NewFromInt(25), whole: decimal.NewFromInt(200), want: decimal.RequireFromString("12.5")},
		{name: "loss", part: decimal.NewFromInt(-50), whole: decimal.NewFromInt(1000), want: decimal.NewFromInt(-5)},
		{name: "zero whole", part: decimal.NewFromInt(10), whole: decimal.Zero, want: decimal.Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(tt.part, tt.whole)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, "1.0667", Round(decimal.RequireFromString("1.0666666666666667"), 4).String())
	assert.Equal(t, "-0.13", Round(decimal.RequireFromString("-0.125"), 2).String())
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+1.23%", FormatPercent(decimal.RequireFromString("1.234")))
	assert.Equal(t, "+0.00%", FormatPercent(decimal.Zero))
	assert.Equal(t, "-4.57%", FormatPercent(decimal.RequireFromString("-4.567")))
}

func TestFormatCurrency(t *testing.T) {
	s := FormatCurrency(decimal.RequireFromString("1234.56789"), DefaultCurrency, DefaultDigits)
	assert.Contains(t, s, "1,234.5679")

	s = FormatCurrency(decimal.RequireFromString("-12.5"), DefaultCurrency, 2)
	assert.Contains(t, s, "12.50")
	assert.Contains(t, s, "-")
}
