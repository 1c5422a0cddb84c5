// Package statistics derives portfolio totals and daily profit from holdings.
package statistics

import (
	"github.com/shopspring/decimal"

	"github.com/moneyney/moneyney-backend/internal/domain"
	"github.com/moneyney/moneyney-backend/internal/money"
)

// Summary represents the portfolio-wide figures. Rates are percentages.
type Summary struct {
	TotalValue      decimal.Decimal
	TotalCost       decimal.Decimal
	TotalProfit     decimal.Decimal
	TotalProfitRate decimal.Decimal
	TodayProfit     decimal.Decimal
	TodayProfitRate decimal.Decimal
	FundCount       int
}

// HoldingMetrics represents the figures of a single holding.
// PriceChangeRate and the daily fields are unset when the holding has no
// usable reference price.
type HoldingMetrics struct {
	HoldingID       string
	Value           decimal.Decimal
	Cost            decimal.Decimal
	Profit          decimal.Decimal
	ProfitRate      decimal.Decimal
	PriceChangeRate decimal.NullDecimal // current vs initial price
	DailyChange     decimal.NullDecimal // (current - last) x shares
	DailyChangeRate decimal.NullDecimal
}

// Summarize aggregates the holdings.
// Logic:
//   - TotalValue = sum of shares x current price, TotalCost = sum of shares x cost
//   - TotalProfitRate = profit / cost x 100, 0 when cost is 0
//   - TodayProfit = sum of (current - last) x shares over holdings with a
//     previous price that is positive and differs from the current one
//   - TodayProfitRate = TodayProfit / sum of last x shares (same holdings) x 100
//
// Holdings without a usable previous price are left out of both daily sums.
func Summarize(holdings []domain.Holding) Summary {
	s := Summary{
		TotalValue:  decimal.Zero,
		TotalCost:   decimal.Zero,
		TodayProfit: decimal.Zero,
		FundCount:   len(holdings),
	}
	previousValue := decimal.Zero

	for _, h := range holdings {
		s.TotalValue = s.TotalValue.Add(h.Value())
		s.TotalCost = s.TotalCost.Add(h.Cost())

		last, ok := h.PreviousPrice()
		if !ok {
			continue
		}
		s.TodayProfit = s.TodayProfit.Add(h.CurrentPrice.Sub(last).Mul(h.Shares))
		previousValue = previousValue.Add(last.Mul(h.Shares))
	}

	s.TotalProfit = s.TotalValue.Sub(s.TotalCost)
	s.TotalProfitRate = money.Percent(s.TotalProfit, s.TotalCost)
	s.TodayProfitRate = money.Percent(s.TodayProfit, previousValue)
	return s
}

// Metrics computes the figures of a single holding
func Metrics(h domain.Holding) HoldingMetrics {
	m := HoldingMetrics{
		HoldingID: h.ID,
		Value:     h.Value(),
		Cost:      h.Cost(),
	}
	m.Profit = m.Value.Sub(m.Cost)
	m.ProfitRate = money.Percent(m.Profit, m.Cost)

	if h.InitialPrice.Valid && h.InitialPrice.Decimal.IsPositive() {
		change := h.CurrentPrice.Sub(h.InitialPrice.Decimal)
		m.PriceChangeRate = decimal.NewNullDecimal(money.Percent(change, h.InitialPrice.Decimal))
	}

	if last, ok := h.PreviousPrice(); ok {
		diff := h.CurrentPrice.Sub(last)
		m.DailyChange = decimal.NewNullDecimal(diff.Mul(h.Shares))
		m.DailyChangeRate = decimal.NewNullDecimal(money.Percent(diff, last))
	}
	return m
}

// MetricsFor computes the figures of every holding, in order
func MetricsFor(holdings []domain.Holding) []HoldingMetrics {
	out := make([]HoldingMetrics, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, Metrics(h))
	}
	return out
}
