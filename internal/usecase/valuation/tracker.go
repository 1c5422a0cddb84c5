// Package valuation keeps the "today" and "yesterday" portfolio totals that
// daily change is measured against.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/moneyney/moneyney-backend/internal/clock"
	"github.com/moneyney/moneyney-backend/internal/domain"
)

// Record folds a new total value observed on the market date today into the
// snapshot.
// Logic:
//   - No date recorded yet: store today's value and date, yesterday stays unset
//   - Same date: overwrite today's value
//   - New date: the previous today value (if any) becomes yesterday's, then
//     today's value and date are stored
func Record(s domain.ValuationSnapshot, total decimal.Decimal, today string) domain.ValuationSnapshot {
	if s.LastUpdateDate != "" && s.LastUpdateDate != today && s.TodayTotalValue.Valid {
		s.YesterdayTotalValue = s.TodayTotalValue
	}
	s.TodayTotalValue = decimal.NewNullDecimal(total)
	s.LastUpdateDate = today
	return s
}

// TotalValue sums shares x current price over the holdings
func TotalValue(holdings []domain.Holding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.Value())
	}
	return total
}

// Tracker records valuations at the market date of its clock
type Tracker struct {
	clock clock.Clock
}

// NewTracker creates a new Tracker
func NewTracker(c clock.Clock) *Tracker {
	return &Tracker{clock: c}
}

// Observe records the total value of the holdings for the current market date
func (t *Tracker) Observe(s domain.ValuationSnapshot, holdings []domain.Holding) domain.ValuationSnapshot {
	return Record(s, TotalValue(holdings), clock.Today(t.clock.Now()))
}
