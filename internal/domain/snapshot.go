package domain

import "github.com/shopspring/decimal"

// ValuationSnapshot holds the aggregate portfolio value of the current market
// day and of the previous one. LastUpdateDate is a YYYY-MM-DD market date;
// empty means no valuation was ever recorded.
type ValuationSnapshot struct {
	TodayTotalValue     decimal.NullDecimal
	YesterdayTotalValue decimal.NullDecimal
	LastUpdateDate      string
}
