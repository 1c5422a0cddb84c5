package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents a tracked fund position in the domain layer.
// The JSON field names follow the persisted layout of the funds slot.
type Holding struct {
	ID             string              `json:"id"` // fund code, unique key
	Name           string              `json:"name"`
	Shares         decimal.Decimal     `json:"shares"`
	CostPrice      decimal.Decimal     `json:"costPrice"` // weighted-average cost per share
	CurrentPrice   decimal.Decimal     `json:"currentPrice"`
	LastPrice      decimal.NullDecimal `json:"lastPrice"`    // previous observed price, drives daily change
	InitialPrice   decimal.NullDecimal `json:"initialPrice"` // cost basis fallback when a revert empties the holding
	PriceUpdatedAt string              `json:"priceUpdatedAt"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	Strategy       *ContributionPlan   `json:"investmentStrategy,omitempty"`
	Tag            string              `json:"tag,omitempty"`
	ChangePercent  string              `json:"gszzl,omitempty"` // last quoted change percent, as quoted
}

// Validate ensures the holding adheres to domain rules
func (h *Holding) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("%w: holding id cannot be empty", ErrInvalidHolding)
	}
	if h.Shares.IsNegative() {
		return fmt.Errorf("%w: holding shares cannot be negative", ErrInvalidHolding)
	}
	if h.CostPrice.IsNegative() {
		return fmt.Errorf("%w: holding cost price cannot be negative", ErrInvalidHolding)
	}
	if h.CurrentPrice.IsNegative() {
		return fmt.Errorf("%w: holding current price cannot be negative", ErrInvalidHolding)
	}
	return nil
}

// Value is shares x current price
func (h Holding) Value() decimal.Decimal {
	return h.Shares.Mul(h.CurrentPrice)
}

// Cost is shares x cost price
func (h Holding) Cost() decimal.Decimal {
	return h.Shares.Mul(h.CostPrice)
}

// PreviousPrice returns the previous observed price when it can take part in
// a daily change: it must be set, positive and different from the current price.
func (h Holding) PreviousPrice() (decimal.Decimal, bool) {
	if !h.LastPrice.Valid || !h.LastPrice.Decimal.IsPositive() {
		return decimal.Zero, false
	}
	if h.LastPrice.Decimal.Equal(h.CurrentPrice) {
		return decimal.Zero, false
	}
	return h.LastPrice.Decimal, true
}

// FallbackCostPrice is the cost basis used when a holding is emptied by a revert
func (h Holding) FallbackCostPrice() decimal.Decimal {
	if h.InitialPrice.Valid {
		return h.InitialPrice.Decimal
	}
	return decimal.Zero
}

// FindHolding returns the index of the holding with the given id, or -1
func FindHolding(holdings []Holding, id string) int {
	for i := range holdings {
		if holdings[i].ID == id {
			return i
		}
	}
	return -1
}
