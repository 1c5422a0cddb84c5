// Package contribution executes the configured recurring buys of a day as one
// all-or-nothing batch.
package contribution

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/moneyney/moneyney-backend/internal/domain"
	"github.com/moneyney/moneyney-backend/internal/usecase/ledger"
)

// PlannedBuy is one validated contribution ready to be applied
type PlannedBuy struct {
	HoldingID string
	Amount    decimal.Decimal
	Price     decimal.Decimal
	Shares    decimal.Decimal // Amount / Price
}

// Planner validates and executes daily contributions
type Planner struct {
	engine *ledger.Engine
}

// NewPlanner creates a new Planner applying buys through the given engine
func NewPlanner(engine *ledger.Engine) *Planner {
	return &Planner{engine: engine}
}

// Plan validates every selected holding before anything is bought.
// Logic:
//   - Unknown id: ErrHoldingNotFound
//   - No plan or amount <= 0: skipped
//   - Frequency other than daily: ErrUnsupportedFrequency
//   - Amount / current price <= 0 (a zero price included): ErrAmountTooSmall
//
// The first failure aborts the whole batch. Repeated ids are planned once.
func Plan(holdings []domain.Holding, selectedIDs []string) ([]PlannedBuy, error) {
	seen := make(map[string]bool, len(selectedIDs))
	var plan []PlannedBuy

	for _, id := range selectedIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		idx := domain.FindHolding(holdings, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrHoldingNotFound, id)
		}
		h := holdings[idx]

		if h.Strategy == nil || !h.Strategy.Active() {
			continue
		}
		if h.Strategy.Frequency != domain.FrequencyDaily {
			return nil, fmt.Errorf("%w: %s (%s) is %s", domain.ErrUnsupportedFrequency, h.Name, h.ID, h.Strategy.Frequency)
		}
		if !h.CurrentPrice.IsPositive() {
			return nil, fmt.Errorf("%w: %s (%s) has no price", domain.ErrAmountTooSmall, h.Name, h.ID)
		}
		shares := h.Strategy.Amount.Div(h.CurrentPrice)
		if !shares.IsPositive() {
			return nil, fmt.Errorf("%w: %s (%s) buys %s shares", domain.ErrAmountTooSmall, h.Name, h.ID, shares)
		}

		plan = append(plan, PlannedBuy{
			HoldingID: h.ID,
			Amount:    h.Strategy.Amount,
			Price:     h.CurrentPrice,
			Shares:    shares,
		})
	}
	return plan, nil
}

// Execute applies the planned buys to a copy of the holdings and returns the
// new holdings with the recorded transactions. On error the input is untouched
// and nothing is returned to persist.
func (p *Planner) Execute(holdings []domain.Holding, plan []PlannedBuy) ([]domain.Holding, []domain.Transaction, error) {
	next := make([]domain.Holding, len(holdings))
	copy(next, holdings)
	txs := make([]domain.Transaction, 0, len(plan))

	for _, buy := range plan {
		idx := domain.FindHolding(next, buy.HoldingID)
		if idx < 0 {
			return nil, nil, fmt.Errorf("%w: %s", domain.ErrHoldingNotFound, buy.HoldingID)
		}
		updated, tx, err := p.engine.Apply(next[idx], domain.TransactionKindBuy, buy.Shares, buy.Price)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to apply contribution to %s: %w", buy.HoldingID, err)
		}
		next[idx] = updated
		txs = append(txs, tx)
	}
	return next, txs, nil
}

// Run plans and executes in one step
func (p *Planner) Run(holdings []domain.Holding, selectedIDs []string) ([]domain.Holding, []domain.Transaction, error) {
	plan, err := Plan(holdings, selectedIDs)
	if err != nil {
		return nil, nil, err
	}
	return p.Execute(holdings, plan)
}
