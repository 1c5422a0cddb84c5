// Package ledger applies buy/sell trades to holdings and reverts them.
//
// Cost basis is a weighted average over the shares currently held. Reverting
// or restoring a transaction is a stateless delta computed from the holding's
// current state and that single transaction, not a replay of the ledger.
// Because a weighted average cannot be split back into per-trade parts,
// reverting several transactions out of reverse-chronological order can give
// a different cost basis than undoing them newest first. The engine does not
// enforce an order; callers that need exact history must revert newest first.
package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/moneyney/moneyney-backend/internal/clock"
	"github.com/moneyney/moneyney-backend/internal/domain"
)

// Engine owns transaction application and the resulting holding mutation
type Engine struct {
	clock clock.Clock
	newID func() string
}

// NewEngine creates a new Engine stamping records with the given clock
func NewEngine(c clock.Clock) *Engine {
	return &Engine{
		clock: c,
		newID: uuid.NewString,
	}
}

// Apply executes a trade against a holding.
// Logic:
//   - Buy: shares = old + traded, cost = (old x cost + traded x price) / shares
//   - Sell: shares = old - traded, cost unchanged
//
// Returns the new holding state and the recorded transaction. The input
// holding is never modified; on error nothing is returned to persist.
func (e *Engine) Apply(
	holding domain.Holding,
	kind domain.TransactionKind,
	shares, price decimal.Decimal,
) (domain.Holding, domain.Transaction, error) {
	if !shares.IsPositive() || !price.IsPositive() {
		return domain.Holding{}, domain.Transaction{}, fmt.Errorf("%w: shares %s, price %s must be positive", domain.ErrInvalidQuantity, shares, price)
	}

	newShares, newCost, err := forward(holding, kind, shares, price)
	if err != nil {
		return domain.Holding{}, domain.Transaction{}, err
	}

	now := e.clock.Now()
	tx := domain.Transaction{
		ID:          e.newID(),
		HoldingID:   holding.ID,
		HoldingName: holding.Name,
		Kind:        kind,
		Shares:      shares,
		Price:       price,
		Amount:      shares.Mul(price),
		Date:        now,
		Reverted:    false,
	}

	holding.Shares = newShares
	holding.CostPrice = newCost
	holding.UpdatedAt = now

	return holding, tx, nil
}

// ToggleRevert removes the effect of an active transaction from its holding,
// or re-applies a reverted one, and flips the reverted flag.
// Logic:
//   - Revert buy: shares = old - traded; if that leaves nothing the cost resets
//     to the holding's initial price (or 0), otherwise
//     cost = (old x cost - traded x price) / shares
//   - Revert sell: shares = old + traded, cost unchanged
//   - Restore: the forward formula of the transaction's kind
//
// Fails with ErrNegativeShares when the result would be negative; neither the
// holding nor the transaction is modified in that case.
func (e *Engine) ToggleRevert(
	tx domain.Transaction,
	holding domain.Holding,
) (domain.Holding, domain.Transaction, error) {
	if tx.HoldingID != holding.ID {
		return domain.Holding{}, domain.Transaction{}, fmt.Errorf("%w: transaction %s belongs to %s, not %s", domain.ErrHoldingNotFound, tx.ID, tx.HoldingID, holding.ID)
	}
	if err := tx.Validate(); err != nil {
		return domain.Holding{}, domain.Transaction{}, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}

	var newShares, newCost decimal.Decimal
	if tx.Reverted {
		newShares, newCost = restore(holding, tx)
	} else {
		newShares, newCost = revert(holding, tx)
	}

	if newShares.IsNegative() {
		return domain.Holding{}, domain.Transaction{}, fmt.Errorf("%w: toggling transaction %s would leave %s shares", domain.ErrNegativeShares, tx.ID, newShares)
	}

	holding.Shares = newShares
	holding.CostPrice = newCost
	holding.UpdatedAt = e.clock.Now()
	tx.Reverted = !tx.Reverted

	return holding, tx, nil
}

// forward computes the state after a new trade
func forward(h domain.Holding, kind domain.TransactionKind, shares, price decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	switch kind {
	case domain.TransactionKindBuy:
		newShares := h.Shares.Add(shares)
		totalCost := h.Shares.Mul(h.CostPrice).Add(shares.Mul(price))
		return newShares, totalCost.Div(newShares), nil
	case domain.TransactionKindSell:
		if shares.GreaterThan(h.Shares) {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: selling %s of %s held", domain.ErrInsufficientShares, shares, h.Shares)
		}
		return h.Shares.Sub(shares), h.CostPrice, nil
	default:
		return decimal.Zero, decimal.Zero, fmt.Errorf("%w: unknown type %q", domain.ErrInvalidTransaction, kind)
	}
}

// revert computes the state with an active transaction taken out
func revert(h domain.Holding, tx domain.Transaction) (decimal.Decimal, decimal.Decimal) {
	if tx.Kind == domain.TransactionKindSell {
		return h.Shares.Add(tx.Shares), h.CostPrice
	}

	newShares := h.Shares.Sub(tx.Shares)
	if !newShares.IsPositive() {
		return newShares, h.FallbackCostPrice()
	}
	remaining := h.Shares.Mul(h.CostPrice).Sub(tx.Shares.Mul(tx.Price))
	return newShares, remaining.Div(newShares)
}

// restore computes the state with a reverted transaction applied again.
// Unlike a new sell, an oversized restore reports negative shares.
func restore(h domain.Holding, tx domain.Transaction) (decimal.Decimal, decimal.Decimal) {
	if tx.Kind == domain.TransactionKindSell {
		return h.Shares.Sub(tx.Shares), h.CostPrice
	}

	newShares := h.Shares.Add(tx.Shares)
	totalCost := h.Shares.Mul(h.CostPrice).Add(tx.Shares.Mul(tx.Price))
	return newShares, totalCost.Div(newShares)
}
