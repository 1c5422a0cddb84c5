package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the side of a trade
type TransactionKind string

const (
	TransactionKindBuy  TransactionKind = "buy"
	TransactionKindSell TransactionKind = "sell"
)

// Transaction represents a recorded trade on a holding.
// Every field except Reverted is immutable once recorded.
type Transaction struct {
	ID          string          `json:"id"`
	HoldingID   string          `json:"fundId"`
	HoldingName string          `json:"fundName,omitempty"` // copied for listings that outlive the holding
	Kind        TransactionKind `json:"type"`
	Shares      decimal.Decimal `json:"shares"`
	Price       decimal.Decimal `json:"price"`
	Amount      decimal.Decimal `json:"amount"` // Shares x Price
	Date        time.Time       `json:"date"`
	Reverted    bool            `json:"reverted"`
}

// Validate ensures the transaction adheres to domain rules
func (t *Transaction) Validate() error {
	if t.HoldingID == "" {
		return fmt.Errorf("%w: transaction must reference a holding", ErrInvalidTransaction)
	}
	if t.Kind != TransactionKindBuy && t.Kind != TransactionKindSell {
		return fmt.Errorf("%w: transaction type must be buy or sell", ErrInvalidTransaction)
	}
	if !t.Shares.IsPositive() || !t.Price.IsPositive() {
		return ErrInvalidQuantity
	}
	return nil
}

// FindTransaction returns the index of the transaction with the given id, or -1
func FindTransaction(transactions []Transaction, id string) int {
	for i := range transactions {
		if transactions[i].ID == id {
			return i
		}
	}
	return -1
}
