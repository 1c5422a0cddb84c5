package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Named slots of the persistent store
const (
	SlotFunds               = "moneyney-funds"
	SlotTransactions        = "moneyney-transactions"
	SlotYesterdayTotalValue = "moneyney-yesterday-total-value"
	SlotTodayTotalValue     = "moneyney-today-total-value"
	SlotLastUpdateDate      = "moneyney-last-update-date"
)

// Slots lists every slot owned by the portfolio state
var Slots = []string{
	SlotFunds,
	SlotTransactions,
	SlotYesterdayTotalValue,
	SlotTodayTotalValue,
	SlotLastUpdateDate,
}

// Store defines the key-value persistence the engine state lives in.
// Values are JSON documents.
type Store interface {
	// Get returns the value of a slot, ok is false when the slot was never set
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores the value of a slot, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a slot. Deleting a missing slot is not an error.
	Delete(ctx context.Context, key string) error
}

// SlotWrite is one change of a batch. A nil Value deletes the slot.
type SlotWrite struct {
	Key   string
	Value []byte
}

// BatchStore is a Store that can apply several writes atomically.
// Either every write of a batch is visible afterwards or none is.
type BatchStore interface {
	Store
	WriteBatch(ctx context.Context, writes []SlotWrite) error
}

// Quote is the latest estimate of a fund returned by a quote source
type Quote struct {
	HoldingID     string
	Name          string
	Price         decimal.Decimal
	PreviousClose decimal.NullDecimal // last official net value, if published
	ChangePercent string
	AsOf          string // quote time, "YYYY-MM-DD HH:mm" or ISO-8601
}

// QuoteSource defines the external price provider
type QuoteSource interface {
	// Quote returns the latest quote of a fund, or an error when none is available
	Quote(ctx context.Context, holdingID string) (*Quote, error)
}
