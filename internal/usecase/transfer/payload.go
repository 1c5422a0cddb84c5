// Package transfer reads and writes the portable import/export documents.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/moneyney/moneyney-backend/internal/clock"
	"github.com/moneyney/moneyney-backend/internal/domain"
)

// ErrInvalidDocument is returned when an import document cannot be read
var ErrInvalidDocument = errors.New("invalid import document")

// Payload is an import document. A nil list was absent (or null) in the
// document and leaves the stored list as it is.
type Payload struct {
	Funds        *[]domain.Holding     `json:"funds"`
	Transactions *[]domain.Transaction `json:"transactions"`
}

// ExportedHolding is the subset of a holding carried by an export. Derived
// and transient fields (lastPrice, updatedAt, gszzl) are left out.
type ExportedHolding struct {
	ID             string                   `json:"id"`
	Name           string                   `json:"name"`
	Shares         decimal.Decimal          `json:"shares"`
	CostPrice      decimal.Decimal          `json:"costPrice"`
	CurrentPrice   decimal.Decimal          `json:"currentPrice"`
	InitialPrice   decimal.NullDecimal      `json:"initialPrice"`
	PriceUpdatedAt string                   `json:"priceUpdatedAt"`
	CreatedAt      time.Time                `json:"createdAt"`
	Strategy       *domain.ContributionPlan `json:"investmentStrategy,omitempty"`
	Tag            string                   `json:"tag,omitempty"`
}

// Export is an export document
type Export struct {
	Funds        []ExportedHolding    `json:"funds"`
	Transactions []domain.Transaction `json:"transactions"`
}

// TransactionRow is one line of the transaction CSV export
type TransactionRow struct {
	ID       string `csv:"id"`
	Date     string `csv:"date"`
	FundID   string `csv:"fund_id"`
	FundName string `csv:"fund_name"`
	Type     string `csv:"type"`
	Shares   string `csv:"shares"`
	Price    string `csv:"price"`
	Amount   string `csv:"amount"`
	Reverted bool   `csv:"reverted"`
}

// Decode parses an import document and validates every entry in it.
// Legacy contribution shapes are normalized while decoding and ISO-8601
// price timestamps are converted to market time.
func Decode(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if p.Funds != nil {
		funds := *p.Funds
		seen := make(map[string]bool, len(funds))
		for i := range funds {
			h := &funds[i]
			if err := h.Validate(); err != nil {
				return Payload{}, fmt.Errorf("fund %d: %w", i, err)
			}
			if seen[h.ID] {
				return Payload{}, fmt.Errorf("fund %d: %w: %s", i, domain.ErrHoldingExists, h.ID)
			}
			seen[h.ID] = true

			ts, err := clock.NormalizePriceTime(h.PriceUpdatedAt)
			if err != nil {
				return Payload{}, fmt.Errorf("%w: fund %s: %w", ErrInvalidDocument, h.ID, err)
			}
			h.PriceUpdatedAt = ts
		}
	}

	if p.Transactions != nil {
		txs := *p.Transactions
		for i := range txs {
			if err := txs[i].Validate(); err != nil {
				return Payload{}, fmt.Errorf("transaction %d (%s): %w", i, txs[i].ID, err)
			}
		}
	}
	return p, nil
}

// NewExport builds an export document
func NewExport(holdings []domain.Holding, transactions []domain.Transaction) Export {
	out := Export{
		Funds:        make([]ExportedHolding, 0, len(holdings)),
		Transactions: transactions,
	}
	if out.Transactions == nil {
		out.Transactions = []domain.Transaction{}
	}
	for _, h := range holdings {
		out.Funds = append(out.Funds, ExportedHolding{
			ID:             h.ID,
			Name:           h.Name,
			Shares:         h.Shares,
			CostPrice:      h.CostPrice,
			CurrentPrice:   h.CurrentPrice,
			InitialPrice:   h.InitialPrice,
			PriceUpdatedAt: h.PriceUpdatedAt,
			CreatedAt:      h.CreatedAt,
			Strategy:       h.Strategy,
			Tag:            h.Tag,
		})
	}
	return out
}

// Encode writes an indented export document
func Encode(w io.Writer, e Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("failed to encode export document: %w", err)
	}
	return nil
}

// WriteTransactionsCSV writes the transactions as CSV with a header line.
// Dates are rendered in market time.
func WriteTransactionsCSV(w io.Writer, transactions []domain.Transaction) error {
	rows := make([]*TransactionRow, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, &TransactionRow{
			ID:       tx.ID,
			Date:     clock.FormatPriceTime(tx.Date),
			FundID:   tx.HoldingID,
			FundName: tx.HoldingName,
			Type:     string(tx.Kind),
			Shares:   tx.Shares.String(),
			Price:    tx.Price.String(),
			Amount:   tx.Amount.String(),
			Reverted: tx.Reverted,
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write transactions csv: %w", err)
	}
	return nil
}
