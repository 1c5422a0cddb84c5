package portfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/moneyney/moneyney-backend/internal/domain"
)

// state is the whole portfolio as held by the store slots
type state struct {
	Holdings     []domain.Holding
	Transactions []domain.Transaction
	Snapshot     domain.ValuationSnapshot
}

// loadState reads every slot. Missing slots load as empty values.
func loadState(ctx context.Context, store domain.Store) (*state, error) {
	st := &state{}

	if err := getJSON(ctx, store, domain.SlotFunds, &st.Holdings); err != nil {
		return nil, err
	}
	if err := getJSON(ctx, store, domain.SlotTransactions, &st.Transactions); err != nil {
		return nil, err
	}

	today, err := getDecimal(ctx, store, domain.SlotTodayTotalValue)
	if err != nil {
		return nil, err
	}
	yesterday, err := getDecimal(ctx, store, domain.SlotYesterdayTotalValue)
	if err != nil {
		return nil, err
	}
	date, err := getString(ctx, store, domain.SlotLastUpdateDate)
	if err != nil {
		return nil, err
	}
	st.Snapshot = domain.ValuationSnapshot{
		TodayTotalValue:     today,
		YesterdayTotalValue: yesterday,
		LastUpdateDate:      date,
	}
	return st, nil
}

// encodeState turns the state into the writes of one flush.
// Unset valuation values delete their slot.
func encodeState(holdings []domain.Holding, txs []domain.Transaction, snap domain.ValuationSnapshot) ([]domain.SlotWrite, error) {
	if holdings == nil {
		holdings = []domain.Holding{}
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	writes := make([]domain.SlotWrite, 0, len(domain.Slots))
	add := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		writes = append(writes, domain.SlotWrite{Key: key, Value: raw})
		return nil
	}

	if err := add(domain.SlotFunds, holdings); err != nil {
		return nil, err
	}
	if err := add(domain.SlotTransactions, txs); err != nil {
		return nil, err
	}
	writes = append(writes, snapshotWrites(snap)...)
	return writes, nil
}

// snapshotWrites encodes the three valuation slots
func snapshotWrites(snap domain.ValuationSnapshot) []domain.SlotWrite {
	nullable := func(key string, v decimal.NullDecimal) domain.SlotWrite {
		if !v.Valid {
			return domain.SlotWrite{Key: key}
		}
		raw, _ := json.Marshal(v.Decimal)
		return domain.SlotWrite{Key: key, Value: raw}
	}

	date := domain.SlotWrite{Key: domain.SlotLastUpdateDate}
	if snap.LastUpdateDate != "" {
		date.Value, _ = json.Marshal(snap.LastUpdateDate)
	}
	return []domain.SlotWrite{
		nullable(domain.SlotTodayTotalValue, snap.TodayTotalValue),
		nullable(domain.SlotYesterdayTotalValue, snap.YesterdayTotalValue),
		date,
	}
}

// flush applies the writes, atomically when the store supports batches
func flush(ctx context.Context, store domain.Store, writes []domain.SlotWrite) error {
	if batch, ok := store.(domain.BatchStore); ok {
		if err := batch.WriteBatch(ctx, writes); err != nil {
			return fmt.Errorf("failed to write state: %w", err)
		}
		return nil
	}

	for _, w := range writes {
		if w.Value == nil {
			if err := store.Delete(ctx, w.Key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", w.Key, err)
			}
			continue
		}
		if err := store.Set(ctx, w.Key, w.Value); err != nil {
			return fmt.Errorf("failed to write %s: %w", w.Key, err)
		}
	}
	return nil
}

func getJSON(ctx context.Context, store domain.Store, key string, out any) error {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// getDecimal accepts both a JSON number and a quoted decimal
func getDecimal(ctx context.Context, store domain.Store, key string) (decimal.NullDecimal, error) {
	var v decimal.NullDecimal
	if err := getJSON(ctx, store, key, &v); err != nil {
		return decimal.NullDecimal{}, err
	}
	return v, nil
}

// getString accepts a JSON string or a bare value written by older clients
func getString(ctx context.Context, store domain.Store, key string) (string, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	raw = bytes.TrimSpace(raw)
	if !ok || len(raw) == 0 {
		return "", nil
	}
	if raw[0] != '"' {
		return string(raw), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return s, nil
}
