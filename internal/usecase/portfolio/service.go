// Package portfolio is the entry point for every portfolio operation. It
// loads the state from the store, runs the ledger components over it and
// flushes the result back.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moneyney/moneyney-backend/internal/clock"
	"github.com/moneyney/moneyney-backend/internal/domain"
	"github.com/moneyney/moneyney-backend/internal/usecase/contribution"
	"github.com/moneyney/moneyney-backend/internal/usecase/ledger"
	"github.com/moneyney/moneyney-backend/internal/usecase/statistics"
	"github.com/moneyney/moneyney-backend/internal/usecase/transfer"
	"github.com/moneyney/moneyney-backend/internal/usecase/valuation"
)

// Options tunes the service behaviour
type Options struct {
	// RetentionDays drops transactions older than this many days on flush, 0 keeps all
	RetentionDays int
	// EnforceTradingWindow only accepts trades at or after the market close
	EnforceTradingWindow bool
	// SyncConcurrency bounds the parallel quote fetches of a sync
	SyncConcurrency int
}

// HoldingUpdate represents an edit of holding info. Nil fields are unchanged.
type HoldingUpdate struct {
	Name         *string
	Tag          *string
	Shares       *decimal.Decimal
	CostPrice    *decimal.Decimal
	CurrentPrice *decimal.Decimal
	InitialPrice *decimal.NullDecimal
}

// PriceUpdate is one entry of a batch price update
type PriceUpdate struct {
	HoldingID string
	Price     decimal.Decimal
}

// StrategyUpdate replaces the contribution plan of a holding
type StrategyUpdate struct {
	HoldingID string
	Plan      domain.ContributionPlan
}

// SyncResult counts the outcome of a quote sync
type SyncResult struct {
	Succeeded int
	Failed    int
}

// Overview bundles the derived figures of the portfolio
type Overview struct {
	Summary  statistics.Summary
	Holdings []statistics.HoldingMetrics
	Snapshot domain.ValuationSnapshot
}

// PortfolioService handles portfolio operations
type PortfolioService struct {
	Store  domain.Store
	Quotes domain.QuoteSource

	engine  *ledger.Engine
	planner *contribution.Planner
	tracker *valuation.Tracker
	clock   clock.Clock
	log     *zap.SugaredLogger
	opts    Options

	// mu serializes every call that writes the store
	mu sync.Mutex
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(
	store domain.Store,
	quotes domain.QuoteSource,
	c clock.Clock,
	log *zap.SugaredLogger,
	opts Options,
) *PortfolioService {
	engine := ledger.NewEngine(c)
	if opts.SyncConcurrency <= 0 {
		opts.SyncConcurrency = 1
	}
	return &PortfolioService{
		Store:   store,
		Quotes:  quotes,
		engine:  engine,
		planner: contribution.NewPlanner(engine),
		tracker: valuation.NewTracker(c),
		clock:   c,
		log:     log,
		opts:    opts,
	}
}

// Holdings returns every holding in stored order
func (s *PortfolioService) Holdings(ctx context.Context) ([]domain.Holding, error) {
	st, err := loadState(ctx, s.Store)
	if err != nil {
		return nil, err
	}
	if st.Holdings == nil {
		return []domain.Holding{}, nil
	}
	return st.Holdings, nil
}

// Holding returns a single holding
func (s *PortfolioService) Holding(ctx context.Context, id string) (*domain.Holding, error) {
	st, err := loadState(ctx, s.Store)
	if err != nil {
		return nil, err
	}
	idx := domain.FindHolding(st.Holdings, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrHoldingNotFound, id)
	}
	h := st.Holdings[idx]
	return &h, nil
}

// AddHolding creates a holding.
// Logic:
//   - The id must be unused (ErrHoldingExists)
//   - A zero cost price defaults to the current price
//   - An unset initial price defaults to the cost price
//   - The price timestamp is normalized to market time, or set to now when empty
func (s *PortfolioService) AddHolding(ctx context.Context, h domain.Holding) (*domain.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.ID = strings.TrimSpace(h.ID)
	if h.CostPrice.IsZero() {
		h.CostPrice = h.CurrentPrice
	}
	if !h.InitialPrice.Valid {
		h.InitialPrice = decimal.NewNullDecimal(h.CostPrice)
	}
	ts, err := clock.NormalizePriceTime(h.PriceUpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidHolding, err)
	}
	now := s.clock.Now()
	if ts == "" {
		ts = clock.FormatPriceTime(now)
	}
	h.PriceUpdatedAt = ts
	h.CreatedAt = now
	h.UpdatedAt = now
	if err := h.Validate(); err != nil {
		return nil, err
	}

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return nil, err
	}
	if domain.FindHolding(st.Holdings, h.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrHoldingExists, h.ID)
	}

	st.Holdings = append(st.Holdings, h)
	st.Snapshot = s.tracker.Observe(st.Snapshot, st.Holdings)
	if err := s.commit(ctx, st); err != nil {
		return nil, err
	}

	s.log.Infow("added holding", "holding", h.ID, "shares", h.Shares.String(), "price", h.CurrentPrice.String())
	return &h, nil
}

// UpdateHolding edits the info of a holding
func (s *PortfolioService) UpdateHolding(ctx context.Context, id string, u HoldingUpdate) (*domain.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return nil, err
	}
	idx := domain.FindHolding(st.Holdings, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrHoldingNotFound, id)
	}

	h := st.Holdings[idx]
	if u.Name != nil {
		h.Name = *u.Name
	}
	if u.Tag != nil {
		h.Tag = strings.TrimSpace(*u.Tag)
	}
	if u.Shares != nil {
		h.Shares = *u.Shares
	}
	if u.CostPrice != nil {
		h.CostPrice = *u.CostPrice
	}
	if u.CurrentPrice != nil {
		h.CurrentPrice = *u.CurrentPrice
	}
	if u.InitialPrice != nil {
		h.InitialPrice = *u.InitialPrice
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	h.UpdatedAt = s.clock.Now()

	st.Holdings[idx] = h
	st.Snapshot = s.tracker.Observe(st.Snapshot, st.Holdings)
	if err := s.commit(ctx, st); err != nil {
		return nil, err
	}
	return &h, nil
}

// DeleteHolding removes a holding. Its transactions are kept but can no
// longer be toggled.
func (s *PortfolioService) DeleteHolding(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return err
	}
	idx := domain.FindHolding(st.Holdings, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrHoldingNotFound, id)
	}

	st.Holdings = append(st.Holdings[:idx], st.Holdings[idx+1:]...)
	st.Snapshot = s.tracker.Observe(st.Snapshot, st.Holdings)
	if err := s.commit(ctx, st); err != nil {
		return err
	}

	s.log.Infow("deleted holding", "holding", id)
	return nil
}

// Clear removes every holding and transaction
func (s *PortfolioService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return err
	}
	writes := append([]domain.SlotWrite{
		{Key: domain.SlotFunds},
		{Key: domain.SlotTransactions},
	}, snapshotWrites(s.tracker.Observe(st.Snapshot, nil))...)
	if err := flush(ctx, s.Store, writes); err != nil {
		return err
	}

	s.log.Infow("cleared portfolio", "holdings", len(st.Holdings), "transactions", len(st.Transactions))
	return nil
}

// RecordTrade buys or sells shares of a holding at the given price
func (s *PortfolioService) RecordTrade(
	ctx context.Context,
	holdingID string,
	kind domain.TransactionKind,
	shares, price decimal.Decimal,
) (*domain.Holding, *domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkTradingWindow(); err != nil {
		return nil, nil, err
	}

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return nil, nil, err
	}
	idx := domain.FindHolding(st.Holdings, holdingID)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrHoldingNotFound, holdingID)
	}

	h, tx, err := s.engine.Apply(st.Holdings[idx], kind, shares, price)
	if err != nil {
		return nil, nil, err
	}

	st.Holdings[idx] = h
	st.Transactions = append([]domain.Transaction{tx}, st.Transactions...)
	st.Snapshot = s.tracker.Observe(st.Snapshot, st.Holdings)
	if err := s.commit(ctx, st); err != nil {
		return nil, nil, err
	}

	s.log.Infow("recorded trade",
		"holding", holdingID,
		"type", kind,
		"shares", shares.String(),
		"price", price.String(),
		"transaction", tx.ID,
	)
	return &h, &tx, nil
}

// ToggleRevert reverts an active transaction or restores a reverted one
func (s *PortfolioService) ToggleRevert(ctx context.Context, transactionID string) (*domain.Holding, *domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return nil, nil, err
	}
	st.Transactions = s.retain(st.Transactions)

	txIdx := domain.FindTransaction(st.Transactions, transactionID)
	if txIdx < 0 {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, transactionID)
	}
	tx := st.Transactions[txIdx]

	idx := domain.FindHolding(st.Holdings, tx.HoldingID)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: %s was deleted", domain.ErrHoldingNotFound, tx.HoldingID)
	}

	h, tx, err := s.engine.ToggleRevert(tx, st.Holdings[idx])
	if err != nil {
		return nil, nil, err
	}

	st.Holdings[idx] = h
	st.Transactions[txIdx] = tx
	st.Snapshot = s.tracker.Observe(st.Snapshot, st.Holdings)
	if err := s.commit(ctx, st); err != nil {
		return nil, nil, err
	}

	s.log.Infow("toggled transaction", "transaction", tx.ID, "holding", h.ID, "reverted", tx.Reverted)
	return &h, &tx, nil
}

// UpdatePrice sets the current price of a holding by hand.
// Logic:
//   - Unchanged price: nothing is written
//   - Otherwise the old current price becomes the last price and the
//     timestamp is set to now in market time
func (s *PortfolioService) UpdatePrice(ctx context.Context, holdingID string, price decimal.Decimal) (*domain.Holding, error) {
	holdings, err := s.BatchUpdatePrices(ctx, []PriceUpdate{{HoldingID: holdingID, Price: price}})
	if err != nil {
		return nil, err
	}
	h := holdings[0]
	return &h, nil
}

// BatchUpdatePrices applies several manual price updates and records one
// valuation for the batch. Every entry is validated before any is applied
// and a holding may appear only once. The returned holdings follow the order of the updates.
func (s *PortfolioService) BatchUpdatePrices(ctx context.Context, updates []PriceUpdate) ([]domain.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(updates))
	for _, u := range updates {
		if domain.FindHolding(st.Holdings, u.HoldingID) < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrHoldingNotFound, u.HoldingID)
		}
		if seen[u.HoldingID] {
			return nil, fmt.Errorf("%w: %s appears twice in one price batch", domain.ErrInvalidQuantity, u.HoldingID)
		}
		seen[u.HoldingID] = true
		if !u.Price.IsPositive() {
			return nil, fmt.Errorf("%w: price %s of %s must be positive", domain.ErrInvalidQuantity, u.Price, u.HoldingID)
		}
	}

	now := s.clock.Now()
	changed := 0
	out := make([]domain.Holding, 0, len(updates))
	for _, u := range updates {
		idx := domain.FindHolding(st.Holdings, u.HoldingID)
		h := &st.Holdings[idx]
		if !h.CurrentPrice.Equal(u.Price) {
			h.LastPrice = decimal.NewNullDecimal(h.CurrentPrice)
			h.CurrentPrice = u.Price
			h.PriceUpdatedAt = clock.FormatPriceTime(now)
			h.UpdatedAt = now
			changed++
		}
		out = append(out, *h)
	}
	if changed == 0 {
		return out, nil
	}

	st.Snapshot = s.tracker.Observe(st.Snapshot, st.Holdings)
	if err := s.commit(ctx, st); err != nil {
		return nil, err
	}

	s.log.Infow("updated prices", "requested", len(updates), "changed", changed)
	return out, nil
}

// SyncAll refreshes every holding from the quote source. Fetch failures are
// counted, not returned.
func (s *PortfolioService) SyncAll(ctx context.Context) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return SyncResult{}, err
	}
	if len(st.Holdings) == 0 {
		return SyncResult{}, nil
	}

	res, err := s.sync(ctx, st)
	if err != nil {
		return SyncResult{}, err
	}

	st.Snapshot = s.tracker.Observe(st.Snapshot, st.Holdings)
	if err := s.commit(ctx, st); err != nil {
		return SyncResult{}, err
	}
	return res, nil
}

// ExecuteContributions buys the configured daily amount of every selected
// holding. With syncFirst the prices are refreshed before planning; the
// refreshed prices are kept even when planning fails.
func (s *PortfolioService) ExecuteContributions(ctx context.Context, holdingIDs []string, syncFirst bool) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(holdingIDs) == 0 {
		return []domain.Transaction{}, nil
	}
	if err := s.checkTradingWindow(); err != nil {
		return nil, err
	}

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return nil, err
	}

	synced := false
	if syncFirst && len(st.Holdings) > 0 {
		if _, err := s.sync(ctx, st); err != nil {
			return nil, err
		}
		synced = true
	}

	holdings, txs, planErr := s.planner.Run(st.Holdings, holdingIDs)
	if planErr != nil {
		if synced {
			st.Snapshot = s.tracker.Observe(st.Snapshot, st.Holdings)
			if err := s.commit(ctx, st); err != nil {
				return nil, err
			}
		}
		return nil, planErr
	}

	st.Holdings = holdings
	// stored newest first, so the last executed buy leads
	newest := make([]domain.Transaction, 0, len(txs)+len(st.Transactions))
	for i := len(txs) - 1; i >= 0; i-- {
		newest = append(newest, txs[i])
	}
	st.Transactions = append(newest, st.Transactions...)
	if synced || len(txs) > 0 {
		st.Snapshot = s.tracker.Observe(st.Snapshot, st.Holdings)
		if err := s.commit(ctx, st); err != nil {
			return nil, err
		}
	}

	s.log.Infow("executed contributions", "selected", len(holdingIDs), "executed", len(txs))
	return txs, nil
}

// UpdateStrategies replaces the contribution plans of several holdings
func (s *PortfolioService) UpdateStrategies(ctx context.Context, updates []StrategyUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return err
	}

	for _, u := range updates {
		if domain.FindHolding(st.Holdings, u.HoldingID) < 0 {
			return fmt.Errorf("%w: %s", domain.ErrHoldingNotFound, u.HoldingID)
		}
		if _, err := domain.ParseFrequency(string(u.Plan.Frequency)); err != nil {
			return err
		}
		if u.Plan.Amount.IsNegative() {
			return fmt.Errorf("%w: amount %s of %s is negative", domain.ErrInvalidContribution, u.Plan.Amount, u.HoldingID)
		}
	}

	now := s.clock.Now()
	for _, u := range updates {
		idx := domain.FindHolding(st.Holdings, u.HoldingID)
		plan := u.Plan
		plan.Frequency, _ = domain.ParseFrequency(string(plan.Frequency))
		st.Holdings[idx].Strategy = &plan
		st.Holdings[idx].UpdatedAt = now
	}

	return s.commit(ctx, st)
}

// Transactions lists the retained transactions newest first, optionally
// restricted to one holding
func (s *PortfolioService) Transactions(ctx context.Context, holdingID string) ([]domain.Transaction, error) {
	st, err := loadState(ctx, s.Store)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0, len(st.Transactions))
	for _, tx := range s.retain(st.Transactions) {
		if holdingID == "" || tx.HoldingID == holdingID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

// Overview computes the portfolio statistics
func (s *PortfolioService) Overview(ctx context.Context) (*Overview, error) {
	st, err := loadState(ctx, s.Store)
	if err != nil {
		return nil, err
	}
	return &Overview{
		Summary:  statistics.Summarize(st.Holdings),
		Holdings: statistics.MetricsFor(st.Holdings),
		Snapshot: st.Snapshot,
	}, nil
}

// Export builds the export document of the current state
func (s *PortfolioService) Export(ctx context.Context) (transfer.Export, error) {
	st, err := loadState(ctx, s.Store)
	if err != nil {
		return transfer.Export{}, err
	}
	return transfer.NewExport(st.Holdings, s.retain(st.Transactions)), nil
}

// Import replaces each list present in the payload
func (s *PortfolioService) Import(ctx context.Context, p transfer.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Funds == nil && p.Transactions == nil {
		return nil
	}

	st, err := loadState(ctx, s.Store)
	if err != nil {
		return err
	}
	if p.Funds != nil {
		st.Holdings = *p.Funds
		st.Snapshot = s.tracker.Observe(st.Snapshot, st.Holdings)
	}
	if p.Transactions != nil {
		st.Transactions = *p.Transactions
	}
	if err := s.commit(ctx, st); err != nil {
		return err
	}

	s.log.Infow("imported data", "holdings", len(st.Holdings), "transactions", len(st.Transactions))
	return nil
}

// commit flushes the state in one batch. Transactions past the retention
// period are dropped on the way out.
func (s *PortfolioService) commit(ctx context.Context, st *state) error {
	writes, err := encodeState(st.Holdings, s.retain(st.Transactions), st.Snapshot)
	if err != nil {
		return err
	}
	return flush(ctx, s.Store, writes)
}

// retain filters out the transactions older than the retention period
func (s *PortfolioService) retain(txs []domain.Transaction) []domain.Transaction {
	if s.opts.RetentionDays <= 0 {
		return txs
	}
	cutoff := s.clock.Now().Add(-time.Duration(s.opts.RetentionDays) * 24 * time.Hour)
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.Date.Before(cutoff) {
			out = append(out, tx)
		}
	}
	return out
}

func (s *PortfolioService) checkTradingWindow() error {
	if !s.opts.EnforceTradingWindow {
		return nil
	}
	now := s.clock.Now()
	if !clock.AfterMarketClose(now) {
		return fmt.Errorf("%w: trades open at 15:00, it is %s", domain.ErrTradingClosed, clock.FormatPriceTime(now))
	}
	return nil
}

// errNoQuoteSource is returned by a sync when no quote source is configured
var errNoQuoteSource = errors.New("no quote source configured")
