package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moneyney/moneyney-backend/internal/adapter/repository/memory"
	"github.com/moneyney/moneyney-backend/internal/clock"
	"github.com/moneyney/moneyney-backend/internal/domain"
	"github.com/moneyney/moneyney-backend/internal/usecase/transfer"
)

// MockQuoteSource is a mock implementation of QuoteSource for testing
type MockQuoteSource struct {
	mock.Mock
}

func (m *MockQuoteSource) Quote(ctx context.Context, holdingID string) (*domain.Quote, error) {
	args := m.Called(ctx, holdingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Quote), args.Error(1)
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	svc    *PortfolioService
	store  *memory.Store
	quotes *MockQuoteSource
	clock  *testClock
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		store:  memory.NewStore(),
		quotes: new(MockQuoteSource),
		clock:  &testClock{now: time.Date(2026, 1, 23, 15, 30, 0, 0, clock.Market)},
	}
	f.svc = NewPortfolioService(f.store, f.quotes, f.clock, zap.NewNop().Sugar(), opts)
	return f
}

func (f *fixture) add(t *testing.T, id, shares, cost, price string) {
	t.Helper()
	_, err := f.svc.AddHolding(context.Background(), domain.Holding{
		ID:           id,
		Name:         "Fund " + id,
		Shares:       d(shares),
		CostPrice:    d(cost),
		CurrentPrice: d(price),
	})
	require.NoError(t, err)
}

// dump captures every slot so tests can assert nothing was written
func (f *fixture) dump(t *testing.T) map[string]string {
	t.Helper()
	out := map[string]string{}
	for _, key := range domain.Slots {
		v, ok, err := f.store.Get(context.Background(), key)
		require.NoError(t, err)
		if ok {
			out[key] = string(v)
		}
	}
	return out
}

func TestAddHolding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	h, err := f.svc.AddHolding(ctx, domain.Holding{
		ID:             " 002834 ",
		Name:           "Fund",
		Shares:         d("1000"),
		CurrentPrice:   d("1.5"),
		PriceUpdatedAt: "2026-01-23T06:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, "002834", h.ID)
	assert.True(t, d("1.5").Equal(h.CostPrice), "cost defaults to the current price")
	require.True(t, h.InitialPrice.Valid)
	assert.True(t, d("1.5").Equal(h.InitialPrice.Decimal), "initial price defaults to the cost")
	assert.Equal(t, "2026-01-23 14:00", h.PriceUpdatedAt)
	assert.True(t, h.CreatedAt.Equal(f.clock.now))

	_, err = f.svc.AddHolding(ctx, domain.Holding{ID: "002834", Shares: d("1"), CurrentPrice: d("1")})
	assert.ErrorIs(t, err, domain.ErrHoldingExists)

	_, err = f.svc.AddHolding(ctx, domain.Holding{ID: "bad", Shares: d("-1"), CurrentPrice: d("1")})
	assert.Error(t, err)

	overview, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, overview.Summary.FundCount)
	assert.True(t, overview.Snapshot.TodayTotalValue.Valid)
	assert.True(t, d("1500").Equal(overview.Snapshot.TodayTotalValue.Decimal))
	assert.Equal(t, "2026-01-23", overview.Snapshot.LastUpdateDate)
}

func TestAddHolding_DefaultsPriceTimestampToNow(t *testing.T) {
	f := newFixture(t, Options{})

	h, err := f.svc.AddHolding(context.Background(), domain.Holding{ID: "x", Shares: d("1"), CurrentPrice: d("1")})

	require.NoError(t, err)
	assert.Equal(t, "2026-01-23 15:30", h.PriceUpdatedAt)
}

func TestRecordTrade_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "002834", "1000", "1.0", "1.0")

	h, buy, err := f.svc.RecordTrade(ctx, "002834", domain.TransactionKindBuy, d("500"), d("1.2"))
	require.NoError(t, err)
	assert.True(t, d("1500").Equal(h.Shares))
	assert.Equal(t, "1.0667", h.CostPrice.Round(4).String())

	f.clock.advance(time.Minute)
	h, sell, err := f.svc.RecordTrade(ctx, "002834", domain.TransactionKindSell, d("300"), d("1.3"))
	require.NoError(t, err)
	assert.True(t, d("1200").Equal(h.Shares))
	assert.Equal(t, "1.0667", h.CostPrice.Round(4).String())

	txs, err := f.svc.Transactions(ctx, "")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, sell.ID, txs[0].ID)
	assert.Equal(t, buy.ID, txs[1].ID)
	assert.Equal(t, "Fund 002834", txs[0].HoldingName)

	none, err := f.svc.Transactions(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)

	stored, err := f.svc.Holding(ctx, "002834")
	require.NoError(t, err)
	assert.True(t, d("1200").Equal(stored.Shares))

	overview, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	assert.True(t, d("1200").Equal(overview.Snapshot.TodayTotalValue.Decimal))
}

func TestRecordTrade_FailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		kind    domain.TransactionKind
		shares  string
		price   string
		wantErr error
	}{
		{name: "oversell", id: "a", kind: domain.TransactionKindSell, shares: "101", price: "1", wantErr: domain.ErrInsufficientShares},
		{name: "zero shares", id: "a", kind: domain.TransactionKindBuy, shares: "0", price: "1", wantErr: domain.ErrInvalidQuantity},
		{name: "zero price", id: "a", kind: domain.TransactionKindBuy, shares: "1", price: "0", wantErr: domain.ErrInvalidQuantity},
		{name: "unknown holding", id: "b", kind: domain.TransactionKindBuy, shares: "1", price: "1", wantErr: domain.ErrHoldingNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.add(t, "a", "100", "1", "1")
			before := f.dump(t)

			_, _, err := f.svc.RecordTrade(context.Background(), tt.id, tt.kind, d(tt.shares), d(tt.price))

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, f.dump(t))
		})
	}
}

func TestRecordTrade_TradingWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{EnforceTradingWindow: true})
	f.add(t, "a", "100", "1", "1")

	f.clock.now = time.Date(2026, 1, 23, 14, 59, 0, 0, clock.Market)
	_, _, err := f.svc.RecordTrade(ctx, "a", domain.TransactionKindBuy, d("1"), d("1"))
	assert.ErrorIs(t, err, domain.ErrTradingClosed)

	_, err = f.svc.ExecuteContributions(ctx, []string{"a"}, false)
	assert.ErrorIs(t, err, domain.ErrTradingClosed)

	f.clock.now = time.Date(2026, 1, 23, 15, 0, 0, 0, clock.Market)
	_, _, err = f.svc.RecordTrade(ctx, "a", domain.TransactionKindBuy, d("1"), d("1"))
	assert.NoError(t, err)
}

func TestToggleRevert(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "a", "100", "2", "2")

	_, buy, err := f.svc.RecordTrade(ctx, "a", domain.TransactionKindBuy, d("100"), d("4"))
	require.NoError(t, err)

	h, tx, err := f.svc.ToggleRevert(ctx, buy.ID)
	require.NoError(t, err)
	assert.True(t, tx.Reverted)
	assert.True(t, d("100").Equal(h.Shares))
	assert.True(t, d("2").Equal(h.CostPrice))

	txs, err := f.svc.Transactions(ctx, "a")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Reverted, "reverted flag is persisted, the transaction is kept")

	h, tx, err = f.svc.ToggleRevert(ctx, buy.ID)
	require.NoError(t, err)
	assert.False(t, tx.Reverted)
	assert.True(t, d("200").Equal(h.Shares))
	assert.True(t, d("3").Equal(h.CostPrice))
}

func TestToggleRevert_EmptiedHoldingFallsBackToInitialCost(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "a", "100", "2", "2")

	_, _, err := f.svc.RecordTrade(ctx, "a", domain.TransactionKindSell, d("100"), d("2"))
	require.NoError(t, err)
	_, buy, err := f.svc.RecordTrade(ctx, "a", domain.TransactionKindBuy, d("10"), d("3"))
	require.NoError(t, err)

	h, _, err := f.svc.ToggleRevert(ctx, buy.ID)
	require.NoError(t, err)
	assert.True(t, h.Shares.IsZero())
	assert.True(t, d("2").Equal(h.CostPrice))

	stats, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, stats.Holdings, 1)
	assert.True(t, stats.Holdings[0].PriceChangeRate.Valid)
}

func TestToggleRevert_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "a", "0", "1", "1")

	_, _, err := f.svc.ToggleRevert(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	_, buy, err := f.svc.RecordTrade(ctx, "a", domain.TransactionKindBuy, d("10"), d("1"))
	require.NoError(t, err)
	_, _, err = f.svc.RecordTrade(ctx, "a", domain.TransactionKindSell, d("10"), d("1"))
	require.NoError(t, err)

	before := f.dump(t)
	_, _, err = f.svc.ToggleRevert(ctx, buy.ID)
	assert.ErrorIs(t, err, domain.ErrNegativeShares)
	assert.Equal(t, before, f.dump(t))

	require.NoError(t, f.svc.DeleteHolding(ctx, "a"))
	_, _, err = f.svc.ToggleRevert(ctx, buy.ID)
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound)
}

func TestUpdatePrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "a", "100", "1", "1")
	f.clock.advance(time.Hour)

	before := f.dump(t)
	h, err := f.svc.UpdatePrice(ctx, "a", d("1.00"))
	require.NoError(t, err)
	assert.True(t, d("1").Equal(h.CurrentPrice))
	assert.Equal(t, before, f.dump(t), "unchanged price writes nothing")

	h, err = f.svc.UpdatePrice(ctx, "a", d("1.25"))
	require.NoError(t, err)
	assert.True(t, d("1.25").Equal(h.CurrentPrice))
	require.True(t, h.LastPrice.Valid)
	assert.True(t, d("1").Equal(h.LastPrice.Decimal))
	assert.Equal(t, "2026-01-23 16:30", h.PriceUpdatedAt)

	_, err = f.svc.UpdatePrice(ctx, "a", d("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.svc.UpdatePrice(ctx, "b", d("1"))
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound)
}

func TestBatchUpdatePrices_ValidatesAllFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "a", "100", "1", "1")
	f.add(t, "b", "100", "1", "1")
	before := f.dump(t)

	_, err := f.svc.BatchUpdatePrices(ctx, []PriceUpdate{{HoldingID: "a", Price: d("2")}, {HoldingID: "zzz", Price: d("2")}})
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound)
	assert.Equal(t, before, f.dump(t))

	_, err = f.svc.BatchUpdatePrices(ctx, []PriceUpdate{{HoldingID: "a", Price: d("2")}, {HoldingID: "a", Price: d("3")}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Equal(t, before, f.dump(t), "repeated holding in one batch writes nothing")

	out, err := f.svc.BatchUpdatePrices(ctx, []PriceUpdate{{HoldingID: "b", Price: d("3")}, {HoldingID: "a", Price: d("2")}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)

	overview, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	assert.True(t, d("500").Equal(overview.Snapshot.TodayTotalValue.Decimal))
	assert.True(t, d("300").Equal(overview.Summary.TodayProfit))
}

func TestValuation_RollsOverAcrossDays(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "a", "1000", "1", "1")

	_, err := f.svc.UpdatePrice(ctx, "a", d("1.1"))
	require.NoError(t, err)

	f.clock.advance(24 * time.Hour)
	_, err = f.svc.UpdatePrice(ctx, "a", d("1.2"))
	require.NoError(t, err)

	overview, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-24", overview.Snapshot.LastUpdateDate)
	assert.True(t, d("1100").Equal(overview.Snapshot.YesterdayTotalValue.Decimal))
	assert.True(t, d("1200").Equal(overview.Snapshot.TodayTotalValue.Decimal))
}

func TestLoadState_AcceptsBareSlotValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	require.NoError(t, f.store.Set(ctx, domain.SlotTodayTotalValue, []byte("1234.5")))
	require.NoError(t, f.store.Set(ctx, domain.SlotYesterdayTotalValue, []byte(`"1000"`)))
	require.NoError(t, f.store.Set(ctx, domain.SlotLastUpdateDate, []byte("2026-01-22")))

	overview, err := f.svc.Overview(ctx)

	require.NoError(t, err)
	assert.True(t, d("1234.5").Equal(overview.Snapshot.TodayTotalValue.Decimal))
	assert.True(t, d("1000").Equal(overview.Snapshot.YesterdayTotalValue.Decimal))
	assert.Equal(t, "2026-01-22", overview.Snapshot.LastUpdateDate)
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{SyncConcurrency: 2})
	f.add(t, "a", "100", "1", "1.0")
	f.add(t, "b", "100", "1", "2.0")
	f.add(t, "c", "100", "1", "3.0")
	f.add(t, "d", "100", "1", "4.0")
	f.add(t, "e", "100", "1", "5.0")

	f.quotes.On("Quote", mock.Anything, "a").Return(&domain.Quote{
		HoldingID: "a", Price: d("1.1"), PreviousClose: decimal.NewNullDecimal(d("1.05")), ChangePercent: "4.76", AsOf: "2026-01-23 15:00",
	}, nil)
	f.quotes.On("Quote", mock.Anything, "b").Return(&domain.Quote{
		HoldingID: "b", Price: d("2.2"), ChangePercent: "10.00", AsOf: "2026-01-23T07:00:00Z",
	}, nil)
	f.quotes.On("Quote", mock.Anything, "c").Return(&domain.Quote{
		HoldingID: "c", Price: d("3.00"), PreviousClose: decimal.NewNullDecimal(d("2.9")), ChangePercent: "3.45", AsOf: "2026-01-23 15:00",
	}, nil)
	f.quotes.On("Quote", mock.Anything, "d").Return(nil, errors.New("timeout"))
	f.quotes.On("Quote", mock.Anything, "e").Return(&domain.Quote{HoldingID: "e", Price: d("5.5")}, nil)

	res, err := f.svc.SyncAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, SyncResult{Succeeded: 3, Failed: 2}, res)
	f.quotes.AssertExpectations(t)

	holdings, err := f.svc.Holdings(ctx)
	require.NoError(t, err)
	byID := map[string]domain.Holding{}
	for _, h := range holdings {
		byID[h.ID] = h
	}

	assert.True(t, d("1.1").Equal(byID["a"].CurrentPrice))
	assert.True(t, d("1.05").Equal(byID["a"].LastPrice.Decimal))
	assert.Equal(t, "4.76", byID["a"].ChangePercent)
	assert.Equal(t, "2026-01-23 15:00", byID["a"].PriceUpdatedAt)

	assert.True(t, d("2.2").Equal(byID["b"].CurrentPrice))
	assert.True(t, d("2.0").Equal(byID["b"].LastPrice.Decimal), "old price when no previous close")
	assert.Equal(t, "2026-01-23 15:00", byID["b"].PriceUpdatedAt)

	assert.True(t, d("3").Equal(byID["c"].CurrentPrice))
	assert.True(t, d("2.9").Equal(byID["c"].LastPrice.Decimal), "previous close refreshes an unchanged price")
	assert.Equal(t, "3.45", byID["c"].ChangePercent)

	assert.True(t, d("4").Equal(byID["d"].CurrentPrice))
	assert.False(t, byID["d"].LastPrice.Valid)
	assert.True(t, d("5").Equal(byID["e"].CurrentPrice), "quote without time is rejected")

	overview, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	// 110 + 220 + 300 + 400 + 500
	assert.True(t, d("1530").Equal(overview.Snapshot.TodayTotalValue.Decimal))
}

func TestSyncAll_NoHoldings(t *testing.T) {
	f := newFixture(t, Options{})

	res, err := f.svc.SyncAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, SyncResult{}, res)
	f.quotes.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything)
}

func TestExecuteContributions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{SyncConcurrency: 4})
	f.add(t, "a", "100", "1", "1")
	f.add(t, "b", "100", "1", "1")
	f.add(t, "c", "100", "1", "1")

	require.NoError(t, f.svc.UpdateStrategies(ctx, []StrategyUpdate{
		{HoldingID: "a", Plan: domain.ContributionPlan{Frequency: domain.FrequencyDaily, Amount: d("100")}},
		{HoldingID: "b", Plan: domain.ContributionPlan{Frequency: "日定投", Amount: d("30")}},
	}))

	for _, id := range []string{"a", "b", "c"} {
		f.quotes.On("Quote", mock.Anything, id).Return(&domain.Quote{HoldingID: id, Price: d("2"), AsOf: "2026-01-23 15:00"}, nil)
	}

	txs, err := f.svc.ExecuteContributions(ctx, []string{"a", "b", "c"}, true)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "a", txs[0].HoldingID)
	assert.True(t, d("50").Equal(txs[0].Shares), "bought at the synced price")
	assert.Equal(t, "b", txs[1].HoldingID)
	assert.True(t, d("15").Equal(txs[1].Shares))

	a, err := f.svc.Holding(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d("150").Equal(a.Shares))

	listed, err := f.svc.Transactions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestExecuteContributions_AbortsBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "a", "100", "1", "1")
	f.add(t, "w", "100", "1", "1")
	require.NoError(t, f.svc.UpdateStrategies(ctx, []StrategyUpdate{
		{HoldingID: "a", Plan: domain.ContributionPlan{Frequency: domain.FrequencyDaily, Amount: d("100")}},
		{HoldingID: "w", Plan: domain.ContributionPlan{Frequency: domain.FrequencyWeekly, Amount: d("100")}},
	}))
	before := f.dump(t)

	_, err := f.svc.ExecuteContributions(ctx, []string{"a", "w"}, false)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFrequency)

	_, err = f.svc.ExecuteContributions(ctx, []string{"a", "nope"}, false)
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound)

	assert.Equal(t, before, f.dump(t))
}

func TestUpdateStrategies_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "a", "1", "1", "1")

	err := f.svc.UpdateStrategies(ctx, []StrategyUpdate{{HoldingID: "a", Plan: domain.ContributionPlan{Frequency: "yearly", Amount: d("1")}}})
	assert.ErrorIs(t, err, domain.ErrInvalidContribution)

	err = f.svc.UpdateStrategies(ctx, []StrategyUpdate{{HoldingID: "a", Plan: domain.ContributionPlan{Frequency: domain.FrequencyDaily, Amount: d("-1")}}})
	assert.ErrorIs(t, err, domain.ErrInvalidContribution)

	err = f.svc.UpdateStrategies(ctx, []StrategyUpdate{{HoldingID: "x", Plan: domain.ContributionPlan{Frequency: domain.FrequencyDaily}}})
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound)
}

func TestRetention(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{RetentionDays: 3})
	f.add(t, "a", "100", "1", "1")

	_, old, err := f.svc.RecordTrade(ctx, "a", domain.TransactionKindBuy, d("1"), d("1"))
	require.NoError(t, err)

	f.clock.advance(3*24*time.Hour + time.Minute)
	listed, err := f.svc.Transactions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, _, err = f.svc.ToggleRevert(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	_, recent, err := f.svc.RecordTrade(ctx, "a", domain.TransactionKindBuy, d("1"), d("1"))
	require.NoError(t, err)

	raw, ok, err := f.store.Get(ctx, domain.SlotTransactions)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), recent.ID)
	assert.NotContains(t, string(raw), old.ID)
}

func TestUpdateAndDeleteHolding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "a", "100", "1", "1")

	name, tag := "Renamed", " 红利 "
	shares := d("50")
	initial := decimal.NewNullDecimal(d("0.8"))
	h, err := f.svc.UpdateHolding(ctx, "a", HoldingUpdate{Name: &name, Tag: &tag, Shares: &shares, InitialPrice: &initial})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", h.Name)
	assert.Equal(t, "红利", h.Tag)
	assert.True(t, d("50").Equal(h.Shares))
	assert.True(t, d("0.8").Equal(h.InitialPrice.Decimal))

	negative := d("-1")
	_, err = f.svc.UpdateHolding(ctx, "a", HoldingUpdate{CostPrice: &negative})
	assert.Error(t, err)
	_, err = f.svc.UpdateHolding(ctx, "b", HoldingUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrHoldingNotFound)

	require.NoError(t, f.svc.DeleteHolding(ctx, "a"))
	assert.ErrorIs(t, f.svc.DeleteHolding(ctx, "a"), domain.ErrHoldingNotFound)

	holdings, err := f.svc.Holdings(ctx)
	require.NoError(t, err)
	assert.Empty(t, holdings)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "a", "100", "1", "1")
	_, _, err := f.svc.RecordTrade(ctx, "a", domain.TransactionKindBuy, d("1"), d("1"))
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx))

	slots := f.dump(t)
	assert.NotContains(t, slots, domain.SlotFunds)
	assert.NotContains(t, slots, domain.SlotTransactions)

	overview, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, overview.Summary.FundCount)
	assert.True(t, overview.Snapshot.TodayTotalValue.Decimal.IsZero())
}

func TestImportExport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.add(t, "old", "1", "1", "1")
	_, _, err := f.svc.RecordTrade(ctx, "old", domain.TransactionKindBuy, d("1"), d("1"))
	require.NoError(t, err)

	funds := []domain.Holding{{ID: "new", Name: "New", Shares: d("10"), CostPrice: d("1"), CurrentPrice: d("3")}}
	require.NoError(t, f.svc.Import(ctx, transfer.Payload{Funds: &funds}))

	holdings, err := f.svc.Holdings(ctx)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, "new", holdings[0].ID)

	txs, err := f.svc.Transactions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, txs, 1, "absent transactions are kept")

	empty := []domain.Transaction{}
	require.NoError(t, f.svc.Import(ctx, transfer.Payload{Transactions: &empty}))
	txs, err = f.svc.Transactions(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, txs)

	export, err := f.svc.Export(ctx)
	require.NoError(t, err)
	require.Len(t, export.Funds, 1)
	assert.Equal(t, "new", export.Funds[0].ID)

	overview, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	assert.True(t, d("30").Equal(overview.Snapshot.TodayTotalValue.Decimal))
}
