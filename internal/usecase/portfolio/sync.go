package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/moneyney/moneyney-backend/internal/clock"
	"github.com/moneyney/moneyney-backend/internal/domain"
)

type quoteResult struct {
	quote *domain.Quote
	err   error
}

// sync fetches a quote for every holding, then applies the results one by
// one. The state is modified in place; the caller records and flushes.
func (s *PortfolioService) sync(ctx context.Context, st *state) (SyncResult, error) {
	if s.Quotes == nil {
		return SyncResult{}, errNoQuoteSource
	}

	results := s.fetchQuotes(ctx, st.Holdings)

	var res SyncResult
	now := s.clock.Now()
	for i, r := range results {
		h := &st.Holdings[i]
		if r.err != nil {
			res.Failed++
			s.log.Warnw("quote fetch failed", "holding", h.ID, "error", r.err)
			continue
		}
		if err := applyQuote(h, r.quote, now); err != nil {
			res.Failed++
			s.log.Warnw("quote rejected", "holding", h.ID, "error", err)
			continue
		}
		res.Succeeded++
	}

	s.log.Infow("synced quotes", "succeeded", res.Succeeded, "failed", res.Failed)
	return res, nil
}

// fetchQuotes runs at most SyncConcurrency fetches at a time. Results are
// indexed like the holdings.
func (s *PortfolioService) fetchQuotes(ctx context.Context, holdings []domain.Holding) []quoteResult {
	results := make([]quoteResult, len(holdings))
	sem := make(chan struct{}, s.opts.SyncConcurrency)
	var wg sync.WaitGroup

	for i := range holdings {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			q, err := s.Quotes.Quote(ctx, id)
			results[i] = quoteResult{quote: q, err: err}
		}(i, holdings[i].ID)
	}

	wg.Wait()
	return results
}

// applyQuote folds a quote into a holding.
// Logic:
//   - Price changed: last price is the previous close when it is positive,
//     otherwise the old current price; the current price is the quote
//   - Price unchanged: only a positive previous close replaces the last price
//   - Either way the timestamp and change percent come from the quote
func applyQuote(h *domain.Holding, q *domain.Quote, now time.Time) error {
	if q == nil || !q.Price.IsPositive() {
		return fmt.Errorf("quote for %s has no usable price", h.ID)
	}
	asOf, err := clock.NormalizePriceTime(q.AsOf)
	if err != nil {
		return err
	}
	if asOf == "" {
		return fmt.Errorf("quote for %s has no time", h.ID)
	}

	hasClose := q.PreviousClose.Valid && q.PreviousClose.Decimal.IsPositive()
	if !h.CurrentPrice.Equal(q.Price) {
		if hasClose {
			h.LastPrice = q.PreviousClose
		} else {
			h.LastPrice = decimal.NewNullDecimal(h.CurrentPrice)
		}
		h.CurrentPrice = q.Price
	} else if hasClose {
		h.LastPrice = q.PreviousClose
	}

	h.PriceUpdatedAt = asOf
	h.ChangePercent = q.ChangePercent
	h.UpdatedAt = now
	return nil
}
