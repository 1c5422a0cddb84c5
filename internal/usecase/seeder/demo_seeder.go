package seeder

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/moneyney/moneyney-backend/internal/domain"
)

// DemoFund defines a fund created for an empty portfolio
type DemoFund struct {
	ID  string
	Tag string
}

// DemoFunds are the funds seeded into an empty portfolio
var DemoFunds = []DemoFund{
	{ID: "002834", Tag: "示例"},
	{ID: "021483", Tag: "示例-红利"},
	{ID: "012365", Tag: "示例-科技"},
	{ID: "001092", Tag: "示例-生物"},
}

const (
	demoName   = "示例基金"
	demoShares = 1000
)

// HoldingService is the part of the portfolio service the seeder needs
type HoldingService interface {
	Holdings(ctx context.Context) ([]domain.Holding, error)
	AddHolding(ctx context.Context, h domain.Holding) (*domain.Holding, error)
}

// DemoSeeder fills an empty portfolio with demo funds
type DemoSeeder struct {
	service HoldingService
	quotes  domain.QuoteSource
	log     *zap.SugaredLogger
}

// NewDemoSeeder creates a new DemoSeeder instance
func NewDemoSeeder(service HoldingService, quotes domain.QuoteSource, log *zap.SugaredLogger) *DemoSeeder {
	return &DemoSeeder{
		service: service,
		quotes:  quotes,
		log:     log,
	}
}

// Seed creates the demo funds when the portfolio has no holdings and returns
// how many were created.
// Logic:
//   - Name and prices come from the quote source; the previous close is the
//     cost and last price, the estimate the current price
//   - A failed or empty quote falls back to a price of 1
func (s *DemoSeeder) Seed(ctx context.Context) (int, error) {
	holdings, err := s.service.Holdings(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list holdings: %w", err)
	}
	if len(holdings) > 0 {
		return 0, nil
	}

	created := 0
	for _, fund := range DemoFunds {
		h := s.demoHolding(ctx, fund)
		if _, err := s.service.AddHolding(ctx, h); err != nil {
			return created, fmt.Errorf("failed to seed demo fund %s: %w", fund.ID, err)
		}
		created++
	}

	s.log.Infow("seeded demo funds", "count", created)
	return created, nil
}

func (s *DemoSeeder) demoHolding(ctx context.Context, fund DemoFund) domain.Holding {
	one := decimal.NewFromInt(1)
	h := domain.Holding{
		ID:           fund.ID,
		Name:         demoName,
		Shares:       decimal.NewFromInt(demoShares),
		CostPrice:    one,
		CurrentPrice: one,
		Strategy:     &domain.ContributionPlan{Frequency: domain.FrequencyDaily, Amount: decimal.Zero},
		Tag:          fund.Tag,
	}
	if s.quotes == nil {
		return h
	}

	q, err := s.quotes.Quote(ctx, fund.ID)
	if err != nil || q == nil {
		s.log.Warnw("demo fund quote failed, using fallback price", "holding", fund.ID, "error", err)
		return h
	}

	price := one
	if q.PreviousClose.Valid && q.PreviousClose.Decimal.IsPositive() {
		price = q.PreviousClose.Decimal
	}
	if q.Name != "" {
		h.Name = q.Name
	}
	h.CostPrice = price
	h.CurrentPrice = price
	if q.Price.IsPositive() {
		h.CurrentPrice = q.Price
	}
	h.LastPrice = decimal.NewNullDecimal(price)
	h.PriceUpdatedAt = q.AsOf
	h.ChangePercent = q.ChangePercent
	return h
}
