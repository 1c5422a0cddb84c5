package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/moneyney/moneyney-backend/internal/adapter/quote"
	"github.com/moneyney/moneyney-backend/internal/adapter/repository"
	"github.com/moneyney/moneyney-backend/internal/clock"
	"github.com/moneyney/moneyney-backend/internal/config"
	"github.com/moneyney/moneyney-backend/internal/logger"
	"github.com/moneyney/moneyney-backend/internal/usecase/portfolio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg, openService).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// serviceOpener builds the portfolio service for a command run and returns
// the func releasing its store
type serviceOpener func(ctx context.Context, cfg *config.Config) (*portfolio.PortfolioService, func() error, error)

func openService(ctx context.Context, cfg *config.Config) (*portfolio.PortfolioService, func() error, error) {
	opened, err := repository.Open(ctx, cfg.Store, cfg.DBURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store %q: %w", cfg.Store, err)
	}

	var log *zap.SugaredLogger
	if logger.IsDev(cfg.Env) {
		log = logger.New(cfg.Env)
	} else {
		log = zap.NewNop().Sugar()
	}

	svc := portfolio.NewPortfolioService(
		opened.Store,
		quote.NewClient(cfg.QuoteBaseURL, cfg.QuoteTimeout),
		clock.System{},
		log,
		portfolio.Options{
			RetentionDays:        cfg.RetentionDays,
			EnforceTradingWindow: cfg.EnforceTradingWindow,
			SyncConcurrency:      cfg.SyncConcurrency,
		},
	)
	return svc, opened.Close, nil
}
