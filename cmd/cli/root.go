package main

import (
	"github.com/spf13/cobra"

	"github.com/moneyney/moneyney-backend/internal/config"
	"github.com/moneyney/moneyney-backend/internal/usecase/portfolio"
)

// cli carries the state shared by every command of one invocation
type cli struct {
	cfg    *config.Config
	open   serviceOpener
	svc    *portfolio.PortfolioService
	close  func() error
	asJSON bool
}

func newRootCmd(cfg *config.Config, open serviceOpener) *cobra.Command {
	c := &cli{cfg: cfg, open: open}

	root := &cobra.Command{
		Use:   "moneyney",
		Short: "Fund portfolio ledger",
		Long: `moneyney tracks fund holdings, trades and daily contributions.

Examples:
  moneyney add 000001 --name "Fund A" --shares 1000 --price 1.0
  moneyney buy 000001 500 1.2
  moneyney invest 000001 --sync
  moneyney stats`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := c.open(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			c.svc = svc
			c.close = closeFn
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.close == nil {
				return nil
			}
			return c.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.Store, "store", cfg.Store, "store backend: memory, file:<dir>, postgres")
	flags.StringVar(&cfg.DBURL, "db", cfg.DBURL, "postgres connection string")
	flags.StringVar(&cfg.QuoteBaseURL, "quote-url", cfg.QuoteBaseURL, "fund estimate endpoint")
	flags.DurationVar(&cfg.QuoteTimeout, "quote-timeout", cfg.QuoteTimeout, "timeout of one quote request")
	flags.IntVar(&cfg.SyncConcurrency, "sync-concurrency", cfg.SyncConcurrency, "parallel quote requests during a sync")
	flags.IntVar(&cfg.RetentionDays, "retention-days", cfg.RetentionDays, "days of transactions to keep, 0 keeps all")
	flags.BoolVar(&cfg.EnforceTradingWindow, "enforce-window", cfg.EnforceTradingWindow, "only allow trades after the market close")
	flags.BoolVar(&c.asJSON, "json", false, "print JSON instead of tables")

	root.AddCommand(
		c.holdingsCmd(),
		c.addCmd(),
		c.updateCmd(),
		c.deleteCmd(),
		c.clearCmd(),
		c.tradeCmd("buy"),
		c.tradeCmd("sell"),
		c.revertCmd(),
		c.priceCmd(),
		c.syncCmd(),
		c.investCmd(),
		c.strategyCmd(),
		c.transactionsCmd(),
		c.statsCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.exportCSVCmd(),
	)
	return root
}
