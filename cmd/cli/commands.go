package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/moneyney/moneyney-backend/internal/clock"
	"github.com/moneyney/moneyney-backend/internal/domain"
	"github.com/moneyney/moneyney-backend/internal/money"
	"github.com/moneyney/moneyney-backend/internal/usecase/portfolio"
	"github.com/moneyney/moneyney-backend/internal/usecase/transfer"
)

func (c *cli) holdingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "holdings",
		Short: "List holdings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			holdings, err := c.svc.Holdings(cmd.Context())
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), holdings)
			}
			printHoldings(cmd.OutOrStdout(), holdings)
			return nil
		},
	}
}

func (c *cli) addCmd() *cobra.Command {
	var name, tag, shares, cost, price, initial string

	cmd := &cobra.Command{
		Use:   "add <fund-id>",
		Short: "Add a holding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := domain.Holding{ID: args[0], Name: name, Tag: tag}
			var err error
			if h.Shares, err = parseDecimal("shares", shares); err != nil {
				return err
			}
			if h.CurrentPrice, err = parseDecimal("price", price); err != nil {
				return err
			}
			if cost != "" {
				if h.CostPrice, err = parseDecimal("cost", cost); err != nil {
					return err
				}
			}
			if initial != "" {
				d, err := parseDecimal("initial", initial)
				if err != nil {
					return err
				}
				h.InitialPrice = decimal.NewNullDecimal(d)
			}

			added, err := c.svc.AddHolding(cmd.Context(), h)
			if err != nil {
				return err
			}
			return c.printHolding(cmd.OutOrStdout(), added)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "fund name")
	cmd.Flags().StringVar(&tag, "tag", "", "free-form tag")
	cmd.Flags().StringVar(&shares, "shares", "0", "shares held")
	cmd.Flags().StringVar(&cost, "cost", "", "cost per share (defaults to the price)")
	cmd.Flags().StringVar(&price, "price", "0", "current price")
	cmd.Flags().StringVar(&initial, "initial", "", "initial price")
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var name, tag, shares, cost, price string

	cmd := &cobra.Command{
		Use:   "update <fund-id>",
		Short: "Edit the info of a holding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var u portfolio.HoldingUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				u.Name = &name
			}
			if flags.Changed("tag") {
				u.Tag = &tag
			}
			for _, f := range []struct {
				flag  string
				value string
				dst   **decimal.Decimal
			}{
				{"shares", shares, &u.Shares},
				{"cost", cost, &u.CostPrice},
				{"price", price, &u.CurrentPrice},
			} {
				if !flags.Changed(f.flag) {
					continue
				}
				d, err := parseDecimal(f.flag, f.value)
				if err != nil {
					return err
				}
				*f.dst = &d
			}

			updated, err := c.svc.UpdateHolding(cmd.Context(), args[0], u)
			if err != nil {
				return err
			}
			return c.printHolding(cmd.OutOrStdout(), updated)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "fund name")
	cmd.Flags().StringVar(&tag, "tag", "", "free-form tag")
	cmd.Flags().StringVar(&shares, "shares", "", "shares held")
	cmd.Flags().StringVar(&cost, "cost", "", "cost per share")
	cmd.Flags().StringVar(&price, "price", "", "current price")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <fund-id>",
		Short: "Remove a holding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.svc.DeleteHolding(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) clearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every holding and transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			if err := c.svc.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}

func (c *cli) tradeCmd(kind string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <fund-id> <shares> <price>",
		Short: "Record a " + kind,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			shares, err := parseDecimal("shares", args[1])
			if err != nil {
				return err
			}
			price, err := parseDecimal("price", args[2])
			if err != nil {
				return err
			}

			h, tx, err := c.svc.RecordTrade(cmd.Context(), args[0], domain.TransactionKind(kind), shares, price)
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"fund": h, "transaction": tx})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s x %s = %s (tx %s)\n",
				tx.Kind, tx.Shares, tx.Price, money.FormatCurrency(tx.Amount, money.DefaultCurrency, 2), tx.ID)
			printHoldings(cmd.OutOrStdout(), []domain.Holding{*h})
			return nil
		},
	}
}

func (c *cli) revertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <transaction-id>",
		Short: "Revert or restore a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, tx, err := c.svc.ToggleRevert(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"fund": h, "transaction": tx})
			}
			state := "restored"
			if tx.Reverted {
				state = "reverted"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, tx.ID)
			printHoldings(cmd.OutOrStdout(), []domain.Holding{*h})
			return nil
		},
	}
}

func (c *cli) priceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price <fund-id> <price> [<fund-id> <price>...]",
		Short: "Set current prices by hand",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected fund-id and price pairs, got %d args", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			updates := make([]portfolio.PriceUpdate, 0, len(args)/2)
			for i := 0; i < len(args); i += 2 {
				price, err := parseDecimal("price", args[i+1])
				if err != nil {
					return err
				}
				updates = append(updates, portfolio.PriceUpdate{HoldingID: args[i], Price: price})
			}

			holdings, err := c.svc.BatchUpdatePrices(cmd.Context(), updates)
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), holdings)
			}
			printHoldings(cmd.OutOrStdout(), holdings)
			return nil
		},
	}
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh every holding from the quote source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.svc.SyncAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d, failed %d\n", res.Succeeded, res.Failed)
			return nil
		},
	}
}

func (c *cli) investCmd() *cobra.Command {
	var syncFirst bool

	cmd := &cobra.Command{
		Use:   "invest <fund-id>...",
		Short: "Execute the daily contributions of the given holdings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := c.svc.ExecuteContributions(cmd.Context(), args, syncFirst)
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), txs)
			}
			printTransactions(cmd.OutOrStdout(), txs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&syncFirst, "sync", false, "refresh prices before buying")
	return cmd
}

func (c *cli) strategyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategy <fund-id> <frequency> <amount>",
		Short: "Set the contribution plan of a holding",
		Long:  "Frequency is daily, weekly or monthly (or 日定投, 周定投, 月定投). An amount of 0 disables the plan.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := json.Marshal(map[string]string{"frequency": args[1], "amount": args[2]})
			if err != nil {
				return err
			}
			var plan domain.ContributionPlan
			if err := json.Unmarshal(doc, &plan); err != nil {
				return err
			}

			update := portfolio.StrategyUpdate{HoldingID: args[0], Plan: plan}
			if err := c.svc.UpdateStrategies(cmd.Context(), []portfolio.StrategyUpdate{update}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", args[0], plan.Frequency, plan.Amount)
			return nil
		},
	}
}

func (c *cli) transactionsCmd() *cobra.Command {
	var fundID string

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List retained transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			txs, err := c.svc.Transactions(cmd.Context(), fundID)
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), txs)
			}
			printTransactions(cmd.OutOrStdout(), txs)
			return nil
		},
	}
	cmd.Flags().StringVar(&fundID, "fund", "", "only show this holding")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show portfolio totals and daily profit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := c.svc.Overview(cmd.Context())
			if err != nil {
				return err
			}
			if c.asJSON {
				return printJSON(cmd.OutOrStdout(), ov)
			}

			s := ov.Summary
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Metric", "Value"})
			table.AppendBulk([][]string{
				{"Funds", fmt.Sprint(s.FundCount)},
				{"Total value", formatAmount(s.TotalValue)},
				{"Total cost", formatAmount(s.TotalCost)},
				{"Total profit", formatAmount(s.TotalProfit)},
				{"Profit rate", money.FormatPercent(s.TotalProfitRate)},
				{"Today profit", formatAmount(s.TodayProfit)},
				{"Today rate", money.FormatPercent(s.TodayProfitRate)},
			})
			if ov.Snapshot.YesterdayTotalValue.Valid {
				table.Append([]string{"Yesterday value", formatAmount(ov.Snapshot.YesterdayTotalValue.Decimal)})
			}
			table.Render()
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the export document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := c.svc.Export(cmd.Context())
			if err != nil {
				return err
			}
			return writeTo(cmd.OutOrStdout(), out, func(w io.Writer) error {
				return transfer.Encode(w, doc)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the lists present in an import document (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			payload, err := transfer.Decode(r)
			if err != nil {
				return err
			}
			if err := c.svc.Import(cmd.Context(), payload); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "imported")
			return nil
		},
	}
}

func (c *cli) exportCSVCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export-csv",
		Short: "Write the retained transactions as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			txs, err := c.svc.Transactions(cmd.Context(), "")
			if err != nil {
				return err
			}
			return writeTo(cmd.OutOrStdout(), out, func(w io.Writer) error {
				return transfer.WriteTransactionsCSV(w, txs)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func (c *cli) printHolding(w io.Writer, h *domain.Holding) error {
	if c.asJSON {
		return printJSON(w, h)
	}
	printHoldings(w, []domain.Holding{*h})
	return nil
}

func printHoldings(w io.Writer, holdings []domain.Holding) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Fund", "Name", "Shares", "Cost", "Price", "Value", "Updated", "Tag"})
	for _, h := range holdings {
		table.Append([]string{
			h.ID,
			h.Name,
			h.Shares.String(),
			h.CostPrice.StringFixed(money.DefaultDigits),
			h.CurrentPrice.StringFixed(money.DefaultDigits),
			formatAmount(h.Value()),
			h.PriceUpdatedAt,
			h.Tag,
		})
	}
	table.Render()
}

func printTransactions(w io.Writer, txs []domain.Transaction) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Date", "Fund", "Type", "Shares", "Price", "Amount", "Reverted"})
	for _, tx := range txs {
		table.Append([]string{
			tx.ID,
			clock.FormatPriceTime(tx.Date),
			tx.HoldingID,
			string(tx.Kind),
			tx.Shares.String(),
			tx.Price.String(),
			formatAmount(tx.Amount),
			fmt.Sprint(tx.Reverted),
		})
	}
	table.Render()
}

func formatAmount(d decimal.Decimal) string {
	return money.FormatCurrency(d, money.DefaultCurrency, 2)
}

func parseDecimal(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", name, s)
	}
	return d, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeTo runs write against the named file, or against fallback when the
// name is empty
func writeTo(fallback io.Writer, name string, write func(io.Writer) error) error {
	if name == "" {
		return write(fallback)
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
