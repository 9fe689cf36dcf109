package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonandersen/payoff/internal/marketdata"
	"github.com/jonandersen/payoff/internal/output"
)

// quoteOptions holds dependencies for the quote command.
type quoteOptions struct {
	provider marketdata.Provider
	jsonMode bool
}

// newQuoteCmd creates the quote command with the given options.
func newQuoteCmd(opts *quoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote SYMBOL [SYMBOL...]",
		Short: "Get underlying quotes",
		Long: `Get the latest quote for one or more underlyings. The price column is
the spot used by the other commands: last trade, else close, else the
previous close.

Examples:
  payoff quote AAPL              # Get quote for Apple
  payoff quote AAPL SPY VIX      # Get quotes for multiple symbols
  payoff quote AAPL --json       # Output in JSON format`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, opts, args)
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runQuote(cmd *cobra.Command, opts *quoteOptions, symbols []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	quotes := make([]*marketdata.Quote, 0, len(symbols))
	rows := make([][]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(sym)
		q, err := opts.provider.Quote(ctx, sym)
		if err != nil {
			if len(symbols) == 1 {
				return fmt.Errorf("failed to fetch quote: %w", err)
			}
			rows = append(rows, []string{sym, "ERROR", "-", "-", "-", "-"})
			continue
		}
		quotes = append(quotes, q)
		rows = append(rows, []string{
			q.Symbol,
			output.FormatPrice(q.Price()),
			output.FormatPrice(q.Bid),
			output.FormatPrice(q.Ask),
			output.FormatPrice(q.PrevClose),
			output.FormatVolume(q.Volume),
		})
	}

	formatter := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return formatter.Print(quotes)
	}
	return formatter.Table([]string{"Symbol", "Price", "Bid", "Ask", "Prev Close", "Volume"}, rows)
}

func init() {
	var opts quoteOptions

	quoteCmd := newQuoteCmd(&opts)
	quoteCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		rt, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		opts.provider = rt.service
		opts.jsonMode = GetJSONMode()
		return nil
	}

	rootCmd.AddCommand(quoteCmd)
}
