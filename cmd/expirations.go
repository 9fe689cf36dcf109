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

// expirationsOptions holds dependencies for the expirations command.
type expirationsOptions struct {
	provider marketdata.Provider
	jsonMode bool
}

// expirationsResult is the JSON shape of the expirations command.
type expirationsResult struct {
	Symbol      string   `json:"symbol"`
	Expirations []string `json:"expirations"`
}

func newExpirationsCmd(opts *expirationsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expirations SYMBOL",
		Short: "List option expiration dates",
		Long: `List available option expiration dates for an underlying symbol.

Examples:
  payoff expirations AAPL           # List expirations for Apple
  payoff expirations AAPL --json    # Output in JSON format`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpirations(cmd, opts, args[0])
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runExpirations(cmd *cobra.Command, opts *expirationsOptions, symbol string) error {
	symbol = strings.ToUpper(symbol)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dates, err := opts.provider.Expirations(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to get expirations: %w", err)
	}

	f := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		if dates == nil {
			dates = []string{}
		}
		return f.Print(expirationsResult{Symbol: symbol, Expirations: dates})
	}

	if len(dates) == 0 {
		f.Printf("No expirations available for %s\n", symbol)
		return nil
	}

	f.Printf("Option Expirations for %s\n\n", symbol)
	for _, exp := range dates {
		f.Printf("  %s\n", exp)
	}

	return nil
}

func init() {
	var opts expirationsOptions

	expirationsCmd := newExpirationsCmd(&opts)
	expirationsCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		rt, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		opts.provider = rt.service
		opts.jsonMode = GetJSONMode()
		return nil
	}

	rootCmd.AddCommand(expirationsCmd)
}
