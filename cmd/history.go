package cmd

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonandersen/payoff/internal/marketdata"
	"github.com/jonandersen/payoff/internal/output"
	"github.com/jonandersen/payoff/internal/volmodel"
)

// historyOptions holds dependencies for the history command.
type historyOptions struct {
	provider marketdata.Provider
	now      func() time.Time
	jsonMode bool
}

// historyRow is one day of bars with the model's indicators. Indicators
// are nil until their window has filled.
type historyRow struct {
	Date      string   `json:"date"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    float64  `json:"volume"`
	RollingSD *float64 `json:"rolling_std"`
	RSI       *float64 `json:"rsi"`
	ATR       *float64 `json:"atr"`
}

// Indicator windows match the volatility model's features.
const (
	historyStdWindow = 20
	historyRSIWindow = 14
	historyATRWindow = 14
)

// newHistoryCmd creates the history command with the given options.
func newHistoryCmd(opts *historyOptions) *cobra.Command {
	var (
		flagStart string
		flagEnd   string
		flagLimit int
	)

	cmd := &cobra.Command{
		Use:   "history SYMBOL",
		Short: "Show daily bars with volatility indicators",
		Long: `Show daily bars for a symbol with the indicators the range model
trains on: 20-day rolling std of the close, 14-day RSI and 14-day ATR.

Indicators are computed over the whole requested window; --limit only
trims what is printed.

Examples:
  payoff history AAPL                          # Last 20 days
  payoff history VIX --limit 5
  payoff history AAPL --start 2024-01-01 --end 2024-06-30 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args[0], flagStart, flagEnd, flagLimit)
		},
	}

	cmd.Flags().StringVar(&flagStart, "start", "", "Start date (YYYY-MM-DD), default 120 days before end")
	cmd.Flags().StringVar(&flagEnd, "end", "", "End date (YYYY-MM-DD), default today")
	cmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Number of most recent days to show (0 for all)")

	cmd.SilenceUsage = true

	return cmd
}

func runHistory(cmd *cobra.Command, opts *historyOptions, symbol, startStr, endStr string, limit int) error {
	symbol = strings.ToUpper(symbol)

	now := time.Now
	if opts.now != nil {
		now = opts.now
	}
	end := now()
	if endStr != "" {
		t, err := time.Parse(time.DateOnly, endStr)
		if err != nil {
			return fmt.Errorf("invalid end date (use YYYY-MM-DD): %w", err)
		}
		end = t
	}
	start := end.AddDate(0, 0, -120)
	if startStr != "" {
		t, err := time.Parse(time.DateOnly, startStr)
		if err != nil {
			return fmt.Errorf("invalid start date (use YYYY-MM-DD): %w", err)
		}
		start = t
	}
	if !start.Before(end) {
		return fmt.Errorf("start date must be before end date")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bars, err := opts.provider.History(ctx, symbol, start, end)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	if len(bars) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No history for %s between %s and %s\n",
			symbol, start.Format(time.DateOnly), end.Format(time.DateOnly))
		return nil
	}

	rows := historyRows(bars)
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}

	if opts.jsonMode {
		return output.New(cmd.OutOrStdout(), true).Print(rows)
	}

	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{
			r.Date,
			output.FormatPrice(r.Open),
			output.FormatPrice(r.High),
			output.FormatPrice(r.Low),
			output.FormatPrice(r.Close),
			output.FormatVolume(int64(r.Volume)),
			formatIndicator(r.RollingSD),
			formatIndicator(r.RSI),
			formatIndicator(r.ATR),
		})
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Daily history for %s\n\n", symbol)
	return output.New(cmd.OutOrStdout(), false).Table(
		[]string{"Date", "Open", "High", "Low", "Close", "Volume", "Std 20", "RSI 14", "ATR 14"}, table)
}

func historyRows(bars []volmodel.Bar) []historyRow {
	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range bars {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}

	std := volmodel.RollingStd(closes, historyStdWindow)
	rsi := volmodel.RSI(closes, historyRSIWindow)
	atr := volmodel.ATR(highs, lows, closes, historyATRWindow)

	rows := make([]historyRow, n)
	for i, b := range bars {
		// ATR is zero, not NaN, before its first full window.
		if i < historyATRWindow-1 {
			atr[i] = math.NaN()
		}
		rows[i] = historyRow{
			Date:      b.Date.Format(time.DateOnly),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
			RollingSD: defined(std[i]),
			RSI:       defined(rsi[i]),
			ATR:       defined(atr[i]),
		}
	}
	return rows
}

func defined(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func formatIndicator(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func init() {
	var opts historyOptions

	historyCmd := newHistoryCmd(&opts)
	historyCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		rt, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		opts.provider = rt.service
		opts.jsonMode = GetJSONMode()
		return nil
	}

	rootCmd.AddCommand(historyCmd)
}
