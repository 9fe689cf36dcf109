package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jonandersen/payoff/internal/marketdata"
	"github.com/jonandersen/payoff/internal/output"
	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/volmodel"
)

// rangeOptions holds dependencies for the range command.
type rangeOptions struct {
	provider     marketdata.Provider
	trees        int
	historyYears int
	multiplier   float64
	now          func() time.Time
	progress     io.Writer
	logger       *slog.Logger
	jsonMode     bool
}

// rangeResult is the JSON shape of the range command.
type rangeResult struct {
	Symbol     string               `json:"symbol"`
	Expiration string               `json:"expiration"`
	Spot       float64              `json:"spot"`
	Multiplier float64              `json:"multiplier"`
	Range      payoff.Range         `json:"range"`
	Prediction *volmodel.Prediction `json:"prediction"`
}

func newRangeCmd(opts *rangeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range SYMBOL EXPIRATION",
		Short: "Predict the expected price range at expiration",
		Long: `Train the volatility model on daily price and VIX history and print
the predicted standard deviation of the close at expiration, the
resulting price range and the model's test error.

The range is spot ± multiplier × std (multiplier 2 by default).

Examples:
  payoff range AAPL 2025-01-17
  payoff range AAPL 2025-01-17 --years 3 --trees 200
  payoff range SPY 2025-03-21 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRange(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().IntVar(&opts.trees, "trees", opts.trees, "Number of trees in the forest")
	cmd.Flags().IntVar(&opts.historyYears, "years", opts.historyYears, "Years of history to train on")
	cmd.Flags().Float64Var(&opts.multiplier, "multiplier", opts.multiplier, "Standard deviations on each side of spot")

	cmd.SilenceUsage = true

	return cmd
}

func runRange(cmd *cobra.Command, opts *rangeOptions, symbol, expiration string) error {
	symbol = strings.ToUpper(symbol)
	expiry, err := time.Parse(time.DateOnly, expiration)
	if err != nil {
		return fmt.Errorf("invalid expiration date %q (use YYYY-MM-DD): %w", expiration, err)
	}

	now := time.Now
	if opts.now != nil {
		now = opts.now
	}
	dte := volmodel.DTE(now(), expiry)
	if dte < 1 {
		return fmt.Errorf("expiration %s has passed", expiration)
	}
	multiplier := opts.multiplier
	if multiplier <= 0 {
		multiplier = payoff.DefaultRangeMultiplier
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	quote, err := opts.provider.Quote(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to get quote: %w", err)
	}
	spot := quote.Price()

	predictor := volmodel.NewPredictor(opts.provider)
	if opts.trees > 0 {
		predictor.Trees = opts.trees
	}
	predictor.Logger = opts.logger
	if opts.progress != nil {
		bar := progressbar.NewOptions(predictor.Trees,
			progressbar.OptionSetWriter(opts.progress),
			progressbar.OptionSetDescription("Training volatility model"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		predictor.Progress = func(done, total int) {
			_ = bar.Set(done)
		}
		defer func() { _ = bar.Finish() }()
	}

	start := volmodel.StartDate(expiry, opts.historyYears)
	prediction, err := predictor.PredictStd(ctx, symbol, start, expiry, dte)
	if err != nil {
		return fmt.Errorf("failed to predict price range: %w", err)
	}
	r := payoff.ExpectedRange(spot, prediction.Std, multiplier)

	f := output.New(cmd.OutOrStdout(), opts.jsonMode)
	if opts.jsonMode {
		return f.Print(rangeResult{
			Symbol:     symbol,
			Expiration: expiration,
			Spot:       spot,
			Multiplier: multiplier,
			Range:      r,
			Prediction: prediction,
		})
	}

	f.Printf("Expected range for %s expiring %s\n", symbol, expiration)
	f.Println()
	f.Printf("Spot:           %.2f\n", spot)
	f.Printf("Days to expiry: %d\n", dte)
	f.Printf("Predicted std:  %.4f\n", prediction.Std)
	f.Printf("Range (%g std): %.2f - %.2f\n", multiplier, r.Lower, r.Upper)
	f.Printf("Test MSE:       %.4f\n", prediction.MSE)
	f.Printf("Rows:           %d train / %d test (data to %s)\n",
		prediction.TrainRows, prediction.TestRows, prediction.AsOf.Format(time.DateOnly))
	return nil
}

func init() {
	var opts rangeOptions

	rangeCmd := newRangeCmd(&opts)
	rangeCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		rt, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		opts.provider = rt.service
		opts.logger = rt.logger
		opts.jsonMode = GetJSONMode()
		if !cmd.Flags().Changed("trees") {
			opts.trees = rt.cfg.ForestTrees
		}
		if !cmd.Flags().Changed("years") {
			opts.historyYears = rt.cfg.HistoryYears
		}
		if !cmd.Flags().Changed("multiplier") {
			opts.multiplier = rt.cfg.RangeMultiplier
		}
		if !opts.jsonMode {
			opts.progress = cmd.ErrOrStderr()
		}
		return nil
	}

	rootCmd.AddCommand(rangeCmd)
}
