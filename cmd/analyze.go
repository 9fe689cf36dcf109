package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonandersen/payoff/internal/output"
	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/plot"
	"github.com/jonandersen/payoff/internal/strategy"
	"github.com/jonandersen/payoff/internal/volmodel"
)

// analyzeOptions holds dependencies for the analyze command.
type analyzeOptions struct {
	sessionOptions
	legs   []string
	noPlot bool
}

// analyzeResult is the JSON shape of the analyze command.
type analyzeResult struct {
	Symbol     string               `json:"symbol"`
	Expiration string               `json:"expiration"`
	Prediction *volmodel.Prediction `json:"prediction"`
	Analysis   *payoff.Analysis     `json:"analysis"`
	Chart      string               `json:"chart,omitempty"`
}

func newAnalyzeCmd(opts *analyzeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL EXPIRATION --leg LEG [--leg LEG...]",
		Short: "Analyze a position without the interactive session",
		Long: `Build a position from --leg flags, print the payoff analysis and
save the chart.

A leg is <+|-><c|p> <strike> [qty]: + buys, - sells, c is a call and p a
put. Legs are priced at the contract's last trade.

Examples:
  payoff analyze AAPL 2025-01-17 --leg "+c 150" --leg "-c 160"
  payoff analyze SPY 2025-03-21 --leg "-p 540" --leg "-c 600" --no-plot
  payoff analyze AAPL 2025-01-17 --leg "+p 140 2" --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringArrayVarP(&opts.legs, "leg", "l", nil, `Leg to add, e.g. "+c 150" (repeatable)`)
	cmd.Flags().BoolVar(&opts.noPlot, "no-plot", false, "Skip rendering the chart")
	cmd.Flags().StringVar(&opts.plotDir, "plot-dir", opts.plotDir, "Directory for the chart")

	cmd.SilenceUsage = true

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions, symbol, expiration string) error {
	if len(opts.legs) == 0 {
		return strategy.ErrNoLegs
	}

	// Parse every leg before loading so typos fail fast.
	commands := make([]strategy.Command, 0, len(opts.legs))
	for _, raw := range opts.legs {
		c, err := strategy.ParseCommand(raw)
		if err != nil {
			return fmt.Errorf("invalid leg %q: %w", raw, err)
		}
		if c.Kind != strategy.KindAdd {
			return fmt.Errorf("invalid leg %q: expected <+|-><c|p> <strike> [qty]", raw)
		}
		commands = append(commands, c)
	}

	session, err := opts.open(symbol, expiration)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	if err := session.Load(ctx); err != nil {
		return err
	}
	for i, c := range commands {
		if _, err := session.AddLeg(c); err != nil {
			return fmt.Errorf("leg %q: %w", opts.legs[i], err)
		}
	}

	a, err := session.Analyze()
	if err != nil {
		return fmt.Errorf("failed to analyze position: %w", err)
	}

	var chart string
	if !opts.noPlot {
		chart, err = plot.SaveFile(a, opts.plotDir, session.Symbol(), session.Expiration(), plot.Options{})
		if err != nil {
			return err
		}
	}

	if opts.jsonMode {
		return output.New(cmd.OutOrStdout(), true).Print(analyzeResult{
			Symbol:     session.Symbol(),
			Expiration: session.Expiration(),
			Prediction: session.Prediction(),
			Analysis:   a,
			Chart:      chart,
		})
	}

	w := cmd.OutOrStdout()
	printSessionSummary(w, session)
	_, _ = fmt.Fprintln(w)
	if err := printAnalysis(w, a); err != nil {
		return err
	}
	if chart != "" {
		_, _ = fmt.Fprintf(w, "\nChart saved to %s\n", chart)
	}
	return nil
}

func init() {
	var opts analyzeOptions

	analyzeCmd := newAnalyzeCmd(&opts)
	analyzeCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		rt, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		plotDir := opts.plotDir
		opts.sessionOptions = rt.sessionOptions()
		if cmd.Flags().Changed("plot-dir") {
			opts.plotDir = plotDir
		}
		return nil
	}

	rootCmd.AddCommand(analyzeCmd)
}
