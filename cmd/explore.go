package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonandersen/payoff/internal/plot"
	"github.com/jonandersen/payoff/internal/strategy"
)

// exploreOptions holds dependencies for the explore command.
type exploreOptions struct {
	sessionOptions
	in     io.Reader
	noPlot bool
}

func newExploreCmd(opts *exploreOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore SYMBOL EXPIRATION",
		Short: "Build a position interactively at a prompt",
		Long: `Load the option chain and expected range, then build a position one
command at a time.

Commands:
  +c <strike> [qty]   buy a call        -c <strike> [qty]   sell a call
  +p <strike> [qty]   buy a put         -p <strike> [qty]   sell a put
  plot                print the analysis and save the chart
  legs, remove <n>, clear, chain, reset, help, quit

Examples:
  payoff explore AAPL 2025-01-17
  payoff explore SPY 2025-03-21 --no-plot`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.noPlot, "no-plot", false, "Print the analysis without saving charts")
	cmd.Flags().StringVar(&opts.plotDir, "plot-dir", opts.plotDir, "Directory for charts")

	cmd.SilenceUsage = true

	return cmd
}

func runExplore(cmd *cobra.Command, opts *exploreOptions, symbol, expiration string) error {
	session, err := opts.open(symbol, expiration)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Loading %s %s and training the volatility model...\n", session.Symbol(), session.Expiration())
	if err := loadSession(session.Load); err != nil {
		return err
	}
	printSessionSummary(w, session)

	in := opts.in
	if in == nil {
		in = cmd.InOrStdin()
	}
	scanner := bufio.NewScanner(in)

	for {
		_, _ = fmt.Fprint(w, strategy.Prompt)
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(w)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		c, err := strategy.ParseCommand(line)
		if err != nil {
			_, _ = fmt.Fprintln(w, err)
			continue
		}
		if c.Kind == strategy.KindQuit {
			return nil
		}
		if err := runExploreCommand(w, opts, session, c); err != nil {
			_, _ = fmt.Fprintln(w, err)
		}
	}
}

// runExploreCommand executes one command. Returned errors are reported
// at the prompt and do not end the session.
func runExploreCommand(w io.Writer, opts *exploreOptions, session *strategy.Session, c strategy.Command) error {
	switch c.Kind {
	case strategy.KindAdd:
		leg, err := session.AddLeg(c)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "Added %s at %.2f\n", leg, leg.Premium)

	case strategy.KindRemove:
		leg, err := session.RemoveLeg(c.Index)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "Removed %s\n", leg)

	case strategy.KindClear:
		session.Clear()
		_, _ = fmt.Fprintln(w, "Selected options removed")

	case strategy.KindLegs:
		return printLegs(w, session.Legs())

	case strategy.KindChain:
		return printChain(w, session.Chain(), session.Range())

	case strategy.KindHelp:
		_, _ = fmt.Fprintln(w, strategy.HelpText)

	case strategy.KindReset:
		_, _ = fmt.Fprintln(w, "Resetting: reloading market data and retraining...")
		if err := loadSession(session.Reset); err != nil {
			return err
		}
		printSessionSummary(w, session)

	case strategy.KindPlot:
		a, err := session.Analyze()
		if err != nil {
			return err
		}
		if err := printAnalysis(w, a); err != nil {
			return err
		}
		if opts.noPlot {
			return nil
		}
		path, err := plot.SaveFile(a, opts.plotDir, session.Symbol(), session.Expiration(), plot.Options{})
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "Chart saved to %s\n", path)
	}
	return nil
}

func loadSession(load func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	err := load(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("loading took longer than %s: %w", loadTimeout, err)
	}
	return err
}

func init() {
	var opts exploreOptions

	exploreCmd := newExploreCmd(&opts)
	exploreCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		rt, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		plotDir := opts.plotDir
		opts.sessionOptions = rt.sessionOptions()
		if cmd.Flags().Changed("plot-dir") {
			opts.plotDir = plotDir
		}
		opts.in = os.Stdin
		return nil
	}

	rootCmd.AddCommand(exploreCmd)
}
