package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/plot"
	"github.com/jonandersen/payoff/internal/strategy"
	"github.com/jonandersen/payoff/internal/tui"
)

// uiOptions holds dependencies for the ui command.
type uiOptions struct {
	sessionOptions
	run func(m tea.Model) error
}

func newUICmd(opts *uiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui SYMBOL EXPIRATION",
		Short: "Interactive terminal UI",
		Long: `Launch a full-screen explorer for an option chain.

Calls and puts are listed side by side with the expected range marked.
Pick contracts with the cursor, or type commands, and the combined
payoff updates as legs are added.

Keyboard shortcuts:
  ↑/↓ j/k   Move within the chain
  tab       Switch between calls and puts
  + / -     Buy / sell the selected contract
  d, x      Remove the last leg, clear all legs
  enter     Save the payoff chart
  :         Type a command (+c 150, remove 2, ...)
  R         Reset and reload
  ?         Help
  q         Quit`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(opts, args[0], args[1])
		},
	}

	cmd.SilenceUsage = true

	return cmd
}

func runUI(opts *uiOptions, symbol, expiration string) error {
	session, err := opts.open(symbol, expiration)
	if err != nil {
		return err
	}

	run := opts.run
	if run == nil {
		run = func(m tea.Model) error {
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		}
	}
	return run(tui.New(session, chartWriter(opts.plotDir, session)))
}

// chartWriter saves charts for session into dir.
func chartWriter(dir string, session *strategy.Session) tui.PlotFunc {
	return func(a *payoff.Analysis) (string, error) {
		return plot.SaveFile(a, dir, session.Symbol(), session.Expiration(), plot.Options{})
	}
}

func init() {
	var opts uiOptions

	uiCmd := newUICmd(&opts)
	uiCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		rt, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		opts.sessionOptions = rt.sessionOptions()
		return nil
	}

	rootCmd.AddCommand(uiCmd)
}
