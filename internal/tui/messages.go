package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/strategy"
)

// SessionLoadedMsg is sent when the chain, quote and range are loaded.
type SessionLoadedMsg struct{}

// SessionErrorMsg is sent when loading the session fails.
type SessionErrorMsg struct {
	Err error
}

// PlotSavedMsg is sent when the chart has been written.
type PlotSavedMsg struct {
	Path string
}

// PlotErrorMsg is sent when rendering the chart fails.
type PlotErrorMsg struct {
	Err error
}

// PlotFunc renders an analysis and returns where it was written.
type PlotFunc func(a *payoff.Analysis) (string, error)

// LoadSession returns a command that loads, or with reset reloads, the session.
func LoadSession(session *strategy.Session, reset bool, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		load := session.Load
		if reset {
			load = session.Reset
		}
		if err := load(ctx); err != nil {
			return SessionErrorMsg{Err: err}
		}
		return SessionLoadedMsg{}
	}
}

// SavePlot returns a command that renders a with plot.
func SavePlot(plot PlotFunc, a *payoff.Analysis) tea.Cmd {
	return func() tea.Msg {
		path, err := plot(a)
		if err != nil {
			return PlotErrorMsg{Err: err}
		}
		return PlotSavedMsg{Path: path}
	}
}
