package cmd

import (
	"bytes"
	"errors"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/tui"
)

func TestUICmd_RunsModel(t *testing.T) {
	var got tea.Model
	opts := &uiOptions{
		sessionOptions: testSessionOptions(t),
		run: func(m tea.Model) error {
			got = m
			return nil
		},
	}
	cmd := newUICmd(opts)
	cmd.SetArgs([]string{"aapl", "2025-01-17"})

	require.NoError(t, cmd.Execute())
	require.IsType(t, tui.Model{}, got)
	assert.NotNil(t, got.Init())
}

func TestUICmd_RunError(t *testing.T) {
	opts := &uiOptions{
		sessionOptions: testSessionOptions(t),
		run: func(tea.Model) error {
			return errors.New("no tty")
		},
	}
	cmd := newUICmd(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"AAPL", "2025-01-17"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tty")
}

func TestUICmd_InvalidDate(t *testing.T) {
	called := false
	opts := &uiOptions{
		sessionOptions: testSessionOptions(t),
		run: func(tea.Model) error {
			called = true
			return nil
		},
	}
	cmd := newUICmd(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"AAPL", "Jan 17"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid expiration date")
	assert.False(t, called)
}

func TestChartWriter(t *testing.T) {
	opts := testSessionOptions(t)
	session, err := opts.open("AAPL", "2025-01-17")
	require.NoError(t, err)

	a, err := payoff.Analyze([]payoff.Leg{{Type: payoff.Call, Strike: 100, Premium: 3}}, 101, payoff.Range{Lower: 95, Upper: 107})
	require.NoError(t, err)

	path, err := chartWriter(opts.plotDir, session)(a)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
