package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/payoff/internal/payoff"
)

func TestParseCommand_Legs(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"+c 150", Command{Kind: KindAdd, Direction: payoff.Long, Type: payoff.Call, Strike: 150, Quantity: 1}},
		{"-c 155", Command{Kind: KindAdd, Direction: payoff.Short, Type: payoff.Call, Strike: 155, Quantity: 1}},
		{"+p 92.5", Command{Kind: KindAdd, Direction: payoff.Long, Type: payoff.Put, Strike: 92.5, Quantity: 1}},
		{"  -P 100 3 ", Command{Kind: KindAdd, Direction: payoff.Short, Type: payoff.Put, Strike: 100, Quantity: 3}},
		{"+c 150 x2", Command{Kind: KindAdd, Direction: payoff.Long, Type: payoff.Call, Strike: 150, Quantity: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Keywords(t *testing.T) {
	tests := map[string]Kind{
		"plot":   KindPlot,
		"reset":  KindReset,
		"quit":   KindQuit,
		"quit ":  KindQuit,
		"exit":   KindQuit,
		"legs":   KindLegs,
		"clear":  KindClear,
		"chain":  KindChain,
		"help":   KindHelp,
		" PLOT ": KindPlot,
	}

	for line, want := range tests {
		got, err := ParseCommand(line)
		require.NoError(t, err, line)
		assert.Equal(t, want, got.Kind, line)
	}
}

func TestParseCommand_Remove(t *testing.T) {
	got, err := ParseCommand("remove 2")
	require.NoError(t, err)
	assert.Equal(t, Command{Kind: KindRemove, Index: 2}, got)

	for _, line := range []string{"remove", "remove 0", "remove two"} {
		_, err := ParseCommand(line)
		assert.Error(t, err, line)
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"buy",
		"+c",
		"*c 150",
		"+x 150",
		"+c abc",
		"+c -5",
		"+c 150 0",
		"+c 150 2 extra",
		"+call 150",
	} {
		_, err := ParseCommand(line)
		assert.Error(t, err, "line %q", line)
	}
}
