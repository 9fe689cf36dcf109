package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonandersen/payoff/internal/payoff"
)

// Prompt is shown before each interactive command.
const Prompt = "Enter option command (<-|+><c|p> <strike_price>), or 'plot', 'reset', 'quit': "

// HelpText describes the interactive commands.
const HelpText = `Commands:
  +c <strike> [qty]   buy a call at strike
  -c <strike> [qty]   sell a call at strike
  +p <strike> [qty]   buy a put at strike
  -p <strike> [qty]   sell a put at strike
  legs                list selected legs
  remove <n>          remove leg n
  clear               remove all legs
  chain               show the option chain
  plot                analyze the position and render the chart
  reset               clear legs and reload market data
  help                show this help
  quit, exit          leave the session`

// Kind identifies a parsed command.
type Kind int

const (
	KindAdd Kind = iota
	KindPlot
	KindReset
	KindQuit
	KindLegs
	KindRemove
	KindClear
	KindChain
	KindHelp
)

// Command is one parsed line of input.
type Command struct {
	Kind      Kind
	Direction payoff.Direction
	Type      payoff.OptionType
	Strike    float64
	Quantity  int
	// Index is the 1-based leg number for KindRemove.
	Index int
}

// ParseCommand parses a line such as "+c 150", "-p 92.5 2", "plot" or "remove 1".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "plot":
		return Command{Kind: KindPlot}, nil
	case "reset":
		return Command{Kind: KindReset}, nil
	case "quit", "exit", "q":
		return Command{Kind: KindQuit}, nil
	case "legs":
		return Command{Kind: KindLegs}, nil
	case "clear":
		return Command{Kind: KindClear}, nil
	case "chain":
		return Command{Kind: KindChain}, nil
	case "help", "?":
		return Command{Kind: KindHelp}, nil
	case "remove", "rm":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("usage: remove <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("invalid leg number %q", fields[1])
		}
		return Command{Kind: KindRemove, Index: n}, nil
	}

	return parseLeg(fields)
}

func parseLeg(fields []string) (Command, error) {
	head := fields[0]
	if len(head) != 2 || len(fields) < 2 || len(fields) > 3 {
		return Command{}, fmt.Errorf("unknown command %q: use <+|-><c|p> <strike> [qty]", strings.Join(fields, " "))
	}

	dir, err := payoff.ParseDirection(head[:1])
	if err != nil {
		return Command{}, err
	}
	typ, err := payoff.ParseOptionType(head[1:])
	if err != nil {
		return Command{}, err
	}

	strike, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || strike <= 0 {
		return Command{}, fmt.Errorf("invalid strike price %q", fields[1])
	}

	qty := 1
	if len(fields) == 3 {
		qty, err = strconv.Atoi(strings.TrimPrefix(fields[2], "x"))
		if err != nil || qty < 1 {
			return Command{}, fmt.Errorf("invalid quantity %q", fields[2])
		}
	}

	return Command{Kind: KindAdd, Direction: dir, Type: typ, Strike: strike, Quantity: qty}, nil
}
