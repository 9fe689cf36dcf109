// Package payoff computes expiration profit/loss curves for multi-leg
// option positions and integrates them over an expected price range.
package payoff

import (
	"fmt"
	"strings"
)

// OptionType is a call or a put.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "c", "p", "call" or "put" in any case.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "call":
		return Call, nil
	case "p", "put":
		return Put, nil
	default:
		return "", fmt.Errorf("invalid option type %q: use c or p", s)
	}
}

// Short returns the single-letter code used in leg commands.
func (t OptionType) Short() string {
	if t == Put {
		return "p"
	}
	return "c"
}

// Direction is long (bought) or short (sold).
type Direction int

const (
	Long Direction = iota
	Short
)

// ParseDirection accepts "+" for long and "-" for short.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "+":
		return Long, nil
	case "-":
		return Short, nil
	default:
		return Long, fmt.Errorf("invalid direction %q: use + or -", s)
	}
}

// Sign returns "+" or "-".
func (d Direction) Sign() string {
	if d == Short {
		return "-"
	}
	return "+"
}

func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

// MarshalText renders the direction as "long" or "short".
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts "long", "short", "+" or "-".
func (d *Direction) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "long", "+":
		*d = Long
	case "short", "-":
		*d = Short
	default:
		return fmt.Errorf("invalid direction %q", text)
	}
	return nil
}

// Leg is one option position. Premium is per share.
type Leg struct {
	Type      OptionType `json:"type"`
	Direction Direction  `json:"direction"`
	Strike    float64    `json:"strike"`
	Premium   float64    `json:"premium"`
	Quantity  int        `json:"quantity"`
	Symbol    string     `json:"symbol,omitempty"`
}

// Qty returns the leg quantity, treating zero or negative as one contract.
func (l Leg) Qty() int {
	if l.Quantity <= 0 {
		return 1
	}
	return l.Quantity
}

// Profit returns the per-share profit of the leg at expiration when the
// underlying settles at price.
func (l Leg) Profit(price float64) float64 {
	var intrinsic float64
	switch l.Type {
	case Call:
		if price > l.Strike {
			intrinsic = price - l.Strike
		}
	case Put:
		if price < l.Strike {
			intrinsic = l.Strike - price
		}
	}

	profit := intrinsic - l.Premium
	if l.Direction == Short {
		profit = -profit
	}
	return profit * float64(l.Qty())
}

// String formats the leg in command syntax, e.g. "+c 150 x2".
func (l Leg) String() string {
	s := fmt.Sprintf("%s%s %s", l.Direction.Sign(), l.Type.Short(), FormatStrike(l.Strike))
	if l.Qty() > 1 {
		s += fmt.Sprintf(" x%d", l.Qty())
	}
	return s
}

// FormatStrike prints a strike without trailing zeros.
func FormatStrike(strike float64) string {
	s := fmt.Sprintf("%.2f", strike)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
