package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/jonandersen/payoff/internal/output"
)

// Palette
const (
	ColorAccent   = lipgloss.Color("39")  // headers, keys
	ColorMuted    = lipgloss.Color("241") // labels, strikes outside the range
	ColorBar      = lipgloss.Color("236")
	ColorCursor   = lipgloss.Color("57")
	ColorCursorFg = lipgloss.Color("229")
	ColorProfit   = lipgloss.Color("82")
	ColorLoss     = lipgloss.Color("196")
	ColorRange    = lipgloss.Color("214")
	ColorITM      = lipgloss.Color("153")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent).
			Background(ColorBar).
			Padding(0, 1)

	ContentStyle = lipgloss.NewStyle().Padding(1, 2)

	KeyStyle  = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	DescStyle = lipgloss.NewStyle().Foreground(ColorMuted)

	SummaryStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle   = lipgloss.NewStyle().Bold(true)

	ProfitStyle = lipgloss.NewStyle().Foreground(ColorProfit)
	LossStyle   = lipgloss.NewStyle().Foreground(ColorLoss)
	RangeStyle  = lipgloss.NewStyle().Foreground(ColorRange).Bold(true)
	ErrorStyle  = LossStyle.Bold(true)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(ColorCursorFg).
			Background(ColorCursor).
			Bold(true)
	inRangeStyle = lipgloss.NewStyle()
	itmStyle     = lipgloss.NewStyle().Foreground(ColorITM)
)

// rowState describes how a chain row relates to the cursor, the spot
// price and the expected range.
type rowState struct {
	cursor  bool
	focused bool
	inRange bool
	itm     bool
}

// contractStyle picks the style for one chain row. The cursor wins, then
// in-the-money strikes, then strikes inside the expected range.
func contractStyle(s rowState) lipgloss.Style {
	switch {
	case s.cursor && s.focused:
		return cursorStyle
	case s.cursor:
		return ValueStyle
	case s.itm && s.inRange:
		return itmStyle
	case s.inRange:
		return inRangeStyle
	default:
		return LabelStyle
	}
}

// legsTableStyles styles the position table.
func legsTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(ColorCursorFg).
		Background(ColorCursor).
		Bold(false)
	return s
}

// ProfitLoss renders v with a sign, green when non-negative and red otherwise.
func ProfitLoss(v float64) string {
	if v >= 0 {
		return ProfitStyle.Render(output.FormatGainLoss(v))
	}
	return LossStyle.Render(output.FormatGainLoss(v))
}
