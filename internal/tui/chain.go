package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/jonandersen/payoff/internal/marketdata"
	"github.com/jonandersen/payoff/internal/output"
	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/strategy"
)

func (m *Model) contracts(f Focus) []marketdata.Contract {
	chain := m.session.Chain()
	if chain == nil {
		return nil
	}
	if f == FocusPuts {
		return chain.Puts
	}
	return chain.Calls
}

func (m *Model) moveCursor(delta int) {
	n := len(m.contracts(m.focus))
	if n == 0 {
		return
	}
	cursor := &m.callsCursor
	if m.focus == FocusPuts {
		cursor = &m.putsCursor
	}
	*cursor = max(0, min(*cursor+delta, n-1))
}

// selectATM moves both cursors to the strike nearest the spot price.
func (m *Model) selectATM() {
	spot := m.session.Spot()
	m.callsCursor = nearest(m.contracts(FocusCalls), spot)
	m.putsCursor = nearest(m.contracts(FocusPuts), spot)
}

func nearest(list []marketdata.Contract, price float64) int {
	best := 0
	for i, c := range list {
		if math.Abs(c.Strike-price) < math.Abs(list[best].Strike-price) {
			best = i
		}
	}
	return best
}

func (m *Model) addSelected(dir payoff.Direction) {
	list := m.contracts(m.focus)
	cursor := m.callsCursor
	typ := payoff.Call
	if m.focus == FocusPuts {
		cursor = m.putsCursor
		typ = payoff.Put
	}
	if cursor >= len(list) {
		return
	}

	cmd := strategy.Command{
		Kind:      strategy.KindAdd,
		Direction: dir,
		Type:      typ,
		Strike:    list[cursor].Strike,
		Quantity:  1,
	}
	leg, err := m.session.AddLeg(cmd)
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	m.refresh()
	m.setStatus(fmt.Sprintf("Added %s at %.2f", leg, leg.Premium), false)
}

// window returns the slice bounds of rows visible around cursor.
func window(cursor, n, rows int) (int, int) {
	start := cursor - rows/2
	if start < 0 {
		start = 0
	}
	end := start + rows
	if end > n {
		end = n
		start = max(0, end-rows)
	}
	return start, end
}

func (m Model) renderChain() string {
	var b strings.Builder
	b.WriteString(m.renderContracts("CALLS", m.contracts(FocusCalls), m.callsCursor, m.focus == FocusCalls))
	b.WriteString("\n")
	b.WriteString(m.renderContracts("PUTS", m.contracts(FocusPuts), m.putsCursor, m.focus == FocusPuts))
	return b.String()
}

func (m Model) renderContracts(title string, list []marketdata.Contract, cursor int, focused bool) string {
	var b strings.Builder

	titleStyle := LabelStyle
	if focused {
		titleStyle = ValueStyle
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("  Strike      Last      Bid      Ask      Vol       OI      IV"))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render(strings.Repeat("─", 66)))
	b.WriteString("\n")

	if len(list) == 0 {
		b.WriteString(LabelStyle.Render("  no contracts"))
		b.WriteString("\n")
		return b.String()
	}

	spot := m.session.Spot()
	atm := nearest(list, spot)
	r := m.session.Range()
	start, end := window(cursor, len(list), m.chainRows)
	for i := start; i < end; i++ {
		c := list[i]

		marker := ""
		switch {
		case i == atm:
			marker = " ATM"
		case !r.Contains(c.Strike):
			marker = " out"
		}

		row := fmt.Sprintf("%-8s  %8s  %7s  %7s  %7s  %7s  %6s%s",
			payoff.FormatStrike(c.Strike),
			output.FormatPrice(c.Last),
			output.FormatPrice(c.Bid),
			output.FormatPrice(c.Ask),
			output.FormatVolume(c.Volume),
			output.FormatVolume(c.OpenInterest),
			output.FormatPercent(c.IV),
			marker,
		)

		prefix := "  "
		if i == cursor {
			prefix = "> "
		}
		style := contractStyle(rowState{
			cursor:  i == cursor,
			focused: focused,
			inRange: r.Contains(c.Strike),
			itm:     inTheMoney(c, spot),
		})
		b.WriteString(style.Render(prefix + row))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderPosition() string {
	var b strings.Builder

	b.WriteString(SummaryStyle.Render("Position"))
	b.WriteString("\n")
	if len(m.legs.Rows()) == 0 {
		b.WriteString(LabelStyle.Render("  no legs, press + or - on a contract"))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(m.legs.View())
	b.WriteString("\n\n")

	a := m.analysis
	if a == nil {
		return b.String()
	}

	line := func(label, value string) {
		b.WriteString(LabelStyle.Render(fmt.Sprintf("  %-20s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}

	breakevens := make([]string, 0, len(a.Breakevens))
	for _, be := range a.Breakevens {
		breakevens = append(breakevens, fmt.Sprintf("%.2f", be))
	}
	if len(breakevens) == 0 {
		breakevens = append(breakevens, "-")
	}

	line("Net premium", ValueStyle.Render(a.NetPremium.StringFixed(2)))
	line("Breakeven", ValueStyle.Render(fmt.Sprintf("%.3f", a.Breakeven))+LabelStyle.Render("  crossings "+strings.Join(breakevens, ", ")))
	line("Max profit / loss", ProfitLoss(a.MaxProfit)+" / "+ProfitLoss(a.MaxLoss))
	line("Expected range", RangeStyle.Render(fmt.Sprintf("%.2f - %.2f", a.Range.Lower, a.Range.Upper)))
	line("Profit region area", ProfitLoss(a.ProfitArea))
	line("Loss region area", ProfitLoss(a.LossArea))
	line("Net area", ProfitLoss(a.NetArea))

	return b.String()
}

func inTheMoney(c marketdata.Contract, spot float64) bool {
	if c.Type == payoff.Put {
		return c.Strike > spot
	}
	return c.Strike < spot
}
