// Package tui is the full-screen strategy explorer.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/strategy"
)

// State is the loading state of the explorer.
type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

// Focus is the panel receiving keys.
type Focus int

const (
	FocusCalls Focus = iota
	FocusPuts
	FocusCommand
)

// DefaultLoadTimeout bounds a load, which includes training the model.
const DefaultLoadTimeout = 2 * time.Minute

// Model is the main bubbletea model for the TUI.
type Model struct {
	session     *strategy.Session
	plot        PlotFunc
	loadTimeout time.Duration

	state  State
	focus  Focus
	err    error
	width  int
	height int
	ready  bool

	callsCursor int
	putsCursor  int
	chainRows   int

	input    textinput.Model
	spinner  spinner.Model
	legs     table.Model
	analysis *payoff.Analysis
	showHelp bool

	status    string
	statusErr bool
}

// New creates the explorer for session. plot may be nil to disable charts.
func New(session *strategy.Session, plot PlotFunc) Model {
	ti := textinput.New()
	ti.Placeholder = "+c 150, -p 140 2, plot, reset, help"
	ti.CharLimit = 32
	ti.Width = 40
	ti.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = KeyStyle

	legs := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Leg", Width: 14},
			{Title: "Contract", Width: 22},
			{Title: "Premium", Width: 9},
		}),
		table.WithHeight(4),
		table.WithStyles(legsTableStyles()),
	)

	return Model{
		session:     session,
		plot:        plot,
		loadTimeout: DefaultLoadTimeout,
		state:       StateLoading,
		focus:       FocusCalls,
		chainRows:   7,
		input:       ti,
		spinner:     sp,
		legs:        legs,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, LoadSession(m.session, false, m.loadTimeout))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		// Header, footer, legs, summary and input take roughly 24 lines.
		rows := (m.height - 24) / 2
		m.chainRows = max(3, min(rows, 15))
		return m, nil

	case spinner.TickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SessionLoadedMsg:
		m.state = StateReady
		m.err = nil
		m.selectATM()
		m.refresh()
		m.setStatus(fmt.Sprintf("Loaded %s %s", m.session.Symbol(), m.session.Expiration()), false)
		return m, nil

	case SessionErrorMsg:
		m.state = StateError
		m.err = msg.Err
		return m, nil

	case PlotSavedMsg:
		m.setStatus("Chart saved to "+msg.Path, false)
		return m, nil

	case PlotErrorMsg:
		m.setStatus(msg.Err.Error(), true)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.focus == FocusCommand {
		return m.handleCommandKeys(msg)
	}

	switch m.state {
	case StateLoading:
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	case StateError:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "R":
			return m.reload()
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "tab":
		if m.focus == FocusCalls {
			m.focus = FocusPuts
		} else {
			m.focus = FocusCalls
		}
	case "c":
		m.focus = FocusCalls
	case "p":
		m.focus = FocusPuts
	case "+", "b":
		m.addSelected(payoff.Long)
	case "-", "s":
		m.addSelected(payoff.Short)
	case "d", "backspace":
		if n := len(m.session.Legs()); n > 0 {
			return m.execute(strategy.Command{Kind: strategy.KindRemove, Index: n})
		}
	case "x":
		return m.execute(strategy.Command{Kind: strategy.KindClear})
	case "enter", "P":
		return m.execute(strategy.Command{Kind: strategy.KindPlot})
	case "R":
		return m.reload()
	case "?":
		m.showHelp = !m.showHelp
	case ":", "/", "i":
		m.focus = FocusCommand
		m.input.SetValue("")
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) handleCommandKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.SetValue("")
		m.input.Blur()
		m.focus = FocusCalls
		return m, nil
	case tea.KeyEnter:
		line := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		m.input.Blur()
		m.focus = FocusCalls
		if line == "" {
			return m, nil
		}
		cmd, err := strategy.ParseCommand(line)
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		return m.execute(cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// execute runs a parsed command against the session.
func (m Model) execute(cmd strategy.Command) (tea.Model, tea.Cmd) {
	if m.state != StateReady && cmd.Kind != strategy.KindQuit && cmd.Kind != strategy.KindReset {
		return m, nil
	}

	switch cmd.Kind {
	case strategy.KindAdd:
		leg, err := m.session.AddLeg(cmd)
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.refresh()
		m.setStatus(fmt.Sprintf("Added %s at %.2f", leg, leg.Premium), false)

	case strategy.KindRemove:
		leg, err := m.session.RemoveLeg(cmd.Index)
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.refresh()
		m.setStatus("Removed "+leg.String(), false)

	case strategy.KindClear:
		m.session.Clear()
		m.refresh()
		m.setStatus("Selected options removed", false)

	case strategy.KindPlot:
		if m.plot == nil || m.analysis == nil {
			return m, nil
		}
		m.setStatus("Rendering chart...", false)
		return m, SavePlot(m.plot, m.analysis)

	case strategy.KindReset:
		return m.reload()

	case strategy.KindQuit:
		return m, tea.Quit

	case strategy.KindLegs:
		m.setStatus(fmt.Sprintf("%d legs selected", len(m.session.Legs())), false)

	case strategy.KindChain:
		m.focus = FocusCalls

	case strategy.KindHelp:
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	m.state = StateLoading
	m.analysis = nil
	m.legs.SetRows(nil)
	m.setStatus("", false)
	return m, tea.Batch(m.spinner.Tick, LoadSession(m.session, true, m.loadTimeout))
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// refresh recomputes the analysis and the legs table.
func (m *Model) refresh() {
	a, err := m.session.Analyze()
	if err != nil {
		if !errors.Is(err, strategy.ErrNotLoaded) {
			m.setStatus(err.Error(), true)
		}
		return
	}
	m.analysis = a

	rows := make([]table.Row, 0, len(a.Legs))
	for i, leg := range a.Legs {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			leg.String(),
			leg.Symbol,
			fmt.Sprintf("%.2f", leg.Premium),
		})
	}
	m.legs.SetRows(rows)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	content := ContentStyle.Render(m.renderContent())

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight

	contentLines := strings.Split(content, "\n")
	for len(contentLines) < contentHeight {
		contentLines = append(contentLines, "")
	}
	if contentHeight > 0 && len(contentLines) > contentHeight {
		contentLines = contentLines[:contentHeight]
	}
	content = strings.Join(contentLines, "\n")

	return header + "\n" + content + "\n" + footer
}

func (m Model) renderHeader() string {
	title := HeaderStyle.Render("payoff")

	info := fmt.Sprintf("%s  exp %s", m.session.Symbol(), m.session.Expiration())
	if m.state == StateReady {
		r := m.session.Range()
		info += fmt.Sprintf("  spot %.2f  range %.2f - %.2f", m.session.Spot(), r.Lower, r.Upper)
	}
	headerContent := title + "  " + lipgloss.NewStyle().Foreground(ColorAccent).Render(info)

	padding := m.width - lipgloss.Width(headerContent)
	if padding > 0 {
		headerContent += strings.Repeat(" ", padding)
	}

	return lipgloss.NewStyle().
		Background(ColorBar).
		Width(m.width).
		Render(headerContent)
}

func (m Model) renderContent() string {
	switch m.state {
	case StateLoading:
		return m.spinner.View() + " " + LabelStyle.Render("Loading option chain and training volatility model...")
	case StateError:
		var b strings.Builder
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(LabelStyle.Render("Press R to retry, q to quit"))
		return b.String()
	}

	if m.showHelp {
		return strategy.HelpText
	}

	var b strings.Builder
	b.WriteString(m.renderChain())
	b.WriteString("\n")
	b.WriteString(m.renderPosition())
	b.WriteString("\n")
	if m.focus == FocusCommand {
		b.WriteString(InputStyle.Render(m.input.View()))
		b.WriteString("\n")
	}
	if m.status != "" {
		if m.statusErr {
			b.WriteString(ErrorStyle.Render(m.status))
		} else {
			b.WriteString(LabelStyle.Render(m.status))
		}
	}
	return b.String()
}

func (m Model) renderFooter() string {
	keys := []struct {
		key  string
		desc string
	}{}

	switch {
	case m.focus == FocusCommand:
		keys = append(keys,
			struct{ key, desc string }{"enter", "run"},
			struct{ key, desc string }{"esc", "cancel"},
		)
	case m.state == StateReady:
		keys = append(keys,
			struct{ key, desc string }{"↑/↓", "navigate"},
			struct{ key, desc string }{"tab", "calls/puts"},
			struct{ key, desc string }{"+/-", "buy/sell"},
			struct{ key, desc string }{"d", "remove"},
			struct{ key, desc string }{"x", "clear"},
			struct{ key, desc string }{"enter", "plot"},
			struct{ key, desc string }{":", "command"},
			struct{ key, desc string }{"R", "reset"},
			struct{ key, desc string }{"?", "help"},
		)
	case m.state == StateError:
		keys = append(keys, struct{ key, desc string }{"R", "retry"})
	}
	keys = append(keys, struct{ key, desc string }{"q", "quit"})

	var parts []string
	for _, k := range keys {
		parts = append(parts, KeyStyle.Render(k.key)+" "+DescStyle.Render(k.desc))
	}

	footerContent := strings.Join(parts, "  •  ")

	padding := m.width - lipgloss.Width(footerContent)
	if padding > 0 {
		footerContent += strings.Repeat(" ", padding)
	}

	return lipgloss.NewStyle().
		Background(ColorBar).
		Width(m.width).
		Render(footerContent)
}
