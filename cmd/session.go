package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jonandersen/payoff/internal/marketdata"
	"github.com/jonandersen/payoff/internal/output"
	"github.com/jonandersen/payoff/internal/payoff"
	"github.com/jonandersen/payoff/internal/strategy"
)

// loadTimeout bounds loading a session, which includes training the model.
const loadTimeout = 2 * time.Minute

// sessionOptions holds the dependencies shared by analyze, explore and ui.
type sessionOptions struct {
	provider     marketdata.Provider
	predictor    strategy.StdPredictor
	multiplier   float64
	historyYears int
	plotDir      string
	logger       *slog.Logger
	now          func() time.Time
	jsonMode     bool
}

// open creates an unloaded session for symbol and expiration.
func (o sessionOptions) open(symbol, expiration string) (*strategy.Session, error) {
	s, err := strategy.NewSession(strategy.Config{
		Symbol:          strings.ToUpper(symbol),
		Expiration:      expiration,
		RangeMultiplier: o.multiplier,
		HistoryYears:    o.historyYears,
	}, o.provider, o.predictor, o.logger)
	if err != nil {
		return nil, err
	}
	if o.now != nil {
		s.SetClock(o.now)
	}
	return s, nil
}

// printSessionSummary prints the loaded spot price and expected range.
func printSessionSummary(w io.Writer, s *strategy.Session) {
	r := s.Range()
	_, _ = fmt.Fprintf(w, "%s %s  spot %.2f\n", s.Symbol(), s.Expiration(), s.Spot())
	if p := s.Prediction(); p != nil {
		_, _ = fmt.Fprintf(w, "Predicted std: %.4f (test MSE %.4f, %d days)\n", p.Std, p.MSE, p.DTE)
	}
	_, _ = fmt.Fprintf(w, "Expected range: %.2f - %.2f\n", r.Lower, r.Upper)
}

// printLegs prints the legs as a table.
func printLegs(w io.Writer, legs []payoff.Leg) error {
	if len(legs) == 0 {
		_, _ = fmt.Fprintln(w, "No legs selected")
		return nil
	}
	rows := make([][]string, 0, len(legs))
	for i, leg := range legs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			leg.String(),
			leg.Symbol,
			fmt.Sprintf("%.2f", leg.Premium),
		})
	}
	return output.New(w, false).Table([]string{"#", "Leg", "Contract", "Premium"}, rows)
}

// printAnalysis prints the legs and the evaluated payoff.
func printAnalysis(w io.Writer, a *payoff.Analysis) error {
	if err := printLegs(w, a.Legs); err != nil {
		return err
	}

	crossings := make([]string, 0, len(a.Breakevens))
	for _, be := range a.Breakevens {
		crossings = append(crossings, fmt.Sprintf("%.2f", be))
	}
	if len(crossings) == 0 {
		crossings = append(crossings, "none")
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Net premium: %s\n", a.NetPremium.StringFixed(2))
	_, _ = fmt.Fprintf(w, "Breakeven: %.3f\n", a.Breakeven)
	_, _ = fmt.Fprintf(w, "Zero crossings: %s\n", strings.Join(crossings, ", "))
	_, _ = fmt.Fprintf(w, "Max profit: %s\n", output.FormatGainLoss(a.MaxProfit))
	_, _ = fmt.Fprintf(w, "Max loss: %s\n", output.FormatGainLoss(a.MaxLoss))
	_, _ = fmt.Fprintf(w, "Expected range: %.2f - %.2f\n", a.Range.Lower, a.Range.Upper)
	for _, mark := range a.StrikeMarks {
		_, _ = fmt.Fprintf(w, "Profit at strike %s: %s\n", payoff.FormatStrike(mark.Strike), output.FormatGainLoss(mark.Profit))
	}
	_, _ = fmt.Fprintf(w, "Profit region area: %.4f\n", a.ProfitArea)
	_, _ = fmt.Fprintf(w, "Loss region area: %.4f\n", a.LossArea)
	_, _ = fmt.Fprintf(w, "Net area: %.4f\n", a.NetArea)
	return nil
}

// contractRows renders contracts as table rows for the text chain views.
func contractRows(list []marketdata.Contract, r payoff.Range) [][]string {
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		inRange := ""
		if r.Contains(c.Strike) {
			inRange = "*"
		}
		rows = append(rows, []string{
			payoff.FormatStrike(c.Strike) + inRange,
			output.FormatPrice(c.Last),
			output.FormatPrice(c.Bid),
			output.FormatPrice(c.Ask),
			output.FormatVolume(c.Volume),
			output.FormatVolume(c.OpenInterest),
		})
	}
	return rows
}

// printChain prints calls and puts, marking strikes inside r with '*'.
func printChain(w io.Writer, chain *marketdata.Chain, r payoff.Range) error {
	headers := []string{"Strike", "Last", "Bid", "Ask", "Volume", "OI"}
	f := output.New(w, false)

	_, _ = fmt.Fprintln(w, "CALLS")
	if err := f.Table(headers, contractRows(chain.Calls, r)); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "PUTS")
	return f.Table(headers, contractRows(chain.Puts, r))
}
