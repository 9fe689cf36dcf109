package cmd

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonandersen/payoff/internal/greeks"
	"github.com/jonandersen/payoff/internal/marketdata"
	"github.com/jonandersen/payoff/internal/output"
	"github.com/jonandersen/payoff/internal/payoff"
)

// chainFilter holds filtering options for the chain command.
type chainFilter struct {
	minStrike float64
	maxStrike float64
	minOI     int64
	minVolume int64
	callsOnly bool
	putsOnly  bool
	strikes   int // N strikes around ATM
}

// filterContracts applies the strike range, open interest and volume filters.
func filterContracts(list []marketdata.Contract, filter chainFilter) []marketdata.Contract {
	if len(list) == 0 {
		return list
	}

	var filtered []marketdata.Contract
	for _, c := range list {
		if filter.minStrike > 0 && c.Strike < filter.minStrike {
			continue
		}
		if filter.maxStrike > 0 && c.Strike > filter.maxStrike {
			continue
		}
		if filter.minOI > 0 && c.OpenInterest < filter.minOI {
			continue
		}
		if filter.minVolume > 0 && c.Volume < filter.minVolume {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}

// filterStrikesAroundATM keeps n contracts centered on the strike closest
// to the underlying price. list must be sorted by strike.
func filterStrikesAroundATM(list []marketdata.Contract, n int, underlyingPrice float64) []marketdata.Contract {
	if len(list) == 0 || n <= 0 {
		return list
	}

	var closestIdx int
	closestDiff := math.Inf(1)
	for i, c := range list {
		if diff := math.Abs(c.Strike - underlyingPrice); diff < closestDiff {
			closestDiff = diff
			closestIdx = i
		}
	}

	half := n / 2
	startIdx := closestIdx - half
	endIdx := closestIdx + half + (n % 2)

	if startIdx < 0 {
		endIdx += -startIdx
		startIdx = 0
	}
	if endIdx > len(list) {
		startIdx -= endIdx - len(list)
		endIdx = len(list)
	}
	if startIdx < 0 {
		startIdx = 0
	}

	return list[startIdx:endIdx]
}

// chainOptions holds dependencies for the chain command.
type chainOptions struct {
	provider marketdata.Provider
	rate     float64
	now      func() time.Time
	jsonMode bool
}

// chainContract is a contract with its Black-Scholes sensitivities.
type chainContract struct {
	marketdata.Contract
	Greeks *greeks.Result `json:"greeks,omitempty"`
}

// chainResult is the JSON shape of the chain command.
type chainResult struct {
	Symbol     string          `json:"symbol"`
	Expiration string          `json:"expiration"`
	Underlying float64         `json:"underlying"`
	Rate       float64         `json:"risk_free_rate"`
	Calls      []chainContract `json:"calls"`
	Puts       []chainContract `json:"puts"`
}

func newChainCmd(opts *chainOptions) *cobra.Command {
	var filter chainFilter

	cmd := &cobra.Command{
		Use:   "chain SYMBOL EXPIRATION",
		Short: "Show the option chain with greeks",
		Long: `Display calls and puts for an expiration with last price, bid/ask,
volume, open interest, implied volatility and Black-Scholes greeks.

Implied volatility comes from the provider when available and is otherwise
backed out of the mid price. Theta is per day, vega and rho per point.

Examples:
  payoff chain AAPL 2025-01-17
  payoff chain AAPL 2025-01-17 --strikes 10        # 10 strikes around ATM
  payoff chain AAPL 2025-01-17 --calls-only --min-oi 100
  payoff chain AAPL 2025-01-17 --rate 0.05 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.callsOnly && filter.putsOnly {
				return fmt.Errorf("cannot use both --calls-only and --puts-only")
			}
			return runChain(cmd, opts, args[0], args[1], filter)
		},
	}

	cmd.Flags().Float64Var(&filter.minStrike, "min-strike", 0, "Minimum strike price")
	cmd.Flags().Float64Var(&filter.maxStrike, "max-strike", 0, "Maximum strike price")
	cmd.Flags().Int64Var(&filter.minOI, "min-oi", 0, "Minimum open interest")
	cmd.Flags().Int64Var(&filter.minVolume, "min-volume", 0, "Minimum volume")
	cmd.Flags().BoolVar(&filter.callsOnly, "calls-only", false, "Show only calls")
	cmd.Flags().BoolVar(&filter.putsOnly, "puts-only", false, "Show only puts")
	cmd.Flags().IntVar(&filter.strikes, "strikes", 0, "Number of strikes around ATM")
	cmd.Flags().Float64Var(&opts.rate, "rate", opts.rate, "Annual risk-free rate for greeks (0.045 = 4.5%)")

	cmd.SilenceUsage = true

	return cmd
}

func runChain(cmd *cobra.Command, opts *chainOptions, symbol, expiration string, filter chainFilter) error {
	symbol = strings.ToUpper(symbol)
	expiry, err := time.Parse(time.DateOnly, expiration)
	if err != nil {
		return fmt.Errorf("invalid expiration date %q (use YYYY-MM-DD): %w", expiration, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chain, err := opts.provider.Chain(ctx, symbol, expiration)
	if err != nil {
		return fmt.Errorf("failed to get option chain: %w", err)
	}
	quote, err := opts.provider.Quote(ctx, symbol)
	if err != nil {
		return fmt.Errorf("failed to get underlying price: %w", err)
	}
	spot := quote.Price()

	calls, puts := chain.Calls, chain.Puts
	calls = filterContracts(calls, filter)
	puts = filterContracts(puts, filter)
	if filter.strikes > 0 && spot > 0 {
		calls = filterStrikesAroundATM(calls, filter.strikes, spot)
		puts = filterStrikesAroundATM(puts, filter.strikes, spot)
	}
	if filter.callsOnly {
		puts = nil
	}
	if filter.putsOnly {
		calls = nil
	}

	if len(calls) == 0 && len(puts) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No options available for %s expiring %s (after filtering)\n", symbol, expiration)
		return nil
	}

	now := time.Now
	if opts.now != nil {
		now = opts.now
	}
	// Options stop trading at the 16:00 ET close; UTC is close enough for greeks.
	years := greeks.YearsBetween(now(), expiry.Add(16*time.Hour))

	result := chainResult{
		Symbol:     symbol,
		Expiration: expiration,
		Underlying: spot,
		Rate:       opts.rate,
		Calls:      withGreeks(calls, spot, years, opts.rate),
		Puts:       withGreeks(puts, spot, years, opts.rate),
	}

	if opts.jsonMode {
		return output.New(cmd.OutOrStdout(), true).Print(result)
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Option Chain for %s expiring %s (underlying %.2f, rate %.2f%%)\n", symbol, expiration, spot, opts.rate*100)

	f := output.New(w, false)
	for _, section := range []struct {
		title string
		list  []chainContract
	}{{"CALLS", result.Calls}, {"PUTS", result.Puts}} {
		if len(section.list) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s\n", section.title)
		if err := f.Table(chainHeaders, chainRows(section.list, spot)); err != nil {
			return err
		}
	}
	return nil
}

var chainHeaders = []string{"Strike", "Last", "Bid", "Ask", "Volume", "OI", "IV", "Delta", "Gamma", "Theta", "Vega"}

func chainRows(list []chainContract, spot float64) [][]string {
	atm := -1
	best := math.Inf(1)
	for i, c := range list {
		if d := math.Abs(c.Strike - spot); d < best {
			best = d
			atm = i
		}
	}

	rows := make([][]string, 0, len(list))
	for i, c := range list {
		strike := payoff.FormatStrike(c.Strike)
		if i == atm {
			strike += " (ATM)"
		}
		row := []string{
			strike,
			output.FormatPrice(c.Last),
			output.FormatPrice(c.Bid),
			output.FormatPrice(c.Ask),
			output.FormatVolume(c.Volume),
			output.FormatVolume(c.OpenInterest),
			output.FormatPercent(c.IV),
		}
		if c.Greeks != nil {
			row = append(row,
				output.FormatGreek(c.Greeks.Delta),
				output.FormatGreek(c.Greeks.Gamma),
				output.FormatGreek(c.Greeks.Theta),
				output.FormatGreek(c.Greeks.Vega),
			)
		}
		rows = append(rows, row)
	}
	return rows
}

// withGreeks attaches greeks to each contract. Contracts without IV get
// one implied from the mid price; those that cannot be priced get none.
func withGreeks(list []marketdata.Contract, spot, years, rate float64) []chainContract {
	out := make([]chainContract, 0, len(list))
	for _, c := range list {
		cc := chainContract{Contract: c}
		in := greeks.Inputs{
			Type:   c.Type,
			Spot:   spot,
			Strike: c.Strike,
			Years:  years,
			Rate:   rate,
			Vol:    c.IV,
		}
		if in.Vol <= 0 {
			if iv, err := greeks.ImpliedVol(in, c.Mid()); err == nil {
				in.Vol = iv
				cc.IV = iv
			}
		}
		if in.Vol > 0 && years > 0 && spot > 0 {
			g := greeks.Compute(in)
			cc.Greeks = &g
		}
		out = append(out, cc)
	}
	return out
}

func init() {
	var opts chainOptions

	chainCmd := newChainCmd(&opts)
	chainCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		rt, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		opts.provider = rt.service
		opts.jsonMode = GetJSONMode()
		if !cmd.Flags().Changed("rate") {
			opts.rate = rt.cfg.RiskFreeRate
		}
		return nil
	}

	rootCmd.AddCommand(chainCmd)
}
