// Package plot renders a payoff analysis as a PNG chart.
package plot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"

	"github.com/jonandersen/payoff/internal/payoff"
)

// Title is the chart heading.
const Title = "Combined Option Profit/Loss"

var (
	colorProfit  = drawing.Color{R: 46, G: 160, B: 67, A: 160}
	colorLoss    = drawing.Color{R: 214, G: 39, B: 40, A: 160}
	colorCurve   = drawing.Color{R: 31, G: 119, B: 180, A: 255}
	colorZero    = drawing.Color{R: 128, G: 128, B: 128, A: 255}
	colorRange   = drawing.Color{R: 255, G: 165, B: 0, A: 255}
	colorStrike  = drawing.Color{R: 0, G: 0, B: 255, A: 255}
	colorSpot    = drawing.Color{R: 0, G: 128, B: 0, A: 255}
	colorMarkers = drawing.Color{R: 0, G: 0, B: 0, A: 255}

	dashed = []float64{6, 4}
)

// Options sizes the chart.
type Options struct {
	Width  int
	Height int
}

// Render draws a as a PNG to w.
func Render(a *payoff.Analysis, w io.Writer, opts Options) error {
	if a == nil || len(a.Prices) == 0 {
		return fmt.Errorf("nothing to plot")
	}
	if opts.Width <= 0 {
		opts.Width = 1024
	}
	if opts.Height <= 0 {
		opts.Height = 768
	}

	yMin, yMax := yBounds(a.Profits)

	var series []chart.Series
	series = appendRegion(series, "Profit Region", a.Prices, a.Profits, colorProfit, func(p float64) bool { return p >= 0 })
	series = appendRegion(series, "Loss Region", a.Prices, a.Profits, colorLoss, func(p float64) bool { return p < 0 })

	first, last := a.Prices[0], a.Prices[len(a.Prices)-1]
	series = append(series,
		chart.ContinuousSeries{
			Name:    "Combined Profit",
			XValues: a.Prices,
			YValues: a.Profits,
			Style:   chart.Style{StrokeColor: colorCurve, StrokeWidth: 2},
		},
		chart.ContinuousSeries{
			XValues: []float64{first, last},
			YValues: []float64{0, 0},
			Style:   chart.Style{StrokeColor: colorZero, StrokeWidth: 2, StrokeDashArray: dashed},
		},
		vertical("Upper Price Range", a.Range.Upper, yMin, yMax),
		vertical("Lower Price Range", a.Range.Lower, yMin, yMax),
		marker(fmt.Sprintf("Breakeven Price: %s", trim(a.Breakeven)), a.Breakeven, 0, colorMarkers),
	)

	for _, m := range a.StrikeMarks {
		series = append(series, marker(strikeLabel(a.Legs, m.Strike), m.Strike, m.Profit, colorStrike))
	}
	series = append(series,
		marker(fmt.Sprintf("Current Stock Price: %s", trim(a.Spot)), a.Spot, 0, colorSpot),
		chart.AnnotationSeries{
			Annotations: []chart.Value2{{
				XValue: (a.Range.Lower + a.Range.Upper) / 2,
				YValue: yMax,
				Label:  fmt.Sprintf("Expected Profit within range: %.2f", a.NetArea),
			}},
		},
	)

	ch := chart.Chart{
		Title:      Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Stock Price"},
		YAxis: chart.YAxis{
			Name:  "Profit/Loss",
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// SaveFile renders a into dir and returns the file path.
func SaveFile(a *payoff.Analysis, dir, symbol, expiration string, opts Options) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create plot directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s.png", strings.ToUpper(symbol), expiration)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create plot file: %w", err)
	}
	if err := Render(a, f, opts); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write plot file: %w", err)
	}
	return path, nil
}

// yBounds pads the profit extremes and always includes zero.
func yBounds(profits []float64) (float64, float64) {
	lo, hi := 0.0, 0.0
	if len(profits) > 0 {
		lo = min(floats.Min(profits), 0)
		hi = max(floats.Max(profits), 0)
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}

func appendRegion(series []chart.Series, name string, xs, ys []float64, color drawing.Color, keep func(float64) bool) []chart.Series {
	px, py := regionOutline(xs, ys, keep)
	if len(px) == 0 {
		return series
	}
	return append(series, chart.ContinuousSeries{
		Name:    name,
		XValues: px,
		YValues: py,
		Style:   chart.Style{StrokeColor: color, StrokeWidth: 1, FillColor: color},
	})
}

// regionOutline traces every contiguous run of kept points and closes each
// run down to zero, so a single filled series shades all runs. Runs are
// joined along the zero line.
func regionOutline(xs, ys []float64, keep func(float64) bool) ([]float64, []float64) {
	var px, py []float64
	inRun := false
	for i, y := range ys {
		switch {
		case keep(y) && !inRun:
			px, py = append(px, xs[i]), append(py, 0)
			inRun = true
		case !keep(y) && inRun:
			px, py = append(px, xs[i-1]), append(py, 0)
			inRun = false
		}
		if inRun {
			px, py = append(px, xs[i]), append(py, y)
		}
	}
	if inRun {
		px, py = append(px, xs[len(xs)-1]), append(py, 0)
	}
	return px, py
}

func vertical(name string, x, yMin, yMax float64) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{x, x},
		YValues: []float64{yMin, yMax},
		Style:   chart.Style{StrokeColor: colorRange, StrokeWidth: 2, StrokeDashArray: dashed},
	}
}

func marker(name string, x, y float64, color drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{x},
		YValues: []float64{y},
		Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 5, DotColor: color},
	}
}

func strikeLabel(legs []payoff.Leg, strike float64) string {
	var kinds []string
	for _, leg := range legs {
		if leg.Strike != strike {
			continue
		}
		kind := "Call"
		if leg.Type == payoff.Put {
			kind = "Put"
		}
		if !contains(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}
	return fmt.Sprintf("Strike Price (%s Option %s)", strings.Join(kinds, "/"), trim(strike))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func trim(v float64) string {
	return payoff.FormatStrike(v)
}
