// Package charts renders the dashboard bar charts as PNG images.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"wifisurvey/internal/modules/survey/quality"
)

type Kind string

const (
	KindSignal       Kind = "signal"
	KindSpeed        Kind = "speed"
	KindInterference Kind = "interference"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no measurements to chart")

const (
	chartHeight = 420
	barWidth    = 36
	barSpacing  = 18
	minWidth    = 480
	sideMargin  = 120
)

var (
	color24           = drawing.Color{R: 54, G: 162, B: 235, A: 180}
	color5            = drawing.Color{R: 255, G: 99, B: 132, A: 180}
	colorSpeed24      = drawing.Color{R: 255, G: 159, B: 64, A: 180}
	colorSpeed5       = drawing.Color{R: 153, G: 102, B: 255, A: 180}
	colorInterference = drawing.Color{R: 75, G: 192, B: 192, A: 180}
)

// ParseKind validates a chart name taken from a URL.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindSignal, KindSpeed, KindInterference:
		return k, true
	default:
		return "", false
	}
}

// Render draws the chart of the given kind for rows into w as PNG.
func Render(w io.Writer, kind Kind, rows []quality.LocationQuality) error {
	if len(rows) == 0 {
		return ErrNoData
	}
	graph, err := build(kind, rows)
	if err != nil {
		return err
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s chart: %w", kind, err)
	}
	return nil
}

func build(kind Kind, rows []quality.LocationQuality) (chart.BarChart, error) {
	var (
		title string
		bars  []chart.Value
		yMax  float64
		unit  string
	)
	switch kind {
	case KindSignal:
		title, yMax, unit = "Signal quality", 100, "%"
		for _, r := range rows {
			bars = append(bars,
				bar(r.LocationName+" 2.4GHz", r.Signal24.Quality, color24),
				bar(r.LocationName+" 5GHz", r.Signal5.Quality, color5),
			)
		}
	case KindSpeed:
		title, unit = "Throughput", " Mbps"
		for _, r := range rows {
			bars = append(bars,
				bar(r.LocationName+" 2.4GHz", r.Speed24, colorSpeed24),
				bar(r.LocationName+" 5GHz", r.Speed5, colorSpeed5),
			)
			yMax = math.Max(yMax, math.Max(r.Speed24, r.Speed5))
		}
		yMax = niceCeil(yMax)
	case KindInterference:
		title, yMax, unit = "Quality (absence of interference)", 100, "%"
		for _, r := range rows {
			bars = append(bars, bar(r.LocationName, r.Interference.Quality, colorInterference))
		}
	default:
		return chart.BarChart{}, fmt.Errorf("unknown chart kind %q", kind)
	}

	return chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		Width:      chartWidth(len(bars)),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
			ValueFormatter: func(v any) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%s", f, unit)
				}
				return ""
			},
		},
		Bars: bars,
	}, nil
}

func bar(label string, value float64, color drawing.Color) chart.Value {
	return chart.Value{
		Label: label,
		Value: value,
		Style: chart.Style{FillColor: color, StrokeColor: color.WithAlpha(255), StrokeWidth: 1},
	}
}

func chartWidth(bars int) int {
	w := bars*(barWidth+barSpacing) + sideMargin
	if w < minWidth {
		return minWidth
	}
	return w
}

// niceCeil rounds v up to 1, 2 or 5 times a power of ten, never below 1.
func niceCeil(v float64) float64 {
	if v <= 1 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*exp >= v {
			return m * exp
		}
	}
	return 10 * exp
}
