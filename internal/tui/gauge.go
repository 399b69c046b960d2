package tui

import (
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/motion-go/internal/format"
	"github.com/dm/motion-go/internal/model"
)

// Physical input range shown by a gauge, in m/s². Readings outside it saturate.
const (
	gaugeMin = -20.0
	gaugeMax = 20.0

	gaugeHeight   = 3
	minGaugeWidth = 32

	// trendWidth is the sparkline shown after the bar when the gauge is
	// wide enough to keep a bar of at least minTrendBar columns.
	trendWidth  = 16
	minTrendBar = 24
)

// Normalize maps an acceleration reading onto a gauge ratio in [0, 1].
// -20 maps to 0, 20 to 1; anything beyond either end is clamped.
func Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	r := (v - gaugeMin) / (gaugeMax - gaugeMin)
	return math.Max(0, math.Min(1, r))
}

// newGaugeBar returns a progress bar in the axis color with no built-in
// percentage; renderGauge prints its own.
func newGaugeBar(a model.Axis) progress.Model {
	return progress.New(
		progress.WithSolidFill(string(axisColors[a])),
		progress.WithoutPercentage(),
	)
}

// renderGauge renders a single axis gauge.
//
// Layout (1 row inside a rounded border):
//
//	╭─────────────────────────────────────────────────────────╮
//	│ X-Axis  +9.81 ███████████░░░░░░░  74% ▂▃▅▇█▇▅▃▂▁▁▂▃▅▆▇ │
//	╰─────────────────────────────────────────────────────────╯
//
// The trailing sparkline shows the recent readings for the axis.
func renderGauge(bar progress.Model, a model.Axis, v float64, trend []float64, width int) string {
	if width < minGaugeWidth {
		width = minGaugeWidth
	}
	ratio := Normalize(v)

	title := axisStyle(a).Bold(true).Render(a.String() + "-Axis")
	value := format.FormatAccel(v)
	pct := format.FormatPercent(ratio * 100)

	// Border (2) and padding (2) leave width-4 columns for content.
	inner := width - 4
	fixed := lipgloss.Width(title) + 1 + lipgloss.Width(value) + 1 + 1 + lipgloss.Width(pct)
	var spark string
	if inner-fixed-1-trendWidth >= minTrendBar {
		spark = " " + RenderSparkline(trend, trendWidth, axisColors[a])
		fixed += 1 + trendWidth
	}
	bar.Width = inner - fixed
	if bar.Width < 1 {
		bar.Width = 1
	}

	line := title + " " + value + " " + bar.ViewAs(ratio) + " " + pct + spark
	return StylePanel.
		Padding(0, 1).
		Width(width - 2).
		Render(line)
}

// renderGauges stacks the three axis gauges for the latest sample.
func renderGauges(app *App, latest model.Sample, width int) string {
	rows := make([]string, 0, len(model.Axes))
	for _, a := range model.Axes {
		rows = append(rows, renderGauge(app.bars[a], a, latest.Value(a), app.history.Values(a), width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
