package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/motion-go/internal/engine"
	"github.com/dm/motion-go/internal/format"
	"github.com/dm/motion-go/internal/model"
)

const (
	minChartHeight = 10
	minChartWidth  = 40

	// chartGutter is the y-axis label column: "%7.1f" plus the axis rule.
	chartGutter = 8

	markerPoint = '•'
	markerLine  = '·'
)

// chartBounds returns the visible x range [0, xMax] in seconds and the
// y range. The x origin is always the oldest retained sample, so the axis
// slides forward as old samples are evicted.
func chartBounds(st engine.State) (xMax, yMin, yMax float64) {
	xMax = st.Span
	if xMax <= 0 {
		xMax = 1
	}
	if st.Empty() {
		return xMax, gaugeMin, gaugeMax
	}
	yMin, yMax = st.Min, st.Max
	if yMax-yMin < 2 {
		mid := (yMin + yMax) / 2
		yMin, yMax = mid-1, mid+1
	}
	pad := (yMax - yMin) * 0.05
	return xMax, yMin - pad, yMax + pad
}

type cell struct {
	r    rune
	axis model.Axis
}

// plot is a character grid onto which series are projected.
type plot struct {
	w, h       int
	cells      []cell
	xMax       float64
	yMin, yMax float64
}

func newPlot(w, h int, xMax, yMin, yMax float64) *plot {
	return &plot{
		w:     w,
		h:     h,
		cells: make([]cell, w*h),
		xMax:  xMax,
		yMin:  yMin,
		yMax:  yMax,
	}
}

// project maps a point onto grid coordinates, clamped to the grid.
func (p *plot) project(pt engine.Point) (col, row int) {
	col = int(math.Round(pt.T / p.xMax * float64(p.w-1)))
	row = int(math.Round((p.yMax - pt.V) / (p.yMax - p.yMin) * float64(p.h-1)))
	return clampInt(col, 0, p.w-1), clampInt(row, 0, p.h-1)
}

func (p *plot) set(col, row int, r rune, a model.Axis) {
	c := &p.cells[row*p.w+col]
	// Connecting segments never hide a data point.
	if r == markerLine && c.r == markerPoint {
		return
	}
	c.r, c.axis = r, a
}

// segment draws a straight line between two cells (Bresenham).
func (p *plot) segment(c0, r0, c1, r1 int, a model.Axis) {
	dx := absInt(c1 - c0)
	dy := -absInt(r1 - r0)
	sx, sy := 1, 1
	if c0 > c1 {
		sx = -1
	}
	if r0 > r1 {
		sy = -1
	}
	err := dx + dy
	for {
		p.set(c0, r0, markerLine, a)
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			c0 += sx
		}
		if e2 <= dx {
			err += dx
			r0 += sy
		}
	}
}

// series draws one axis as a line graph with a marker at every sample.
func (p *plot) series(a model.Axis, pts []engine.Point) {
	for i := 1; i < len(pts); i++ {
		c0, r0 := p.project(pts[i-1])
		c1, r1 := p.project(pts[i])
		p.segment(c0, r0, c1, r1, a)
	}
	for _, pt := range pts {
		c, r := p.project(pt)
		p.set(c, r, markerPoint, a)
	}
}

// rows renders the grid, coloring each run of cells by its axis.
func (p *plot) rows() []string {
	out := make([]string, p.h)
	for row := 0; row < p.h; row++ {
		var sb strings.Builder
		line := p.cells[row*p.w : (row+1)*p.w]
		for i := 0; i < len(line); {
			j := i
			if line[i].r == 0 {
				for j < len(line) && line[j].r == 0 {
					j++
				}
				sb.WriteString(strings.Repeat(" ", j-i))
				i = j
				continue
			}
			var run []rune
			for j < len(line) && line[j].r != 0 && line[j].axis == line[i].axis {
				run = append(run, line[j].r)
				j++
			}
			sb.WriteString(axisStyle(line[i].axis).Render(string(run)))
			i = j
		}
		out[row] = sb.String()
	}
	return out
}

// renderChart renders the motion history chart: every axis as a line series
// against seconds since the oldest retained sample.
//
// Layout inside a rounded border:
//
//	Motion History  Acceleration   • X  • Y  • Z
//	   10.5│      ·•·
//	       │ •·•·•   •·•
//	   -2.1│
//	       └──────────────────
//	        0.0   Time (s)   3.3
func renderChart(st engine.State, width, height int) string {
	if width < minChartWidth {
		width = minChartWidth
	}
	if height < minChartHeight {
		height = minChartHeight
	}
	innerW := width - 2
	innerH := height - 2
	plotW := innerW - chartGutter
	plotH := innerH - 3 // legend, x axis rule, x labels

	xMax, yMin, yMax := chartBounds(st)
	p := newPlot(plotW, plotH, xMax, yMin, yMax)
	for _, a := range model.Axes {
		p.series(a, st.Series[a])
	}

	lines := make([]string, 0, innerH)
	lines = append(lines, renderLegend(innerW))

	rows := p.rows()
	if st.Empty() {
		msg := "waiting for samples..."
		if len(msg) <= plotW {
			pad := (plotW - len(msg)) / 2
			rows[plotH/2] = strings.Repeat(" ", pad) + StyleDim.Render(msg) + strings.Repeat(" ", plotW-pad-len(msg))
		}
	}
	for i, row := range rows {
		label := strings.Repeat(" ", chartGutter-1)
		switch i {
		case 0:
			label = fmt.Sprintf("%7.1f", yMax)
		case plotH - 1:
			label = fmt.Sprintf("%7.1f", yMin)
		case plotH / 2:
			label = fmt.Sprintf("%7.1f", (yMin+yMax)/2)
		}
		lines = append(lines, StyleDim.Render(label+"│")+row)
	}

	lines = append(lines, StyleDim.Render(strings.Repeat(" ", chartGutter-1)+"└"+strings.Repeat("─", plotW)))
	lines = append(lines, StyleDim.Render(renderTimeAxis(xMax, plotW)))

	return StylePanel.Width(innerW).Render(strings.Join(lines, "\n"))
}

// renderLegend renders the chart title and one entry per axis, dropping the
// title when the chart is too narrow for both.
func renderLegend(width int) string {
	entries := make([]string, 0, len(model.Axes))
	for _, a := range model.Axes {
		entries = append(entries, axisStyle(a).Render(string(markerPoint)+" "+a.String()))
	}
	legend := strings.Join(entries, "  ")
	full := StyleTitle.Render("Motion History") + "  " + StyleDim.Render("Acceleration") + "   " + legend
	if lipgloss.Width(full) <= width {
		return full
	}
	return legend
}

// renderTimeAxis renders "0.0   Time (s)   <span>" under the plot area.
func renderTimeAxis(xMax float64, plotW int) string {
	left := format.FormatSeconds(0)
	right := format.FormatSeconds(xMax)
	title := "Time (s)"
	gap := plotW - len(left) - len(right) - len(title)
	if gap < 2 {
		title = ""
		gap = max(plotW-len(left)-len(right), 1)
	}
	lsp := gap / 2
	return strings.Repeat(" ", chartGutter) + left + strings.Repeat(" ", lsp) + title + strings.Repeat(" ", gap-lsp) + right
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
