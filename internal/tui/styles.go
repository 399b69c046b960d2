package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/motion-go/internal/model"
)

// Color constants.
var (
	colorGreen  = lipgloss.Color("#10b981")
	colorYellow = lipgloss.Color("#f59e0b")
	colorRed    = lipgloss.Color("#ef4444")
	colorGray   = lipgloss.Color("#6b7280")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorWhite  = lipgloss.Color("#f8fafc")
	colorDark   = lipgloss.Color("#1e293b")
)

// axisColors gives each axis its series color: X red, Y green, Z blue.
var axisColors = [len(model.Axes)]lipgloss.Color{
	model.AxisX: colorRed,
	model.AxisY: colorGreen,
	model.AxisZ: colorBlue,
}

// StyleHeader is the full-width dark header bar.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// StylePanel is the rounded box used by the gauges and the chart.
var StylePanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorGray)

// Status styles for the header indicator.
var (
	StyleStatusLive    = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	StyleStatusStale   = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	StyleStatusWaiting = lipgloss.NewStyle().Foreground(colorGray)
)

// Utility styles.
var (
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	StyleDim   = lipgloss.NewStyle().Foreground(colorGray)
)

// axisStyle returns the foreground style for an axis series.
func axisStyle(a model.Axis) lipgloss.Style {
	if int(a) < 0 || int(a) >= len(axisColors) {
		return StyleDim
	}
	return lipgloss.NewStyle().Foreground(axisColors[a])
}
