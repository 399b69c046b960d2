package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/motion-go/internal/engine"
	"github.com/dm/motion-go/internal/format"
)

// staleAfter is how long without a sample before the feed is shown as stale.
const staleAfter = 2 * time.Second

// renderHeader renders the top bar.
//
// Layout:
//
//	left:   "motion  <endpoint>"
//	center: "● LIVE", "● STALE" (no sample for staleAfter) or "● WAITING"
//	right:  "<retained>/<capacity>  <rate>  Last: <age> ago"
func renderHeader(app *App, st engine.State, width int) string {
	left := StyleTitle.Render("motion")
	if app.endpoint != "" {
		left += "  " + app.endpoint
	}

	var center, right string
	switch {
	case st.Empty():
		center = StyleStatusWaiting.Render("● WAITING")
		right = StyleDim.Render(fmt.Sprintf("0/%d", st.Capacity))
	default:
		if st.Age > staleAfter {
			center = StyleStatusStale.Render("● STALE")
		} else {
			center = StyleStatusLive.Render("● LIVE")
		}
		right = StyleDim.Render(fmt.Sprintf("%d/%d  %s  Last: %s ago",
			st.Count, st.Capacity, format.FormatRate(st.Rate), format.FormatAge(st.Age)))
	}

	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	innerWidth := width - 2
	leftVW := lipgloss.Width(left)
	centerVW := lipgloss.Width(center)
	rightVW := lipgloss.Width(right)

	// Drop parts from the outside in rather than wrapping onto a second line.
	if leftVW+centerVW+rightVW > innerWidth {
		right, rightVW = "", 0
	}
	if leftVW+centerVW > innerWidth {
		left, leftVW = "", 0
	}

	spacing := innerWidth - leftVW - centerVW - rightVW
	if spacing < 0 {
		spacing = 0
	}
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	return StyleHeader.Width(width).Render(row)
}
