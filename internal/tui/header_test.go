package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/dm/motion-go/internal/engine"
	"github.com/dm/motion-go/internal/model"
)

func TestRenderHeader_Waiting(t *testing.T) {
	app := NewApp(&fakeSource{}, Options{Endpoint: "https://0.0.0.0:3000"})
	st := engine.Derive(app.history, time.Now())

	out := stripANSI(renderHeader(app, st, 100))
	assert.Contains(t, out, "motion")
	assert.Contains(t, out, "https://0.0.0.0:3000")
	assert.Contains(t, out, "WAITING")
	assert.Contains(t, out, "0/100")
	assert.NotContains(t, out, "Last:")
}

func TestRenderHeader_LiveAndStale(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	app := NewApp(&fakeSource{}, Options{HistoryCap: 10})
	app.history.Push(model.Sample{X: 1, Timestamp: t0})
	app.history.Push(model.Sample{X: 2, Timestamp: t0.Add(500 * time.Millisecond)})

	live := stripANSI(renderHeader(app, engine.Derive(app.history, t0.Add(600*time.Millisecond)), 100))
	assert.Contains(t, live, "LIVE")
	assert.Contains(t, live, "2/10")
	assert.Contains(t, live, "Last: 100ms ago")

	stale := stripANSI(renderHeader(app, engine.Derive(app.history, t0.Add(10*time.Second)), 100))
	assert.Contains(t, stale, "STALE")
	assert.NotContains(t, stale, "LIVE")
}

func TestRenderHeader_SingleLineAtAnyWidth(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	app := NewApp(&fakeSource{}, Options{Endpoint: "https://0.0.0.0:3000"})
	app.history.Push(model.Sample{Timestamp: t0})
	st := engine.Derive(app.history, t0)

	for _, width := range []int{30, 60, 80, 160} {
		out := renderHeader(app, st, width)
		assert.Equal(t, 1, lipgloss.Height(out), "width %d", width)
		assert.Equal(t, width, lipgloss.Width(out), "width %d", width)
		assert.Contains(t, stripANSI(out), "LIVE", "width %d", width)
	}
}

func TestRenderFooter_HelpToggle(t *testing.T) {
	app := NewApp(&fakeSource{}, Options{})

	short := stripANSI(renderFooter(app, 80))
	assert.Contains(t, short, "?")
	assert.NotContains(t, short, "quit")

	app.showHelp = true
	full := stripANSI(renderFooter(app, 80))
	assert.Contains(t, full, "quit")
	assert.Contains(t, full, "toggle help")
	assert.Equal(t, 2, len(strings.Split(full, "\n")))
}
