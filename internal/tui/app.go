package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/motion-go/internal/engine"
	"github.com/dm/motion-go/internal/model"
)

// DefaultTick is the render period (~30 frames per second).
const DefaultTick = 33 * time.Millisecond

type loopState int

const (
	stateRunning loopState = iota
	stateQuitting
)

// Source is the consuming side of the sample channel.
type Source interface {
	TryReceiveAll() []model.Sample
	Close()
}

// Options configures the dashboard. Zero values are usable.
type Options struct {
	// Tick is the render period. Defaults to DefaultTick.
	Tick time.Duration
	// HistoryCap is the number of samples kept for the chart.
	HistoryCap int
	// Endpoint is shown in the header, e.g. "https://0.0.0.0:3000".
	Endpoint string
	// Now replaces time.Now, for tests.
	Now func() time.Time
}

// App is the root Bubble Tea model for the motion dashboard. It owns the
// history exclusively; samples only enter it through drain.
type App struct {
	rx       Source
	history  *model.History
	tick     time.Duration
	lastTick time.Time
	now      func() time.Time
	state    loopState
	endpoint string

	// Layout
	width, height int

	// UI state
	bars     [len(model.Axes)]progress.Model
	help     help.Model
	showHelp bool
}

// NewApp creates an App that drains rx once per tick.
func NewApp(rx Source, opts Options) *App {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	app := &App{
		rx:       rx,
		history:  model.NewHistory(opts.HistoryCap),
		tick:     opts.Tick,
		lastTick: opts.Now(),
		now:      opts.Now,
		state:    stateRunning,
		endpoint: opts.Endpoint,
		help:     help.New(),
	}
	for _, a := range model.Axes {
		app.bars[a] = newGaugeBar(a)
	}
	return app
}

// Init implements tea.Model. Schedules the first tick.
func (app *App) Init() tea.Cmd {
	return tickCmd(app.tick)
}

// Update implements tea.Model. It is the only place state changes.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case TickMsg:
		if app.state == stateQuitting {
			return app, nil
		}
		now := time.Time(msg)
		if now.Sub(app.lastTick) >= app.tick {
			app.drain()
			app.lastTick = now
		}
		return app, tickCmd(tickDelay(app.lastTick, now, app.tick))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			app.state = stateQuitting
			return app, tea.Quit
		case key.Matches(msg, keys.Help):
			app.showHelp = !app.showHelp
		}
	}

	return app, nil
}

// drain moves every pending sample into the history, oldest first.
func (app *App) drain() {
	for _, s := range app.rx.TryReceiveAll() {
		app.history.Push(s)
	}
}

// View implements tea.Model. Renders the full dashboard from the history.
//
// Layout: header (1 row), three gauges (3 rows each), the chart taking the
// remaining height (at least minChartHeight rows), footer (1 row).
func (app *App) View() string {
	if app.state == stateQuitting {
		return ""
	}
	width := app.width
	if width <= 0 {
		width = 80
	}
	height := app.height
	if height <= 0 {
		height = 24
	}

	st := engine.Derive(app.history, app.now())
	header := renderHeader(app, st, width)
	footer := renderFooter(app, width)
	chartHeight := height - lipgloss.Height(header) - lipgloss.Height(footer) - len(model.Axes)*gaugeHeight

	parts := []string{
		header,
		renderGauges(app, st.Latest, width),
		renderChart(st, width, chartHeight),
		footer,
	}
	return strings.Join(parts, "\n")
}

// tickCmd schedules the next tick after d.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// tickDelay returns the time left until the next tick boundary, or zero
// when the period has already elapsed.
func tickDelay(last, now time.Time, period time.Duration) time.Duration {
	remaining := period - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Run shows the dashboard until the user quits or ctx is cancelled. The
// terminal is put in raw mode on the alternate screen for the duration and
// restored on every exit path. rx is closed on return, so later sends fail
// with stream.ErrReceiverClosed.
func Run(ctx context.Context, rx Source, opts Options, progOpts ...tea.ProgramOption) error {
	return run(ctx, NewApp(rx, opts), rx, progOpts...)
}

func run(ctx context.Context, m tea.Model, rx Source, progOpts ...tea.ProgramOption) error {
	defer rx.Close()

	all := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		// Signals are handled by the caller through ctx.
		tea.WithoutSignalHandler(),
	}, progOpts...)

	if _, err := tea.NewProgram(m, all...).Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
