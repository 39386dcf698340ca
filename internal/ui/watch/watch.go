// Package watch is a terminal dashboard that follows the timer state and
// sends control commands from key presses.
package watch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focus/internal/core/model"
	"focus/internal/ui/status"
)

// Config holds configuration for the watch view.
type Config struct {
	// Interval is the refresh interval.
	Interval time.Duration
	// BellEnabled rings the terminal bell when a phase ends.
	BellEnabled bool
	// BellWriter receives the bell character.
	BellWriter io.Writer
}

// DefaultConfig returns the default watch configuration.
func DefaultConfig() Config {
	return Config{Interval: 2 * time.Second, BellEnabled: true}
}

// Source reads the timer state.
type Source interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

// Controller carries out key commands.
type Controller interface {
	RequestTransition(ctx context.Context, phase model.Phase) error
	ToggleFocus(ctx context.Context) error
	ToggleFreeTime(ctx context.Context) error
}

// TickMsg signals time for a refresh.
type TickMsg time.Time

// RefreshMsg carries a freshly read snapshot.
type RefreshMsg struct {
	Snapshot model.Snapshot
	Err      error
}

// ActionMsg reports the outcome of a key command.
type ActionMsg struct {
	Err error
}

var phaseColors = map[model.Phase]lipgloss.AdaptiveColor{
	model.PhaseStopped:  {Light: "#585858", Dark: "#9E9E9E"},
	model.PhaseFocusing: {Light: "#0066CC", Dark: "#0088FF"},
	model.PhaseResting:  {Light: "#444444", Dark: "#808080"},
	model.PhaseFreeTime: {Light: "#008700", Dark: "#00BB44"},
}

var (
	styleDim   = lipgloss.NewStyle().Faint(true)
	styleError = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"})
)

// Model is the Bubble Tea model for the watch view.
type Model struct {
	snapshot   model.Snapshot
	loaded     bool
	lastUpdate time.Time
	config     Config
	width      int
	quitting   bool
	err        error
	bar        progress.Model

	source     Source
	controller Controller
	// baseCtx is used by the async commands Bubble Tea runs.
	baseCtx context.Context //nolint:containedctx
}

// New creates a watch model.
func New(ctx context.Context, source Source, controller Controller, cfg Config) *Model {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Model{
		config:     cfg,
		width:      80,
		bar:        newBar(40, model.PhaseStopped),
		source:     source,
		controller: controller,
		baseCtx:    ctx,
	}
}

// Init starts the refresh loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar = newBar(min(max(msg.Width-10, 10), 60), m.snapshot.Phase)
		return m, nil

	case TickMsg:
		return m, tea.Batch(m.refresh(), m.tick())

	case RefreshMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		previous, wasLoaded := m.snapshot, m.loaded
		m.snapshot = msg.Snapshot
		m.loaded = true
		m.lastUpdate = time.Now()
		m.err = nil
		if !wasLoaded || previous.Phase != msg.Snapshot.Phase {
			m.bar = newBar(m.bar.Width, msg.Snapshot.Phase)
		}
		if wasLoaded && endedNaturally(previous, msg.Snapshot) {
			m.bell()
		}
		return m, nil

	case ActionMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		return m, m.refresh()
	}
	return m, nil
}

func (m *Model) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return tea.Quit
	case "f":
		return m.act(m.controller.ToggleFocus)
	case "g":
		return m.act(m.controller.ToggleFreeTime)
	case "r":
		return m.act(func(ctx context.Context) error {
			return m.controller.RequestTransition(ctx, model.PhaseResting)
		})
	case "s":
		return m.act(func(ctx context.Context) error {
			return m.controller.RequestTransition(ctx, model.PhaseStopped)
		})
	}
	return nil
}

// View renders the current state.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if !m.loaded {
		b.WriteString("Loading...\n")
	} else {
		title := lipgloss.NewStyle().Bold(true).Foreground(phaseColors[m.snapshot.Phase])
		b.WriteString(title.Render(status.Line(m.snapshot)))
		b.WriteString("\n\n")
		if m.snapshot.Phase.Timed() {
			b.WriteString(m.bar.ViewAs(Progress(m.snapshot)))
			b.WriteString("\n\n")
		}
		b.WriteString(status.Counters(m.snapshot.Counters))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styleError.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	if !m.lastUpdate.IsZero() {
		b.WriteString(styleDim.Render(fmt.Sprintf("\nLast updated: %s", m.lastUpdate.Format("15:04:05"))))
	}
	b.WriteString(styleDim.Render("\n[f] focus  [g] free time  [r] rest  [s] stop  [q] quit"))
	b.WriteString("\n")
	return b.String()
}

// Snapshot returns the last loaded state.
func (m *Model) Snapshot() model.Snapshot {
	return m.snapshot
}

// Err returns the last refresh or command error.
func (m *Model) Err() error {
	return m.err
}

// IsQuitting reports whether the user asked to leave.
func (m *Model) IsQuitting() bool {
	return m.quitting
}

// Progress returns how much of the running phase has elapsed, from 0 to 1.
func Progress(snapshot model.Snapshot) float64 {
	remaining, ok := snapshot.DisplayRemaining()
	if !ok || snapshot.Alarm == nil || snapshot.Alarm.InitialDurationMinutes <= 0 {
		return 0
	}
	done := 1 - float64(remaining)/float64(snapshot.Alarm.InitialDurationMinutes)
	return min(max(done, 0), 1)
}

// FillColor returns the progress bar color for phase.
func FillColor(phase model.Phase) string {
	return phaseColors[phase].Dark
}

func newBar(width int, phase model.Phase) progress.Model {
	return progress.New(progress.WithWidth(width), progress.WithSolidFill(FillColor(phase)))
}

// endedNaturally reports whether a timed phase ran out between two reads,
// as opposed to being stopped by hand: it was in its last minute, or the
// stop came with a counters change.
func endedNaturally(previous, current model.Snapshot) bool {
	if !previous.Phase.Timed() || current.Phase != model.PhaseStopped {
		return false
	}
	if previous.Counters != current.Counters {
		return true
	}
	remaining, ok := previous.DisplayRemaining()
	return ok && remaining <= 1
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.config.Interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.source.Snapshot(m.context())
		if err != nil {
			return RefreshMsg{Err: fmt.Errorf("read state: %w", err)}
		}
		return RefreshMsg{Snapshot: snapshot}
	}
}

func (m *Model) act(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return ActionMsg{Err: fn(m.context())}
	}
}

func (m *Model) bell() {
	if m.config.BellEnabled && m.config.BellWriter != nil {
		_, _ = fmt.Fprint(m.config.BellWriter, "\a")
	}
}

func (m *Model) context() context.Context {
	if m.baseCtx == nil {
		return context.Background()
	}
	return m.baseCtx
}

// Run shows the watch view until the user quits or ctx is done.
func Run(ctx context.Context, source Source, controller Controller, cfg Config, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	program := tea.NewProgram(New(ctx, source, controller, cfg), opts...)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run watch: %w", err)
	}
	return nil
}
