package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/countdown"
)

//nolint:gochecknoglobals // Styles are shared by every view.
var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")

	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(errorColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// stateColors colour the state badge.
//
//nolint:gochecknoglobals // Read-only lookup table.
var stateColors = map[domain.TimerState]lipgloss.Color{
	domain.StatePending:   successColor,
	domain.StateRunning:   warningColor,
	domain.StateAlarm:     errorColor,
	domain.StateCancelled: mutedColor,
}

// Poster posts inbound events to the alarm service.
type Poster interface {
	PostEvent(ctx context.Context, kind domain.EventKind) error
}

// eventMsg carries one event from the watch stream.
type eventMsg domain.Event

// streamClosedMsg reports that the watch stream ended.
type streamClosedMsg struct{ err error }

// postedMsg reports the result of a posted event.
type postedMsg struct {
	kind domain.EventKind
	err  error
}

// Model is the bubbletea model of the alarm viewer.
type Model struct {
	ctx     context.Context
	poster  Poster
	timeout time.Duration

	bar          progress.Model
	state        domain.TimerState
	title        string
	runID        string
	progress     *domain.Progress
	alarmStarted bool
	lastEvent    domain.EventKind
	lastEventAt  time.Time
	message      string
	err          error
	width        int
}

// NewModel creates a viewer posting through poster. alarmStarted shows the
// "alarm started" banner until the countdown resolves.
func NewModel(ctx context.Context, poster Poster, timeout time.Duration, alarmStarted bool) *Model {
	return &Model{
		ctx:          ctx,
		poster:       poster,
		timeout:      timeout,
		bar:          progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		state:        domain.StatePending,
		alarmStarted: alarmStarted,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
//
//nolint:ireturn // Required by tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(msg.Width-8, 10)

	case eventMsg:
		m.apply(domain.Event(msg))

	case postedMsg:
		if msg.err != nil {
			m.message = fmt.Sprintf("Unable to post %s: %v", msg.kind, msg.err)
		} else {
			m.message = fmt.Sprintf("Posted %s", msg.kind)
		}

	case streamClosedMsg:
		m.err = msg.err
		if m.err == nil {
			m.message = "Alarm service closed the stream"
		}

		return m, tea.Quit
	}

	return m, nil
}

// handleKey maps keys to commands.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return tea.Quit
	case "s", " ", "enter":
		if m.state != domain.StateRunning {
			m.message = "No countdown to stop"
			return nil
		}

		return m.post(domain.KindStopAlarm)
	case "f":
		return m.post(domain.KindFallDetected)
	}

	return nil
}

// post returns a command posting kind.
func (m *Model) post(kind domain.EventKind) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		defer cancel()

		return postedMsg{kind: kind, err: m.poster.PostEvent(ctx, kind)}
	}
}

// apply folds one event into the view.
func (m *Model) apply(event domain.Event) {
	m.lastEvent = event.Kind
	m.lastEventAt = event.At

	switch event.Kind {
	case domain.KindStateChanged:
		m.state = event.State
		m.runID = event.RunID

		if event.Title != "" {
			m.title = event.Title
		}

		if event.Progress != nil || event.State != domain.StateRunning {
			m.progress = event.Progress.Clone()
		}

		if event.State.IsSettling() || event.State == domain.StatePending {
			m.alarmStarted = false
		}

	case domain.KindStartAlarm:
		m.runID = event.RunID
		m.progress = nil

	case domain.KindNotification:
		m.title = event.Title
		if event.Progress != nil {
			m.progress = event.Progress.Clone()
		}

	case domain.KindProgress:
		if m.progress == nil || event.Progress.Current >= m.progress.Current {
			m.progress = event.Progress.Clone()
		}
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("gravity alarm"))
	b.WriteString("\n\n")

	if m.alarmStarted {
		b.WriteString(bannerStyle.Render("ALARM STARTED"))
		b.WriteString("\n\n")
	}

	badge := lipgloss.NewStyle().Bold(true).Foreground(stateColors[m.state]).Render(m.state.String())

	var panel strings.Builder

	fmt.Fprintf(&panel, "State: %s\n", badge)
	fmt.Fprintf(&panel, "%s\n", m.title)

	if m.progress != nil && m.progress.Current >= 0 {
		remaining := time.Duration(m.progress.Max-m.progress.Current) * countdown.TickInterval
		fmt.Fprintf(&panel, "\n%s\n", m.bar.ViewAs(m.progress.Fraction()))
		fmt.Fprintf(&panel, "%d/%d ticks, %s left\n", m.progress.Current, m.progress.Max, remaining.Round(time.Second))
	}

	if m.runID != "" {
		fmt.Fprintf(&panel, "Run: %s\n", m.runID)
	}

	b.WriteString(panelStyle.Render(strings.TrimRight(panel.String(), "\n")))
	b.WriteString("\n")

	if m.lastEvent != "" {
		fmt.Fprintf(&b, "Last event: %s at %s\n", m.lastEvent, m.lastEventAt.Local().Format(time.TimeOnly))
	}

	if m.message != "" {
		b.WriteString(m.message)
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("s: stop countdown • f: simulate fall • q: quit"))
	b.WriteString("\n")

	return b.String()
}
