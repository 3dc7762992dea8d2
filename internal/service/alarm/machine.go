package alarm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qmuntal/stateless"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/eventbus"
	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/countdown"
)

// SettleDelay is how long a terminal outcome stays visible before the machine returns to PENDING.
const SettleDelay = 5 * time.Second

// tracerName identifies spans produced by this package.
const tracerName = "github.com/viktoriya-kutsarova/project-gravity/internal/service/alarm"

// trigger is an input of the state machine.
type trigger string

const (
	triggerFall      trigger = "fall"
	triggerStop      trigger = "stop"
	triggerCompleted trigger = "completed"
	triggerCancelled trigger = "cancelled"
	triggerSettle    trigger = "settle"
)

// Bus is the event bus the machine listens to and publishes on.
type Bus interface {
	eventbus.Publisher
	eventbus.Subscriber
}

// Presenter renders the status notification.
type Presenter interface {
	Render(ctx context.Context, title string, progress *domain.Progress)
}

// Launcher opens the alarm UI when a countdown starts.
type Launcher interface {
	Launch(ctx context.Context) error
}

// Journal records finished runs.
type Journal interface {
	Record(ctx context.Context, run *domain.Run) error
}

// Dependencies are the collaborators of a Machine. Launcher and Journal are optional.
type Dependencies struct {
	Bus       Bus
	Presenter Presenter
	Launcher  Launcher
	Journal   Journal
}

// Option customises a Machine.
type Option func(*Machine)

// WithCountdown overrides the countdown shape.
func WithCountdown(settings countdown.Settings) Option {
	return func(m *Machine) {
		m.settings = settings
	}
}

// WithSettleDelay overrides the settle delay.
func WithSettleDelay(delay time.Duration) Option {
	return func(m *Machine) {
		m.settleDelay = delay
	}
}

// WithTracer sets the tracer used for countdown spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Machine) {
		m.tracer = tracer
	}
}

var (
	// errBusRequired is returned when no bus is provided.
	errBusRequired = errors.New("event bus must be provided")
	// errPresenterRequired is returned when no presenter is provided.
	errPresenterRequired = errors.New("presenter must be provided")
	// errAlreadyStarted is returned by a second Start.
	errAlreadyStarted = errors.New("machine already started")
	// errUnexpectedState is returned when the state machine stores an unknown state.
	errUnexpectedState = errors.New("unexpected alarm state")
)

// inboundKinds are the bus topics the machine reacts to.
//
//nolint:gochecknoglobals // Fixed topic list.
var inboundKinds = []domain.EventKind{
	domain.KindFallDetected,
	domain.KindStopAlarm,
	domain.KindAlarmStopped,
}

// Machine is the alarm state machine. All state lives behind mu.
type Machine struct {
	bus         Bus
	presenter   Presenter
	launcher    Launcher
	journal     Journal
	settings    countdown.Settings
	settleDelay time.Duration
	tracer      trace.Tracer

	// ctx lives as long as the machine; countdowns and settle timers run under it.
	ctx    context.Context
	cancel context.CancelFunc

	// unsubscribe detaches the inbound bus subscriptions. Guarded by mu.
	unsubscribe []eventbus.CancelFunc

	// mu serializes every event, callback and read of the fields below.
	mu       sync.Mutex
	fsm      *stateless.StateMachine
	state    domain.TimerState
	task     *countdown.Task
	run      *domain.Run
	finished *domain.Run
	title    string
	span     trace.Span
	settles  map[*time.Timer]struct{}
	started  bool
	closed   bool
}

// New creates a machine in PENDING. ctx bounds the lifetime of countdowns and timers.
func New(ctx context.Context, deps Dependencies, opts ...Option) (*Machine, error) {
	if deps.Bus == nil {
		return nil, errBusRequired
	}

	if deps.Presenter == nil {
		return nil, errPresenterRequired
	}

	m := &Machine{
		bus:         deps.Bus,
		presenter:   deps.Presenter,
		launcher:    deps.Launcher,
		journal:     deps.Journal,
		settings:    countdown.DefaultSettings(),
		settleDelay: SettleDelay,
		tracer:      otel.Tracer(tracerName),
		state:       domain.StatePending,
		title:       domain.TitleDetecting,
		settles:     make(map[*time.Timer]struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := m.settings.Validate(); err != nil {
		return nil, fmt.Errorf("countdown settings: %w", err)
	}

	m.ctx, m.cancel = context.WithCancel(logger.WithName(ctx, "alarm"))
	m.fsm = m.newStateMachine()

	return m, nil
}

// newStateMachine wires the transition table onto m.state.
func (m *Machine) newStateMachine() *stateless.StateMachine {
	fsm := stateless.NewStateMachineWithExternalStorage(
		func(context.Context) (stateless.State, error) {
			return m.state, nil
		},
		m.storeState,
		stateless.FiringImmediate,
	)

	fsm.Configure(domain.StatePending).
		Permit(triggerFall, domain.StateRunning).
		OnEntryFrom(triggerSettle, m.onSettled).
		Ignore(triggerStop).
		Ignore(triggerSettle).
		Ignore(triggerCompleted).
		Ignore(triggerCancelled)

	fsm.Configure(domain.StateRunning).
		OnEntryFrom(triggerFall, m.onStart).
		InternalTransition(triggerStop, m.onStop).
		Permit(triggerCompleted, domain.StateAlarm).
		Permit(triggerCancelled, domain.StateCancelled).
		Ignore(triggerFall).
		Ignore(triggerSettle)

	for _, settling := range []domain.TimerState{domain.StateAlarm, domain.StateCancelled} {
		fsm.Configure(settling).
			OnEntry(m.onOutcome).
			Permit(triggerSettle, domain.StatePending).
			Ignore(triggerFall).
			Ignore(triggerStop).
			Ignore(triggerCompleted).
			Ignore(triggerCancelled)
	}

	return fsm
}

// storeState is the stateless write hook. Anything but a known TimerState is
// refused so the machine never holds a value outside the four states.
func (m *Machine) storeState(_ context.Context, state stateless.State) error {
	next, ok := state.(domain.TimerState)
	if !ok || !next.Valid() {
		return fmt.Errorf("%w: %v", errUnexpectedState, state)
	}

	m.state = next

	return nil
}

// Start subscribes the machine to its inbound bus topics.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errAlreadyStarted
	}

	handler := func(event domain.Event) {
		m.Handle(m.ctx, event)
	}

	for _, kind := range inboundKinds {
		cancel, err := m.bus.SubscribeAsync(kind, handler)
		if err != nil {
			m.detach()
			return fmt.Errorf("subscribe alarm machine: %w", err)
		}

		m.unsubscribe = append(m.unsubscribe, cancel)
	}

	m.started = true

	logger.InfoKV(m.ctx, "Alarm machine started", "state", m.state, "max_ticks", m.settings.TotalTicks)

	return nil
}

// Handle applies one inbound event. It is the single serialized entry point
// for bus deliveries; events that do not apply in the current state are ignored.
func (m *Machine) Handle(ctx context.Context, event domain.Event) {
	var t trigger

	switch event.Kind {
	case domain.KindFallDetected:
		t = triggerFall
	case domain.KindStopAlarm, domain.KindAlarmStopped:
		t = triggerStop
	default:
		logger.DebugKV(ctx, "Event ignored by alarm machine", "kind", event.Kind)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	if t == triggerFall && m.state != domain.StatePending {
		logger.DebugKV(ctx, "Fall ignored, alarm busy", "state", m.state)
	}

	m.fire(ctx, t)
}

// State returns the current timer state.
func (m *Machine) State() domain.TimerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Snapshot returns a copy of the current state, run and notification.
func (m *Machine) Snapshot() *domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := &domain.Snapshot{
		State: m.state,
		Title: m.title,
	}

	if m.run != nil {
		snapshot.RunID = m.run.ID
	}

	if m.task != nil {
		snapshot.Progress = &domain.Progress{
			Max:     m.settings.TotalTicks,
			Current: m.run.LastTick,
		}
	}

	return snapshot
}

// Close stops listening, cancels an active countdown and drops pending settle timers.
func (m *Machine) Close() {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()
		return
	}

	m.closed = true
	task := m.task

	for timer := range m.settles {
		timer.Stop()
		delete(m.settles, timer)
	}

	m.detach()

	m.mu.Unlock()

	if task != nil {
		task.Cancel()
		<-task.Done()
	}

	m.cancel()

	logger.Info(m.ctx, "Alarm machine stopped")
}

// detach cancels the inbound subscriptions made by Start. Callers hold mu.
func (m *Machine) detach() {
	for _, cancel := range m.unsubscribe {
		cancel()
	}

	m.unsubscribe = nil
}

// fire runs one trigger and announces a state change. Callers hold mu.
func (m *Machine) fire(ctx context.Context, t trigger, args ...any) {
	before := m.state

	if err := m.fsm.FireCtx(ctx, t, args...); err != nil {
		logger.ErrorKV(ctx, "Alarm transition failed", "trigger", t, "state", before, "error", err)
	}

	if m.state == before {
		return
	}

	event := domain.NewEvent(domain.KindStateChanged)
	event.State = m.state
	event.Previous = before

	if m.run != nil {
		event.RunID = m.run.ID
	}

	logger.InfoKV(ctx, "Alarm state changed", "from", before, "to", m.state, "trigger", t, "run_id", event.RunID)

	m.bus.Publish(event)
}

// render updates the notification. Callers hold mu.
func (m *Machine) render(ctx context.Context, title string, progress *domain.Progress) {
	m.title = title
	m.presenter.Render(ctx, title, progress)
}
