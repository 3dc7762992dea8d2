package countdown

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/eventbus"
	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
)

// Hooks are invoked on the task goroutine.
type Hooks struct {
	// OnProgress is called with every tick index, in increasing order.
	OnProgress func(tick int)
	// OnFinish is called exactly once, after the last OnProgress.
	OnFinish func(completed bool)
}

// Task is a handle to a countdown.
type Task struct {
	// id identifies the run in logs and events.
	id string
	// settings is the countdown shape.
	settings Settings
	// publisher receives coarse progress events; may be nil.
	publisher eventbus.Publisher
	// hooks are the progress and terminal callbacks.
	hooks Hooks

	// cancelled is the cooperative stop flag.
	cancelled atomic.Bool
	// stop is closed by Cancel to wake the task from its wait.
	stop     chan struct{}
	stopOnce sync.Once
	// started guards against a second Start.
	started atomic.Bool
	// done is closed after OnFinish returns.
	done chan struct{}
	// completed is the outcome; valid once done is closed.
	completed bool
	// lastTick is the last emitted tick, -1 before the first.
	lastTick atomic.Int64
}

// New prepares a countdown without starting it, so its ID can be announced first.
func New(settings Settings, publisher eventbus.Publisher, hooks Hooks) *Task {
	t := &Task{
		id:        uuid.NewString(),
		settings:  settings,
		publisher: publisher,
		hooks:     hooks,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	t.lastTick.Store(-1)

	return t
}

// Start launches a countdown on a new goroutine and returns its handle.
func Start(ctx context.Context, settings Settings, publisher eventbus.Publisher, hooks Hooks) *Task {
	t := New(settings, publisher, hooks)
	t.Start(ctx)

	return t
}

// Start runs the countdown on a new goroutine. Cancelling ctx interrupts the
// countdown like Cancel does. Only the first call has an effect.
func (t *Task) Start(ctx context.Context) {
	if !t.started.CompareAndSwap(false, true) {
		return
	}

	go t.run(logger.WithKV(ctx, "run_id", t.id))
}

// ID returns the run identifier.
func (t *Task) ID() string {
	return t.id
}

// Settings returns the countdown shape.
func (t *Task) Settings() Settings {
	return t.settings
}

// Cancel requests a stop. A waiting task wakes at once and resolves with false.
// Calling Cancel on a finished task does nothing; cancelling before Start makes
// the task resolve without ticking.
func (t *Task) Cancel() {
	t.cancelled.Store(true)
	t.stopOnce.Do(func() {
		close(t.stop)
	})
}

// Cancelled reports whether Cancel was called.
func (t *Task) Cancelled() bool {
	return t.cancelled.Load()
}

// LastTick returns the last emitted tick, or -1.
func (t *Task) LastTick() int {
	return int(t.lastTick.Load())
}

// Done is closed once the terminal callback has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Completed blocks until the task resolves and returns the outcome.
// It must not be called from the hooks.
func (t *Task) Completed() bool {
	<-t.done

	return t.completed
}

// Wait blocks until the task resolves or ctx ends.
func (t *Task) Wait(ctx context.Context) (bool, error) {
	select {
	case <-t.done:
		return t.completed, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// run drives the countdown and resolves it.
func (t *Task) run(ctx context.Context) {
	defer close(t.done)

	t.completed = t.loop(ctx)

	logger.DebugKV(ctx, "Countdown finished", "completed", t.completed, "last_tick", t.LastTick())

	if t.hooks.OnFinish != nil {
		t.hooks.OnFinish(t.completed)
	}
}

// loop emits ticks 0..TotalTicks and reports whether it got through all of them.
func (t *Task) loop(ctx context.Context) bool {
	ticker := time.NewTicker(t.settings.TickInterval)
	defer ticker.Stop()

	for tick := 0; tick <= t.settings.TotalTicks; tick++ {
		if t.cancelled.Load() {
			return false
		}

		select {
		case <-t.stop:
			logger.DebugKV(ctx, "Countdown cancelled", "tick", tick)
			return false
		case <-ctx.Done():
			logger.DebugKV(ctx, "Countdown wait interrupted", "tick", tick, "cause", context.Cause(ctx))
			return false
		case <-ticker.C:
		}

		if t.cancelled.Load() {
			return false
		}

		t.emit(ctx, tick)
	}

	return true
}

// emit reports one tick. Published ticks are also added as events on the
// span carried by ctx, if any.
func (t *Task) emit(ctx context.Context, tick int) {
	t.lastTick.Store(int64(tick))

	if t.hooks.OnProgress != nil {
		t.hooks.OnProgress(tick)
	}

	if t.publisher != nil && tick%t.settings.UpdateFrequency == 0 {
		t.publisher.Publish(alarm.ProgressEvent(t.id, t.settings.TotalTicks, tick))
		trace.SpanFromContext(ctx).AddEvent("countdown.progress",
			trace.WithAttributes(attribute.Int("countdown.tick", tick)))
	}
}
