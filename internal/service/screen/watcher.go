package screen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/eventbus"
	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
)

// ResetDelay is the pause between a screen-off signal and the reset request.
const ResetDelay = 500 * time.Millisecond

// Bus is the event bus the watcher listens to and publishes on.
type Bus interface {
	eventbus.Publisher
	eventbus.Subscriber
}

// errAlreadyStarted is returned by a second Start.
var errAlreadyStarted = errors.New("screen watcher already started")

// Watcher publishes RESET_SENSOR_LISTENERS a fixed delay after every SCREEN_OFF.
type Watcher struct {
	bus         Bus
	ctx         context.Context
	unsubscribe eventbus.CancelFunc

	mu      sync.Mutex
	pending map[*time.Timer]struct{}
	started bool
	closed  bool
}

// New creates a watcher on bus.
func New(ctx context.Context, bus Bus) *Watcher {
	return &Watcher{
		bus:     bus,
		ctx:     logger.WithName(ctx, "screen"),
		pending: make(map[*time.Timer]struct{}),
	}
}

// Start subscribes to SCREEN_OFF.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return errAlreadyStarted
	}

	cancel, err := w.bus.SubscribeAsync(domain.KindScreenOff, w.onScreenOff)
	if err != nil {
		return fmt.Errorf("subscribe screen watcher: %w", err)
	}

	w.unsubscribe = cancel
	w.started = true

	return nil
}

// Pending returns the number of resets not yet published.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.pending)
}

// Close unsubscribes and drops resets not yet published.
func (w *Watcher) Close() {
	w.mu.Lock()

	if w.closed {
		w.mu.Unlock()
		return
	}

	w.closed = true
	unsubscribe := w.unsubscribe

	for timer := range w.pending {
		timer.Stop()
		delete(w.pending, timer)
	}

	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// onScreenOff schedules one reset. Signals are never coalesced.
func (w *Watcher) onScreenOff(domain.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	logger.Debug(w.ctx, "Screen off, sensor reset scheduled")

	var timer *time.Timer

	timer = time.AfterFunc(ResetDelay, func() {
		w.mu.Lock()
		delete(w.pending, timer)
		closed := w.closed
		w.mu.Unlock()

		if closed {
			return
		}

		logger.Info(w.ctx, "Resetting sensor listeners")
		w.bus.Publish(domain.NewEvent(domain.KindResetSensorListeners))
	})

	w.pending[timer] = struct{}{}
}
