package server

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/eventbus"
	"github.com/viktoriya-kutsarova/project-gravity/internal/logger"
	"github.com/viktoriya-kutsarova/project-gravity/internal/platform/launcher"
	"github.com/viktoriya-kutsarova/project-gravity/internal/platform/notification"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/alarm"
	"github.com/viktoriya-kutsarova/project-gravity/internal/service/screen"
)

// wakeLocker keeps the host awake while the service runs.
type wakeLocker interface {
	Acquire(ctx context.Context) error
	Release() error
}

// serviceOptions configures newService.
type serviceOptions struct {
	// uiCommand is started when a countdown begins.
	uiCommand []string
	// wakeLock is held for the service lifetime; nil disables it.
	wakeLock wakeLocker
	// journal records finished runs; nil disables it.
	journal alarm.Journal
	// machineOptions customise the alarm machine.
	machineOptions []alarm.Option
}

// errNotInbound is returned when posting an event the service publishes itself.
var errNotInbound = errors.New("event kind cannot be posted")

// service glues the alarm components together and implements the gRPC
// Service interface. It is unexported to keep the transport decoupled from
// the implementation.
type service struct {
	bus       *eventbus.Bus
	hub       *eventbus.Hub
	presenter *notification.Presenter
	machine   *alarm.Machine
	screen    *screen.Watcher
	wakeLock  wakeLocker
}

// newService builds every component without starting them.
func newService(ctx context.Context, opts serviceOptions) (*service, error) {
	bus := eventbus.New()

	hub, err := eventbus.NewHub(bus, domain.OutboundKinds()...)
	if err != nil {
		return nil, fmt.Errorf("create event hub: %w", err)
	}

	presenter := notification.New(bus)

	deps := alarm.Dependencies{
		Bus:       bus,
		Presenter: presenter,
		Launcher:  launcher.New(opts.uiCommand),
	}

	if opts.journal != nil {
		deps.Journal = opts.journal
	}

	machine, err := alarm.New(ctx, deps, opts.machineOptions...)
	if err != nil {
		hub.Close()
		return nil, fmt.Errorf("create alarm machine: %w", err)
	}

	return &service{
		bus:       bus,
		hub:       hub,
		presenter: presenter,
		machine:   machine,
		screen:    screen.New(ctx, bus),
		wakeLock:  opts.wakeLock,
	}, nil
}

// start brings the service to the foreground and begins listening for events.
func (s *service) start(ctx context.Context) error {
	s.presenter.StartForeground(ctx, domain.TitleDetecting)

	if s.wakeLock != nil {
		if err := s.wakeLock.Acquire(ctx); err != nil {
			logger.WarnKV(ctx, "Unable to acquire wake lock", "error", err)
		} else {
			logger.Info(ctx, "Wake lock acquired")
		}
	}

	if err := s.machine.Start(); err != nil {
		return fmt.Errorf("start alarm machine: %w", err)
	}

	if err := s.screen.Start(); err != nil {
		return fmt.Errorf("start screen watcher: %w", err)
	}

	s.bus.Publish(domain.NewEvent(domain.KindResume))

	logger.Info(ctx, "Alarm service started")

	return nil
}

// stop releases everything start acquired. Watch streams end when the hub closes.
func (s *service) stop(ctx context.Context) {
	s.screen.Close()
	s.machine.Close()
	s.bus.WaitAsync()
	s.hub.Close()

	if s.wakeLock != nil {
		if err := s.wakeLock.Release(); err != nil {
			logger.WarnKV(ctx, "Unable to release wake lock", "error", err)
		}
	}

	s.presenter.StopForeground(ctx)

	logger.Info(ctx, "Alarm service stopped")
}

// Post publishes an inbound event on the bus.
func (s *service) Post(_ context.Context, event domain.Event) error {
	if !event.Kind.IsInbound() {
		return fmt.Errorf("%w: %s", errNotInbound, event.Kind)
	}

	s.bus.Publish(event)

	return nil
}

// Snapshot returns the current alarm view.
func (s *service) Snapshot(context.Context) *domain.Snapshot {
	return s.machine.Snapshot()
}

// Subscribe returns a stream of outbound events.
func (s *service) Subscribe(buffer int) (<-chan domain.Event, func()) {
	return s.hub.Subscribe(buffer)
}
