package eventbus

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
)

// Handler receives events from a topic.
type Handler func(event alarm.Event)

// CancelFunc detaches one subscription. Calling it more than once is a no-op.
type CancelFunc func()

// Publisher is the publishing side of the bus.
type Publisher interface {
	Publish(event alarm.Event)
}

// Subscriber is the subscribing side of the bus.
type Subscriber interface {
	// Subscribe delivers kind synchronously on the publisher's goroutine.
	// Handlers must not publish.
	Subscribe(kind alarm.EventKind, handler Handler) (CancelFunc, error)
	// SubscribeAsync delivers kind on a new goroutine per event, one event at a
	// time per kind across all async subscribers of that kind. Handlers may publish.
	SubscribeAsync(kind alarm.EventKind, handler Handler) (CancelFunc, error)
}

// route is one library topic registration: a kind in sync or async mode.
type route struct {
	kind  alarm.EventKind
	async bool
}

// Bus is a typed facade over an asaskevich event bus.
//
// The library identifies handlers by their code pointer, so two subscriptions
// built from the same method or closure are indistinguishable to it. Bus
// therefore registers one relay per route with the library and keeps its own
// subscriptions keyed by id.
type Bus struct {
	bus evbus.Bus

	// subscribing serializes add so a route is registered before any of its
	// subscribers is returned.
	subscribing sync.Mutex

	// mu protects routes and nextID. It is never held while a handler runs.
	mu     sync.RWMutex
	routes map[route]map[uint64]Handler
	nextID uint64
}

// errNilHandler is returned when subscribing a nil handler.
var errNilHandler = errors.New("handler must be provided")

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		bus:    evbus.New(),
		routes: make(map[route]map[uint64]Handler),
	}
}

// Publish delivers event to every subscriber of event.Kind.
func (b *Bus) Publish(event alarm.Event) {
	b.bus.Publish(string(event.Kind), event)
}

// Subscribe registers a synchronous handler for kind.
func (b *Bus) Subscribe(kind alarm.EventKind, handler Handler) (CancelFunc, error) {
	cancel, err := b.add(route{kind: kind}, handler)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", kind, err)
	}

	return cancel, nil
}

// SubscribeAsync registers a transactional asynchronous handler for kind.
func (b *Bus) SubscribeAsync(kind alarm.EventKind, handler Handler) (CancelFunc, error) {
	cancel, err := b.add(route{kind: kind, async: true}, handler)
	if err != nil {
		return nil, fmt.Errorf("subscribe async %s: %w", kind, err)
	}

	return cancel, nil
}

// HasSubscribers reports whether anything listens to kind.
func (b *Bus) HasSubscribers(kind alarm.EventKind) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.routes[route{kind: kind}]) > 0 ||
		len(b.routes[route{kind: kind, async: true}]) > 0
}

// WaitAsync blocks until in-flight asynchronous deliveries finish.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}

// add stores handler under a fresh id, registering the route relay on first use.
// Relays stay registered with the library for the life of the bus. The library
// call happens outside mu because the library holds its own lock while relaying.
func (b *Bus) add(r route, handler Handler) (CancelFunc, error) {
	if handler == nil {
		return nil, errNilHandler
	}

	b.subscribing.Lock()
	defer b.subscribing.Unlock()

	b.mu.Lock()

	handlers, registered := b.routes[r]
	if !registered {
		handlers = make(map[uint64]Handler)
		b.routes[r] = handlers
	}

	id := b.nextID
	b.nextID++
	handlers[id] = handler

	b.mu.Unlock()

	cancel := b.canceller(r, id)

	if !registered {
		if err := b.register(r); err != nil {
			b.mu.Lock()
			delete(b.routes, r)
			b.mu.Unlock()

			return nil, err
		}
	}

	return cancel, nil
}

// register attaches the relay of r to the library topic.
func (b *Bus) register(r route) error {
	relay := func(event alarm.Event) {
		b.deliver(r, event)
	}

	if r.async {
		return b.bus.SubscribeAsync(string(r.kind), relay, true)
	}

	return b.bus.Subscribe(string(r.kind), relay)
}

// canceller returns the function removing subscription id from r.
func (b *Bus) canceller(r route, id uint64) CancelFunc {
	var once sync.Once

	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(b.routes[r], id)
		})
	}
}

// deliver calls the handlers of r in subscription order.
func (b *Bus) deliver(r route, event alarm.Event) {
	b.mu.RLock()
	handlers := b.routes[r]
	ordered := make([]Handler, 0, len(handlers))

	for _, id := range slices.Sorted(maps.Keys(handlers)) {
		ordered = append(ordered, handlers[id])
	}
	b.mu.RUnlock()

	for _, handler := range ordered {
		handler(event)
	}
}
