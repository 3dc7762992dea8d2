package eventbus

import (
	"fmt"
	"sync"

	"github.com/viktoriya-kutsarova/project-gravity/internal/domain/alarm"
)

// DefaultHubBuffer is the channel capacity given to each hub subscriber.
const DefaultHubBuffer = 64

// Hub fans bus events out to channel subscribers.
// A subscriber that does not keep up loses events instead of blocking the bus.
type Hub struct {
	// detach cancels the bus subscriptions, one per relayed kind.
	detach []CancelFunc

	// mu protects subscribers, nextID and closed.
	mu          sync.Mutex
	subscribers map[uint64]chan alarm.Event
	nextID      uint64
	closed      bool
}

// NewHub subscribes to kinds on bus and returns a hub relaying them.
func NewHub(bus Subscriber, kinds ...alarm.EventKind) (*Hub, error) {
	h := &Hub{
		detach:      make([]CancelFunc, 0, len(kinds)),
		subscribers: make(map[uint64]chan alarm.Event),
	}

	for _, kind := range kinds {
		cancel, err := bus.Subscribe(kind, h.dispatch)
		if err != nil {
			h.unsubscribe()
			return nil, fmt.Errorf("hub: %w", err)
		}

		h.detach = append(h.detach, cancel)
	}

	return h, nil
}

// Subscribe returns a channel of relayed events and a function that detaches it.
// The channel is closed when the subscription is cancelled or the hub is closed.
func (h *Hub) Subscribe(buffer int) (<-chan alarm.Event, func()) {
	if buffer <= 0 {
		buffer = DefaultHubBuffer
	}

	ch := make(chan alarm.Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if sub, ok := h.subscribers[id]; ok {
				delete(h.subscribers, id)
				close(sub)
			}
		})
	}
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

// Close detaches the hub from the bus and closes every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()

	if h.closed {
		h.mu.Unlock()
		return
	}

	h.closed = true

	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}

	h.mu.Unlock()

	h.unsubscribe()
}

// unsubscribe detaches the hub from every bus topic.
func (h *Hub) unsubscribe() {
	for _, cancel := range h.detach {
		cancel()
	}
}

// dispatch copies event to every subscriber without blocking.
func (h *Hub) dispatch(event alarm.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
