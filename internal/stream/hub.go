package stream

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Default per-subscriber buffer. A subscriber that falls this far behind
// starts losing frames rather than blocking publishers.
const defaultSubscriberBuffer = 16

type subscription struct {
	userID int64
	ch     chan []byte
}

// Hub fans order status frames out to the subscribers of each user. All
// state is guarded by a single mutex; publishes never block on slow readers.
type Hub struct {
	mu     sync.Mutex
	closed bool
	subs   map[int64]map[*subscription]struct{}
	buffer int
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:   make(map[int64]map[*subscription]struct{}),
		buffer: defaultSubscriberBuffer,
	}
}

// Subscribe registers a listener for the user's events. The returned cancel
// func is idempotent and must be called to release the subscription.
func (h *Hub) Subscribe(userID int64) (<-chan []byte, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, nil, fmt.Errorf("hub is closed")
	}

	sub := &subscription{
		userID: userID,
		ch:     make(chan []byte, h.buffer),
	}
	set, ok := h.subs[userID]
	if !ok {
		set = make(map[*subscription]struct{})
		h.subs[userID] = set
	}
	set[sub] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.remove(sub)
		})
	}
	return sub.ch, cancel, nil
}

// remove must be called with h.mu held.
func (h *Hub) remove(sub *subscription) {
	set, ok := h.subs[sub.userID]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.userID)
	}
	close(sub.ch)
}

// Publish serializes the event once and delivers it to every subscriber of
// the user. Delivery is best effort: frames for full buffers are dropped.
func (h *Hub) Publish(userID int64, event any) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal stream event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return fmt.Errorf("hub is closed")
	}

	for sub := range h.subs[userID] {
		select {
		case sub.ch <- frame:
		default:
		}
	}
	return nil
}

// SubscriberCount reports the number of active subscriptions for the user.
func (h *Hub) SubscriberCount(userID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Close terminates every subscription. Later Subscribe and Publish calls fail.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for _, set := range h.subs {
		for sub := range set {
			close(sub.ch)
		}
	}
	h.subs = make(map[int64]map[*subscription]struct{})
	return nil
}
