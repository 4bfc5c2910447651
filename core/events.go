package core

import "sync"

// subscriberBuffer is the channel capacity handed to each subscriber.
const subscriberBuffer = 16

// Hub fans events of one kind out to local subscribers. Publish never blocks:
// a subscriber that has fallen more than subscriberBuffer events behind loses
// the oldest-pending delivery rather than stalling the engine.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[chan T]struct{}
	closed bool
}

// NewHub creates an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[chan T]struct{})}
}

// Subscribe registers a new subscriber channel. The channel is closed by
// Unsubscribe or when the hub shuts down.
func (h *Hub[T]) Subscribe() chan T {
	ch := make(chan T, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes the subscriber channel.
func (h *Hub[T]) Unsubscribe(ch chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
}

// Publish delivers evt to every current subscriber.
func (h *Hub[T]) Publish(evt T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}

// Close closes all subscriber channels. Further publishes are no-ops.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
	}
	h.subs = nil
}
