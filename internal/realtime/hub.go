package realtime

import (
	"context"
	"sync"

	"github.com/sandeepkv93/api-playground-backend/internal/observability"
)

const defaultSubscriberBuffer = 32

// Hub fans messages out to in-process subscribers. Sends never block: a
// subscriber whose buffer is full misses the message.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*subscriber]struct{}
	buffer int
	closed bool
}

type subscriber struct {
	ch     chan Message
	closed bool
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{topics: make(map[string]map[*subscriber]struct{}), buffer: buffer}
}

// Subscribe registers interest in topic. The returned cancel func is
// idempotent and closes the channel.
func (h *Hub) Subscribe(topic string) (<-chan Message, func()) {
	sub := &subscriber{ch: make(chan Message, h.buffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub.closed {
			return
		}
		sub.closed = true
		close(sub.ch)
		if subs, ok := h.topics[topic]; ok {
			delete(subs, sub)
			if len(subs) == 0 {
				delete(h.topics, topic)
			}
		}
	}
	return sub.ch, cancel
}

func (h *Hub) Broadcast(ctx context.Context, topic string, payload []byte) (string, error) {
	msg := Message{ID: newMessageID(), Topic: topic, Payload: payload}
	delivered := h.Deliver(msg)
	observability.RecordBroadcastFanout(ctx, "local", "delivered", delivered)
	return msg.ID, nil
}

// Deliver hands msg to current subscribers of msg.Topic and reports how
// many accepted it.
func (h *Hub) Deliver(msg Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for sub := range h.topics[msg.Topic] {
		select {
		case sub.ch <- msg:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Close ends every subscription so streaming handlers return. Later
// subscriptions receive an already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for topic, subs := range h.topics {
		for sub := range subs {
			if !sub.closed {
				sub.closed = true
				close(sub.ch)
			}
		}
		delete(h.topics, topic)
	}
}
