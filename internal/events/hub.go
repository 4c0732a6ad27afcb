// Package events fans out arena state changes to in-process subscribers,
// chiefly the websocket feed.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/undeadlabs/arena/internal/obslog"
)

// Event is one observable state change.
type Event struct {
	Type string      `json:"type"`
	Room string      `json:"room,omitempty"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data,omitempty"`
}

const subscriberBuffer = 64

// Hub distributes events to subscribers. Slow subscribers lose events
// rather than block publishers.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new receiver. Call the returned cancel func to
// detach; the channel is closed afterwards.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber that has buffer room.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			obslog.L().Debug("event dropped for slow subscriber", zap.String("type", ev.Type))
		}
	}
}

// SubscriberCount reports the number of attached receivers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
