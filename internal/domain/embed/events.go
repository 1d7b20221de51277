package embed

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/AgentOS/embedhost/internal/platform/native"
)

// EventType names a coordinator notification.
type EventType string

const (
	EventStateChanged      EventType = "state_changed"
	EventEmbedded          EventType = "embedded"
	EventResized           EventType = "resized"
	EventVisibilityChanged EventType = "visibility_changed"
	EventDetached          EventType = "detached"
	EventError             EventType = "error"
	EventStyleCorrected    EventType = "style_corrected"
)

// Event is published on the Bus for every state transition and outcome.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	State     string        `json:"state,omitempty"`
	From      string        `json:"from,omitempty"`
	Handle    native.Handle `json:"handle,omitempty"`
	ProcessID int           `json:"pid,omitempty"`
	Bounds    *native.Rect  `json:"bounds,omitempty"`
	Visible   *bool         `json:"visible,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Kind      Kind          `json:"kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan Event)}
}

// Subscribe returns a channel of future events and a cancel func that
// unsubscribes and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	key := uuid.NewString()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[key] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[key]; ok {
				delete(b.subs, key)
				close(sub)
			}
		})
	}
}

// Publish stamps e with an ID and timestamp and delivers it.
func (b *Bus) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for key, ch := range b.subs {
		close(ch)
		delete(b.subs, key)
	}
}
