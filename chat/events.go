package chat

import (
	"sync"

	"github.com/gokoo/ai-toolbox/models"
)

// Event is a session-scoped notification emitted whenever a message in
// the session is created or updated.
type Event struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Message   *models.Message `json:"message,omitempty"`
}

const (
	EventMessageCreated = "message.created"
	EventMessageUpdated = "message.updated"
)

// Broadcaster fans session events out to any number of subscribers,
// typically websocket connections. Slow subscribers drop events rather
// than blocking the chat pipeline.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a listener for one session and returns the event
// channel plus a cancel function that must be called when done.
func (b *Broadcaster) Subscribe(sessionID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan Event]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[sessionID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, sessionID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of its session.
func (b *Broadcaster) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
		}
	}
}
