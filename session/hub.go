package session

import (
	"sync"
	"time"

	"github.com/rickchristie/refine"
	"go.uber.org/zap"
)

// MessageType identifies a broadcast message.
type MessageType string

const (
	// MessageAgentOutput carries one stream event of a task.
	MessageAgentOutput MessageType = "agent_output"

	// MessageSystem carries a human-readable notice.
	MessageSystem MessageType = "system_message"

	// MessageTaskStatus announces a task status change.
	MessageTaskStatus MessageType = "task_status"
)

// Message is what the Hub delivers to subscribers.
type Message struct {
	Type      MessageType   `json:"type"`
	TaskID    string        `json:"taskId,omitempty"`
	Agent     refine.Source `json:"agent,omitempty"`
	Round     int           `json:"round,omitempty"`
	Content   string        `json:"content,omitempty"`
	Status    Status        `json:"status,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Hub fans messages out to subscribers.
//
// Publish never blocks: a subscriber whose buffer is full misses the message. Tasks therefore
// keep running at model speed no matter how slow a websocket client is.
type Hub struct {
	mu     sync.RWMutex
	subs   map[chan Message]struct{}
	logger *zap.Logger
}

// NewHub creates a Hub with no subscribers.
func NewHub() *Hub {
	return &Hub{
		subs:   make(map[chan Message]struct{}),
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger. Returns the hub for chaining.
func (h *Hub) WithLogger(logger *zap.Logger) *Hub {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Subscribe registers a subscriber with room for size pending messages. The returned function
// unsubscribes and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(size int) (<-chan Message, func()) {
	if size < 1 {
		size = 1
	}
	ch := make(chan Message, size)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers msg to every subscriber that has room for it. A zero timestamp is set to
// the current time.
func (h *Hub) Publish(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.logger.Debug("subscriber full, message dropped",
				zap.String("type", string(msg.Type)),
				zap.String("task", msg.TaskID),
			)
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
