// Package memory keeps per-agent conversation history: an append-only,
// capacity-bounded list of role/content entries with timestamps.
package memory

import (
	"sync"
	"time"
)

// DefaultCapacity is the number of entries a history retains before the
// oldest are discarded.
const DefaultCapacity = 50

// Message is a single conversation entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// History is a bounded, thread-safe conversation log. When the capacity is
// exceeded the oldest entries are dropped.
type History struct {
	mu       sync.RWMutex
	entries  []Message
	capacity int
}

// NewHistory creates a history with DefaultCapacity.
func NewHistory() *History {
	return NewHistoryWithCapacity(DefaultCapacity)
}

// NewHistoryWithCapacity creates a history with a custom capacity.
// Non-positive capacities fall back to DefaultCapacity.
func NewHistoryWithCapacity(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{capacity: capacity}
}

// Add appends an entry, timestamping it now.
func (h *History) Add(role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}
}

// All returns a copy of every retained entry, oldest first.
func (h *History) All() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Message(nil), h.entries...)
}

// Window returns a copy of the most recent n entries.
func (h *History) Window(n int) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	if n > len(h.entries) {
		n = len(h.entries)
	}
	return append([]Message(nil), h.entries[len(h.entries)-n:]...)
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Clear removes every entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
