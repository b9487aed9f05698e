package memory

import (
	"sync"

	"github.com/elbchat/elbchat/core"
)

// DefaultCapacity is the window size used when a session is created without
// an explicit capacity.
const DefaultCapacity = 10

// Window is a bounded, ordered log of one session's messages. Insertion
// evicts the oldest entries first so the window always holds the most recent
// capacity messages in append order. Safe for concurrent use.
type Window struct {
	mu       sync.RWMutex
	capacity int
	messages []core.Message
}

// NewWindow creates a window holding at most capacity messages. A
// non-positive capacity falls back to DefaultCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Window{capacity: capacity, messages: make([]core.Message, 0, capacity)}
}

// Capacity returns the fixed maximum length of the window.
func (w *Window) Capacity() int { return w.capacity }

// Append adds a message, evicting the oldest entries if the window is full.
func (w *Window) Append(msg core.Message) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msg)
	if overflow := len(w.messages) - w.capacity; overflow > 0 {
		w.messages = append(w.messages[:0], w.messages[overflow:]...)
	}
}

// Snapshot returns a copy of the current contents in append order. The copy
// is safe to hand to a model call running concurrently with new appends.
func (w *Window) Snapshot() []core.Message {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]core.Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Len returns the current number of messages.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.messages)
}

// Clear removes all messages, keeping the capacity.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = w.messages[:0]
}
