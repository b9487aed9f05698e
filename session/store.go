package session

import (
	"context"
	"sync"
	"time"

	"github.com/elbchat/elbchat/logging"
	"github.com/elbchat/elbchat/memory"
)

// Session is one ongoing conversation. It owns the memory window and the
// turn mutex that serializes concurrent turns for the same identifier.
// Turns for different sessions proceed fully in parallel.
type Session struct {
	ID     string
	Window *memory.Window

	turnMu sync.Mutex

	mu         sync.Mutex
	lastActive time.Time
}

// TurnLock enters the session's per-turn critical section. Every turn holds
// the lock around its read-modify-append of the window.
func (s *Session) TurnLock() { s.turnMu.Lock() }

// TurnUnlock leaves the per-turn critical section.
func (s *Session) TurnUnlock() { s.turnMu.Unlock() }

// Touch updates the last-activity timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// LastActive returns the last-activity timestamp.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Options configure a Store.
type Options struct {
	// WindowCapacity is the memory window size fixed at session creation.
	WindowCapacity int
	// IdleTimeout evicts sessions idle longer than this when the sweeper
	// runs. Zero disables idle eviction.
	IdleTimeout time.Duration
	// SweepInterval is the cadence of the background sweeper started by Run.
	SweepInterval time.Duration
	Logger        logging.Logger
}

// Store is the process-wide session registry. GetOrCreate is an atomic
// insert-if-absent: concurrent first turns for one identifier observe the
// same Session and never construct duplicate windows.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	windowCapacity int
	idleTimeout    time.Duration
	sweepInterval  time.Duration
	logger         logging.Logger
}

// NewStore constructs an empty store with optional overrides.
func NewStore(optFns ...func(o *Options)) *Store {
	opts := Options{
		WindowCapacity: memory.DefaultCapacity,
		SweepInterval:  time.Minute,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{
		sessions:       make(map[string]*Session),
		windowCapacity: opts.WindowCapacity,
		idleTimeout:    opts.IdleTimeout,
		sweepInterval:  opts.SweepInterval,
		logger:         opts.Logger,
	}
}

// GetOrCreate returns the session for id, creating it on first use. The
// check and insert happen under one lock so exactly one Session ever exists
// per identifier.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.Touch()
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Touch()
		return sess
	}
	sess = &Session{
		ID:         id,
		Window:     memory.NewWindow(s.windowCapacity),
		lastActive: time.Now(),
	}
	s.sessions[id] = sess
	s.logger.Info("session.created", "session_id", id, "window_capacity", s.windowCapacity)
	return sess
}

// Clear removes the session and its window. Unknown identifiers are a no-op,
// not an error; an in-flight turn for the removed session finishes against
// its own reference and the next turn starts fresh.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.logger.Info("session.cleared", "session_id", id)
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle longer than the configured timeout and returns
// how many were removed. A zero timeout makes Sweep a no-op.
func (s *Store) Sweep() int {
	if s.idleTimeout <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-s.idleTimeout)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			removed++
			s.logger.Info("session.evicted", "session_id", id)
		}
	}
	return removed
}

// Run drives the idle-eviction sweeper until ctx is cancelled. It returns
// immediately when idle eviction is disabled.
func (s *Store) Run(ctx context.Context) {
	if s.idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
