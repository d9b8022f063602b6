package session

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chasingkarma/coursechat/internal/observability"
)

// Config holds session store configuration.
type Config struct {
	// MaxHistory is the number of exchanges retained per session; the
	// stored message count is bounded at 2*MaxHistory.
	MaxHistory int

	// SessionTimeout is the idle duration after which a session is
	// reclaimed.
	SessionTimeout time.Duration

	// CleanupInterval is how often the reclamation sweep runs. Zero
	// disables the sweep.
	CleanupInterval time.Duration
}

// DefaultConfig returns the default session store configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistory:      2,
		SessionTimeout:  60 * time.Minute,
		CleanupInterval: 30 * time.Minute,
	}
}

type record struct {
	messages     []Message
	createdAt    time.Time
	lastActivity time.Time
}

// MemoryStore is an in-memory Store guarded by a single mutex. All
// reads and writes of the session map are serialized; operations are
// O(message count) so contention stays negligible.
type MemoryStore struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*record
	counter  uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock injects the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a memory store and starts its reclamation
// sweep. Call Shutdown to stop it.
func NewMemoryStore(cfg Config, opts ...Option) *MemoryStore {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 2
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = 60 * time.Minute
	}

	s := &MemoryStore{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*record),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.CleanupInterval > 0 {
		go s.runSweeper()
	} else {
		close(s.doneCh)
	}

	log.Printf("Session store initialized: max_history=%d, session_timeout=%s, cleanup_interval=%s",
		cfg.MaxHistory, cfg.SessionTimeout, cfg.CleanupInterval)
	return s
}

// Create mints a fresh session id. Ids are strictly increasing and
// never reused.
func (s *MemoryStore) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	id := fmt.Sprintf("session_%d", s.counter)
	now := s.now()
	s.sessions[id] = &record{createdAt: now, lastActivity: now}
	observability.SetActiveSessions(len(s.sessions))
	return id
}

// AddMessage appends a message, creating the session implicitly if
// absent, and trims to the history bound.
func (s *MemoryStore) AddMessage(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(sessionID, role, content)
}

// AddExchange appends a user/assistant pair under one lock
// acquisition, so no other mutation of the same session can
// interleave between the two appends.
func (s *MemoryStore) AddExchange(sessionID, userMessage, assistantMessage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(sessionID, RoleUser, userMessage)
	s.addLocked(sessionID, RoleAssistant, assistantMessage)
}

func (s *MemoryStore) addLocked(sessionID, role, content string) {
	now := s.now()

	rec, ok := s.sessions[sessionID]
	if !ok {
		rec = &record{createdAt: now, lastActivity: now}
		s.sessions[sessionID] = rec
		observability.SetActiveSessions(len(s.sessions))
	}

	rec.messages = append(rec.messages, Message{Role: role, Content: content, Timestamp: now})
	rec.lastActivity = now

	if limit := s.cfg.MaxHistory * 2; len(rec.messages) > limit {
		rec.messages = append(rec.messages[:0:0], rec.messages[len(rec.messages)-limit:]...)
	}
}

// History returns the formatted history and refreshes last activity.
func (s *MemoryStore) History(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[sessionID]
	if !ok || len(rec.messages) == 0 {
		return "", false
	}

	rec.lastActivity = s.now()
	return formatHistory(rec.messages), true
}

// Clear removes a session entirely; unknown ids are a no-op.
func (s *MemoryStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		observability.SetActiveSessions(len(s.sessions))
	}
}

// Stats returns a snapshot of session and message counts.
func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, rec := range s.sessions {
		total += len(rec.messages)
	}
	return Stats{TotalSessions: len(s.sessions), TotalMessages: total}
}

// Shutdown signals the sweeper to stop and waits for it, bounded by a
// short timeout.
func (s *MemoryStore) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	select {
	case <-s.doneCh:
	case <-time.After(5 * time.Second):
		log.Printf("Session store shutdown timed out waiting for sweeper")
	}
}

func (s *MemoryStore) runSweeper() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes sessions idle beyond the timeout. Scan and delete run
// under the same lock held by every other mutator, so deletion is
// all-or-nothing from any caller's viewpoint.
func (s *MemoryStore) sweep() {
	now := s.now()

	s.mu.Lock()
	var expired []string
	for id, rec := range s.sessions {
		if now.Sub(rec.lastActivity) > s.cfg.SessionTimeout {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(s.sessions, id)
	}
	observability.SetActiveSessions(len(s.sessions))
	s.mu.Unlock()

	if len(expired) > 0 {
		log.Printf("Reclaimed %d expired sessions", len(expired))
	}
}
