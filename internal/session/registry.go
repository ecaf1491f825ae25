package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/p-n-ai/f1-academy/internal/academy"
	"github.com/p-n-ai/f1-academy/internal/content"
)

// Options configures sessions created by a Registry.
type Options struct {
	IdleTTL     time.Duration
	RevealDelay time.Duration
	Scheduler   academy.Scheduler // defaults to academy.TimerScheduler
	Now         func() time.Time  // defaults to time.Now
}

func (o Options) now() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

// Registry is an in-memory table of live sessions.
type Registry struct {
	catalog  *content.Catalog
	opts     Options
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry serving catalog.
func NewRegistry(catalog *content.Catalog, opts Options) *Registry {
	return &Registry{
		catalog:  catalog,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Catalog returns the content every session is built from.
func (r *Registry) Catalog() *content.Catalog {
	return r.catalog
}

// Create starts a new session on the home screen.
func (r *Registry) Create() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := generateID()
	for r.sessions[id] != nil {
		id = generateID()
	}
	s := newSession(id, r.catalog, r.opts)
	r.sessions[id] = s
	slog.Debug("session created", "session_id", id)
	return s
}

// GetOrCreate returns the session stored under id, creating it when absent.
// The boolean reports whether a new session was created. Chat surfaces use
// it with IDs derived from the user.
func (r *Registry) GetOrCreate(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s, false
	}
	s := newSession(id, r.catalog, r.opts)
	r.sessions[id] = s
	slog.Debug("session created", "session_id", id)
	return s, true
}

// Get returns a live session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Delete closes and removes a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Close()
	slog.Debug("session deleted", "session_id", id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the configured TTL and returns
// how many were removed. Sessions with subscribers are never idle. A zero TTL
// disables expiry.
func (r *Registry) Sweep() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.opts.now()().Add(-r.opts.IdleTTL)

	var expired []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.expired(cutoff) {
			delete(r.sessions, id)
			expired = append(expired, s)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done, then closes every session.
func (r *Registry) Run(ctx context.Context) {
	interval := r.opts.IdleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				slog.Info("expired idle sessions", "count", n, "remaining", r.Len())
			}
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
