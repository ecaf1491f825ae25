// Package session hosts viewer sessions: one academy.Selector per viewer,
// guarded by a mutex so that HTTP, WebSocket, chat and timer callbacks apply
// transitions one at a time.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/p-n-ai/f1-academy/internal/academy"
	"github.com/p-n-ai/f1-academy/internal/content"
)

var (
	// ErrNotFound is returned for unknown or expired session IDs.
	ErrNotFound = errors.New("session not found")
	// ErrUnknownAction is returned for an action type Apply does not know.
	ErrUnknownAction = errors.New("unknown action")
	// ErrClosed is returned by Apply after the session was discarded.
	ErrClosed = errors.New("session closed")
	// ErrMissingOption is returned for a select_answer without an option.
	ErrMissingOption = errors.New("select_answer needs an option")
)

// ActionType names a viewer interaction.
type ActionType string

const (
	ActionSelectModule ActionType = "select_module"
	ActionGoHome       ActionType = "go_home"
	ActionSelectTab    ActionType = "select_tab"
	ActionSelectAnswer ActionType = "select_answer"
	ActionAdvance      ActionType = "advance"
	ActionRetake       ActionType = "retake"
)

// Action is one viewer interaction. Module is used by select_module, Tab by
// select_tab and Option by select_answer. Option is a pointer so that a
// missing option is told apart from option 0.
type Action struct {
	Type   ActionType `json:"type"`
	Module int        `json:"module,omitempty"`
	Tab    string     `json:"tab,omitempty"`
	Option *int       `json:"option,omitempty"`
}

// Answer returns a select_answer action for the 0-based option k.
func Answer(k int) Action {
	return Action{Type: ActionSelectAnswer, Option: &k}
}

const subscriberBuffer = 8

// Session is one viewer's state. It is safe for concurrent use.
type Session struct {
	ID string

	mu       sync.Mutex
	selector *academy.Selector
	lastSeen time.Time
	now      func() time.Time
	closed   bool

	subs    map[int]chan academy.View
	nextSub int
}

func newSession(id string, catalog *content.Catalog, opts Options) *Session {
	s := &Session{
		ID:   id,
		now:  opts.now(),
		subs: make(map[int]chan academy.View),
	}
	s.lastSeen = s.now()

	var sched academy.Scheduler = academy.TimerScheduler{}
	if opts.Scheduler != nil {
		sched = opts.Scheduler
	}
	s.selector = academy.NewSelector(catalog, academy.ContainerOptions{
		RevealDelay: opts.RevealDelay,
		Scheduler:   s.lockedScheduler(sched),
	})
	return s
}

// lockedScheduler runs scheduled callbacks under the session lock and pushes
// the resulting view to subscribers.
func (s *Session) lockedScheduler(base academy.Scheduler) academy.Scheduler {
	return academy.SchedulerFunc(func(d time.Duration, f func()) func() {
		return base.AfterFunc(d, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed {
				return
			}
			f()
			s.publishLocked(academy.Render(s.selector))
		})
	})
}

// Apply performs a on the session and returns the resulting view. The view
// is returned even when a is rejected, so callers can re-render.
func (s *Session) Apply(a Action) (academy.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return academy.View{}, ErrClosed
	}
	s.lastSeen = s.now()

	err := s.apply(a)
	v := academy.Render(s.selector)
	if err == nil {
		s.publishLocked(v)
	}
	return v, err
}

func (s *Session) apply(a Action) error {
	switch a.Type {
	case ActionSelectModule:
		return s.selector.SelectModule(a.Module)
	case ActionGoHome:
		s.selector.GoHome()
		return nil
	}

	c, ok := s.selector.Active()
	if !ok {
		switch a.Type {
		case ActionSelectTab, ActionSelectAnswer, ActionAdvance, ActionRetake:
			return academy.ErrNoActiveModule
		}
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}

	switch a.Type {
	case ActionSelectTab:
		tab, err := academy.ParseTab(a.Tab)
		if err != nil {
			return err
		}
		return c.SelectTab(tab)
	case ActionSelectAnswer:
		if a.Option == nil {
			return ErrMissingOption
		}
		return c.SelectAnswer(*a.Option)
	case ActionAdvance:
		return c.Advance()
	case ActionRetake:
		return c.Retake()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
}

// View renders the current state.
func (s *Session) View() academy.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	return academy.Render(s.selector)
}

// expired reports whether the session was last used before cutoff and has no
// subscribers. An open subscription keeps a session alive however long the
// viewer stays passive.
func (s *Session) expired(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) == 0 && s.lastSeen.Before(cutoff)
}

// Subscribe returns a channel receiving every view produced after a
// successful action or timer callback. Slow readers lose intermediate views,
// never the latest. The channel is closed by cancel or when the session
// closes. The idle timeout starts over when the subscription is cancelled.
func (s *Session) Subscribe() (<-chan academy.View, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan academy.View, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
				s.lastSeen = s.now()
			}
		})
	}
}

// Close discards the session state, cancels pending timers and closes all
// subscriber channels.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.selector.Close()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) publishLocked(v academy.View) {
	for _, ch := range s.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		// Full: drop the oldest view to make room for the newest.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
