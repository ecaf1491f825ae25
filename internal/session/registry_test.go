package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/f1-academy/internal/session"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRegistry_CreateGetDelete(t *testing.T) {
	reg := session.NewRegistry(loadCatalog(t), session.Options{})

	s := reg.Create()
	if len(s.ID) != 32 {
		t.Errorf("ID = %q, want 32 hex chars", s.ID)
	}
	got, err := reg.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}

	if err := reg.Delete(s.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := reg.Get(s.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := reg.Delete(s.ID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	reg := session.NewRegistry(loadCatalog(t), session.Options{})
	a, b := reg.Create(), reg.Create()
	if a.ID == b.ID {
		t.Fatal("sessions share an ID")
	}

	mustApply(t, a, session.Action{Type: session.ActionSelectModule, Module: 2})
	if v := b.View(); v.Module != nil {
		t.Errorf("session b should still be home, got module %d", v.Module.ID)
	}
}

func TestRegistry_GetOrCreate(t *testing.T) {
	reg := session.NewRegistry(loadCatalog(t), session.Options{})

	s1, created := reg.GetOrCreate("telegram:42")
	if !created || s1.ID != "telegram:42" {
		t.Fatalf("GetOrCreate() = %q, %v", s1.ID, created)
	}
	s2, created := reg.GetOrCreate("telegram:42")
	if created || s2 != s1 {
		t.Error("GetOrCreate() should return the existing session")
	}
}

func TestRegistry_SweepExpiresIdle(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	reg := session.NewRegistry(loadCatalog(t), session.Options{IdleTTL: 10 * time.Minute, Now: clock.Now})

	idle := reg.Create()
	busy := reg.Create()

	clock.Advance(8 * time.Minute)
	busy.View()
	clock.Advance(5 * time.Minute)

	if n := reg.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, err := reg.Get(idle.ID); !errors.Is(err, session.ErrNotFound) {
		t.Error("idle session should be expired")
	}
	if _, err := reg.Get(busy.ID); err != nil {
		t.Errorf("busy session should survive: %v", err)
	}
}

func TestRegistry_SweepKeepsWatchedSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	reg := session.NewRegistry(loadCatalog(t), session.Options{IdleTTL: 10 * time.Minute, Now: clock.Now})

	watched := reg.Create()
	views, cancel := watched.Subscribe()

	clock.Advance(30 * time.Minute)
	if n := reg.Sweep(); n != 0 {
		t.Fatalf("Sweep() = %d, a subscribed session is not idle", n)
	}
	select {
	case _, ok := <-views:
		if !ok {
			t.Fatal("subscriber channel closed by Sweep")
		}
	default:
	}

	cancel()
	clock.Advance(5 * time.Minute)
	if n := reg.Sweep(); n != 0 {
		t.Fatalf("Sweep() = %d, idle time restarts when the last viewer leaves", n)
	}
	clock.Advance(6 * time.Minute)
	if n := reg.Sweep(); n != 1 {
		t.Fatalf("Sweep() = %d, want 1 once idle past the TTL", n)
	}
	if _, err := reg.Get(watched.ID); !errors.Is(err, session.ErrNotFound) {
		t.Error("session should be expired after its viewer left")
	}
}

func TestRegistry_SweepDisabledWithoutTTL(t *testing.T) {
	reg := session.NewRegistry(loadCatalog(t), session.Options{})
	reg.Create()
	if n := reg.Sweep(); n != 0 {
		t.Errorf("Sweep() = %d, want 0 without a TTL", n)
	}
}

func TestRegistry_RunClosesOnCancel(t *testing.T) {
	reg := session.NewRegistry(loadCatalog(t), session.Options{IdleTTL: time.Hour})
	s := reg.Create()
	views, _ := s.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after shutdown", reg.Len())
	}
	if _, ok := <-views; ok {
		t.Error("subscriber channel should be closed on shutdown")
	}
}

func TestRegistry_ConcurrentApply(t *testing.T) {
	reg := session.NewRegistry(loadCatalog(t), session.Options{})
	s := reg.Create()
	mustApply(t, s, session.Action{Type: session.ActionSelectModule, Module: 1})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tab := []string{"learn", "visualize", "try_it"}[i%3]
			_, _ = s.Apply(session.Action{Type: session.ActionSelectTab, Tab: tab})
			_ = s.View()
		}(i)
	}
	wg.Wait()

	if v := s.View(); v.Module == nil || v.Module.ID != 1 {
		t.Errorf("module should stay open: %+v", v.Module)
	}
}
