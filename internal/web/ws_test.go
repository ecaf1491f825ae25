package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/f1-academy/internal/academy"
	"github.com/p-n-ai/f1-academy/internal/session"
)

type wsMessage struct {
	Type   string        `json:"type"`
	View   *academy.View `json:"view"`
	Error  string        `json:"error"`
	Status int           `json:"status"`
}

// queueScheduler holds callbacks until release is called.
type queueScheduler struct {
	mu    sync.Mutex
	queue []func()
}

func (q *queueScheduler) AfterFunc(_ time.Duration, f func()) func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append(q.queue, f)
	return func() {}
}

func (q *queueScheduler) release() {
	q.mu.Lock()
	fs := q.queue
	q.queue = nil
	q.mu.Unlock()
	for _, f := range fs {
		f()
	}
}

func dialSession(t *testing.T, srv *httptest.Server, id string) (*websocket.Conn, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn, ctx
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) wsMessage {
	t.Helper()
	var m wsMessage
	if err := wsjson.Read(ctx, conn, &m); err != nil {
		t.Fatalf("wsjson.Read() error = %v", err)
	}
	return m
}

func TestSocket_ActionsAndReveal(t *testing.T) {
	sched := &queueScheduler{}
	r, reg := newTestRouter(t, session.Options{RevealDelay: time.Second, Scheduler: sched})
	srv := httptest.NewServer(r)
	defer srv.Close()

	s := reg.Create()
	conn, ctx := dialSession(t, srv, s.ID)

	if m := readMessage(t, ctx, conn); m.Type != "view" || m.View.Screen != academy.ScreenHome {
		t.Fatalf("initial message = %+v", m)
	}

	if err := wsjson.Write(ctx, conn, session.Action{Type: session.ActionSelectModule, Module: 1}); err != nil {
		t.Fatalf("wsjson.Write() error = %v", err)
	}
	if m := readMessage(t, ctx, conn); m.View == nil || m.View.Module == nil || m.View.Module.ID != 1 {
		t.Fatalf("after select_module = %+v", m)
	}

	if err := wsjson.Write(ctx, conn, session.Action{Type: session.ActionSelectTab, Tab: "visualize"}); err != nil {
		t.Fatalf("wsjson.Write() error = %v", err)
	}
	m := readMessage(t, ctx, conn)
	if m.View.Module.Visualize == nil || m.View.Module.Visualize.Revealed {
		t.Fatalf("visualize should mount unrevealed: %+v", m.View.Module)
	}

	sched.release()
	m = readMessage(t, ctx, conn)
	if !m.View.Module.Visualize.Revealed {
		t.Errorf("reveal should be pushed: %+v", m.View.Module.Visualize)
	}
}

func TestSocket_ErrorsAreReported(t *testing.T) {
	r, reg := newTestRouter(t, session.Options{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	s := reg.Create()
	conn, ctx := dialSession(t, srv, s.ID)
	readMessage(t, ctx, conn)

	if err := wsjson.Write(ctx, conn, session.Action{Type: session.ActionSelectModule, Module: 77}); err != nil {
		t.Fatalf("wsjson.Write() error = %v", err)
	}
	m := readMessage(t, ctx, conn)
	if m.Type != "error" || m.Status != http.StatusNotFound {
		t.Errorf("message = %+v, want 404 error", m)
	}
}

func TestSocket_ClosedWhenSessionDeleted(t *testing.T) {
	r, reg := newTestRouter(t, session.Options{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	s := reg.Create()
	conn, ctx := dialSession(t, srv, s.ID)
	readMessage(t, ctx, conn)

	if err := reg.Delete(s.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	var m wsMessage
	err := wsjson.Read(ctx, conn, &m)
	if websocket.CloseStatus(err) != websocket.StatusGoingAway {
		t.Errorf("Read() error = %v, want going-away close", err)
	}
}

func TestSocket_UnknownSession(t *testing.T) {
	r, _ := newTestRouter(t, session.Options{})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/missing/ws"
	_, resp, err := websocket.Dial(ctx, url, nil)
	if err == nil {
		t.Fatal("Dial() should fail for an unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}
