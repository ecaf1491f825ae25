package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/p-n-ai/f1-academy/internal/academy"
	"github.com/p-n-ai/f1-academy/internal/session"
)

const wsWriteTimeout = 5 * time.Second

// socketMessage is sent server to client. Type is "view" or "error".
type socketMessage struct {
	Type   string        `json:"type"`
	View   *academy.View `json:"view,omitempty"`
	Error  string        `json:"error,omitempty"`
	Status int           `json:"status,omitempty"`
}

// SessionSocketHandler streams views of a session over a WebSocket. Clients
// send session.Action values; every resulting view, including timer-driven
// reveals, is pushed back.
func SessionSocketHandler(reg *session.Registry, origins []string) http.HandlerFunc {
	patterns := originPatterns(origins)

	return func(w http.ResponseWriter, r *http.Request) {
		s, err := reg.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeErr(w, statusFor(err), err.Error())
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: patterns == nil,
			OriginPatterns:     patterns,
		})
		if err != nil {
			slog.Warn("websocket accept failed", "session_id", s.ID, "error", err)
			return
		}
		defer conn.CloseNow()

		views, cancel := s.Subscribe()
		defer cancel()

		ctx, stop := context.WithCancel(r.Context())
		defer stop()

		errs := make(chan socketMessage, 1)
		go readActions(ctx, conn, s, errs, stop)

		initial := s.View()
		if err := writeMessage(ctx, conn, socketMessage{Type: "view", View: &initial}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case v, ok := <-views:
				if !ok {
					conn.Close(websocket.StatusGoingAway, "session closed")
					return
				}
				if err := writeMessage(ctx, conn, socketMessage{Type: "view", View: &v}); err != nil {
					return
				}
			case m := <-errs:
				if err := writeMessage(ctx, conn, m); err != nil {
					return
				}
			}
		}
	}
}

// readActions applies every action read from conn. Successful actions reach
// the client through the session subscription; failures are sent on errs.
func readActions(ctx context.Context, conn *websocket.Conn, s *session.Session, errs chan<- socketMessage, stop func()) {
	defer stop()
	for {
		var a session.Action
		if err := wsjson.Read(ctx, conn, &a); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				slog.Debug("websocket read ended", "session_id", s.ID, "error", err)
			}
			return
		}
		if _, err := s.Apply(a); err != nil {
			select {
			case errs <- socketMessage{Type: "error", Error: err.Error(), Status: statusFor(err)}:
			case <-ctx.Done():
				return
			}
			if errors.Is(err, session.ErrClosed) {
				return
			}
		}
	}
}

func writeMessage(ctx context.Context, conn *websocket.Conn, m socketMessage) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, m)
}

// originPatterns converts allowed origins into host patterns for
// websocket.Accept. A wildcard disables the origin check.
func originPatterns(origins []string) []string {
	var patterns []string
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return patterns
}
