// Package web serves the academy to browsers: a JSON API, a WebSocket feed
// of live views and server-rendered HTML pages.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/p-n-ai/f1-academy/internal/session"
)

// Options configures the router.
type Options struct {
	CookieSecret   string
	AllowedOrigins []string
	// SecureCookies marks the page cookie Secure. Enable behind HTTPS.
	SecureCookies bool
}

// NewRouter builds the chi router for every browser-facing route. Callers
// may mount further routes (health checks) on the result.
func NewRouter(reg *session.Registry, opts Options) (*chi.Mux, error) {
	pages, err := newPages(reg, opts)
	if err != nil {
		return nil, err
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)

	r.Route("/api", func(ar chi.Router) {
		ar.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Content-Length"},
			MaxAge:         300,
		}))

		ar.Group(func(tr chi.Router) {
			tr.Use(middleware.Timeout(30 * time.Second))
			tr.Get("/modules", ListModulesHandler(reg))
			tr.Post("/sessions", CreateSessionHandler(reg))
			tr.Get("/sessions/{sessionID}", GetSessionHandler(reg))
			tr.Delete("/sessions/{sessionID}", DeleteSessionHandler(reg))
			tr.Post("/sessions/{sessionID}/actions", ApplyActionHandler(reg))
		})

		// Long-lived; no request timeout.
		ar.Get("/sessions/{sessionID}/ws", SessionSocketHandler(reg, origins))
	})

	r.Get("/", pages.Index)
	r.Post("/actions", pages.Action)
	r.Post("/reset", pages.Reset)

	return r, nil
}

// requestLogger logs one line per request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
