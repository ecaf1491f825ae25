package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/p-n-ai/f1-academy/internal/agent"
	"github.com/p-n-ai/f1-academy/internal/chat"
	"github.com/p-n-ai/f1-academy/internal/content"
	"github.com/p-n-ai/f1-academy/internal/platform/cache"
	"github.com/p-n-ai/f1-academy/internal/platform/config"
	"github.com/p-n-ai/f1-academy/internal/platform/database"
	"github.com/p-n-ai/f1-academy/internal/platform/logging"
	"github.com/p-n-ai/f1-academy/internal/session"
	"github.com/p-n-ai/f1-academy/internal/web"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg.Log, os.Stdout))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var checks []readinessCheck

	var db *database.DB
	if cfg.UsesDatabase() {
		var err error
		db, err = database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		checks = append(checks, readinessCheck{Name: "database", Check: db.HealthCheck})
	}

	var kv *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		kv, err = cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return err
		}
		defer func() { _ = kv.Close() }()
		checks = append(checks, readinessCheck{Name: "cache", Check: kv.HealthCheck})
	}

	src, err := contentSource(cfg, db, kv)
	if err != nil {
		return err
	}
	catalog, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	reg := session.NewRegistry(catalog, session.Options{
		IdleTTL:     cfg.Session.IdleTimeout(),
		RevealDelay: cfg.Session.RevealDelay(),
	})
	go reg.Run(ctx)

	router, err := web.NewRouter(reg, web.Options{
		CookieSecret:   cfg.Web.CookieSecret,
		AllowedOrigins: cfg.Web.AllowedOrigins,
	})
	if err != nil {
		return err
	}
	mountHealth(router, checks)

	if cfg.HasTelegram() {
		gw, err := startChat(ctx, cfg, reg)
		if err != nil {
			return err
		}
		defer gw.StopAll()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// contentSource picks the configured source, wrapped in the read-through
// cache when one is connected.
func contentSource(cfg *config.Config, db *database.DB, kv *cache.Cache) (content.Source, error) {
	var src content.Source
	switch cfg.Content.Source {
	case config.SourceDir:
		src = content.NewDirSource(cfg.Content.Path)
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres content source needs a database")
		}
		pg, err := content.NewPostgresSource(db.Pool)
		if err != nil {
			return nil, err
		}
		src = pg
	default:
		src = content.NewEmbeddedSource()
	}

	if kv != nil {
		src = content.NewCachedSource(src, kv, cfg.Content.CacheTTLDuration(), func(err error) bool {
			return errors.Is(err, cache.ErrMiss)
		})
	}
	return src, nil
}

func startChat(ctx context.Context, cfg *config.Config, reg *session.Registry) (*chat.Gateway, error) {
	engine, err := agent.NewEngine(agent.EngineConfig{Registry: reg})
	if err != nil {
		return nil, err
	}
	tg, err := chat.NewTelegramChannel(cfg.Telegram.BotToken, chat.WithCommands(agent.Commands()))
	if err != nil {
		return nil, err
	}

	gw := chat.NewGateway()
	gw.Register("telegram", tg)

	handler := func(msg chat.InboundMessage) {
		if !msg.IsButton() {
			_ = gw.SendTyping(ctx, msg.Channel, msg.UserID)
		}
		reply, err := engine.ProcessMessage(ctx, msg)
		if err != nil {
			slog.Error("chat message failed", "channel", msg.Channel, "user_id", msg.UserID, "error", err)
			reply = chat.OutboundMessage{Channel: msg.Channel, UserID: msg.UserID, Text: "Something went wrong. Send /start to begin again."}
		}
		if err := gw.Send(ctx, reply); err != nil {
			slog.Error("chat reply failed", "channel", msg.Channel, "user_id", msg.UserID, "error", err)
		}
	}
	if err := gw.StartAll(ctx, handler); err != nil {
		return nil, err
	}
	return gw, nil
}

// readinessCheck is a dependency probed by /readyz.
type readinessCheck struct {
	Name  string
	Check func(context.Context) error
}

// mountHealth adds the health check endpoints.
func mountHealth(r chi.Router, checks []readinessCheck) {
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", readyzHandler(checks))
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func readyzHandler(checks []readinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failed := map[string]string{}
		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				slog.Warn("readiness check failed", "check", c.Name, "error", err)
				failed[c.Name] = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if len(failed) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "unavailable", "failed": failed})
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}
