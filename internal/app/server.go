package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/MrWong99/scriptvox/internal/health"
	"github.com/MrWong99/scriptvox/internal/observe"
)

const shutdownTimeout = 5 * time.Second

// Handler returns the ops mux: GET /metrics, /healthz and /readyz, wrapped
// in the HTTP metrics middleware.
func (a *App) Handler() http.Handler {
	var checks []health.Checker
	if a.providers.Engine != nil {
		checks = append(checks, health.EngineChecker(a.cfg.Providers.TTS.Name, a.providers.Engine))
	}
	checks = append(checks, health.LLMConfigChecker(a.cfg.Providers.LLM))

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", observe.MetricsHandler())
	health.New(checks...).Register(mux)
	return observe.Middleware(a.metrics)(mux)
}

// startServer serves [App.Handler] on addr until Shutdown.
func (a *App) startServer(ctx context.Context, addr string) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("ops server stopped", "err", err)
		}
	}()
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	})
	slog.Info("ops server listening", "addr", ln.Addr().String())
	return nil
}
