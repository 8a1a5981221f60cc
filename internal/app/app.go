package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/api-playground-backend/internal/config"
	"github.com/sandeepkv93/api-playground-backend/internal/health"
	"github.com/sandeepkv93/api-playground-backend/internal/realtime"
)

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Server    *http.Server
	Readiness *health.ProbeRunner
	// Relay is set only for the redis broadcast driver.
	Relay *realtime.RedisRelay

	ShutdownTimeout          time.Duration
	ShutdownHTTPDrainTimeout time.Duration
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, readiness *health.ProbeRunner, relay *realtime.RedisRelay) *App {
	return &App{
		Config:                   cfg,
		Logger:                   logger,
		Server:                   server,
		Readiness:                readiness,
		Relay:                    relay,
		ShutdownTimeout:          cfg.ShutdownTimeout,
		ShutdownHTTPDrainTimeout: cfg.ShutdownHTTPDrainTimeout,
	}
}

// Run listens on the configured address until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP server and, when configured, the Redis relay. The
// first failure or the cancellation of ctx stops both; in-flight requests
// get ShutdownHTTPDrainTimeout to finish.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", ln.Addr().String())
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if a.Relay != nil {
		g.Go(func() error {
			if err := a.Relay.Run(gctx); err != nil {
				return fmt.Errorf("broadcast relay: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down http server", "drain_timeout", a.drainTimeout().String())
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.drainTimeout())
		defer cancel()
		if err := a.Server.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("drain http server: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if err != nil {
		a.Logger.Error("app stopped with error", "error", err)
		return err
	}
	a.Logger.Info("app stopped")
	return nil
}

func (a *App) drainTimeout() time.Duration {
	d := a.ShutdownHTTPDrainTimeout
	if d <= 0 || (a.ShutdownTimeout > 0 && d > a.ShutdownTimeout) {
		d = a.ShutdownTimeout
	}
	if d <= 0 {
		d = 10 * time.Second
	}
	return d
}
