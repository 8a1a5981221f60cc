package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sandeepkv93/api-playground-backend/internal/config"
)

type Runtime struct {
	Logger         *slog.Logger
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
	LoggerProvider *sdklog.LoggerProvider
	// MetricsHandler is nil unless the prometheus exporter is selected.
	MetricsHandler http.Handler
}

// InitRuntime builds the logger first so the rest of the setup can report
// through it, then installs it as the slog default.
func InitRuntime(ctx context.Context, cfg *config.Config, logOut io.Writer) (*Runtime, error) {
	logger, lp, err := NewLogger(ctx, cfg, logOut)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	rt := &Runtime{Logger: logger, LoggerProvider: lp}

	mp, handler, err := InitMetrics(ctx, cfg, logger)
	if err != nil {
		_ = rt.Shutdown(ctx)
		return nil, err
	}
	rt.MeterProvider, rt.MetricsHandler = mp, handler

	tp, err := InitTracing(ctx, cfg, logger)
	if err != nil {
		_ = rt.Shutdown(ctx)
		return nil, err
	}
	rt.TracerProvider = tp
	return rt, nil
}

func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.MeterProvider != nil {
		if err := r.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.TracerProvider != nil {
		if err := r.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if r.LoggerProvider != nil {
		if err := r.LoggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
