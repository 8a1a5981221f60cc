package config

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	configMetricsOnce sync.Once
	configCounter     metric.Int64Counter
	backendCounter    metric.Int64Counter
)

func loadConfigInstruments() {
	configMetricsOnce.Do(func() {
		meter := otel.Meter("api-playground-backend")
		if counter, err := meter.Int64Counter("config.validation.events"); err == nil {
			configCounter = counter
		}
		if counter, err := meter.Int64Counter("config.backend.selections"); err == nil {
			backendCounter = counter
		}
	})
}

func recordConfigValidationEvent(ctx context.Context, profile, outcome, errorClass string) {
	loadConfigInstruments()
	if configCounter == nil {
		return
	}
	configCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("profile", normalizeConfigProfile(profile)),
		attribute.String("outcome", outcome),
		attribute.String("error_class", errorClass),
	))
}

// recordBackendSelection reports which pluggable backends a loaded config
// selected, one event per concern.
func recordBackendSelection(ctx context.Context, cfg *Config) {
	loadConfigInstruments()
	if backendCounter == nil || cfg == nil {
		return
	}
	selections := map[string]string{
		"database":       cfg.DBDriver,
		"broadcast":      cfg.BroadcastDriver,
		"counter":        cfg.CounterBackend,
		"negative_cache": cfg.NegativeCacheBackend,
		"rate_limit":     cfg.RateLimitBackend,
		"metrics":        cfg.OTELMetricsExporter,
	}
	for concern, backend := range selections {
		backendCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("concern", concern),
			attribute.String("backend", backend),
			attribute.String("profile", normalizeConfigProfile(cfg.AppEnv)),
		))
	}
}

func normalizeConfigProfile(profile string) string {
	v := strings.TrimSpace(strings.ToLower(profile))
	if v == "" {
		return "unknown"
	}
	return v
}

func classifyConfigLoadError(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "validate config:"):
		return "validation"
	case strings.Contains(msg, "parse "):
		return "parse"
	default:
		return "load"
	}
}
