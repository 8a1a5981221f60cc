package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "api-playground-backend"

type instruments struct {
	repositoryOps      metric.Int64Counter
	tokenValidations   metric.Int64Counter
	rateLimitDecisions metric.Int64Counter
	rateLimitRetry     metric.Float64Histogram
	sessionsIssued     metric.Int64Counter
	statsObservations  metric.Int64Counter
	requestLatency     metric.Int64Histogram
	activityPublish    metric.Int64Counter
	counterIncrements  metric.Int64Counter
	broadcastFanout    metric.Int64Counter
}

var (
	instrumentsOnce sync.Once
	appInstruments  instruments
)

// The global meter delegates to whichever provider InitMetrics installs,
// so instruments can be created before the runtime starts.
func loadInstruments() *instruments {
	instrumentsOnce.Do(func() {
		meter := otel.Meter(meterName)
		appInstruments.repositoryOps, _ = meter.Int64Counter("repository.operations")
		appInstruments.tokenValidations, _ = meter.Int64Counter("auth.token.validations")
		appInstruments.rateLimitDecisions, _ = meter.Int64Counter("http.rate_limit.decisions")
		appInstruments.rateLimitRetry, _ = meter.Float64Histogram("http.rate_limit.retry_after", metric.WithUnit("s"))
		appInstruments.sessionsIssued, _ = meter.Int64Counter("sessions.issued")
		appInstruments.statsObservations, _ = meter.Int64Counter("stats.observations")
		appInstruments.requestLatency, _ = meter.Int64Histogram("stats.request.duration", metric.WithUnit("ms"))
		appInstruments.activityPublish, _ = meter.Int64Counter("activity.publish")
		appInstruments.counterIncrements, _ = meter.Int64Counter("counter.increments")
		appInstruments.broadcastFanout, _ = meter.Int64Counter("realtime.fanout")
	})
	return &appInstruments
}

func RecordRepositoryOperation(ctx context.Context, repo, op, outcome string) {
	m := loadInstruments()
	if m.repositoryOps == nil {
		return
	}
	m.repositoryOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("repo", repo),
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

func RecordAccessTokenValidation(ctx context.Context, outcome, source string) {
	m := loadInstruments()
	if m.tokenValidations == nil {
		return
	}
	m.tokenValidations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("source", source),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode, keyType string) {
	m := loadInstruments()
	if m.rateLimitDecisions == nil {
		return
	}
	m.rateLimitDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
		attribute.String("mode", mode),
		attribute.String("key_type", keyType),
	))
}

func RecordRateLimitRetryAfter(ctx context.Context, scope, reason string, retryAfter time.Duration) {
	m := loadInstruments()
	if m.rateLimitRetry == nil {
		return
	}
	m.rateLimitRetry.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("reason", reason),
	))
}

func RecordSessionIssued(ctx context.Context, outcome string, attempts int) {
	m := loadInstruments()
	if m.sessionsIssued == nil {
		return
	}
	m.sessionsIssued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("attempts", attempts),
	))
}

// RecordStatsObservation counts stats writes by kind (request, task_created,
// task_completed, note_created).
func RecordStatsObservation(ctx context.Context, kind, outcome string) {
	m := loadInstruments()
	if m.statsObservations == nil {
		return
	}
	m.statsObservations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func RecordObservedRequestLatency(ctx context.Context, elapsedMs int64, succeeded bool) {
	m := loadInstruments()
	if m.requestLatency == nil {
		return
	}
	m.requestLatency.Record(ctx, elapsedMs, metric.WithAttributes(attribute.Bool("succeeded", succeeded)))
}

func RecordActivityPublish(ctx context.Context, stage, outcome string) {
	m := loadInstruments()
	if m.activityPublish == nil {
		return
	}
	m.activityPublish.Add(ctx, 1, metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("outcome", outcome),
	))
}

func RecordCounterIncrement(ctx context.Context, backend, outcome string) {
	m := loadInstruments()
	if m.counterIncrements == nil {
		return
	}
	m.counterIncrements.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("outcome", outcome),
	))
}

func RecordBroadcastFanout(ctx context.Context, driver, outcome string, delivered int) {
	m := loadInstruments()
	if m.broadcastFanout == nil {
		return
	}
	m.broadcastFanout.Add(ctx, int64(delivered), metric.WithAttributes(
		attribute.String("driver", driver),
		attribute.String("outcome", outcome),
	))
}
