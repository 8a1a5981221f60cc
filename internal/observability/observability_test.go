package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sandeepkv93/api-playground-backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:            "info",
		LogFormat:           "json",
		OTELServiceName:     "api-playground-test",
		OTELEnvironment:     "test",
		OTELMetricsExporter: "none",
	}
}

func TestNewLoggerAddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger, lp, err := NewLogger(context.Background(), testConfig(), &buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if lp != nil {
		t.Fatal("expected no logger provider when otlp logs are disabled")
	}

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "inside span", "k", "v")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if rec["trace_id"] != span.SpanContext().TraceID().String() || rec["span_id"] == "" || rec["k"] != "v" {
		t.Fatalf("expected trace correlation, got %v", rec)
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.LogLevel = "warn"
	cfg.LogFormat = "text"
	logger, _, err := NewLogger(context.Background(), cfg, &buf)
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hidden")
	logger.With("component", "test").Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown") || !strings.Contains(out, "component=test") {
		t.Fatalf("unexpected output %q", out)
	}
}

type captureHandler struct {
	level   slog.Level
	records *[]string
}

func (c captureHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= c.level }
func (c captureHandler) Handle(_ context.Context, r slog.Record) error {
	*c.records = append(*c.records, r.Message)
	return nil
}
func (c captureHandler) WithAttrs([]slog.Attr) slog.Handler { return c }
func (c captureHandler) WithGroup(string) slog.Handler      { return c }

func TestFanoutHandlerHonoursEachLevel(t *testing.T) {
	var debugSeen, errorSeen []string
	logger := slog.New(fanoutHandler{handlers: []slog.Handler{
		captureHandler{level: slog.LevelDebug, records: &debugSeen},
		captureHandler{level: slog.LevelError, records: &errorSeen},
	}})
	logger.Debug("d")
	logger.Error("e")
	if len(debugSeen) != 2 || len(errorSeen) != 1 || errorSeen[0] != "e" {
		t.Fatalf("unexpected fanout debug=%v error=%v", debugSeen, errorSeen)
	}
}

func TestInitMetricsPrometheusServesExposition(t *testing.T) {
	cfg := testConfig()
	cfg.OTELMetricsExporter = "prometheus"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mp, handler, err := InitMetrics(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("init metrics: %v", err)
	}
	defer func() { _ = mp.Shutdown(context.Background()) }()
	if handler == nil {
		t.Fatal("expected a metrics handler for the prometheus exporter")
	}

	counter, err := mp.Meter("test").Int64Counter("sample.hits")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	if rr.Code != http.StatusOK || !strings.Contains(body, "sample_hits_total") || !strings.Contains(body, "go_goroutines") {
		t.Fatalf("unexpected exposition status=%d body=%s", rr.Code, body)
	}
}

func TestInitMetricsDisabledHasNoHandler(t *testing.T) {
	mp, handler, err := InitMetrics(context.Background(), testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("init metrics: %v", err)
	}
	defer func() { _ = mp.Shutdown(context.Background()) }()
	if handler != nil {
		t.Fatal("expected no handler when metrics are disabled")
	}
}

func TestAuditIncludesEventAndRequest(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	Audit(httptest.NewRequest(http.MethodPost, "/api/tasks", nil), "task.created", "task_id", 4)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode audit line: %v", err)
	}
	if rec["event"] != "task.created" || rec["path"] != "/api/tasks" || rec["task_id"] != float64(4) {
		t.Fatalf("unexpected audit record %v", rec)
	}
}
