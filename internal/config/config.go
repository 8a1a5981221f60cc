package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	DBDriver    string
	DatabaseURL string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	SessionTTL time.Duration

	BroadcastDriver        string
	ActivityTopic          string
	CounterTopic           string
	MercureHubURL          string
	MercurePublisherJWTKey string

	CounterBackend       string
	NegativeCacheBackend string
	NegativeCacheTTL     time.Duration
	ActivityListLimit    int

	APIRateLimitRPM      int
	RateLimitBackend     string
	RateLimitFailureMode string
	CORSOrigins          []string

	LogLevel  string
	LogFormat string

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELMetricsExporter       string
	OTELMetricsExportInterval time.Duration

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration
	ReadinessTimeout             time.Duration
	ReadinessCacheTTL            time.Duration
}

var defaults = map[string]any{
	"APP_ENV":                        "development",
	"HTTP_ADDR":                      ":8080",
	"DB_DRIVER":                      "sqlite",
	"DATABASE_URL":                   "file:playground.db?cache=shared&_busy_timeout=5000",
	"REDIS_ADDR":                     "",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"REDIS_KEY_PREFIX":               "playground",
	"SESSION_TTL":                    "24h",
	"BROADCAST_DRIVER":               "local",
	"ACTIVITY_TOPIC":                 "http://localhost/topics/activities",
	"COUNTER_TOPIC":                  "http://localhost/topics/counter",
	"MERCURE_HUB_URL":                "",
	"MERCURE_PUBLISHER_JWT_KEY":      "",
	"COUNTER_BACKEND":                "db",
	"NEGATIVE_CACHE_BACKEND":         "memory",
	"NEGATIVE_CACHE_TTL":             "30s",
	"ACTIVITY_LIST_LIMIT":            50,
	"API_RATE_LIMIT_RPM":             600,
	"RATE_LIMIT_BACKEND":             "local",
	"RATE_LIMIT_FAILURE_MODE":        "fail_open",
	"CORS_ORIGINS":                   "http://localhost:3000",
	"LOG_LEVEL":                      "info",
	"LOG_FORMAT":                     "json",
	"OTEL_SERVICE_NAME":              "api-playground-backend",
	"OTEL_ENVIRONMENT":               "development",
	"OTEL_EXPORTER_OTLP_ENDPOINT":    "localhost:4317",
	"OTEL_EXPORTER_OTLP_INSECURE":    true,
	"OTEL_TRACING_ENABLED":           false,
	"OTEL_LOGS_ENABLED":              false,
	"OTEL_METRICS_EXPORTER":          "none",
	"OTEL_METRICS_EXPORT_INTERVAL":   "15s",
	"SHUTDOWN_TIMEOUT":               "20s",
	"SHUTDOWN_HTTP_DRAIN_TIMEOUT":    "10s",
	"SHUTDOWN_OBSERVABILITY_TIMEOUT": "5s",
	"READINESS_TIMEOUT":              "2s",
	"READINESS_CACHE_TTL":            "1s",
}

// Load reads .env (existing environment wins), optional config files and
// environment variables, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("load .env: %w", err)
		recordConfigValidationEvent(context.Background(), "unknown", "error", classifyConfigLoadError(err))
		return nil, err
	}
	cfg, err := LoadFrom(viper.New())
	profile := "unknown"
	if cfg != nil {
		profile = cfg.AppEnv
	}
	if err != nil {
		recordConfigValidationEvent(context.Background(), profile, "error", classifyConfigLoadError(err))
		return nil, err
	}
	recordConfigValidationEvent(context.Background(), profile, "success", "none")
	recordBackendSelection(context.Background(), cfg)
	return cfg, nil
}

// LoadFrom builds a Config from v. Tests pass a fresh viper instance with
// explicit overrides.
func LoadFrom(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	v.SetConfigName("config." + v.GetString("APP_ENV"))
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		AppEnv:                   strings.TrimSpace(strings.ToLower(v.GetString("APP_ENV"))),
		HTTPAddr:                 v.GetString("HTTP_ADDR"),
		DBDriver:                 strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:              v.GetString("DATABASE_URL"),
		RedisAddr:                v.GetString("REDIS_ADDR"),
		RedisPassword:            v.GetString("REDIS_PASSWORD"),
		RedisDB:                  v.GetInt("REDIS_DB"),
		RedisKeyPrefix:           v.GetString("REDIS_KEY_PREFIX"),
		BroadcastDriver:          strings.ToLower(v.GetString("BROADCAST_DRIVER")),
		ActivityTopic:            v.GetString("ACTIVITY_TOPIC"),
		CounterTopic:             v.GetString("COUNTER_TOPIC"),
		MercureHubURL:            v.GetString("MERCURE_HUB_URL"),
		MercurePublisherJWTKey:   v.GetString("MERCURE_PUBLISHER_JWT_KEY"),
		CounterBackend:           strings.ToLower(v.GetString("COUNTER_BACKEND")),
		NegativeCacheBackend:     strings.ToLower(v.GetString("NEGATIVE_CACHE_BACKEND")),
		ActivityListLimit:        v.GetInt("ACTIVITY_LIST_LIMIT"),
		APIRateLimitRPM:          v.GetInt("API_RATE_LIMIT_RPM"),
		RateLimitBackend:         strings.ToLower(v.GetString("RATE_LIMIT_BACKEND")),
		RateLimitFailureMode:     strings.ToLower(v.GetString("RATE_LIMIT_FAILURE_MODE")),
		CORSOrigins:              splitList(v.GetString("CORS_ORIGINS")),
		LogLevel:                 strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:                strings.ToLower(v.GetString("LOG_FORMAT")),
		OTELServiceName:          v.GetString("OTEL_SERVICE_NAME"),
		OTELEnvironment:          v.GetString("OTEL_ENVIRONMENT"),
		OTELExporterOTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTELExporterOTLPInsecure: v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		OTELTracingEnabled:       v.GetBool("OTEL_TRACING_ENABLED"),
		OTELLogsEnabled:          v.GetBool("OTEL_LOGS_ENABLED"),
		OTELMetricsExporter:      strings.ToLower(v.GetString("OTEL_METRICS_EXPORTER")),
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SESSION_TTL", &cfg.SessionTTL},
		{"NEGATIVE_CACHE_TTL", &cfg.NegativeCacheTTL},
		{"OTEL_METRICS_EXPORT_INTERVAL", &cfg.OTELMetricsExportInterval},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", &cfg.ShutdownObservabilityTimeout},
		{"READINESS_TIMEOUT", &cfg.ReadinessTimeout},
		{"READINESS_CACHE_TTL", &cfg.ReadinessCacheTTL},
	}
	for _, d := range durations {
		parsed, err := time.ParseDuration(strings.TrimSpace(v.GetString(d.key)))
		if err != nil {
			return cfg, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.HTTPAddr) == "" {
		problems = append(problems, "HTTP_ADDR is required")
	}
	if !oneOf(c.DBDriver, "sqlite", "postgres") {
		problems = append(problems, "DB_DRIVER must be sqlite or postgres")
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}
	if !oneOf(c.BroadcastDriver, "local", "redis", "mercure") {
		problems = append(problems, "BROADCAST_DRIVER must be local, redis or mercure")
	}
	if c.BroadcastDriver == "mercure" {
		if strings.TrimSpace(c.MercureHubURL) == "" {
			problems = append(problems, "MERCURE_HUB_URL is required for the mercure driver")
		}
		if len(c.MercurePublisherJWTKey) < 32 {
			problems = append(problems, "MERCURE_PUBLISHER_JWT_KEY must be at least 32 characters")
		}
	}
	if strings.TrimSpace(c.ActivityTopic) == "" || strings.TrimSpace(c.CounterTopic) == "" {
		problems = append(problems, "ACTIVITY_TOPIC and COUNTER_TOPIC are required")
	}
	if !oneOf(c.CounterBackend, "db", "redis") {
		problems = append(problems, "COUNTER_BACKEND must be db or redis")
	}
	if !oneOf(c.NegativeCacheBackend, "none", "memory", "redis") {
		problems = append(problems, "NEGATIVE_CACHE_BACKEND must be none, memory or redis")
	}
	if !oneOf(c.RateLimitBackend, "local", "redis") {
		problems = append(problems, "RATE_LIMIT_BACKEND must be local or redis")
	}
	if !oneOf(c.RateLimitFailureMode, "fail_open", "fail_closed") {
		problems = append(problems, "RATE_LIMIT_FAILURE_MODE must be fail_open or fail_closed")
	}
	if c.needsRedis() && strings.TrimSpace(c.RedisAddr) == "" {
		problems = append(problems, "REDIS_ADDR is required when a redis backend is selected")
	}
	if c.APIRateLimitRPM <= 0 {
		problems = append(problems, "API_RATE_LIMIT_RPM must be positive")
	}
	if c.ActivityListLimit <= 0 || c.ActivityListLimit > 500 {
		problems = append(problems, "ACTIVITY_LIST_LIMIT must be between 1 and 500")
	}
	if !oneOf(c.LogLevel, "debug", "info", "warn", "error") {
		problems = append(problems, "LOG_LEVEL must be debug, info, warn or error")
	}
	if !oneOf(c.LogFormat, "json", "text") {
		problems = append(problems, "LOG_FORMAT must be json or text")
	}
	if !oneOf(c.OTELMetricsExporter, "none", "otlp", "prometheus") {
		problems = append(problems, "OTEL_METRICS_EXPORTER must be none, otlp or prometheus")
	}
	if c.OTELMetricsExporter == "otlp" && c.OTELMetricsExportInterval <= 0 {
		problems = append(problems, "OTEL_METRICS_EXPORT_INTERVAL must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		problems = append(problems, "SHUTDOWN_TIMEOUT must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("validate config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// RedisEnabled reports whether any component needs a Redis client.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RedisAddr) != ""
}

func (c *Config) needsRedis() bool {
	return c.BroadcastDriver == "redis" ||
		c.CounterBackend == "redis" ||
		c.NegativeCacheBackend == "redis" ||
		c.RateLimitBackend == "redis"
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
