package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(newViper(nil))
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected 24h session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.DBDriver != "sqlite" || cfg.BroadcastDriver != "local" || cfg.CounterBackend != "db" {
		t.Fatalf("unexpected default backends: %+v", cfg)
	}
	if cfg.ActivityTopic != "http://localhost/topics/activities" {
		t.Fatalf("unexpected activity topic %q", cfg.ActivityTopic)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins %+v", cfg.CORSOrigins)
	}
	if cfg.RedisEnabled() {
		t.Fatal("expected redis disabled without REDIS_ADDR")
	}
}

func TestLoadFromEnvironmentOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("BROADCAST_DRIVER", "REDIS")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadFrom(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected 2h, got %s", cfg.SessionTTL)
	}
	if cfg.BroadcastDriver != "redis" {
		t.Fatalf("expected normalized redis driver, got %q", cfg.BroadcastDriver)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins %+v", cfg.CORSOrigins)
	}
}

func TestLoadFromRejectsInvalidDuration(t *testing.T) {
	_, err := LoadFrom(newViper(map[string]any{"SESSION_TTL": "tomorrow"}))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if got := classifyConfigLoadError(err); got != "parse" {
		t.Fatalf("expected parse class, got %q (%v)", got, err)
	}
}

func TestLoadFromAppliesProfileOverlay(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.staging.yaml"), []byte("SESSION_TTL: 3h\n"), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Chdir(dir)

	cfg, err := LoadFrom(newViper(map[string]any{"APP_ENV": "staging"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != 3*time.Hour {
		t.Fatalf("expected overlay session ttl 3h, got %s", cfg.SessionTTL)
	}
}

func TestLoadFromRejectsMalformedProfileOverlay(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.broken.yaml"), []byte("SESSION_TTL: [unterminated\n"), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Chdir(dir)

	_, err := LoadFrom(newViper(map[string]any{"APP_ENV": "broken"}))
	if err == nil || !strings.Contains(err.Error(), "read config file") {
		t.Fatalf("expected read config file error for malformed overlay, got %v", err)
	}
}

func TestValidateRequiresRedisForRedisBackends(t *testing.T) {
	cases := map[string]map[string]any{
		"broadcast":      {"BROADCAST_DRIVER": "redis"},
		"counter":        {"COUNTER_BACKEND": "redis"},
		"negative_cache": {"NEGATIVE_CACHE_BACKEND": "redis"},
		"rate_limit":     {"RATE_LIMIT_BACKEND": "redis"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(newViper(overrides))
			if err == nil || !strings.Contains(err.Error(), "REDIS_ADDR is required") {
				t.Fatalf("expected redis requirement error, got %v", err)
			}
			if got := classifyConfigLoadError(err); got != "validation" {
				t.Fatalf("expected validation class, got %q", got)
			}
		})
	}
}

func TestValidateMercureDriver(t *testing.T) {
	_, err := LoadFrom(newViper(map[string]any{
		"BROADCAST_DRIVER":          "mercure",
		"MERCURE_HUB_URL":           "http://mercure.test/.well-known/mercure",
		"MERCURE_PUBLISHER_JWT_KEY": "short",
	}))
	if err == nil || !strings.Contains(err.Error(), "MERCURE_PUBLISHER_JWT_KEY") {
		t.Fatalf("expected jwt key validation error, got %v", err)
	}

	cfg, err := LoadFrom(newViper(map[string]any{
		"BROADCAST_DRIVER":          "mercure",
		"MERCURE_HUB_URL":           "http://mercure.test/.well-known/mercure",
		"MERCURE_PUBLISHER_JWT_KEY": "abcdefghijklmnopqrstuvwxyz123456",
	}))
	if err != nil {
		t.Fatalf("expected valid mercure config: %v", err)
	}
	if cfg.BroadcastDriver != "mercure" {
		t.Fatalf("unexpected driver %q", cfg.BroadcastDriver)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for empty config")
	}
	msg := err.Error()
	for _, want := range []string{"HTTP_ADDR", "DB_DRIVER", "SESSION_TTL", "LOG_FORMAT"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %s in %q", want, msg)
		}
	}
}
