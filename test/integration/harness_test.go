package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/sandeepkv93/api-playground-backend/internal/config"
	"github.com/sandeepkv93/api-playground-backend/internal/di"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

type sessionData struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

type statsData struct {
	Username            string   `json:"username"`
	RequestsMade        int64    `json:"requests_made"`
	SuccessfulRequests  int64    `json:"successful_requests"`
	AverageResponseTime int64    `json:"average_response_time"`
	TasksCreated        int64    `json:"tasks_created"`
	TasksCompleted      int64    `json:"tasks_completed"`
	NotesCreated        int64    `json:"notes_created"`
	Rank                string   `json:"rank"`
	Badges              []string `json:"badges"`
}

// newPlaygroundServer wires the full application from configuration and serves
// it on a loopback listener until the test ends.
func newPlaygroundServer(t *testing.T, overrides map[string]any) string {
	t.Helper()
	v := viper.New()
	v.Set("DB_DRIVER", "sqlite")
	v.Set("DATABASE_URL", "file:"+filepath.Join(t.TempDir(), "playground.db")+"?_busy_timeout=5000")
	v.Set("LOG_LEVEL", "error")
	v.Set("SHUTDOWN_HTTP_DRAIN_TIMEOUT", "2s")
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.LoadFrom(v)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	application, cleanup, err := di.InitializeApp(ctx, cfg, io.Discard)
	if err != nil {
		cancel()
		t.Fatalf("initialize app: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		cancel()
		cleanup()
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- application.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("serve returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("server did not stop in time")
		}
		cleanup()
	})

	baseURL := "http://" + ln.Addr().String()
	waitForLive(t, baseURL)
	return baseURL
}

func waitForLive(t *testing.T, baseURL string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get(baseURL + "/health/live")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("server at %s never became live: %v", baseURL, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, apiEnvelope) {
	t.Helper()
	resp, env, err := tryJSON(method, url, token, body)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp, env
}

// tryJSON is safe to call from goroutines other than the test's.
func tryJSON(method, url, token string, body any) (*http.Response, apiEnvelope, error) {
	var env apiEnvelope
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, env, err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, env, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, env, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNoContent {
		return resp, env, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp, env, fmt.Errorf("decode envelope (status %d): %w", resp.StatusCode, err)
	}
	return resp, env, nil
}

func decodeData(t *testing.T, env apiEnvelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", string(env.Data), err)
	}
}

func errorCode(env apiEnvelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func createSession(t *testing.T, baseURL string) sessionData {
	t.Helper()
	resp, env := doJSON(t, http.MethodPost, baseURL+"/api/sessions", "", nil)
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("create session: status=%d env=%+v", resp.StatusCode, env)
	}
	var s sessionData
	decodeData(t, env, &s)
	if s.Token == "" {
		t.Fatal("create session: empty token")
	}
	return s
}

func fetchStats(t *testing.T, baseURL, token string) statsData {
	t.Helper()
	resp, env := doJSON(t, http.MethodGet, baseURL+"/api/stats/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stats/me: status=%d code=%s", resp.StatusCode, errorCode(env))
	}
	var s statsData
	decodeData(t, env, &s)
	return s
}
