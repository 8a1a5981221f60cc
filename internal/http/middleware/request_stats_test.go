package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type observation struct {
	username  string
	succeeded bool
	elapsedMs int64
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *recordingObserver) ObserveRequest(_ context.Context, username string, succeeded bool, elapsedMs int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observation{username, succeeded, elapsedMs})
	return nil
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.seen)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func statsChain(obs *recordingObserver, status int) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	return RequestStats(obs, quietLogger())(AuthMiddleware(newStubAuthenticator())(inner))
}

func serveWithToken(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRequestStatsObservesAuthenticatedAPIRequests(t *testing.T) {
	obs := &recordingObserver{}
	serveWithToken(statsChain(obs, http.StatusCreated), http.MethodPost, "/api/tasks", "good")
	serveWithToken(statsChain(obs, http.StatusNotFound), http.MethodGet, "/api/tasks/99", "good")

	if obs.count() != 2 {
		t.Fatalf("expected 2 observations, got %d", obs.count())
	}
	if !obs.seen[0].succeeded || obs.seen[0].username != "SwiftFox100" {
		t.Fatalf("unexpected first observation %+v", obs.seen[0])
	}
	if obs.seen[1].succeeded {
		t.Fatal("404 must be observed as a failure")
	}
}

func TestRequestStatsSkipsExcludedRequests(t *testing.T) {
	obs := &recordingObserver{}
	h := statsChain(obs, http.StatusOK)

	serveWithToken(h, http.MethodGet, "/api/stats/me", "good")
	serveWithToken(h, http.MethodGet, "/api/_profiler/abc", "good")
	serveWithToken(h, http.MethodGet, "/api/_wdt", "good")
	serveWithToken(h, http.MethodGet, "/health/live", "good")
	serveWithToken(h, http.MethodGet, "/api/tasks", "")
	serveWithToken(h, http.MethodGet, "/api/tasks", "unknown")

	if obs.count() != 0 {
		t.Fatalf("expected no observations, got %+v", obs.seen)
	}
}

func TestRequestStatsNestedInvocationObservesOnce(t *testing.T) {
	obs := &recordingObserver{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RequestStats(obs, quietLogger())
	h := mw(AuthMiddleware(newStubAuthenticator())(mw(mw(inner))))

	serveWithToken(h, http.MethodGet, "/api/tasks", "good")
	if obs.count() != 1 {
		t.Fatalf("expected exactly one observation, got %d", obs.count())
	}
}

func TestRequestStatsSkipsAbortedRequests(t *testing.T) {
	obs := &recordingObserver{}
	ctx, cancel := context.WithCancel(context.Background())
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		cancel()
		w.WriteHeader(http.StatusOK)
	})
	h := RequestStats(obs, quietLogger())(AuthMiddleware(newStubAuthenticator())(inner))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer good")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if obs.count() != 0 {
		t.Fatalf("aborted request must not be observed, got %+v", obs.seen)
	}
}

func TestRequestStatsImplicitStatusCountsAsSuccess(t *testing.T) {
	obs := &recordingObserver{}
	inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	h := RequestStats(obs, quietLogger())(AuthMiddleware(newStubAuthenticator())(inner))
	serveWithToken(h, http.MethodGet, "/api/tasks", "good")
	if obs.count() != 1 || !obs.seen[0].succeeded {
		t.Fatalf("expected one successful observation, got %+v", obs.seen)
	}
}

func FuzzObservablePath(f *testing.F) {
	for _, seed := range []string{"/api/tasks", "/api/stats/me", "/api/_wdt/x", "/health", "/_profiler"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, path string) {
		if ObservablePath(path) && (path == "/api/stats/me" || len(path) < 5 || path[:5] != "/api/") {
			t.Fatalf("path %q must not be observable", path)
		}
	})
}
