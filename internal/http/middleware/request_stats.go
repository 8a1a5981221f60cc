package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

type requestStatsKey struct{}

// requestStatsState lives for one top-level request and is shared with any
// nested RequestStats invocation.
type requestStatsState struct {
	start     time.Time
	processed atomic.Bool

	mu       sync.Mutex
	identity *domain.Identity
}

func (s *requestStatsState) setIdentity(identity domain.Identity) {
	s.mu.Lock()
	s.identity = &identity
	s.mu.Unlock()
}

func (s *requestStatsState) resolvedIdentity() (domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

func markIdentity(ctx context.Context, identity domain.Identity) {
	if state, ok := ctx.Value(requestStatsKey{}).(*requestStatsState); ok {
		state.setIdentity(identity)
	}
}

var unobservedPrefixes = []string{"/_profiler", "/_wdt", "/api/_profiler", "/api/_wdt"}

// ObservablePath reports whether requests to path feed per-user statistics.
func ObservablePath(path string) bool {
	for _, p := range unobservedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return false
		}
	}
	if !strings.HasPrefix(path, "/api/") {
		return false
	}
	return path != "/api/stats/me"
}

// RequestStats feeds the latency and outcome of every authenticated API
// request into the observer exactly once. Requests without a resolved
// identity and requests aborted by the client are skipped.
func RequestStats(observer service.RequestObserver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, nested := r.Context().Value(requestStatsKey{}).(*requestStatsState); nested {
				next.ServeHTTP(w, r)
				return
			}
			state := &requestStatsState{start: time.Now()}
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ctx := context.WithValue(r.Context(), requestStatsKey{}, state)
			next.ServeHTTP(ww, r.WithContext(ctx))
			finishRequestStats(ctx, r.URL.Path, ww.Status(), state, observer, logger)
		})
	}
}

func finishRequestStats(ctx context.Context, path string, status int, state *requestStatsState, observer service.RequestObserver, logger *slog.Logger) {
	if !ObservablePath(path) {
		return
	}
	if !state.processed.CompareAndSwap(false, true) {
		return
	}
	identity, ok := state.resolvedIdentity()
	if !ok {
		return
	}
	if ctx.Err() != nil {
		logger.DebugContext(ctx, "skipping stats for aborted request", "path", path)
		return
	}
	if status == 0 {
		status = http.StatusOK
	}
	elapsed := time.Since(state.start).Milliseconds()
	if err := observer.ObserveRequest(context.WithoutCancel(ctx), identity.Username, service.IsSuccessStatus(status), elapsed); err != nil {
		logger.ErrorContext(ctx, "request stats update failed", "op", "stats.observe_request", "username", identity.Username, "error", err)
	}
}
