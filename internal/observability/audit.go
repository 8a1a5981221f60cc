package observability

import (
	"context"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Audit records a user-visible mutation made through an HTTP request.
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		"method", r.Method,
		"path", r.URL.Path,
	}
	AuditContext(r.Context(), event, append(base, attrs...)...)
}

// AuditContext is Audit for code paths without a request, such as the
// migrate command.
func AuditContext(ctx context.Context, event string, attrs ...any) {
	base := []any{"event", event}
	if id := chimiddleware.GetReqID(ctx); id != "" {
		base = append(base, "request_id", id)
	}
	slog.InfoContext(ctx, "audit", append(base, attrs...)...)
}
