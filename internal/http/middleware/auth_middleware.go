package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/http/response"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

type contextKey string

const (
	IdentityContextKey contextKey = "identity"
)

func AuthMiddleware(authenticator service.TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := BearerToken(r)
			if raw == "" {
				observability.RecordAccessTokenValidation(r.Context(), "missing", "none")
				response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "missing access token", nil)
				return
			}
			identity, err := authenticator.Authenticate(r.Context(), raw)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrInactiveSession):
					response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "session is not active", nil)
				case errors.Is(err, service.ErrExpiredCredentials):
					response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "token has expired", nil)
				case errors.Is(err, service.ErrInvalidCredentials):
					response.Error(w, r, http.StatusUnauthorized, response.CodeUnauthorized, "invalid access token", nil)
				default:
					slog.ErrorContext(r.Context(), "authenticate request failed", "error", err)
					response.Error(w, r, http.StatusInternalServerError, response.CodeInternal, "could not authenticate request", nil)
				}
				return
			}
			markIdentity(r.Context(), *identity)
			ctx := context.WithValue(r.Context(), IdentityContextKey, *identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) < 7 || !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(domain.Identity)
	return identity, ok
}
