package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

type stubAuthenticator struct {
	identities map[string]domain.Identity
	errs       map[string]error
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	if err, ok := s.errs[token]; ok {
		return nil, err
	}
	if id, ok := s.identities[token]; ok {
		return &id, nil
	}
	return nil, service.ErrInvalidCredentials
}

func newStubAuthenticator() stubAuthenticator {
	return stubAuthenticator{
		identities: map[string]domain.Identity{"good": {SessionID: 1, Username: "SwiftFox100", Token: "good"}},
		errs: map[string]error{
			"inactive": service.ErrInactiveSession,
			"expired":  service.ErrExpiredCredentials,
			"broken":   errors.New("db down"),
		},
	}
}

func TestAuthMiddlewareMissingTokenReturnsUnauthorized(t *testing.T) {
	h := AuthMiddleware(newStubAuthenticator())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing token, got %d", rr.Code)
	}
}

func TestAuthMiddlewareValidBearerTokenPasses(t *testing.T) {
	var got domain.Identity
	h := AuthMiddleware(newStubAuthenticator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "bearer good")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for valid token, got %d", rr.Code)
	}
	if got.Username != "SwiftFox100" {
		t.Fatalf("expected identity in context, got %+v", got)
	}
}

func TestAuthMiddlewareMapsCredentialErrors(t *testing.T) {
	h := AuthMiddleware(newStubAuthenticator())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	cases := map[string]struct {
		status  int
		message string
	}{
		"unknown":  {http.StatusUnauthorized, "invalid access token"},
		"inactive": {http.StatusUnauthorized, "session is not active"},
		"expired":  {http.StatusUnauthorized, "token has expired"},
		"broken":   {http.StatusInternalServerError, "could not authenticate request"},
	}
	for token, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want.status || !strings.Contains(rr.Body.String(), want.message) {
			t.Fatalf("%s: expected %d %q, got %d %s", token, want.status, want.message, rr.Code, rr.Body.String())
		}
	}
}

func TestBearerTokenParsing(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"Basic abc":    "",
		"Bearer":       "",
		"Bearer  tok ": "tok",
		"BEARER tok":   "tok",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := BearerToken(req); got != want {
			t.Fatalf("BearerToken(%q)=%q want %q", header, got, want)
		}
	}
}
