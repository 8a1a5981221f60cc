package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
	"github.com/sandeepkv93/api-playground-backend/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid token")
	ErrInactiveSession    = errors.New("session is not active")
	ErrExpiredCredentials = errors.New("token has expired")
)

const unknownTokenNamespace = "auth.token.unknown"

// IsAuthError reports whether err is one of the credential failures that map
// to 401.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInactiveSession) ||
		errors.Is(err, ErrExpiredCredentials)
}

type Authenticator struct {
	sessionRepo repository.SessionRepository
	negative    NegativeLookupCacheStore
	negativeTTL time.Duration
	now         func() time.Time
}

func NewAuthenticator(sessionRepo repository.SessionRepository, negative NegativeLookupCacheStore, negativeTTL time.Duration) *Authenticator {
	if negative == nil {
		negative = NewNoopNegativeLookupCacheStore()
	}
	return &Authenticator{
		sessionRepo: sessionRepo,
		negative:    negative,
		negativeTTL: negativeTTL,
		now:         time.Now,
	}
}

// Authenticate resolves a bearer token to the caller identity with a single
// lookup by token.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		observability.RecordAccessTokenValidation(ctx, "missing", "header")
		return nil, ErrInvalidCredentials
	}
	fingerprint := security.FingerprintToken(token)
	if hit, err := a.negative.Get(ctx, unknownTokenNamespace, fingerprint); err == nil && hit {
		observability.RecordAccessTokenValidation(ctx, "invalid", "negative_cache")
		return nil, ErrInvalidCredentials
	}

	session, err := a.sessionRepo.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrSessionNotFound) {
		_ = a.negative.Set(ctx, unknownTokenNamespace, fingerprint, a.negativeTTL)
		observability.RecordAccessTokenValidation(ctx, "invalid", "database")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		observability.RecordAccessTokenValidation(ctx, "error", "database")
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if !session.IsActive {
		observability.RecordAccessTokenValidation(ctx, "inactive", "database")
		return nil, ErrInactiveSession
	}
	if session.ExpireAt.Before(a.now()) {
		observability.RecordAccessTokenValidation(ctx, "expired", "database")
		return nil, ErrExpiredCredentials
	}
	observability.RecordAccessTokenValidation(ctx, "success", "database")
	return &domain.Identity{SessionID: session.ID, Username: session.Username, Token: session.Token}, nil
}
