package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
	"github.com/sandeepkv93/api-playground-backend/internal/security"
)

const DefaultSessionTTL = 24 * time.Hour

// SessionView is what the client sees after POST /api/sessions. The token is
// only ever revealed here.
type SessionView struct {
	ID       uint      `json:"id"`
	Username string    `json:"username"`
	Token    string    `json:"token,omitempty"`
	ExpireAt time.Time `json:"expire_at"`
	IsActive bool      `json:"is_active"`
}

func NewSessionView(s *domain.Session, withToken bool) SessionView {
	v := SessionView{ID: s.ID, Username: s.Username, ExpireAt: s.ExpireAt, IsActive: s.IsActive}
	if withToken {
		v.Token = s.Token
	}
	return v
}

type SessionService struct {
	sessionRepo repository.SessionRepository
	ttl         time.Duration
	logger      *slog.Logger
	now         func() time.Time
	intn        IntnFunc
	newToken    func() (string, error)
}

func NewSessionService(sessionRepo repository.SessionRepository, ttl time.Duration, logger *slog.Logger) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
		intn:        CryptoIntn,
		newToken:    security.NewSessionToken,
	}
}

// CreateSession issues a new anonymous session. Username collisions, whether
// seen by the pre-check or by the unique index on insert, are retried until a
// free name is found or ctx is done.
func (s *SessionService) CreateSession(ctx context.Context) (*domain.Session, error) {
	for attempts := 1; ; attempts++ {
		if err := ctx.Err(); err != nil {
			observability.RecordSessionIssued(ctx, "cancelled", attempts)
			return nil, err
		}
		username, err := GenerateUsername(s.intn)
		if err != nil {
			observability.RecordSessionIssued(ctx, "error", attempts)
			return nil, fmt.Errorf("generate username: %w", err)
		}
		exists, err := s.sessionRepo.ExistsByUsername(ctx, username)
		if err != nil {
			observability.RecordSessionIssued(ctx, "error", attempts)
			return nil, fmt.Errorf("check username: %w", err)
		}
		if exists {
			continue
		}
		token, err := s.newToken()
		if err != nil {
			observability.RecordSessionIssued(ctx, "error", attempts)
			return nil, fmt.Errorf("generate session token: %w", err)
		}
		now := s.now().UTC()
		session := &domain.Session{
			Username:  username,
			Token:     token,
			CreatedAt: now,
			ExpireAt:  now.Add(s.ttl),
			IsActive:  true,
		}
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			if errors.Is(err, repository.ErrDuplicateSession) {
				continue
			}
			observability.RecordSessionIssued(ctx, "error", attempts)
			return nil, fmt.Errorf("create session: %w", err)
		}
		observability.RecordSessionIssued(ctx, "success", attempts)
		if attempts > 1 {
			s.logger.DebugContext(ctx, "session username collided before issue", "attempts", attempts)
		}
		return session, nil
	}
}

// GetSessionForOwner hides sessions owned by someone else behind
// ErrSessionNotFound.
func (s *SessionService) GetSessionForOwner(ctx context.Context, identity domain.Identity, id uint) (*domain.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Username != identity.Username {
		return nil, repository.ErrSessionNotFound
	}
	return session, nil
}

// RevokeSession deactivates an owned session. Revoking twice is not an error.
func (s *SessionService) RevokeSession(ctx context.Context, identity domain.Identity, id uint) error {
	if _, err := s.GetSessionForOwner(ctx, identity, id); err != nil {
		return err
	}
	if err := s.sessionRepo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
