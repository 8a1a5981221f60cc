package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"

	"gorm.io/gorm"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrDuplicateSession = errors.New("session username or token already exists")
)

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	FindByToken(ctx context.Context, token string) (*domain.Session, error)
	FindByID(ctx context.Context, id uint) (*domain.Session, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Deactivate(ctx context.Context, id uint) error
	CountIssued(ctx context.Context) (int64, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.RecordRepositoryOperation(ctx, "session", "create", "conflict")
			return ErrDuplicateSession
		}
		observability.RecordRepositoryOperation(ctx, "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	return r.findOne(ctx, "find_by_token", "token = ?", token)
}

func (r *GormSessionRepository) FindByID(ctx context.Context, id uint) (*domain.Session, error) {
	return r.findOne(ctx, "find_by_id", "id = ?", id)
}

func (r *GormSessionRepository) findOne(ctx context.Context, op, query string, arg any) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).Where(query, arg).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "session", op, "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(ctx, "session", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "session", op, "success")
	return &s, nil
}

func (r *GormSessionRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Session{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "exists_by_username", "error")
		return false, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "exists_by_username", "success")
	return count > 0, nil
}

func (r *GormSessionRepository) Deactivate(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "session", "deactivate", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			observability.RecordRepositoryOperation(ctx, "session", "deactivate", "not_found")
			return err
		}
	}
	observability.RecordRepositoryOperation(ctx, "session", "deactivate", "success")
	return nil
}

func (r *GormSessionRepository) CountIssued(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Session{}).Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "count_issued", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "count_issued", "success")
	return count, nil
}

func (r *GormSessionRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("is_active = ? AND expire_at > ?", true, now).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "count_active", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "count_active", "success")
	return count, nil
}
