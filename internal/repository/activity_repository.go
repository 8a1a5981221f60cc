package repository

import (
	"context"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"

	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(ctx context.Context, a *domain.Activity) error
	// ListRecent returns the newest activities first. A limit <= 0 returns
	// every row.
	ListRecent(ctx context.Context, limit int) ([]domain.Activity, error)
	ListRecentByUsername(ctx context.Context, username string, limit int) ([]domain.Activity, error)
}

type GormActivityRepository struct{ db *gorm.DB }

func NewActivityRepository(db *gorm.DB) ActivityRepository { return &GormActivityRepository{db: db} }

func (r *GormActivityRepository) Create(ctx context.Context, a *domain.Activity) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "activity", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "activity", "create", "success")
	return nil
}

func (r *GormActivityRepository) ListRecent(ctx context.Context, limit int) ([]domain.Activity, error) {
	return r.list(ctx, "list_recent", r.db.WithContext(ctx), limit)
}

func (r *GormActivityRepository) ListRecentByUsername(ctx context.Context, username string, limit int) ([]domain.Activity, error) {
	return r.list(ctx, "list_recent_by_username", r.db.WithContext(ctx).Where("username = ?", username), limit)
}

func (r *GormActivityRepository) list(ctx context.Context, op string, q *gorm.DB, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	q = q.Order("timestamp DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&activities).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "activity", op, "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "activity", op, "success")
	return activities, nil
}
