package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrUserStatsNotFound = errors.New("user stats not found")

// RankFunc derives rank and badges from a freshly incremented row.
type RankFunc func(stats domain.UserStats) (string, []string)

type UserStatsRepository interface {
	// Increment creates the row for username if missing and applies delta
	// atomically. The returned row reflects the state after the write.
	Increment(ctx context.Context, username string, delta domain.StatsDelta, at time.Time) (*domain.UserStats, error)
	FindByUsername(ctx context.Context, username string) (*domain.UserStats, error)
}

type GormUserStatsRepository struct {
	db   *gorm.DB
	rank RankFunc
}

func NewUserStatsRepository(db *gorm.DB, rank RankFunc) UserStatsRepository {
	return &GormUserStatsRepository{db: db, rank: rank}
}

func (r *GormUserStatsRepository) Increment(ctx context.Context, username string, delta domain.StatsDelta, at time.Time) (*domain.UserStats, error) {
	var out domain.UserStats
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := domain.UserStats{
			Username:     username,
			Rank:         domain.DefaultRank,
			Badges:       datatypes.JSONSlice[string]{},
			CreatedAt:    at,
			LastActivity: at,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return err
		}

		// Column arithmetic in the UPDATE keeps concurrent increments from
		// losing writes; the row lock also orders the rank recompute below.
		updates := map[string]any{
			"requests_made":          gorm.Expr("requests_made + ?", delta.RequestsMade),
			"successful_requests":    gorm.Expr("successful_requests + ?", delta.SuccessfulRequests),
			"total_response_time_ms": gorm.Expr("total_response_time_ms + ?", delta.TotalResponseTimeMs),
			"tasks_created":          gorm.Expr("tasks_created + ?", delta.TasksCreated),
			"tasks_completed":        gorm.Expr("tasks_completed + ?", delta.TasksCompleted),
			"notes_created":          gorm.Expr("notes_created + ?", delta.NotesCreated),
			"last_activity":          at,
		}
		if err := tx.Model(&domain.UserStats{}).Where("username = ?", username).Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.Where("username = ?", username).First(&out).Error; err != nil {
			return err
		}
		if r.rank == nil {
			return nil
		}
		rank, badges := r.rank(out)
		out.Rank = rank
		out.Badges = datatypes.JSONSlice[string](badges)
		return tx.Model(&domain.UserStats{}).Where("id = ?", out.ID).Updates(map[string]any{
			"rank":   out.Rank,
			"badges": out.Badges,
		}).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "user_stats", "increment", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "user_stats", "increment", "success")
	return &out, nil
}

func (r *GormUserStatsRepository) FindByUsername(ctx context.Context, username string) (*domain.UserStats, error) {
	var s domain.UserStats
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "user_stats", "find_by_username", "not_found")
			return nil, ErrUserStatsNotFound
		}
		observability.RecordRepositoryOperation(ctx, "user_stats", "find_by_username", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "user_stats", "find_by_username", "success")
	return &s, nil
}
