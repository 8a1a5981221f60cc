package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CounterStore interface {
	Get(ctx context.Context) (domain.GlobalCounter, error)
	Increment(ctx context.Context, at time.Time) (domain.GlobalCounter, error)
	Backend() string
}

type GormCounterStore struct{ db *gorm.DB }

func NewGormCounterStore(db *gorm.DB) *GormCounterStore { return &GormCounterStore{db: db} }

func (s *GormCounterStore) Backend() string { return "db" }

func (s *GormCounterStore) Get(ctx context.Context) (domain.GlobalCounter, error) {
	var c domain.GlobalCounter
	err := s.db.WithContext(ctx).Where("id = ?", domain.GlobalCounterID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "counter", "get", "not_found")
			return domain.GlobalCounter{ID: domain.GlobalCounterID}, nil
		}
		observability.RecordRepositoryOperation(ctx, "counter", "get", "error")
		return domain.GlobalCounter{}, err
	}
	observability.RecordRepositoryOperation(ctx, "counter", "get", "success")
	return c, nil
}

func (s *GormCounterStore) Increment(ctx context.Context, at time.Time) (domain.GlobalCounter, error) {
	var c domain.GlobalCounter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := domain.GlobalCounter{ID: domain.GlobalCounterID, LastUpdated: at}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.GlobalCounter{}).Where("id = ?", domain.GlobalCounterID).Updates(map[string]any{
			"value":        gorm.Expr("value + 1"),
			"last_updated": at,
		}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", domain.GlobalCounterID).First(&c).Error
	})
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "counter", "increment", "error")
		return domain.GlobalCounter{}, err
	}
	observability.RecordRepositoryOperation(ctx, "counter", "increment", "success")
	return c, nil
}

// RedisCounterStore keeps the counter in two keys: an INCR integer and the
// last update timestamp.
type RedisCounterStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCounterStore(client redis.UniversalClient, prefix string) *RedisCounterStore {
	if prefix == "" {
		prefix = "playground"
	}
	return &RedisCounterStore{client: client, prefix: prefix}
}

func (s *RedisCounterStore) Backend() string { return "redis" }

func (s *RedisCounterStore) valueKey() string   { return s.prefix + ":counter:value" }
func (s *RedisCounterStore) updatedKey() string { return s.prefix + ":counter:updated_at" }

func (s *RedisCounterStore) Get(ctx context.Context) (domain.GlobalCounter, error) {
	values, err := s.client.MGet(ctx, s.valueKey(), s.updatedKey()).Result()
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "counter_redis", "get", "error")
		return domain.GlobalCounter{}, err
	}
	c, err := decodeRedisCounter(values)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "counter_redis", "get", "error")
		return domain.GlobalCounter{}, err
	}
	observability.RecordRepositoryOperation(ctx, "counter_redis", "get", "success")
	return c, nil
}

func (s *RedisCounterStore) Increment(ctx context.Context, at time.Time) (domain.GlobalCounter, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, s.valueKey())
	pipe.Set(ctx, s.updatedKey(), at.UTC().Format(time.RFC3339Nano), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		observability.RecordRepositoryOperation(ctx, "counter_redis", "increment", "error")
		return domain.GlobalCounter{}, err
	}
	observability.RecordRepositoryOperation(ctx, "counter_redis", "increment", "success")
	return domain.GlobalCounter{ID: domain.GlobalCounterID, Value: incr.Val(), LastUpdated: at.UTC()}, nil
}

func decodeRedisCounter(values []any) (domain.GlobalCounter, error) {
	c := domain.GlobalCounter{ID: domain.GlobalCounterID}
	if len(values) != 2 {
		return c, fmt.Errorf("unexpected counter payload size %d", len(values))
	}
	if raw, ok := values[0].(string); ok {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c, fmt.Errorf("parse counter value: %w", err)
		}
		c.Value = v
	}
	if raw, ok := values[1].(string); ok {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return c, fmt.Errorf("parse counter timestamp: %w", err)
		}
		c.LastUpdated = ts
	}
	return c, nil
}
