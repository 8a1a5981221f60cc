package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/realtime"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
)

// CounterView is the shared counter plus session population figures.
type CounterView struct {
	Value       int64      `json:"value"`
	TotalUsers  int64      `json:"total_users"`
	ActiveUsers int64      `json:"active_users"`
	LastUpdated *time.Time `json:"last_updated"`
}

type CounterService struct {
	store       repository.CounterStore
	sessionRepo repository.SessionRepository
	broadcaster realtime.Broadcaster
	topic       string
	publisher   *ActivityPublisher
	logger      *slog.Logger
	now         func() time.Time
}

func NewCounterService(
	store repository.CounterStore,
	sessionRepo repository.SessionRepository,
	broadcaster realtime.Broadcaster,
	topic string,
	publisher *ActivityPublisher,
	logger *slog.Logger,
) *CounterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CounterService{
		store:       store,
		sessionRepo: sessionRepo,
		broadcaster: broadcaster,
		topic:       topic,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *CounterService) Get(ctx context.Context) (CounterView, error) {
	counter, err := s.store.Get(ctx)
	if err != nil {
		return CounterView{}, fmt.Errorf("read counter: %w", err)
	}
	return s.view(ctx, counter)
}

// Increment bumps the counter, then pushes the new view to counter
// subscribers and records a counter.post activity. Only the increment itself
// can fail the call.
func (s *CounterService) Increment(ctx context.Context, identity domain.Identity) (CounterView, error) {
	counter, err := s.store.Increment(ctx, s.now().UTC())
	if err != nil {
		observability.RecordCounterIncrement(ctx, s.store.Backend(), "error")
		return CounterView{}, fmt.Errorf("increment counter: %w", err)
	}
	observability.RecordCounterIncrement(ctx, s.store.Backend(), "success")

	bg := context.WithoutCancel(ctx)
	view, err := s.view(bg, counter)
	if err != nil {
		return CounterView{}, err
	}
	s.broadcast(bg, view)

	if s.publisher != nil {
		activity := NewResourceActivity(identity.Username, "counter", "post", domain.GlobalCounterID, "global counter", map[string]any{
			"value": counter.Value,
		})
		activity.Message = fmt.Sprintf("incremented the global counter to %d", counter.Value)
		if _, err := s.publisher.Publish(bg, activity); err != nil {
			s.logger.ErrorContext(ctx, "counter activity publish failed", "op", "counter.increment", "error", err)
		}
	}
	return view, nil
}

func (s *CounterService) broadcast(ctx context.Context, view CounterView) {
	if s.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode counter broadcast failed", "error", err)
		return
	}
	if _, err := s.broadcaster.Broadcast(ctx, s.topic, payload); err != nil {
		s.logger.ErrorContext(ctx, "counter broadcast failed", "topic", s.topic, "error", err)
	}
}

func (s *CounterService) view(ctx context.Context, counter domain.GlobalCounter) (CounterView, error) {
	total, err := s.sessionRepo.CountIssued(ctx)
	if err != nil {
		return CounterView{}, fmt.Errorf("count sessions: %w", err)
	}
	active, err := s.sessionRepo.CountActive(ctx, s.now())
	if err != nil {
		return CounterView{}, fmt.Errorf("count active sessions: %w", err)
	}
	view := CounterView{Value: counter.Value, TotalUsers: total, ActiveUsers: active}
	if !counter.LastUpdated.IsZero() {
		at := counter.LastUpdated
		view.LastUpdated = &at
	}
	return view, nil
}
