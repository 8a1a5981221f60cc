package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
)

// IsSuccessStatus classifies a response for the success rate.
func IsSuccessStatus(status int) bool {
	return status >= 200 && status < 400
}

// StatsView is the /api/stats/me projection including derived metrics.
type StatsView struct {
	Username            string     `json:"username"`
	RequestsMade        int64      `json:"requests_made"`
	SuccessfulRequests  int64      `json:"successful_requests"`
	TotalResponseTimeMs int64      `json:"total_response_time_ms"`
	AverageResponseTime int64      `json:"average_response_time"`
	SuccessRate         float64    `json:"success_rate"`
	TasksCreated        int64      `json:"tasks_created"`
	TasksCompleted      int64      `json:"tasks_completed"`
	NotesCreated        int64      `json:"notes_created"`
	Rank                string     `json:"rank"`
	Badges              []string   `json:"badges"`
	Points              int64      `json:"points"`
	LastActivity        *time.Time `json:"last_activity"`
}

func NewStatsView(s domain.UserStats) StatsView {
	badges := []string(s.Badges)
	if badges == nil {
		badges = []string{}
	}
	rank := s.Rank
	if rank == "" {
		rank = domain.DefaultRank
	}
	view := StatsView{
		Username:            s.Username,
		RequestsMade:        s.RequestsMade,
		SuccessfulRequests:  s.SuccessfulRequests,
		TotalResponseTimeMs: s.TotalResponseTimeMs,
		AverageResponseTime: AverageResponseTime(s),
		SuccessRate:         SuccessRate(s),
		TasksCreated:        s.TasksCreated,
		TasksCompleted:      s.TasksCompleted,
		NotesCreated:        s.NotesCreated,
		Rank:                rank,
		Badges:              badges,
		Points:              RankPoints(s),
	}
	if !s.LastActivity.IsZero() {
		at := s.LastActivity
		view.LastActivity = &at
	}
	return view
}

type StatsService struct {
	statsRepo repository.UserStatsRepository
	now       func() time.Time
}

func NewStatsService(statsRepo repository.UserStatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo, now: time.Now}
}

func (s *StatsService) ObserveRequest(ctx context.Context, username string, succeeded bool, elapsedMs int64) error {
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	delta := domain.StatsDelta{RequestsMade: 1, TotalResponseTimeMs: elapsedMs}
	if succeeded {
		delta.SuccessfulRequests = 1
	}
	if err := s.observe(ctx, "request", username, delta); err != nil {
		return err
	}
	observability.RecordObservedRequestLatency(ctx, elapsedMs, succeeded)
	return nil
}

func (s *StatsService) ObserveTaskCreated(ctx context.Context, username string) error {
	return s.observe(ctx, "task_created", username, domain.StatsDelta{TasksCreated: 1})
}

// ObserveTaskCompleted must only be called on an incomplete to complete
// transition.
func (s *StatsService) ObserveTaskCompleted(ctx context.Context, username string) error {
	return s.observe(ctx, "task_completed", username, domain.StatsDelta{TasksCompleted: 1})
}

func (s *StatsService) ObserveNoteCreated(ctx context.Context, username string) error {
	return s.observe(ctx, "note_created", username, domain.StatsDelta{NotesCreated: 1})
}

func (s *StatsService) observe(ctx context.Context, kind, username string, delta domain.StatsDelta) error {
	if username == "" {
		observability.RecordStatsObservation(ctx, kind, "skipped")
		return nil
	}
	if _, err := s.statsRepo.Increment(ctx, username, delta, s.now().UTC()); err != nil {
		observability.RecordStatsObservation(ctx, kind, "error")
		return fmt.Errorf("observe %s: %w", kind, err)
	}
	observability.RecordStatsObservation(ctx, kind, "success")
	return nil
}

func (s *StatsService) GetStats(ctx context.Context, username string) (*domain.UserStats, error) {
	return s.statsRepo.FindByUsername(ctx, username)
}

// View returns the caller's projection, falling back to an all-zero one for
// users that have not been observed yet.
func (s *StatsService) View(ctx context.Context, username string) (StatsView, error) {
	stats, err := s.GetStats(ctx, username)
	if errors.Is(err, repository.ErrUserStatsNotFound) {
		return NewStatsView(domain.UserStats{Username: username}), nil
	}
	if err != nil {
		return StatsView{}, err
	}
	return NewStatsView(*stats), nil
}
