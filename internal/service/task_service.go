package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
)

const (
	taskTitleMax       = 255
	taskDescriptionMax = 1000
)

// TaskInput is the request body for task writes. Nil fields are left
// unchanged by Patch and reset to defaults by Replace.
type TaskInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type TaskService struct {
	taskRepo  repository.TaskRepository
	stats     *StatsService
	publisher *ActivityPublisher
	logger    *slog.Logger
}

func NewTaskService(taskRepo repository.TaskRepository, stats *StatsService, publisher *ActivityPublisher, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{taskRepo: taskRepo, stats: stats, publisher: publisher, logger: logger}
}

func (s *TaskService) List(ctx context.Context, identity domain.Identity) ([]domain.Task, error) {
	return s.taskRepo.ListForUser(ctx, identity.Username)
}

func (s *TaskService) Get(ctx context.Context, identity domain.Identity, id uint) (*domain.Task, error) {
	return s.taskRepo.FindForUser(ctx, identity.Username, id)
}

func (s *TaskService) Create(ctx context.Context, identity domain.Identity, in TaskInput) (*domain.Task, error) {
	task := &domain.Task{Username: identity.Username}
	applyTaskInput(task, in, true)
	if err := validateTask(task); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	bg := context.WithoutCancel(ctx)
	if err := s.stats.ObserveTaskCreated(bg, identity.Username); err != nil {
		s.logger.ErrorContext(ctx, "task stats update failed", "op", "task.create", "task_id", task.ID, "error", err)
	}
	s.publish(bg, identity, task, "post")
	return task, nil
}

// Replace implements PUT: absent fields fall back to their zero values.
func (s *TaskService) Replace(ctx context.Context, identity domain.Identity, id uint, in TaskInput) (*domain.Task, error) {
	return s.update(ctx, identity, id, in, true, "put")
}

func (s *TaskService) Patch(ctx context.Context, identity domain.Identity, id uint, in TaskInput) (*domain.Task, error) {
	return s.update(ctx, identity, id, in, false, "patch")
}

func (s *TaskService) update(ctx context.Context, identity domain.Identity, id uint, in TaskInput, replace bool, method string) (*domain.Task, error) {
	task, err := s.taskRepo.FindForUser(ctx, identity.Username, id)
	if err != nil {
		return nil, err
	}
	wasCompleted := task.Completed
	applyTaskInput(task, in, replace)
	if err := validateTask(task); err != nil {
		return nil, err
	}
	completedNow := false
	if !wasCompleted && task.Completed {
		completedNow, err = s.taskRepo.Complete(ctx, task)
	} else {
		err = s.taskRepo.Update(ctx, task)
	}
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	bg := context.WithoutCancel(ctx)
	if completedNow {
		if err := s.stats.ObserveTaskCompleted(bg, identity.Username); err != nil {
			s.logger.ErrorContext(ctx, "task stats update failed", "op", "task."+method, "task_id", task.ID, "error", err)
		}
	}
	s.publish(bg, identity, task, method)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, identity domain.Identity, id uint) error {
	task, err := s.taskRepo.FindForUser(ctx, identity.Username, id)
	if err != nil {
		return err
	}
	if err := s.taskRepo.DeleteForUser(ctx, identity.Username, id); err != nil {
		return err
	}
	s.publish(context.WithoutCancel(ctx), identity, task, "delete")
	return nil
}

func (s *TaskService) publish(ctx context.Context, identity domain.Identity, task *domain.Task, method string) {
	if s.publisher == nil {
		return
	}
	activity := NewResourceActivity(identity.Username, "task", method, task.ID, task.Title, map[string]any{
		"description": task.Description,
		"completed":   task.Completed,
	})
	if _, err := s.publisher.Publish(ctx, activity); err != nil {
		s.logger.ErrorContext(ctx, "task activity publish failed", "op", "task."+method, "task_id", task.ID, "error", err)
	}
}

func applyTaskInput(task *domain.Task, in TaskInput, replace bool) {
	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
	} else if replace {
		task.Title = ""
	}
	if in.Description != nil {
		task.Description = *in.Description
	} else if replace {
		task.Description = ""
	}
	if in.Completed != nil {
		task.Completed = *in.Completed
	} else if replace {
		task.Completed = false
	}
}

func validateTask(task *domain.Task) error {
	var c fieldChecker
	c.length("title", task.Title, 1, taskTitleMax, "title")
	c.length("description", task.Description, 0, taskDescriptionMax, "description")
	return c.err()
}
