package service

import (
	"context"

	"github.com/sandeepkv93/api-playground-backend/internal/domain"
)

type SessionServiceInterface interface {
	CreateSession(ctx context.Context) (*domain.Session, error)
	GetSessionForOwner(ctx context.Context, identity domain.Identity, id uint) (*domain.Session, error)
	RevokeSession(ctx context.Context, identity domain.Identity, id uint) error
}

type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

type RequestObserver interface {
	ObserveRequest(ctx context.Context, username string, succeeded bool, elapsedMs int64) error
}

type StatsServiceInterface interface {
	RequestObserver
	View(ctx context.Context, username string) (StatsView, error)
}

type TaskServiceInterface interface {
	List(ctx context.Context, identity domain.Identity) ([]domain.Task, error)
	Get(ctx context.Context, identity domain.Identity, id uint) (*domain.Task, error)
	Create(ctx context.Context, identity domain.Identity, in TaskInput) (*domain.Task, error)
	Replace(ctx context.Context, identity domain.Identity, id uint, in TaskInput) (*domain.Task, error)
	Patch(ctx context.Context, identity domain.Identity, id uint, in TaskInput) (*domain.Task, error)
	Delete(ctx context.Context, identity domain.Identity, id uint) error
}

type NoteServiceInterface interface {
	List(ctx context.Context, identity domain.Identity) ([]domain.Note, error)
	Get(ctx context.Context, identity domain.Identity, id uint) (*domain.Note, error)
	Create(ctx context.Context, identity domain.Identity, in NoteInput) (*domain.Note, error)
	Replace(ctx context.Context, identity domain.Identity, id uint, in NoteInput) (*domain.Note, error)
	Patch(ctx context.Context, identity domain.Identity, id uint, in NoteInput) (*domain.Note, error)
	Delete(ctx context.Context, identity domain.Identity, id uint) error
}

type ActivityFeed interface {
	Recent(ctx context.Context, limit int) ([]domain.Activity, error)
}

type CounterServiceInterface interface {
	Get(ctx context.Context) (CounterView, error)
	Increment(ctx context.Context, identity domain.Identity) (CounterView, error)
}
