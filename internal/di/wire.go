//go:build wireinject

package di

import (
	"context"
	"io"

	"github.com/google/wire"

	"github.com/sandeepkv93/api-playground-backend/internal/app"
	"github.com/sandeepkv93/api-playground-backend/internal/config"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

var ProviderSet = wire.NewSet(
	provideRuntime,
	provideLogger,
	provideDB,
	provideRedis,
	provideHub,
	provideBroadcaster,
	provideRelay,
	repository.NewSessionRepository,
	provideUserStatsRepository,
	repository.NewActivityRepository,
	repository.NewTaskRepository,
	repository.NewNoteRepository,
	provideCounterStore,
	provideNegativeLookupCache,
	provideSessionService,
	provideAuthenticator,
	service.NewStatsService,
	provideActivityPublisher,
	service.NewTaskService,
	service.NewNoteService,
	provideCounterService,
	provideHandlers,
	provideAPIRateLimiter,
	provideReadiness,
	provideRouterDependencies,
	provideHTTPServer,
	app.New,
)

func InitializeApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app.App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
