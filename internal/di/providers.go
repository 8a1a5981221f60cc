package di

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/api-playground-backend/internal/config"
	"github.com/sandeepkv93/api-playground-backend/internal/database"
	"github.com/sandeepkv93/api-playground-backend/internal/health"
	"github.com/sandeepkv93/api-playground-backend/internal/http/handler"
	"github.com/sandeepkv93/api-playground-backend/internal/http/middleware"
	"github.com/sandeepkv93/api-playground-backend/internal/http/router"
	"github.com/sandeepkv93/api-playground-backend/internal/observability"
	"github.com/sandeepkv93/api-playground-backend/internal/realtime"
	"github.com/sandeepkv93/api-playground-backend/internal/repository"
	"github.com/sandeepkv93/api-playground-backend/internal/security"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

func provideRuntime(ctx context.Context, cfg *config.Config, logOut io.Writer) (*observability.Runtime, func(), error) {
	rt, err := observability.InitRuntime(ctx, cfg, logOut)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownObservabilityTimeout)
		defer cancel()
		if err := rt.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Warn("observability shutdown failed", "error", err)
		}
	}
	return rt, cleanup, nil
}

func provideLogger(rt *observability.Runtime) *slog.Logger {
	return rt.Logger
}

// provideDB opens the database and applies migrations so a fresh sqlite
// file is usable without running the migrate command first.
func provideDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, func(), error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			logger.Warn("database close failed", "error", err)
		}
	}
	return db, cleanup, nil
}

func provideRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	client, err := database.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if client == nil {
			return
		}
		if err := client.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
	return client, cleanup, nil
}

func provideHub() *realtime.Hub {
	return realtime.NewHub(0)
}

func provideBroadcaster(cfg *config.Config, hub *realtime.Hub, client redis.UniversalClient) (realtime.Broadcaster, error) {
	switch cfg.BroadcastDriver {
	case "redis":
		if client == nil {
			return nil, errors.New("redis broadcast driver requires REDIS_ADDR")
		}
		return realtime.NewRedisBroadcaster(client, cfg.RedisKeyPrefix), nil
	case "mercure":
		signer := security.NewPublisherJWT(cfg.MercurePublisherJWTKey)
		return realtime.NewMirrorBroadcaster(realtime.NewMercureBroadcaster(cfg.MercureHubURL, signer, nil), hub), nil
	default:
		return hub, nil
	}
}

// provideRelay returns nil unless updates travel through Redis.
func provideRelay(cfg *config.Config, client redis.UniversalClient, hub *realtime.Hub, logger *slog.Logger) *realtime.RedisRelay {
	if cfg.BroadcastDriver != "redis" || client == nil {
		return nil
	}
	return realtime.NewRedisRelay(client, cfg.RedisKeyPrefix, hub, logger)
}

func provideUserStatsRepository(db *gorm.DB) repository.UserStatsRepository {
	return repository.NewUserStatsRepository(db, service.EvaluateRank)
}

func provideCounterStore(cfg *config.Config, db *gorm.DB, client redis.UniversalClient) repository.CounterStore {
	if cfg.CounterBackend == "redis" && client != nil {
		return repository.NewRedisCounterStore(client, cfg.RedisKeyPrefix)
	}
	return repository.NewGormCounterStore(db)
}

func provideNegativeLookupCache(cfg *config.Config, client redis.UniversalClient) service.NegativeLookupCacheStore {
	switch cfg.NegativeCacheBackend {
	case "redis":
		if client != nil {
			return service.NewRedisNegativeLookupCacheStore(client, cfg.RedisKeyPrefix)
		}
		return service.NewInMemoryNegativeLookupCacheStore()
	case "memory":
		return service.NewInMemoryNegativeLookupCacheStore()
	default:
		return service.NewNoopNegativeLookupCacheStore()
	}
}

func provideSessionService(repo repository.SessionRepository, cfg *config.Config, logger *slog.Logger) *service.SessionService {
	return service.NewSessionService(repo, cfg.SessionTTL, logger)
}

func provideAuthenticator(repo repository.SessionRepository, negative service.NegativeLookupCacheStore, cfg *config.Config) *service.Authenticator {
	return service.NewAuthenticator(repo, negative, cfg.NegativeCacheTTL)
}

func provideActivityPublisher(repo repository.ActivityRepository, broadcaster realtime.Broadcaster, cfg *config.Config, logger *slog.Logger) *service.ActivityPublisher {
	return service.NewActivityPublisher(repo, broadcaster, cfg.ActivityTopic, cfg.ActivityListLimit, logger)
}

func provideCounterService(
	store repository.CounterStore,
	sessions repository.SessionRepository,
	broadcaster realtime.Broadcaster,
	publisher *service.ActivityPublisher,
	cfg *config.Config,
	logger *slog.Logger,
) *service.CounterService {
	return service.NewCounterService(store, sessions, broadcaster, cfg.CounterTopic, publisher, logger)
}

func provideAPIRateLimiter(cfg *config.Config, client redis.UniversalClient) router.APIRateLimiterFunc {
	var limiter middleware.Limiter = middleware.NewLocalFixedWindowLimiter()
	if cfg.RateLimitBackend == "redis" && client != nil {
		limiter = middleware.NewRedisFixedWindowLimiter(client, cfg.RedisKeyPrefix)
	}
	rl := middleware.NewDistributedRateLimiter(
		limiter,
		cfg.APIRateLimitRPM,
		time.Minute,
		middleware.FailureMode(cfg.RateLimitFailureMode),
		"api",
		middleware.TokenOrIPKeyFunc(),
	)
	return rl.Middleware()
}

func provideReadiness(cfg *config.Config, db *gorm.DB, client redis.UniversalClient) *health.ProbeRunner {
	checkers := []health.Checker{health.DatabaseChecker(db)}
	if client != nil {
		checkers = append(checkers, health.RedisChecker(client))
	}
	return health.NewProbeRunner(cfg.ReadinessTimeout, cfg.ReadinessCacheTTL, checkers...)
}

type handlers struct {
	sessions   *handler.SessionHandler
	stats      *handler.StatsHandler
	tasks      *handler.TaskHandler
	notes      *handler.NoteHandler
	activities *handler.ActivityHandler
	counter    *handler.CounterHandler
}

func provideHandlers(
	sessions *service.SessionService,
	stats *service.StatsService,
	tasks *service.TaskService,
	notes *service.NoteService,
	publisher *service.ActivityPublisher,
	counter *service.CounterService,
) handlers {
	return handlers{
		sessions:   handler.NewSessionHandler(sessions),
		stats:      handler.NewStatsHandler(stats),
		tasks:      handler.NewTaskHandler(tasks),
		notes:      handler.NewNoteHandler(notes),
		activities: handler.NewActivityHandler(publisher),
		counter:    handler.NewCounterHandler(counter),
	}
}

func provideRouterDependencies(
	cfg *config.Config,
	h handlers,
	authenticator *service.Authenticator,
	stats *service.StatsService,
	hub *realtime.Hub,
	limiter router.APIRateLimiterFunc,
	readiness *health.ProbeRunner,
	rt *observability.Runtime,
	logger *slog.Logger,
) router.Dependencies {
	return router.Dependencies{
		SessionHandler:  h.sessions,
		StatsHandler:    h.stats,
		TaskHandler:     h.tasks,
		NoteHandler:     h.notes,
		ActivityHandler: h.activities,
		CounterHandler:  h.counter,
		Authenticator:   authenticator,
		StatsObserver:   stats,
		Hub:             hub,
		Stream: realtime.StreamOptions{
			DefaultTopic:  cfg.ActivityTopic,
			AllowedTopics: []string{cfg.ActivityTopic, cfg.CounterTopic},
		},
		CORSOrigins:     cfg.CORSOrigins,
		APIRateLimitRPM: cfg.APIRateLimitRPM,
		APIRateLimiter:  limiter,
		Readiness:       readiness,
		MetricsHandler:  rt.MetricsHandler,
		Logger:          logger,
		EnableOTelHTTP:  cfg.OTELTracingEnabled || cfg.OTELMetricsExporter != "none",
	}
}

func provideHTTPServer(cfg *config.Config, dep router.Dependencies) *http.Server {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.NewRouter(dep),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown leaves request contexts alive; closing the hub ends open streams.
	if dep.Hub != nil {
		srv.RegisterOnShutdown(dep.Hub.Close)
	}
	return srv
}
