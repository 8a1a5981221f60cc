package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/api-playground-backend/internal/health"
	"github.com/sandeepkv93/api-playground-backend/internal/http/handler"
	"github.com/sandeepkv93/api-playground-backend/internal/http/middleware"
	"github.com/sandeepkv93/api-playground-backend/internal/http/response"
	"github.com/sandeepkv93/api-playground-backend/internal/realtime"
	"github.com/sandeepkv93/api-playground-backend/internal/service"
)

type Dependencies struct {
	SessionHandler  *handler.SessionHandler
	StatsHandler    *handler.StatsHandler
	TaskHandler     *handler.TaskHandler
	NoteHandler     *handler.NoteHandler
	ActivityHandler *handler.ActivityHandler
	CounterHandler  *handler.CounterHandler
	Authenticator   service.TokenAuthenticator
	StatsObserver   service.RequestObserver
	Hub             *realtime.Hub
	Stream          realtime.StreamOptions
	CORSOrigins     []string
	APIRateLimitRPM int
	APIRateLimiter  APIRateLimiterFunc
	Readiness       *health.ProbeRunner
	MetricsHandler  http.Handler
	Logger          *slog.Logger
	EnableOTelHTTP  bool
}

type APIRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusNotFound, response.CodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, response.CodeUnready, "dependencies are not ready", map[string]any{"checks": results})
	})
	if dep.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", dep.MetricsHandler)
	}

	apiLimiter := dep.APIRateLimiter
	if apiLimiter == nil {
		apiLimiter = middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware()
	}

	r.Route("/api", func(r chi.Router) {
		// Stats must see the identity resolved by the auth groups below.
		if dep.StatsObserver != nil {
			r.Use(middleware.RequestStats(dep.StatsObserver, dep.Logger))
		}
		r.Use(apiLimiter)

		r.Post("/sessions", dep.SessionHandler.Create)
		if dep.Hub != nil {
			r.Get("/activities/stream", realtime.StreamHandler(dep.Hub, dep.Stream))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(dep.Authenticator))

			r.Get("/sessions/{id}", dep.SessionHandler.Get)
			r.Delete("/sessions/{id}", dep.SessionHandler.Revoke)

			r.Get("/stats/me", dep.StatsHandler.Me)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", dep.TaskHandler.List)
				r.Post("/", dep.TaskHandler.Create)
				r.Get("/{id}", dep.TaskHandler.Get)
				r.Put("/{id}", dep.TaskHandler.Replace)
				r.Patch("/{id}", dep.TaskHandler.Patch)
				r.Delete("/{id}", dep.TaskHandler.Delete)
			})
			r.Route("/notes", func(r chi.Router) {
				r.Get("/", dep.NoteHandler.List)
				r.Post("/", dep.NoteHandler.Create)
				r.Get("/{id}", dep.NoteHandler.Get)
				r.Put("/{id}", dep.NoteHandler.Replace)
				r.Patch("/{id}", dep.NoteHandler.Patch)
				r.Delete("/{id}", dep.NoteHandler.Delete)
			})

			r.Get("/activities", dep.ActivityHandler.List)
			r.Get("/counter", dep.CounterHandler.Get)
			r.Post("/counter/increment", dep.CounterHandler.Increment)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
