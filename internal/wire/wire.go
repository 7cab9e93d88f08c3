package wire

import (
	"context"
	"net/http"
	"time"

	"feedback-portal/internal/adaptor"
	"feedback-portal/internal/data/repository"
	"feedback-portal/internal/usecase"
	"feedback-portal/pkg/metrics"
	"feedback-portal/pkg/middleware"
	"feedback-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger reports database reachability for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the router and the components that need stopping on shutdown.
type App struct {
	Router  *chi.Mux
	Limiter *middleware.IPRateLimiter
}

// Wiring builds services, handlers and routes.
func Wiring(
	repo *repository.Repository,
	db Pinger,
	config *utils.Config,
	notifier usecase.Notifier,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, notifier, logger)
	handler := adaptor.NewHandler(service, logger)
	limiter := middleware.NewIPRateLimiter(config.RateLimit)

	return &App{
		Router:  setupRouter(handler, repo, db, limiter, config, logger),
		Limiter: limiter,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	db Pinger,
	limiter *middleware.IPRateLimiter,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	if config.App.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.CORS.AllowedOrigins))

	auth := middleware.Auth([]byte(config.JWT.Secret), logger)
	active := middleware.RequireActive(repo.User, logger)

	wireAuth(r, handler.Auth, auth, active, limiter)
	wireUser(r, handler.User, auth, active, repo, logger)
	wireFeedback(r, handler.Feedback, auth, active, repo, logger)

	r.Get("/health", health(db))
	r.Handle("/metrics", metrics.Handler())

	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			utils.ResponseJSON(w, http.StatusServiceUnavailable, utils.Response{
				Success: false,
				Message: "Database unavailable",
				Error:   utils.CodeInternal,
			})
			return
		}
		utils.ResponseSuccess(w, "OK", map[string]string{"status": "healthy"})
	}
}
