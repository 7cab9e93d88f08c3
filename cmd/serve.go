package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"feedback-portal/internal/data/repository"
	"feedback-portal/internal/notify"
	"feedback-portal/internal/wire"
	"feedback-portal/pkg/database"
	"feedback-portal/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(rt *runtimeState) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), rt)
		},
	}
}

func runServe(parent context.Context, rt *runtimeState) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config, logger, err := rt.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := config.ValidateForServe(); err != nil {
		logger.Error("Refusing to start", zap.Error(err), zap.String("env", config.App.Env))
		return err
	}

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("env", config.App.Env),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	logger.Info("Database connected successfully")

	if err := database.Migrate(ctx, db.Pool(), "up"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	repos := repository.NewRepository(db, logger)

	// Email delivery
	dispatcher, cleanup, err := buildDispatcher(ctx, config, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	app := wire.Wiring(repos, db, config, dispatcher, logger)
	defer app.Limiter.Stop()

	go cleanSessions(ctx, repos.Session, logger)

	return APIServer(ctx, app.Router, config.App.Port, dispatcher, logger)
}

// buildDispatcher picks the shared daily counter and audit sink when they are
// configured and falls back to in-process ones otherwise.
func buildDispatcher(ctx context.Context, config *utils.Config, logger *zap.Logger) (*notify.Dispatcher, func(), error) {
	builder, err := notify.NewBuilder(config.Email, config.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("load email templates: %w", err)
	}
	transport := notify.NewTransport(config.Email, logger)

	var closers []func() error

	var counter notify.Counter = notify.NewMemoryCounter()
	if config.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unavailable, daily email limit is per instance", zap.Error(err))
			client.Close()
		} else {
			counter = notify.NewRedisCounter(client, config.App.Name+":email:daily:")
			closers = append(closers, client.Close)
			logger.Info("Daily email limit shared through Redis", zap.String("addr", config.Redis.Addr))
		}
	}

	var audit notify.AuditSink = notify.NopAuditSink{}
	if len(config.Kafka.Brokers) > 0 {
		sink, err := notify.NewKafkaAuditSink(config.Kafka)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka audit sink: %w", err)
		}
		audit = sink
		logger.Info("Email deliveries audited to Kafka", zap.String("topic", config.Kafka.AuditTopic))
	}
	closers = append(closers, audit.Close)

	dispatcher := notify.NewDispatcher(builder, transport, counter, audit, config.Email, logger)
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Failed to close email dependency", zap.Error(err))
			}
		}
	}
	return dispatcher, cleanup, nil
}

func cleanSessions(ctx context.Context, sessions repository.SessionRepository, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.CleanExpiredSessions(ctx)
			if err != nil {
				logger.Warn("Failed to clean expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("Expired sessions cleaned", zap.Int64("count", n))
			}
		}
	}
}

// APIServer serves until ctx is cancelled, then drains in-flight requests and
// queued emails.
func APIServer(ctx context.Context, handler http.Handler, port string, dispatcher *notify.Dispatcher, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server running", zap.String("addr", "http://localhost"+srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown incomplete", zap.Error(err))
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		logger.Warn("Pending emails abandoned", zap.Error(err))
	}
	return nil
}
