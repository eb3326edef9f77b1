package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/contest-service/internal/api/http"
	"github.com/spec-kit/contest-service/internal/api/http/handlers"
	"github.com/spec-kit/contest-service/internal/auth"
	"github.com/spec-kit/contest-service/internal/config"
	"github.com/spec-kit/contest-service/internal/events"
	"github.com/spec-kit/contest-service/internal/lifecycle"
	"github.com/spec-kit/contest-service/internal/observability"
	"github.com/spec-kit/contest-service/internal/persistence"
	"github.com/spec-kit/contest-service/internal/persistence/pgstore"
	pgmigrations "github.com/spec-kit/contest-service/internal/persistence/pgstore/migrations"
	"github.com/spec-kit/contest-service/internal/persistence/sqlitestore"
	"github.com/spec-kit/contest-service/internal/service"
	"github.com/spec-kit/contest-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closeStore()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var publisher service.Publisher
	dependencies := map[string]handlers.Pinger{"store": store}
	if redis.Available() {
		publisher = redis.Client
		dependencies["redis"] = redis
	} else {
		logger.Warn("contest change feed disabled")
	}

	service.NewContestLifecycleValidator(logger, nil).Register(dispatcher)
	worker.StartNotificationWorker(dispatcher,
		service.NewNotificationService(dispatcher, logger, cfg.Notification),
		service.NewChangeFeed(publisher, cfg.Redis.ChangeChannel, logger))

	newUnitOfWork := lifecycle.NewUnitOfWorkFactory(store, dispatcher, logger, metrics)
	contestService := service.NewContestService(service.ContestDependencies{
		UnitOfWork: newUnitOfWork,
		Logger:     logger,
	})
	contestantService := service.NewContestantService(newUnitOfWork, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Contests:       handlers.NewContestsHandler(contestService),
		Contestants:    handlers.NewContestantsHandler(contestantService),
		Users:          handlers.NewUsersHandler(contestantService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (persistence.Store, func(), error) {
	if cfg.Storage.Driver == config.DriverPostgres {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, pgmigrations.FS, logger); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		return pgstore.New(pg.Pool), pg.Close, nil
	}

	store, err := sqlitestore.Open(ctx, cfg.Storage.SQLitePath, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
