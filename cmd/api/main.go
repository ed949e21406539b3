package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/membership-service/internal/api/http"
	"github.com/spec-kit/membership-service/internal/api/http/handlers"
	"github.com/spec-kit/membership-service/internal/auth"
	"github.com/spec-kit/membership-service/internal/codegen"
	"github.com/spec-kit/membership-service/internal/config"
	"github.com/spec-kit/membership-service/internal/events"
	"github.com/spec-kit/membership-service/internal/mailer"
	"github.com/spec-kit/membership-service/internal/observability"
	"github.com/spec-kit/membership-service/internal/persistence"
	"github.com/spec-kit/membership-service/internal/ratelimit"
	"github.com/spec-kit/membership-service/internal/repository"
	"github.com/spec-kit/membership-service/internal/service"
	"github.com/spec-kit/membership-service/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var memberRepo repository.MemberRepository
	var codeRepo repository.ConfirmationCodeRepository
	if pool := pg.PoolHandle(); pool != nil {
		memberRepo = repository.NewMemberRepository(pool)
		codeRepo = repository.NewConfirmationCodeRepository(pool)
	} else {
		store := repository.NewMemoryStore()
		memberRepo = store
		codeRepo = store
	}

	budgets := ratelimit.BudgetsFromConfig(cfg.RateLimit)
	var gate ratelimit.Gate
	if cfg.RateLimit.Backend == "redis" {
		gate = ratelimit.NewRedisGate(redis.Client, budgets, logger)
	} else {
		gate = ratelimit.NewLocalGate(budgets)
	}

	dispatcher := events.NewInMemoryDispatcher()
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TemporaryTokenTTL())

	confirmationService := service.NewConfirmationService(*cfg, service.ConfirmationDependencies{
		MemberRepo:  memberRepo,
		CodeRepo:    codeRepo,
		Generator:   codegen.NewGenerator(),
		Mailer:      mailer.New(cfg.Mailer, logger),
		Credentials: tokenManager,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	memberService := service.NewMemberService(memberRepo, confirmationService, dispatcher, logger)
	notificationService := service.NewNotificationService(dispatcher, logger)

	worker.StartNotificationWorker(notificationService)
	worker.StartCodeSweeper(ctx, confirmationService, cfg.Confirmation.SweepInterval(), logger)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Members:      handlers.NewMembersHandler(memberService, gate),
		Confirmation: handlers.NewConfirmationHandler(confirmationService, gate),
		Admin:        handlers.NewAdminHandler(metrics),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
