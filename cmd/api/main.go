package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/taskboard/internal/api/http"
	"github.com/spec-kit/taskboard/internal/api/http/handlers"
	"github.com/spec-kit/taskboard/internal/auth"
	"github.com/spec-kit/taskboard/internal/config"
	"github.com/spec-kit/taskboard/internal/events"
	"github.com/spec-kit/taskboard/internal/lock"
	"github.com/spec-kit/taskboard/internal/notify"
	"github.com/spec-kit/taskboard/internal/observability"
	"github.com/spec-kit/taskboard/internal/persistence"
	"github.com/spec-kit/taskboard/internal/repository"
	"github.com/spec-kit/taskboard/internal/service"
	"github.com/spec-kit/taskboard/internal/worker"
	"github.com/spec-kit/taskboard/internal/workflow"
)

const shutdownTimeout = 15 * time.Second

func main() {
	envFiles := pflag.StringSlice("env-file", nil, "dotenv files to load before reading the environment")
	migrate := pflag.Bool("migrate", true, "apply embedded SQL migrations on startup")
	policyPath := pflag.String("workflow-policy", "", "YAML file with per-project status transitions")
	pflag.Parse()

	cfg, err := config.Load(*envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if pflag.CommandLine.Changed("migrate") {
		cfg.Postgres.RunMigrations = *migrate
	}
	if *policyPath != "" {
		cfg.Workflow.PolicyPath = *policyPath
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	var rdb *persistence.Redis
	if cfg.Notification.QueueBackend == config.BackendRedis || cfg.Lock.Backend == config.BackendRedis {
		rdb, err = persistence.NewRedis(ctx, cfg.Redis, logger, true)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	policy, err := workflow.LoadPolicy(cfg.Workflow.PolicyPath)
	if err != nil {
		logger.Fatal("failed to load workflow policy", zap.Error(err))
	}

	locker := lock.NewMemoryLocker()
	if cfg.Lock.Backend == config.BackendRedis {
		locker = lock.NewRedisLocker(rdb.Client, cfg.Lock.Expiry, logger)
	}

	queue := notify.NewMemoryQueue(cfg.Notification.QueueLength)
	if cfg.Notification.QueueBackend == config.BackendRedis {
		queue = notify.NewRedisQueue(rdb.Client, cfg.Notification.QueueKey, cfg.Notification.EnqueueTimeout, logger)
	}

	metrics := observability.NewMetrics(cfg.App.Name)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	commentRepo := repository.NewTicketCommentRepository(pool)
	statsRepo := repository.NewStatsRepository(pool)

	authority := auth.NewAuthority()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(cfg.Auth, userRepo, tokens)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:             ticketRepo,
		ProjectRepo:            projectRepo,
		HistoryRepo:            historyRepo,
		Assignments:            service.NewAssignmentService(projectRepo),
		Authority:              authority,
		Policy:                 policy,
		Locker:                 locker,
		Dispatcher:             dispatcher,
		Metrics:                metrics,
		Logger:                 logger,
		EnforceBoardPermission: cfg.Workflow.EnforceBoardPermission,
	})
	commentService := service.NewCommentService(commentRepo, ticketRepo, projectRepo, authority)
	statsService := service.NewStatsService(statsRepo)

	if cfg.Auth.AdminEmail != "" {
		admin, created, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			logger.Fatal("failed to bootstrap admin", zap.Error(err))
		}
		if created {
			logger.Info("bootstrap admin created", zap.String("user_id", admin.ID))
		}
	}

	notifications := service.NewNotificationService(dispatcher, notify.NewComposer(), queue, logger, metrics, cfg.Notification)
	notifications.RegisterHandlers()

	telegram := notify.NewTelegramClient(cfg.Telegram, logger)
	if cfg.Notification.Enabled && cfg.Telegram.BotToken == "" {
		logger.Warn("TELEGRAM_BOT_TOKEN is empty, deliveries will fail")
	}
	workers := worker.NewNotificationPool(cfg.Notification, queue, telegram, logger, metrics)
	workers.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var redisPinger handlers.Pinger
	if rdb != nil {
		redisPinger = rdb
	}
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisPinger),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Projects:       handlers.NewProjectsHandler(ticketService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Stats:          handlers.NewStatsHandler(statsService),
		Metrics:        metrics,
		AuthMiddleware: authMiddleware.Handle,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case sig := <-waitForSignal():
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("fiber listen", zap.Error(err))
		}
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	workers.Stop(stopCtx)
}

func waitForSignal() <-chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh
}
