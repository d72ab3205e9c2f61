package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/factoryops/maintenance-service/internal/api/http"
	"github.com/factoryops/maintenance-service/internal/api/http/handlers"
	"github.com/factoryops/maintenance-service/internal/auth"
	"github.com/factoryops/maintenance-service/internal/config"
	"github.com/factoryops/maintenance-service/internal/events"
	"github.com/factoryops/maintenance-service/internal/observability"
	"github.com/factoryops/maintenance-service/internal/persistence"
	"github.com/factoryops/maintenance-service/internal/repository"
	"github.com/factoryops/maintenance-service/internal/service"
	"github.com/factoryops/maintenance-service/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	machineRepo := repository.NewMachineRepository(pool)
	procedureRepo := repository.NewProcedureRepository(pool)
	planRepo := repository.NewPlanRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	logRepo := repository.NewActivityLogRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	txManager := repository.NewTxManager(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, tokenManager, cfg.Auth)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)

	activityService := service.NewActivityService(service.ActivityDependencies{
		ActivityRepo:  activityRepo,
		LogRepo:       logRepo,
		MachineRepo:   machineRepo,
		ProcedureRepo: procedureRepo,
		UserRepo:      userRepo,
		TxManager:     txManager,
		Dispatcher:    dispatcher,
		Scheduling:    cfg.Scheduling,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		ActivityRepo: activityRepo,
		MachineRepo:  machineRepo,
		UserRepo:     userRepo,
		TxManager:    txManager,
		Dispatcher:   dispatcher,
		Redis:        redis.Client,
		Logger:       logger,
	})
	preventiveService := service.NewPreventiveService(service.PreventiveDependencies{
		PlanRepo:      planRepo,
		ActivityRepo:  activityRepo,
		ProcedureRepo: procedureRepo,
		TxManager:     txManager,
		Dispatcher:    dispatcher,
		Scheduling:    cfg.Scheduling,
		Logger:        logger,
	})
	scheduleService := service.NewScheduleService(service.ScheduleDependencies{
		ActivityRepo: activityRepo,
		Preventive:   preventiveService,
		Tickets:      ticketService,
		Fallback:     cfg.Scheduling.FallbackDuration(),
		Logger:       logger,
	})
	catalogService := service.NewCatalogService(machineRepo, procedureRepo, planRepo)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	location := cfg.Scheduling.Location()
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Activities:     handlers.NewActivitiesHandler(activityService, location),
		Schedule:       handlers.NewScheduleHandler(scheduleService, location),
		Catalog:        handlers.NewCatalogHandler(catalogService, preventiveService),
		AuthMiddleware: authMiddleware,
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
