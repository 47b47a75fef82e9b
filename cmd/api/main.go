package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	apihttp "github.com/hazardwatch/ticket-engine/internal/api/http"
	"github.com/hazardwatch/ticket-engine/internal/config"
	"github.com/hazardwatch/ticket-engine/internal/events"
	"github.com/hazardwatch/ticket-engine/internal/observability"
	"github.com/hazardwatch/ticket-engine/internal/persistence"
	"github.com/hazardwatch/ticket-engine/internal/repository"
	"github.com/hazardwatch/ticket-engine/internal/service"
	"github.com/hazardwatch/ticket-engine/internal/sla"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgres, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer postgres.Close()

	var (
		ticketRepo  repository.TicketRepository
		messageRepo repository.MessageRepository
		userRepo    repository.UserRepository
	)
	if pool := postgres.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
				logger.Fatal("run migrations", zap.Error(err))
			}
		}
		ticketRepo = repository.NewTicketRepository(pool)
		messageRepo = repository.NewMessageRepository(pool)
		userRepo = repository.NewUserRepository(pool)
	} else {
		store := repository.NewMemoryStore()
		ticketRepo = store.Tickets()
		messageRepo = store.Messages()
		userRepo = store.Users()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	ticketSvc := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		MessageRepo: messageRepo,
		Policy:      sla.PolicyFromConfig(cfg.SLA),
		Dispatcher:  dispatcher,
	})
	authSvc := service.NewAuthService(userRepo, cfg.Auth, logger)

	notifier := service.NewNotificationService(redis, cfg.Notification, logger)
	notifier.Register(dispatcher)

	dispatcher.Subscribe(events.EventResponseOverdue, func(context.Context, events.Event) error {
		metrics.RecordBreach("response")
		return nil
	})
	dispatcher.Subscribe(events.EventResolutionOverdue, func(context.Context, events.Event) error {
		metrics.RecordBreach("resolution")
		return nil
	})

	monitor := sla.NewMonitor(ticketRepo, ticketSvc, dispatcher, logger, sla.MonitorConfig{
		Interval:     cfg.SLA.MonitorInterval,
		AutoEscalate: cfg.SLA.AutoEscalate,
	})
	go monitor.Run(ctx)

	app := apihttp.NewServer(apihttp.RouterDeps{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Postgres:  postgres,
		Redis:     redis,
		Users:     userRepo,
		TicketSvc: ticketSvc,
		AuthSvc:   authSvc,
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = app.Shutdown()
	}()

	logger.Info("starting server",
		zap.String("addr", cfg.App.Addr()),
		zap.String("env", cfg.App.Env))
	if err := app.Listen(cfg.App.Addr()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
