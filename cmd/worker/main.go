package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	consumerorders "github.com/Toite-app/api-sub001/internal/consumers/orders"
	"github.com/Toite-app/api-sub001/internal/menus"
	internalorders "github.com/Toite-app/api-sub001/internal/orders"
	"github.com/Toite-app/api-sub001/internal/snapshots"
	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/db"
	"github.com/Toite-app/api-sub001/pkg/lock"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/metrics"
	"github.com/Toite-app/api-sub001/pkg/migrate"
	"github.com/Toite-app/api-sub001/pkg/queue"
	"github.com/Toite-app/api-sub001/pkg/redis"
	"github.com/Toite-app/api-sub001/pkg/socket"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	queueRepo := queue.NewRepository(dbClient.DB())
	producer, err := queue.NewProducer(queueRepo, cfg.Queue, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create job producer", err)
		os.Exit(1)
	}

	ordersService, err := internalorders.NewService(
		internalorders.NewRepository(dbClient.DB()),
		dbClient,
		producer,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	snapshotsService, err := snapshots.NewService(snapshots.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshots service", err)
		os.Exit(1)
	}

	menusService, err := menus.NewService(menus.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create menus service", err)
		os.Exit(1)
	}

	lockManager, err := lock.NewManager(redisClient, cfg.Lock, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create lock manager", err)
		os.Exit(1)
	}

	emitter, err := socket.NewEmitter(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create event emitter", err)
		os.Exit(1)
	}

	handlers, err := consumerorders.NewHandlers(
		ordersService,
		snapshotsService,
		menusService,
		lockManager,
		producer,
		emitter,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create job handlers", err)
		os.Exit(1)
	}

	registry := queue.NewRegistry()
	handlers.Register(registry)

	consumer, err := queue.NewConsumer(queue.ConsumerParams{
		Config:   cfg.Queue,
		Logger:   logg,
		Repo:     queueRepo,
		Registry: registry,
		Metrics:  metrics.NewQueueMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create queue consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Consumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}
	defer func() {
		if err := service.Close(); err != nil {
			logg.Error(context.Background(), "error closing worker resources", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"queue":       cfg.Queue.Name,
		"concurrency": cfg.Queue.Concurrency,
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
