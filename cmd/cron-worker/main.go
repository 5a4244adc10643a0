package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Toite-app/api-sub001/internal/cron"
	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/db"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/metrics"
	"github.com/Toite-app/api-sub001/pkg/migrate"
	"github.com/Toite-app/api-sub001/pkg/queue"
	"github.com/Toite-app/api-sub001/pkg/redis"
)

const lockKeyFormat = "toite:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	queueRepo := queue.NewRepository(dbClient.DB())
	producer, err := queue.NewProducer(queueRepo, cfg.Queue, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create job producer", err)
		os.Exit(1)
	}

	staleClaimJob, err := cron.NewStaleClaimReaperJob(cron.StaleClaimReaperJobParams{
		Logger:     logg,
		Repository: queueRepo,
		Queue:      cfg.Queue.Name,
		Deadline:   cfg.Cron.StaleClaimDeadline,
		Metrics:    metrics.NewQueueMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale claim reaper", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewQueueRetentionJob(cron.QueueRetentionJobParams{
		Logger:           logg,
		Repository:       queueRepo,
		DeadLetterMaxAge: cfg.Cron.DeadLetterMaxAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create queue retention job", err)
		os.Exit(1)
	}

	menuBootstrapJob, err := cron.NewMenuBootstrapJob(cron.MenuBootstrapJobParams{
		Logger:   logg,
		Producer: producer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create menu bootstrap job", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(staleClaimJob, retentionJob, menuBootstrapJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
