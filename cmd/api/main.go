package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/Toite-app/api-sub001/api/routes"
	internalorders "github.com/Toite-app/api-sub001/internal/orders"
	"github.com/Toite-app/api-sub001/pkg/cache"
	"github.com/Toite-app/api-sub001/pkg/config"
	"github.com/Toite-app/api-sub001/pkg/db"
	"github.com/Toite-app/api-sub001/pkg/logger"
	"github.com/Toite-app/api-sub001/pkg/migrate"
	"github.com/Toite-app/api-sub001/pkg/queue"
	"github.com/Toite-app/api-sub001/pkg/redis"
	"github.com/Toite-app/api-sub001/pkg/socket"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	var cacheStore *cache.Store
	if cfg.Cache.Enabled {
		cacheStore, err = cache.NewStore(redisClient, cfg.Cache, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create cache store", err)
			os.Exit(1)
		}
	}

	producer, err := queue.NewProducer(queue.NewRepository(dbClient.DB()), cfg.Queue, logg)
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

	hub := socket.NewHub(logg)
	bridge, err := socket.NewBridge(redisClient, hub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create socket bridge", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	go func() {
		if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "socket bridge stopped unexpectedly", err)
		}
	}()

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DBPinger:    dbClient,
			RedisPinger: redisClient,
			Orders:      ordersService,
			CacheStore:  cacheStore,
			Hub:         hub,
		}),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}
