package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"carrier-rewards/internal/adapter/carrier"
	httpadapter "carrier-rewards/internal/adapter/http"
	"carrier-rewards/internal/adapter/notify"
	"carrier-rewards/internal/adapter/postgres"
	redisadapter "carrier-rewards/internal/adapter/redis"
	"carrier-rewards/internal/adapter/usecase"
	"carrier-rewards/internal/config"
	"carrier-rewards/internal/db"
)

// main is the entry point of the carrier-rewards service. It loads
// configuration, optionally runs database migrations, wires the carrier
// adapters and the collect flow, then starts the HTTP server and the daily
// auto-collect worker. On receiving a termination signal it gracefully
// shuts down the server.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
		} else {
			logger.Info("migrations applied successfully")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	store := postgres.NewSessionRepository(pool)
	cooldown := redisadapter.NewCooldownStore(redisClient)
	notifier := notify.NewLogNotifier(logger)
	carriers := carrier.NewSet(cfg.Carriers, logger)

	registry := usecase.NewSessionRegistry(store, carriers, logger)
	discovery := usecase.NewDiscovery(logger)
	orchestrator := usecase.NewRedemptionOrchestrator(registry, notifier, cfg.Collector, logger)
	planner := usecase.NewPurchasePlanner(registry, cfg.Collector, logger)
	collector := usecase.NewCollector(store, cooldown, notifier, carriers,
		registry, discovery, orchestrator, planner, cfg.Collector, logger)

	autoCollect := usecase.NewAutoCollectWorker(store, notifier, collector, cfg.Collector, logger)
	go autoCollect.Run(ctx)

	handler := httpadapter.NewHandler(collector, store, cfg.HTTP, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	value := <-quit
	exitCode = 128 + int(value.(syscall.Signal))

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err = srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
