package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arjnair/dineflow-backend/internal/cron"
	"github.com/arjnair/dineflow-backend/internal/reconcile"
	"github.com/arjnair/dineflow-backend/internal/restaurants"
	"github.com/arjnair/dineflow-backend/internal/settlement"
	"github.com/arjnair/dineflow-backend/pkg/config"
	"github.com/arjnair/dineflow-backend/pkg/db"
	"github.com/arjnair/dineflow-backend/pkg/logger"
	"github.com/arjnair/dineflow-backend/pkg/metrics"
	"github.com/arjnair/dineflow-backend/pkg/migrate"
	"github.com/arjnair/dineflow-backend/pkg/pubsub"
	"github.com/arjnair/dineflow-backend/pkg/redis"
)

const lockKeyFormat = "df:rollover-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "rollover-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "rollover-worker"

	logg = logger.New(logger.Options{
		ServiceName: "rollover-worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	snapshotPublisher, err := reconcile.NewPublisher(pubsubClient.SettlementsPublisher(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot publisher", err)
		os.Exit(1)
	}

	rolloverJob, err := cron.NewRolloverJob(cron.RolloverJobParams{
		Logger:      logg,
		DB:          dbClient,
		Settlements: settlement.NewRepository(dbClient.DB()),
		Restaurants: restaurants.NewRepository(dbClient.DB()),
		Snapshots:   snapshotPublisher,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rollover job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Rollover.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create rollover lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(rolloverJob),
		Lock:     lock,
		Metrics:  metrics.NewWorkerJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Rollover.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create rollover service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting rollover worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "rollover worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "rollover worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
