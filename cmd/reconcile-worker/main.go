package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/arjnair/dineflow-backend/internal/reconcile"
	"github.com/arjnair/dineflow-backend/internal/settlement"
	"github.com/arjnair/dineflow-backend/pkg/config"
	"github.com/arjnair/dineflow-backend/pkg/db"
	"github.com/arjnair/dineflow-backend/pkg/logger"
	"github.com/arjnair/dineflow-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconcile-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "reconcile-worker"

	logg = logger.New(logger.Options{
		ServiceName: "reconcile-worker",
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

	publisher, err := reconcile.NewPublisher(pubsubClient.SettlementsPublisher(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot publisher", err)
		os.Exit(1)
	}

	store, err := reconcile.NewStore(reconcile.StoreParams{
		Logger:         logg,
		Persister:      publisher,
		PersistTimeout: cfg.Reconcile.PersistTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciliation store", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	records, err := settlement.NewRepository(dbClient.DB()).List(ctx)
	if err != nil {
		logg.Error(ctx, "failed to seed reconciliation store", err)
		os.Exit(1)
	}
	store.Seed(reconcile.StatesFromModels(records))
	logg.Info(logg.WithField(ctx, "seeded", len(records)), "reconciliation store seeded")

	consumer, err := reconcile.NewConsumer(store, pubsubClient.SettlementsSubscription(), logg)
	if err != nil {
		logg.Error(ctx, "failed to create snapshot consumer", err)
		os.Exit(1)
	}

	logg.Info(ctx, "starting reconcile worker")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconcile worker stopped unexpectedly", err)
		os.Exit(1)
	}

	store.Flush()
	logg.Info(ctx, "reconcile worker shutting down gracefully")
}
