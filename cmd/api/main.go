package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/arjnair/dineflow-backend/api/routes"
	"github.com/arjnair/dineflow-backend/internal/reconcile"
	"github.com/arjnair/dineflow-backend/internal/restaurants"
	"github.com/arjnair/dineflow-backend/internal/settlement"
	"github.com/arjnair/dineflow-backend/internal/transactions"
	"github.com/arjnair/dineflow-backend/pkg/config"
	"github.com/arjnair/dineflow-backend/pkg/db"
	"github.com/arjnair/dineflow-backend/pkg/logger"
	"github.com/arjnair/dineflow-backend/pkg/migrate"
	"github.com/arjnair/dineflow-backend/pkg/pubsub"
	"github.com/arjnair/dineflow-backend/pkg/redis"
)

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

	cfg.Service.Kind = "api"

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
	snapshotStore, err := reconcile.NewStore(reconcile.StoreParams{
		Logger:         logg,
		Persister:      snapshotPublisher,
		PersistTimeout: cfg.Reconcile.PersistTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot store", err)
		os.Exit(1)
	}
	defer snapshotStore.Flush()

	settlementRepo := settlement.NewRepository(dbClient.DB())
	seeds, err := settlementRepo.List(context.Background())
	if err != nil {
		logg.Error(context.Background(), "failed to seed snapshot store", err)
		os.Exit(1)
	}
	snapshotStore.Seed(reconcile.StatesFromModels(seeds))

	broadcaster, err := reconcile.NewBroadcaster(snapshotStore)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot broadcaster", err)
		os.Exit(1)
	}

	restaurantRepo := restaurants.NewRepository(dbClient.DB())
	restaurantsService, err := restaurants.NewService(restaurants.ServiceParams{
		Logger: logg,
		Repo:   restaurantRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create restaurant service", err)
		os.Exit(1)
	}

	settlementsService, err := settlement.NewService(settlement.ServiceParams{
		Logger:      logg,
		DB:          dbClient,
		Repo:        settlementRepo,
		Restaurants: restaurantRepo,
		Snapshots:   broadcaster,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	transactionsService, err := transactions.NewService(transactions.ServiceParams{
		Logger: logg,
		Repo:   transactions.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create transaction service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			pubsubClient,
			settlementsService,
			restaurantsService,
			transactionsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
