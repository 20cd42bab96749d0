package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/farmstand-backend/internal/catalog"
	"github.com/angelmondragon/farmstand-backend/internal/home"
	"github.com/angelmondragon/farmstand-backend/internal/home/consumer"
	"github.com/angelmondragon/farmstand-backend/internal/ranking"
	"github.com/angelmondragon/farmstand-backend/pkg/config"
	"github.com/angelmondragon/farmstand-backend/pkg/db"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
	"github.com/angelmondragon/farmstand-backend/pkg/metrics"
	"github.com/angelmondragon/farmstand-backend/pkg/pubsub"
	"github.com/angelmondragon/farmstand-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "catalog-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "catalog-worker"

	logg = logger.New(logger.Options{
		ServiceName: "catalog-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	loc, err := cfg.Discovery.Location()
	requireResource(ctx, logg, "market time zone", err)

	homeService, err := home.NewService(
		catalog.NewRepository(dbClient.DB()),
		redisClient,
		ranking.NewEngine(loc),
		home.OptionsFromConfig(cfg.Discovery),
		logg,
		metrics.NewDiscoveryMetrics(prometheus.DefaultRegisterer),
	)
	requireResource(ctx, logg, "home service", err)

	catalogConsumer, err := consumer.NewConsumer(homeService, pubsubClient.CatalogSubscription(), logg)
	requireResource(ctx, logg, "catalog consumer", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "catalog worker ready")

	if err := catalogConsumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "catalog worker not working", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "catalog worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
