package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/farmstand-backend/api/routes"
	"github.com/angelmondragon/farmstand-backend/internal/catalog"
	"github.com/angelmondragon/farmstand-backend/internal/home"
	"github.com/angelmondragon/farmstand-backend/internal/nearby"
	"github.com/angelmondragon/farmstand-backend/internal/ranking"
	"github.com/angelmondragon/farmstand-backend/internal/search"
	"github.com/angelmondragon/farmstand-backend/pkg/config"
	"github.com/angelmondragon/farmstand-backend/pkg/db"
	"github.com/angelmondragon/farmstand-backend/pkg/env"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
	"github.com/angelmondragon/farmstand-backend/pkg/maps"
	"github.com/angelmondragon/farmstand-backend/pkg/metrics"
	"github.com/angelmondragon/farmstand-backend/pkg/migrate"
	"github.com/angelmondragon/farmstand-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	mapsOpts := []maps.Option{}
	if cfg.GoogleMaps.BaseURL != "" {
		mapsOpts = append(mapsOpts, maps.WithBaseURL(cfg.GoogleMaps.BaseURL))
	}
	mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey, mapsOpts...)
	requireResource(ctx, logg, "google maps", err)
	geocoder := maps.NewCachedGeocoder(mapsClient, redisClient, cfg.Discovery.GeocodeCacheTTL, logg)

	loc, err := cfg.Discovery.Location()
	requireResource(ctx, logg, "market time zone", err)
	engine := ranking.NewEngine(loc)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	discoveryMetrics := metrics.NewDiscoveryMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())

	homeService, err := home.NewService(catalogRepo, redisClient, engine, home.OptionsFromConfig(cfg.Discovery), logg, discoveryMetrics)
	requireResource(ctx, logg, "home service", err)

	nearbyService, err := nearby.NewService(catalogRepo, engine, nearby.Options{Limit: cfg.Discovery.NearbyLimit}, logg, discoveryMetrics)
	requireResource(ctx, logg, "nearby service", err)

	searchService, err := search.NewService(catalogRepo, geocoder, engine, search.OptionsFromConfig(cfg.Discovery), logg, discoveryMetrics)
	requireResource(ctx, logg, "search service", err)

	addr := ":" + env.First(cfg.App.Port, "PORT")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			geocoder,
			homeService,
			nearbyService,
			searchService,
			httpMetrics,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"serviceKind": cfg.Service.Kind,
	})

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(runCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
	}

	logg.Info(runCtx, "api server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), shutdownTimeout)
	defer cancel()

	closeErr := server.Shutdown(shutdownCtx)
	// snapshot writes detached from finished requests still hold a redis handle
	homeService.Wait()
	closeErr = multierr.Combine(closeErr, redisClient.Close(), dbClient.Close())
	if closeErr != nil {
		logg.Error(shutdownCtx, "error during shutdown", closeErr)
		os.Exit(1)
	}
	logg.Info(shutdownCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
