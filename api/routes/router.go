package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/farmstand-backend/api/controllers"
	"github.com/angelmondragon/farmstand-backend/api/middleware"
	"github.com/angelmondragon/farmstand-backend/pkg/config"
	"github.com/angelmondragon/farmstand-backend/pkg/db"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
	"github.com/angelmondragon/farmstand-backend/pkg/maps"
	"github.com/angelmondragon/farmstand-backend/pkg/metrics"
	"github.com/angelmondragon/farmstand-backend/pkg/redis"
)

// NewRouter wires the discovery API. redisClient may be nil, in which case search is
// not rate limited and readiness reports redis as not configured.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	geocoder maps.ZipGeocoder,
	homeService controllers.HomeService,
	nearbyService controllers.NearbyService,
	searchService controllers.SearchService,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	deps := map[string]controllers.Pinger{"db": dbP, "redis": nil}
	var rateStore middleware.RateLimitStore
	if redisClient != nil {
		deps["redis"] = redisClient
		rateStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	searchPolicy := middleware.NewRateLimitPolicy(
		"search",
		cfg.Discovery.SearchRateWindow,
		cfg.Discovery.SearchRateLimit,
	)
	if trusted, err := cfg.App.TrustedProxyPrefixes(); err != nil {
		if logg != nil {
			logg.WarnErr(context.Background(), "rate_limit.trusted_proxies_invalid", err)
		}
	} else {
		searchPolicy = searchPolicy.WithTrustedProxies(trusted)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/home", controllers.HomeProducts(homeService, geocoder, logg))
			r.Get("/{productId}/nearby", controllers.NearbyProducts(nearbyService, logg))
		})
		r.With(middleware.RateLimit(searchPolicy, rateStore, logg)).Get("/search", controllers.Search(searchService, logg))
	})

	return r
}
