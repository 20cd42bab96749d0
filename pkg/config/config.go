package config

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GoogleMaps   GoogleMapsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Discovery    DiscoveryConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Discovery.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.App.TrustedProxyPrefixes(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FARMSTAND_APP_ENV" required:"true"`
	Port         string `envconfig:"FARMSTAND_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FARMSTAND_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FARMSTAND_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"FARMSTAND_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	// TrustedProxies are CIDRs or bare addresses whose X-Forwarded-For entries are believed.
	TrustedProxies []string `envconfig:"FARMSTAND_TRUSTED_PROXIES"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

// TrustedProxyPrefixes parses TrustedProxies. A bare address becomes a single-host prefix.
func (a AppConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(a.TrustedProxies))
	for _, raw := range a.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("parsing %s entry %q: %w", EnvTrustedProxies, raw, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s entry %q: %w", EnvTrustedProxies, raw, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

type ServiceConfig struct {
	Kind string `envconfig:"FARMSTAND_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN        string `envconfig:"FARMSTAND_DB_DSN"`
	Driver     string `envconfig:"FARMSTAND_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"FARMSTAND_SQLITE_PATH" default:"farmstand.db"`

	LegacyHost     string `envconfig:"FARMSTAND_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMSTAND_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMSTAND_DB_USER"`
	LegacyPassword string `envconfig:"FARMSTAND_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMSTAND_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMSTAND_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMSTAND_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMSTAND_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMSTAND_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMSTAND_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMSTAND_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FARMSTAND_REDIS_ADDR"`
	Password     string        `envconfig:"FARMSTAND_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMSTAND_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMSTAND_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMSTAND_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMSTAND_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMSTAND_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMSTAND_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FARMSTAND_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FARMSTAND_AUTO_MIGRATE" default:"false"`
}

type GoogleMapsConfig struct {
	APIKey  string `envconfig:"FARMSTAND_GOOGLE_MAPS_API_KEY"`
	BaseURL string `envconfig:"FARMSTAND_GOOGLE_MAPS_BASE_URL"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"FARMSTAND_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	CatalogSubscription string `envconfig:"FARMSTAND_PUBSUB_CATALOG_SUBSCRIPTION"`
}

// DiscoveryConfig tunes the ranking, fallback and search entry points.
type DiscoveryConfig struct {
	HomePageSize        int           `envconfig:"FARMSTAND_DISCOVERY_HOME_PAGE_SIZE" default:"20"`
	GeoBatchSize        int           `envconfig:"FARMSTAND_DISCOVERY_GEO_BATCH_SIZE" default:"100"`
	SearchBatchSize     int           `envconfig:"FARMSTAND_DISCOVERY_SEARCH_BATCH_SIZE" default:"50"`
	SearchRadiusKm      float64       `envconfig:"FARMSTAND_DISCOVERY_SEARCH_RADIUS_KM" default:"320"`
	NearbyLimit         int           `envconfig:"FARMSTAND_DISCOVERY_NEARBY_LIMIT" default:"3"`
	SnapshotTTL         time.Duration `envconfig:"FARMSTAND_DISCOVERY_SNAPSHOT_TTL" default:"1h"`
	CacheReadTimeout    time.Duration `envconfig:"FARMSTAND_DISCOVERY_CACHE_READ_TIMEOUT" default:"150ms"`
	LiveQueryTimeout    time.Duration `envconfig:"FARMSTAND_DISCOVERY_LIVE_QUERY_TIMEOUT" default:"5s"`
	BackgroundWriteTime time.Duration `envconfig:"FARMSTAND_DISCOVERY_BACKGROUND_WRITE_TIMEOUT" default:"2s"`
	GeocodeCacheTTL     time.Duration `envconfig:"FARMSTAND_DISCOVERY_GEOCODE_CACHE_TTL" default:"720h"`
	TimeZone            string        `envconfig:"FARMSTAND_DISCOVERY_TIME_ZONE" default:"America/Chicago"`

	SearchRateLimit  int           `envconfig:"FARMSTAND_DISCOVERY_SEARCH_RATE_LIMIT" default:"60"`
	SearchRateWindow time.Duration `envconfig:"FARMSTAND_DISCOVERY_SEARCH_RATE_WINDOW" default:"1m"`
}

// Location resolves the market time zone used for operating hours and delivery days.
func (d DiscoveryConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(d.TimeZone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", name, err)
	}
	return loc, nil
}

type CronConfig struct {
	SnapshotWarmInterval time.Duration `envconfig:"FARMSTAND_CRON_SNAPSHOT_WARM_INTERVAL" default:"45m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
