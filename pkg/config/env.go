package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "FARMSTAND"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv         = "FARMSTAND_APP_ENV"
	EnvPort           = "FARMSTAND_APP_PORT"
	EnvDBDSN          = "FARMSTAND_DB_DSN"
	EnvDBHost         = "FARMSTAND_DB_HOST"
	EnvDBUser         = "FARMSTAND_DB_USER"
	EnvDBName         = "FARMSTAND_DB_NAME"
	EnvRedisURL       = "FARMSTAND_REDIS_URL"
	EnvUseSQLite      = "FARMSTAND_USE_SQLITE"
	EnvTimeZone       = "FARMSTAND_DISCOVERY_TIME_ZONE"
	EnvTrustedProxies = "FARMSTAND_TRUSTED_PROXIES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
