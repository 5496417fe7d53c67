package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:storefront.db?cache=shared"
)

const (
	EnvAppEnv        = "STOREFRONT_APP_ENV"
	EnvPort          = "STOREFRONT_APP_PORT"
	EnvDBDSN         = "STOREFRONT_DB_DSN"
	EnvDBDriver      = "STOREFRONT_DB_DRIVER"
	EnvDBHost        = "STOREFRONT_DB_HOST"
	EnvDBPort        = "STOREFRONT_DB_PORT"
	EnvDBUser        = "STOREFRONT_DB_USER"
	EnvDBPassword    = "STOREFRONT_DB_PASSWORD"
	EnvDBName        = "STOREFRONT_DB_NAME"
	EnvRedisURL      = "STOREFRONT_REDIS_URL"
	EnvSessionSecret = "STOREFRONT_SESSION_SECRET"
	EnvSessionTTL    = "STOREFRONT_SESSION_TTL"
	EnvUseSQLite     = "STOREFRONT_USE_SQLITE"
	EnvUploadMax     = "STOREFRONT_UPLOAD_MAX_BYTES"
	EnvCORSOrigins   = "STOREFRONT_CORS_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
