package config

const (
	EnvPrefix = "RO"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	RealtimeTransportLocal = "local"
	RealtimeTransportRedis = "redis"

	EnvAppEnv  = "RO_APP_ENV"
	EnvAppPort = "RO_APP_PORT"

	EnvDBDSN  = "RO_DB_DSN"
	EnvDBHost = "RO_DB_HOST"
	EnvDBUser = "RO_DB_USER"
	EnvDBName = "RO_DB_NAME"

	EnvRedisURL = "RO_REDIS_URL"

	EnvJWTSecret = "RO_JWT_SECRET"
	EnvJWTIssuer = "RO_JWT_ISSUER"

	EnvUseSQLite = "RO_USE_SQLITE"

	EnvWorkerPollIntervalMS    = "RO_WORKER_POLL_INTERVAL_MS"
	EnvWorkerHeartbeatInterval = "RO_WORKER_HEARTBEAT_INTERVAL"

	EnvRealtimeTransport = "RO_REALTIME_TRANSPORT"
)

// splitDBEnvVars must all be set when RO_DB_DSN is absent.
var splitDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
