package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	FeatureFlags  FeatureFlagsConfig
	Worker        WorkerConfig
	Realtime      RealtimeConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	VoiceOrdering VoiceOrderingConfig
	Metrics       MetricsConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RO_APP_ENV" required:"true"`
	Port         string `envconfig:"RO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RO_DB_DSN"`
	Driver string `envconfig:"RO_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"RO_DB_HOST"`
	Port     int    `envconfig:"RO_DB_PORT" default:"5432"`
	User     string `envconfig:"RO_DB_USER"`
	Password string `envconfig:"RO_DB_PASSWORD"`
	Name     string `envconfig:"RO_DB_NAME"`
	SSLMode  string `envconfig:"RO_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"RO_DB_SQLITE_PATH" default:"file:restaurant-ops.db?_busy_timeout=5000"`

	MaxOpenConns    int           `envconfig:"RO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RO_REDIS_URL"`
	Address      string        `envconfig:"RO_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"RO_REDIS_PASSWORD"`
	DB           int           `envconfig:"RO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig validates access tokens minted by the auth service; this backend never issues them.
type JWTConfig struct {
	Secret string `envconfig:"RO_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"RO_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RO_AUTO_MIGRATE" default:"false"`
	PubSub      bool `envconfig:"RO_FEATURE_PUBSUB" default:"false"`
}

// WorkerConfig drives the job runner and heartbeat cadence.
type WorkerConfig struct {
	PollIntervalMS    int           `envconfig:"RO_WORKER_POLL_INTERVAL_MS" default:"5000"`
	HeartbeatInterval time.Duration `envconfig:"RO_WORKER_HEARTBEAT_INTERVAL" default:"30s"`
	BatchSize         int           `envconfig:"RO_WORKER_BATCH_SIZE" default:"25"`
	Concurrency       int           `envconfig:"RO_WORKER_CONCURRENCY" default:"4"`
	ShutdownTimeout   time.Duration `envconfig:"RO_WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
	StaleAfter        time.Duration `envconfig:"RO_WORKER_STALE_AFTER" default:"2m"`
	OpsPort           string        `envconfig:"RO_WORKER_OPS_PORT" default:"9090"`
}

// PollInterval returns the configured poll cadence.
func (w WorkerConfig) PollInterval() time.Duration {
	if w.PollIntervalMS <= 0 {
		return 0
	}
	return time.Duration(w.PollIntervalMS) * time.Millisecond
}

type RealtimeConfig struct {
	Transport      string        `envconfig:"RO_REALTIME_TRANSPORT" default:"redis"`
	PingInterval   time.Duration `envconfig:"RO_REALTIME_PING_INTERVAL" default:"25s"`
	WriteTimeout   time.Duration `envconfig:"RO_REALTIME_WRITE_TIMEOUT" default:"5s"`
	AllowedOrigins []string      `envconfig:"RO_REALTIME_ALLOWED_ORIGINS" default:"*"`
}

// UsesRedis reports whether pushes fan out through Redis rather than the in-process hub.
func (r RealtimeConfig) UsesRedis() bool {
	return !strings.EqualFold(strings.TrimSpace(r.Transport), RealtimeTransportLocal)
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"RO_EVENTING_IDEMPOTENCY_TTL" default:"72h"`
	DrainTimeout   time.Duration `envconfig:"RO_EVENTING_DRAIN_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"RO_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OutboundTopic      string `envconfig:"RO_PUBSUB_OUTBOUND_TOPIC" default:"ro-outbound-messages"`
	EventsSubscription string `envconfig:"RO_PUBSUB_EVENTS_SUBSCRIPTION" default:"ro-domain-events-worker"`
}

type VoiceOrderingConfig struct {
	MenuSyncURL string        `envconfig:"RO_VOICE_MENU_SYNC_URL"`
	APIKey      string        `envconfig:"RO_VOICE_API_KEY"`
	Timeout     time.Duration `envconfig:"RO_VOICE_TIMEOUT" default:"15s"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"RO_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"RO_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range splitDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
