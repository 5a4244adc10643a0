package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Queue   QueueConfig
	Lock    LockConfig
	Cache   CacheConfig
	Socket  SocketConfig
	Cron    CronConfig

	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TOITE_APP_ENV" required:"true"`
	Port         string `envconfig:"TOITE_APP_PORT" required:"true"`
	Version      string `envconfig:"TOITE_APP_VERSION" default:"1"`
	LogLevel     string `envconfig:"TOITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TOITE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TOITE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TOITE_DB_DSN"`
	Driver string `envconfig:"TOITE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TOITE_DB_HOST"`
	LegacyPort     int    `envconfig:"TOITE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TOITE_DB_USER"`
	LegacyPassword string `envconfig:"TOITE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TOITE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TOITE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TOITE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TOITE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TOITE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TOITE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TOITE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TOITE_REDIS_ADDR"`
	Password     string        `envconfig:"TOITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TOITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TOITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TOITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TOITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TOITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TOITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TOITE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TOITE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TOITE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type QueueConfig struct {
	Name               string        `envconfig:"TOITE_QUEUE_NAME" default:"orders"`
	Concurrency        int           `envconfig:"TOITE_QUEUE_CONCURRENCY" default:"4"`
	PollInterval       time.Duration `envconfig:"TOITE_QUEUE_POLL_INTERVAL" default:"500ms"`
	MaxAttempts        int           `envconfig:"TOITE_QUEUE_MAX_ATTEMPTS" default:"5"`
	BackoffBase        time.Duration `envconfig:"TOITE_QUEUE_BACKOFF_BASE" default:"2s"`
	BackoffCap         time.Duration `envconfig:"TOITE_QUEUE_BACKOFF_CAP" default:"5m"`
	ProcessingDeadline time.Duration `envconfig:"TOITE_QUEUE_PROCESSING_DEADLINE" default:"2m"`
}

type LockConfig struct {
	TTL           time.Duration `envconfig:"TOITE_LOCK_TTL" default:"1m"`
	RetryAttempts int           `envconfig:"TOITE_LOCK_RETRY_ATTEMPTS" default:"10"`
	RetryDelay    time.Duration `envconfig:"TOITE_LOCK_RETRY_DELAY" default:"200ms"`
}

type CacheConfig struct {
	Enabled bool          `envconfig:"TOITE_CACHE_ENABLED" default:"true"`
	TTL     time.Duration `envconfig:"TOITE_CACHE_TTL" default:"300s"`
}

type SocketConfig struct {
	ReadBufferSize  int           `envconfig:"TOITE_SOCKET_READ_BUFFER" default:"1024"`
	WriteBufferSize int           `envconfig:"TOITE_SOCKET_WRITE_BUFFER" default:"1024"`
	WriteTimeout    time.Duration `envconfig:"TOITE_SOCKET_WRITE_TIMEOUT" default:"10s"`
	PingInterval    time.Duration `envconfig:"TOITE_SOCKET_PING_INTERVAL" default:"30s"`
	SendBuffer      int           `envconfig:"TOITE_SOCKET_SEND_BUFFER" default:"256"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TOITE_AUTO_MIGRATE" default:"false"`
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"TOITE_CRON_INTERVAL" default:"1h"`
	DeadLetterMaxAge   time.Duration `envconfig:"TOITE_CRON_DEAD_LETTER_MAX_AGE" default:"720h"`
	StaleClaimDeadline time.Duration `envconfig:"TOITE_CRON_STALE_CLAIM_DEADLINE" default:"2m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
