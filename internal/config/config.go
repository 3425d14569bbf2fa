// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDevelopment = "development"
	AppEnvProduction  = "production"
)

// Config is the full process configuration.
type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Lock        LockConfig
	Outbox      OutboxConfig
	Audit       AuditConfig
	Returns     ReturnsConfig
	Numbers     NumbersConfig
	Idempotency IdempotencyConfig
	Worker      WorkerConfig
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	Port     string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDevelopment)
}

// DBConfig configures PostgreSQL. An empty URL selects the in-memory store.
type DBConfig struct {
	URL             string        `envconfig:"DATABASE_URL"`
	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns        int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

func (d DBConfig) Enabled() bool { return d.URL != "" }

// RedisConfig configures Redis. An empty address keeps locks in-process.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type AuthConfig struct {
	JWTSecret      string `envconfig:"JWT_SECRET"`
	ManagerPINHash string `envconfig:"MANAGER_PIN_HASH"`
}

type LockConfig struct {
	TTL  time.Duration `envconfig:"LOCK_TTL" default:"10s"`
	Wait time.Duration `envconfig:"LOCK_WAIT" default:"5s"`
}

type OutboxConfig struct {
	PollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	BatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	Retention    time.Duration `envconfig:"OUTBOX_RETENTION" default:"168h"`
	Channel      string        `envconfig:"OUTBOX_CHANNEL_PREFIX"`
}

type AuditConfig struct {
	CompressThreshold int           `envconfig:"AUDIT_COMPRESS_THRESHOLD" default:"1024"`
	Retention         time.Duration `envconfig:"AUDIT_RETENTION" default:"8760h"`
}

type ReturnsConfig struct {
	// ApprovalRule is a CEL expression applied when the active policy has none
	ApprovalRule string `envconfig:"RETURN_APPROVAL_RULE"`
}

type NumbersConfig struct {
	MaxRetries int `envconfig:"IDENTIFIER_MAX_RETRIES" default:"3"`
}

type IdempotencyConfig struct {
	Enabled bool          `envconfig:"IDEMPOTENCY_ENABLED" default:"true"`
	TTL     time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
}

// WorkerConfig configures the background worker. An empty MetricsPort
// disables its /metrics listener.
type WorkerConfig struct {
	MetricsPort     string        `envconfig:"WORKER_METRICS_PORT" default:"9091"`
	CleanupInterval time.Duration `envconfig:"WORKER_CLEANUP_INTERVAL" default:"1h"`
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" && !c.App.IsDev() {
		errs = append(errs, errors.New("JWT_SECRET is required outside development"))
	}
	if c.Numbers.MaxRetries < 1 {
		errs = append(errs, errors.New("IDENTIFIER_MAX_RETRIES must be at least 1"))
	}
	if c.Outbox.BatchSize < 1 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be at least 1"))
	}
	if c.Outbox.PollInterval <= 0 || c.Worker.CleanupInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL and WORKER_CLEANUP_INTERVAL must be positive"))
	}
	if c.Lock.TTL <= 0 {
		errs = append(errs, errors.New("LOCK_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
