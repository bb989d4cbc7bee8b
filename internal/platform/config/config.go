package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full process configuration, read from the environment.
type Config struct {
	Server    Server
	Log       Log
	Database  Database
	Audit     Audit
	Redis     RedisConfig
	RateLimit RateLimit
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `envconfig:"AIDLEDGER_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	// OpsAddr moves /metrics and /healthz to a second listener. Empty serves
	// them on Addr.
	OpsAddr string `envconfig:"AIDLEDGER_OPS_ADDR"`
	// CORSOrigins enables CORS for browser dashboards. Empty disables it.
	CORSOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
}

type Log struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Database configures PostgreSQL. An empty URL selects the in-memory stores.
type Database struct {
	URL             string        `envconfig:"DATABASE_URL"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	RunMigrations   bool          `envconfig:"RUN_MIGRATIONS" default:"true"`
}

// Audit configures the consensus log. Without brokers an in-memory log is used.
type Audit struct {
	Brokers          []string      `envconfig:"KAFKA_BROKERS"`
	Topic            string        `envconfig:"AUDIT_TOPIC"`
	ClientID         string        `envconfig:"AUDIT_CLIENT_ID" default:"aidledger"`
	SubmitTimeout    time.Duration `envconfig:"AUDIT_SUBMIT_TIMEOUT" default:"10s"`
	VerifyTimeout    time.Duration `envconfig:"AUDIT_VERIFY_TIMEOUT" default:"5s"`
	BreakerThreshold int           `envconfig:"AUDIT_BREAKER_THRESHOLD" default:"5"`
	BreakerCooldown  time.Duration `envconfig:"AUDIT_BREAKER_COOLDOWN" default:"30s"`
	Partitions       int32         `envconfig:"AUDIT_TOPIC_PARTITIONS" default:"1"`
	Replication      int16         `envconfig:"AUDIT_TOPIC_REPLICATION" default:"1"`
}

// RedisConfig configures the proof verification cache. Empty URL disables it.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
	VerifyTTL    time.Duration `envconfig:"VERIFY_CACHE_TTL" default:"24h"`
}

// RateLimit bounds transfer submissions per client address.
type RateLimit struct {
	Disabled bool          `envconfig:"RATELIMIT_DISABLED" default:"false"`
	Writes   int           `envconfig:"RATELIMIT_WRITES" default:"60"`
	Window   time.Duration `envconfig:"RATELIMIT_WINDOW" default:"1m"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the config from the environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.Log.Format)
	}
	if c.Audit.SubmitTimeout <= 0 {
		return fmt.Errorf("AUDIT_SUBMIT_TIMEOUT must be positive")
	}
	if c.Audit.VerifyTimeout <= 0 {
		return fmt.Errorf("AUDIT_VERIFY_TIMEOUT must be positive")
	}
	if !c.RateLimit.Disabled && (c.RateLimit.Writes < 1 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("RATELIMIT_WRITES and RATELIMIT_WINDOW must be positive")
	}
	if c.Audit.Partitions < 1 || c.Audit.Replication < 1 {
		return fmt.Errorf("audit topic partitions and replication must be at least 1")
	}
	return nil
}

// KafkaEnabled reports whether a real broker is configured.
func (a Audit) KafkaEnabled() bool {
	return len(a.Brokers) > 0
}
