// Package config defines service configuration and its defaults.
//
// Conventions:
//   - Provide New() to build a Config with defaults.
//   - Load layers a YAML file and the environment on top of New().
//   - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string `koanf:"cors_origins"`
	// MaxPageLimit caps ?limit on every paged endpoint.
	MaxPageLimit int `koanf:"max_page_limit"`

	// Store selects the persistence backend: memory or postgres.
	Store       string `koanf:"store"`
	DatabaseURL string `koanf:"database_url"`
	DBMaxConns  int32  `koanf:"db_max_conns"`

	// RedisAddr enables the Redis token store when set.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// NATSURL enables verified-pick notifications when set.
	NATSURL string `koanf:"nats_url"`

	// VerificationInterval is the period of the verification scheduler.
	VerificationInterval time.Duration `koanf:"verification_interval"`
	// EventTimeout bounds the verification of a single event.
	EventTimeout time.Duration `koanf:"event_timeout"`

	// QueueSize bounds the verification job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of verification workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize caps the number of event IDs tracked as queued.
	DedupeSize int `koanf:"dedupe_size"`

	SessionTTL time.Duration `koanf:"session_ttl"`
	CSRFTTL    time.Duration `koanf:"csrf_ttl"`

	// Score weights.
	AccuracyWeight    float64 `koanf:"accuracy_weight"`
	FollowersPerPoint float64 `koanf:"followers_per_point"`
	SocialCap         float64 `koanf:"social_cap"`
	ScorePrecision    int32   `koanf:"score_precision"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		CORSOrigins:          []string{"http://localhost:3000"},
		MaxPageLimit:         100,
		Store:                StoreMemory,
		DBMaxConns:           10,
		VerificationInterval: time.Hour,
		EventTimeout:         30 * time.Second,
		QueueSize:            1_000,
		WorkerCount:          1,
		DedupeSize:           10_000,
		SessionTTL:           7 * 24 * time.Hour,
		CSRFTTL:              time.Hour,
		AccuracyWeight:       70,
		FollowersPerPoint:    10,
		SocialCap:            30,
		ScorePrecision:       2,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StorePostgres:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StorePostgres && c.DatabaseURL == "":
		return fmt.Errorf("%w: database_url is required for the postgres store", ErrInvalidConfig)
	case c.VerificationInterval <= 0:
		return fmt.Errorf("%w: verification_interval must be positive", ErrInvalidConfig)
	case c.EventTimeout <= 0:
		return fmt.Errorf("%w: event_timeout must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0 || c.WorkerCount <= 0:
		return fmt.Errorf("%w: queue_size and worker_count must be positive", ErrInvalidConfig)
	case c.MaxPageLimit <= 0:
		return fmt.Errorf("%w: max_page_limit must be positive", ErrInvalidConfig)
	case c.SessionTTL <= 0 || c.CSRFTTL <= 0:
		return fmt.Errorf("%w: token ttls must be positive", ErrInvalidConfig)
	case c.FollowersPerPoint <= 0 || c.ScorePrecision < 0:
		return fmt.Errorf("%w: invalid score weights", ErrInvalidConfig)
	}
	return nil
}
