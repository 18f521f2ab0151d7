// Package config loads the server configuration from the environment.
// A .env file in the working directory is read first when present;
// variables already set in the environment take precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"admissions/internal/core/sequence"
)

// Counter store backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config is the complete server configuration.
type Config struct {
	Env      string
	LogLevel string

	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Sequence SequenceConfig
	Signup   SignupConfig
	Worker   WorkerConfig
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig configures the Postgres pool.
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig configures the optional Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// JWTConfig configures token signing.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// SequenceConfig selects the counter store and start values.
type SequenceConfig struct {
	Backend string
	Starts  sequence.Config
}

// SignupConfig configures candidate registration.
type SignupConfig struct {
	MaxRetries    int
	AcademicYear  string
	Transactional bool
}

// WorkerConfig configures the outbox worker.
type WorkerConfig struct {
	PollInterval    time.Duration
	BatchSize       int
	MaxAttempts     int
	RetryBackoff    time.Duration
	CleanupInterval time.Duration
	OutboxRetention time.Duration
	MetricsPort     string
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	env := &envReader{}

	starts := sequence.DefaultConfig()
	starts.Starts[sequence.RegistrationNumber] = env.getEnvInt64("REGISTRATION_NUMBER_START", sequence.DefaultRegistrationStart)
	starts.Starts[sequence.ApplicationNumber] = env.getEnvInt64("APPLICATION_NUMBER_START", sequence.DefaultApplicationStart)

	cfg := &Config{
		Env:      env.getEnv("APP_ENV", "development"),
		LogLevel: env.getEnv("LOG_LEVEL", "info"),
		HTTP: HTTPConfig{
			Port:         env.getEnv("APP_PORT", "8080"),
			ReadTimeout:  env.getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: env.getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  env.getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			URL:             env.getEnv("DATABASE_URL", ""),
			MaxConns:        env.getEnvInt("DB_MAX_CONNS", 20),
			MinConns:        env.getEnvInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: env.getEnvDuration("DB_MAX_CONN_LIFETIME", time.Hour),
			MaxConnIdleTime: env.getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          env.getEnv("REDIS_URL", ""),
			PoolSize:     env.getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: env.getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  env.getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  env.getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: env.getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		JWT: JWTConfig{
			Secret: env.getEnv("JWT_SECRET", ""),
			Issuer: env.getEnv("JWT_ISSUER", "admissions"),
			TTL:    env.getEnvDuration("JWT_EXPIRES_IN", 24*time.Hour),
		},
		Sequence: SequenceConfig{
			Backend: strings.ToLower(env.getEnv("SEQUENCE_BACKEND", BackendPostgres)),
			Starts:  starts,
		},
		Signup: SignupConfig{
			MaxRetries:    env.getEnvInt("SIGNUP_MAX_RETRIES", 3),
			AcademicYear:  env.getEnv("ACADEMIC_YEAR", "2026-2027"),
			Transactional: env.getEnvBool("SIGNUP_TRANSACTIONAL", false),
		},
		Worker: WorkerConfig{
			PollInterval:    env.getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:       env.getEnvInt("OUTBOX_BATCH_SIZE", 50),
			MaxAttempts:     env.getEnvInt("OUTBOX_MAX_ATTEMPTS", 5),
			RetryBackoff:    env.getEnvDuration("OUTBOX_RETRY_BACKOFF", time.Minute),
			CleanupInterval: env.getEnvDuration("OUTBOX_CLEANUP_INTERVAL", time.Hour),
			OutboxRetention: env.getEnvDuration("OUTBOX_RETENTION", 7*24*time.Hour),
			MetricsPort:     env.getEnv("WORKER_METRICS_PORT", "9091"),
		},
	}

	if err := errors.Join(append(env.errs, cfg.Validate())...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and their combinations.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWT.Secret == "" {
		if c.IsDevelopment() {
			c.JWT.Secret = "dev-secret-change-me"
		} else {
			errs = append(errs, errors.New("JWT_SECRET is required outside development"))
		}
	}

	switch c.Sequence.Backend {
	case BackendPostgres, BackendMemory:
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for SEQUENCE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SEQUENCE_BACKEND %q", c.Sequence.Backend))
	}

	if c.Signup.MaxRetries < 0 {
		errs = append(errs, errors.New("SIGNUP_MAX_RETRIES must not be negative"))
	}
	if c.Worker.PollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	if c.Signup.Transactional && c.Sequence.Backend != BackendPostgres {
		errs = append(errs, errors.New("SIGNUP_TRANSACTIONAL requires SEQUENCE_BACKEND=postgres"))
	}

	return errors.Join(errs...)
}

// envReader reads typed variables and collects the ones that do not parse.
type envReader struct {
	errs []error
}

func (e *envReader) fail(key, value string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (e *envReader) getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (e *envReader) getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value, err)
		return defaultValue
	}
	return n
}

func (e *envReader) getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		e.fail(key, value, err)
		return defaultValue
	}
	return n
}

func (e *envReader) getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(key, value, err)
		return defaultValue
	}
	return b
}

func (e *envReader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.fail(key, value, err)
		return defaultValue
	}
	return d
}
