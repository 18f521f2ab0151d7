package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admissions/internal/core/sequence"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/admissions")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, BackendPostgres, cfg.Sequence.Backend)
	assert.Equal(t, int64(202600000), cfg.Sequence.Starts.Start(sequence.RegistrationNumber))
	assert.Equal(t, int64(260000), cfg.Sequence.Starts.Start(sequence.ApplicationNumber))
	assert.Equal(t, 3, cfg.Signup.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.NotEmpty(t, cfg.JWT.Secret, "development falls back to a dev secret")
	assert.Equal(t, time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, 5, cfg.Worker.MaxAttempts)
	assert.Equal(t, 7*24*time.Hour, cfg.Worker.OutboxRetention)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/admissions")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SEQUENCE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("REGISTRATION_NUMBER_START", "202700000")
	t.Setenv("SIGNUP_MAX_RETRIES", "5")
	t.Setenv("JWT_EXPIRES_IN", "2h")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Sequence.Backend)
	assert.Equal(t, int64(202700000), cfg.Sequence.Starts.Start(sequence.RegistrationNumber))
	assert.Equal(t, 5, cfg.Signup.MaxRetries)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.False(t, cfg.IsDevelopment())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{}},
		{"production without secret", map[string]string{"DATABASE_URL": "x", "APP_ENV": "production"}},
		{"redis without url", map[string]string{"DATABASE_URL": "x", "SEQUENCE_BACKEND": "redis"}},
		{"unknown backend", map[string]string{"DATABASE_URL": "x", "SEQUENCE_BACKEND": "etcd"}},
		{"negative retries", map[string]string{"DATABASE_URL": "x", "SIGNUP_MAX_RETRIES": "-1"}},
		{"malformed registration start", map[string]string{"DATABASE_URL": "x", "REGISTRATION_NUMBER_START": "2026OOOOO"}},
		{"malformed application start", map[string]string{"DATABASE_URL": "x", "APPLICATION_NUMBER_START": "26e4"}},
		{"malformed bool", map[string]string{"DATABASE_URL": "x", "SIGNUP_TRANSACTIONAL": "yes please"}},
		{"zero poll interval", map[string]string{"DATABASE_URL": "x", "OUTBOX_POLL_INTERVAL": "0s"}},
		{"transactional memory", map[string]string{"DATABASE_URL": "x", "SEQUENCE_BACKEND": "memory", "SIGNUP_TRANSACTIONAL": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_ReportsEveryMalformedValue(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/admissions")
	t.Setenv("REGISTRATION_NUMBER_START", "abc")
	t.Setenv("OUTBOX_POLL_INTERVAL", "soon")

	_, err := FromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "REGISTRATION_NUMBER_START")
	assert.Contains(t, err.Error(), "OUTBOX_POLL_INTERVAL")
}
