package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10*time.Second, cfg.Audit.SubmitTimeout)
	assert.Equal(t, 5, cfg.Audit.BreakerThreshold)
	assert.Equal(t, 24*time.Hour, cfg.Redis.VerifyTTL)
	assert.True(t, cfg.Database.RunMigrations)
	assert.False(t, cfg.Audit.KafkaEnabled())
	assert.Equal(t, 60, cfg.RateLimit.Writes)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("AIDLEDGER_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("AUDIT_TOPIC", "aid-audit")
	t.Setenv("AUDIT_SUBMIT_TIMEOUT", "250ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://stats.example.org,http://localhost:3000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Audit.Brokers)
	assert.Equal(t, "aid-audit", cfg.Audit.Topic)
	assert.Equal(t, 250*time.Millisecond, cfg.Audit.SubmitTimeout)
	assert.True(t, cfg.Audit.KafkaEnabled())
	assert.Equal(t, []string{"https://stats.example.org", "http://localhost:3000"}, cfg.Server.CORSOrigins)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Run("log format", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")
		_, err := FromEnv()
		assert.Error(t, err)
	})
	t.Run("timeout", func(t *testing.T) {
		t.Setenv("AUDIT_SUBMIT_TIMEOUT", "0s")
		_, err := FromEnv()
		assert.Error(t, err)
	})
	t.Run("verify timeout", func(t *testing.T) {
		t.Setenv("AUDIT_VERIFY_TIMEOUT", "-1s")
		_, err := FromEnv()
		assert.Error(t, err)
	})
	t.Run("rate limit", func(t *testing.T) {
		t.Setenv("RATELIMIT_WRITES", "0")
		_, err := FromEnv()
		assert.Error(t, err)
	})
	t.Run("unparsable duration", func(t *testing.T) {
		t.Setenv("SHUTDOWN_TIMEOUT", "soon")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}
