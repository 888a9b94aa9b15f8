package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_FLOAT", "0.75")
	t.Setenv("TEST_DURATION", "250ms")
	t.Setenv("TEST_BOOL", "true")

	assert.Equal(t, "value", GetEnv("TEST_STRING", "default"))
	assert.Equal(t, "default", GetEnv("TEST_UNSET", "default"))
	assert.Equal(t, 42, GetIntEnv("TEST_INT", 1))
	assert.Equal(t, 1, GetIntEnv("TEST_BAD_INT", 1), "Unparsable values fall back to the default")
	assert.Equal(t, int64(42), GetInt64Env("TEST_INT", 1))
	assert.Equal(t, 0.75, GetFloatEnv("TEST_FLOAT", 0.5))
	assert.Equal(t, 250*time.Millisecond, GetDurationEnv("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, GetDurationEnv("TEST_STRING", time.Second))
	assert.True(t, GetBoolEnv("TEST_BOOL", false))
	assert.False(t, GetBoolEnv("TEST_UNSET", false))
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "auditor", cfg.Service.Name)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "9091", cfg.Metrics.Port)
	assert.Equal(t, "auditors", cfg.NATS.QueueGroup)

	assert.Equal(t, 10, cfg.Audit.Workers)
	assert.Equal(t, 25, cfg.Audit.MaxLinks)
	assert.Equal(t, 3*time.Second, cfg.Audit.Timeout)
	assert.Equal(t, 5, cfg.Audit.MaxRedirects)
	assert.Equal(t, int64(10<<20), cfg.Audit.MaxBodyBytes)
	assert.Equal(t, 0.6, cfg.Audit.InternalShare)
	assert.False(t, cfg.Audit.AllowPrivateTargets)

	assert.Equal(t, 20, cfg.Scoring.DeductHigh)
	assert.Equal(t, 10, cfg.Scoring.DeductMedium)
	assert.Equal(t, 5, cfg.Scoring.DeductLow)

	total := 0.0
	for _, w := range cfg.Scoring.Weights {
		total += w
	}
	assert.InDelta(t, 1.0, total, 1e-9, "Default category weights sum to one")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUDIT_WORKERS", "4")
	t.Setenv("AUDIT_FAST_MODE", "true")
	t.Setenv("AUDIT_ALLOW_PRIVATE_TARGETS", "1")
	t.Setenv("SCORE_WEIGHT_LINKS", "0.3")
	t.Setenv("NATS_QUEUE_GROUP", "")

	cfg := Load()

	assert.Equal(t, 4, cfg.Audit.Workers)
	assert.True(t, cfg.Audit.FastMode)
	assert.True(t, cfg.Audit.AllowPrivateTargets)
	assert.Equal(t, 0.3, cfg.Scoring.Weights["links"])
	assert.Equal(t, "auditors", cfg.NATS.QueueGroup, "Empty values keep the default")
}

func TestLoadProgress_Defaults(t *testing.T) {
	cfg := LoadProgress()

	assert.Equal(t, "progress", cfg.Service.Name)
	assert.Equal(t, ":8081", cfg.HTTP.Addr)
	assert.Equal(t, "9092", cfg.Metrics.Port)
	assert.Equal(t, 1000, cfg.WebSocket.MaxConnections)
	assert.Equal(t, 10*time.Second, cfg.WebSocket.WriteTimeout)
}
