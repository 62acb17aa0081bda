package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, int64(10), cfg.RateLimitLimit)
	assert.Equal(t, time.Minute, cfg.RateLimitPeriod)
	assert.Equal(t, "0.1", cfg.CommissionRate.String())
	assert.Equal(t, 24*time.Hour, cfg.PendingOrderMaxAge)
	assert.Equal(t, 10*time.Minute, cfg.ReaperInterval)
}

func TestLoad_OverridesRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_LIMIT", "5")
	t.Setenv("RATE_LIMIT_PERIOD", "30s")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, int64(5), cfg.RateLimitLimit)
	assert.Equal(t, 30*time.Second, cfg.RateLimitPeriod)
}

func TestLoad_RejectsBadCommissionRate(t *testing.T) {
	t.Setenv("COMMISSION_RATE", "1.5")

	_, err := Load()
	assert.Error(t, err)
}
