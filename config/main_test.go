package config

import (
	"testing"
	"time"

	"github.com/akeren/pingaroo/internal/log"
	"github.com/akeren/pingaroo/pkg/constants"
	"github.com/stretchr/testify/assert"
)

func clearAppEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW", "REQUEST_TIMEOUT", "WAITLIST_RATE_LIMIT_REQUESTS"} {
		t.Setenv(key, "")
	}
}

func TestNewAppConfig_Defaults(t *testing.T) {
	clearAppEnv(t)

	cfg := NewAppConfig(log.NewLoggerWithJSONOutput())
	assert.Equal(t, constants.DefaultRateLimitRequests, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, constants.DefaultRequestTimeout, cfg.RequestTimeout)
	assert.Equal(t, constants.DefaultWaitlistRegistrationsPerMinute, cfg.WaitlistRateLimitRequests)
}

func TestNewAppConfig_FromEnvironment(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("RATE_LIMIT_REQUESTS", "250")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("REQUEST_TIMEOUT", "10s")
	t.Setenv("WAITLIST_RATE_LIMIT_REQUESTS", "5")

	cfg := NewAppConfig(log.NewLoggerWithJSONOutput())
	assert.Equal(t, 250, cfg.RateLimitRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.WaitlistRateLimitRequests)
}

func TestNewAppConfig_InvalidValuesKeepDefaults(t *testing.T) {
	for key, value := range map[string]string{
		"RATE_LIMIT_REQUESTS":          "many",
		"RATE_LIMIT_WINDOW":            "-1m",
		"REQUEST_TIMEOUT":              "0s",
		"WAITLIST_RATE_LIMIT_REQUESTS": "-3",
	} {
		t.Run(key, func(t *testing.T) {
			clearAppEnv(t)
			t.Setenv(key, value)

			assert.Equal(t, defaultAppConfig(), NewAppConfig(log.NewLoggerWithJSONOutput()))
		})
	}
}
