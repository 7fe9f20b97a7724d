package config

import (
	"testing"

	"github.com/akeren/pingaroo/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCacheConfig_FromEnvironment(t *testing.T) {
	t.Setenv("REDIS_HOST", " redis ")
	t.Setenv("REDIS_PORT", "")
	t.Setenv("REDIS_PASSWORD", "pw")
	t.Setenv("REDIS_DB", "2")

	cc := NewCacheConfig()
	assert.Equal(t, "redis", cc.Host)
	assert.Equal(t, "6379", cc.Port)
	assert.Equal(t, "pw", cc.Password)
	assert.Equal(t, 2, cc.DB)
	assert.True(t, cc.IsConfigured())
}

func TestNewCacheConfig_InvalidDBFallsBackToZero(t *testing.T) {
	t.Setenv("REDIS_DB", "primary")
	assert.Equal(t, 0, NewCacheConfig().DB)
}

func TestNewCache_NotConfigured(t *testing.T) {
	logger := log.NewLoggerWithJSONOutput()
	cc := &CacheConfig{}

	_, err := cc.NewCache(logger)
	require.ErrorIs(t, err, ErrCacheNotConfigured)
	assert.Nil(t, cc.NewCacheOrNil(logger))
}

func TestCloseCache_Nil(t *testing.T) {
	assert.NoError(t, CloseCache(nil, log.NewLoggerWithJSONOutput()))
}
