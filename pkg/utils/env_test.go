package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvBool(t *testing.T) {
	t.Setenv("PINGAROO_FLAG", "true")
	assert.True(t, GetEnvBool("PINGAROO_FLAG", false))

	t.Setenv("PINGAROO_FLAG", "nope")
	assert.True(t, GetEnvBool("PINGAROO_FLAG", true))

	t.Setenv("PINGAROO_FLAG", " ")
	assert.False(t, GetEnvBool("PINGAROO_FLAG", false))
}

func TestGetEnvTrimmedOrDefault(t *testing.T) {
	t.Setenv("PINGAROO_DIR", "  migrations  ")
	assert.Equal(t, "migrations", GetEnvTrimmedOrDefault("PINGAROO_DIR", "x"))

	t.Setenv("PINGAROO_DIR", "")
	assert.Equal(t, "x", GetEnvTrimmedOrDefault("PINGAROO_DIR", "x"))
}

func TestOTelServiceName(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	assert.Equal(t, DefaultServiceName, OTelServiceName())

	t.Setenv("OTEL_SERVICE_NAME", "pingaroo-staging")
	assert.Equal(t, "pingaroo-staging", OTelServiceName())
}

func TestOTelSampleRatio(t *testing.T) {
	cases := map[string]float64{
		"":     1,
		"0.25": 0.25,
		"0":    0,
		"1.5":  1,
		"abc":  1,
	}

	for raw, want := range cases {
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", raw)
		assert.InDelta(t, want, OTelSampleRatio(), 1e-9, raw)
	}
}
