package utils

import (
	"os"
	"strconv"
	"strings"
)

const DefaultServiceName = "pingaroo"

func IsTracingEnabled() bool {
	return GetEnvBool("OTEL_TRACES_ENABLED", false)
}

func OTelServiceName() string {
	return GetEnvTrimmedOrDefault("OTEL_SERVICE_NAME", DefaultServiceName)
}

// OTelSampleRatio reads OTEL_TRACES_SAMPLER_ARG as a ratio in [0, 1].
// Missing or out-of-range values sample everything.
func OTelSampleRatio() float64 {
	v := strings.TrimSpace(os.Getenv("OTEL_TRACES_SAMPLER_ARG"))
	if v == "" {
		return 1
	}

	ratio, err := strconv.ParseFloat(v, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1
	}

	return ratio
}
