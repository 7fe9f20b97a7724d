package constants

import "time"

// Default rate limiting configuration
const (
	// DefaultRateLimitRequests is the default number of requests allowed per time window
	DefaultRateLimitRequests = 100
	// DefaultRateLimitWindowMinutes is the default time window for rate limiting
	DefaultRateLimitWindowMinutes = 1
	// DefaultWaitlistRegistrationsPerMinute caps POST /api/waitlist per client
	DefaultWaitlistRegistrationsPerMinute = 30
)

// DefaultRequestTimeout bounds every request, datastore calls included.
const DefaultRequestTimeout = 30 * time.Second

// DefaultRateLimitWindow returns the default rate limit window duration
func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}
