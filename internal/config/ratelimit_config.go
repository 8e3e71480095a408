package config

import (
	"strconv"
	"time"
)

type RateLimitConfig interface {
	GetRequestsPerMinute() int
	GetRateLimitWindow() time.Duration
}

type RateLimit struct{}

var _ RateLimitConfig = RateLimit{}

// GetRequestsPerMinute returns the outbound request ceiling towards the
// Asana API. The default matches the Asana free tier (150 req/min);
// premium workspaces can raise it via ASANA_RATE_LIMIT.
func (RateLimit) GetRequestsPerMinute() int {
	v := GetEnv("ASANA_RATE_LIMIT", "150")
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 150
	}
	return n
}

func (RateLimit) GetRateLimitWindow() time.Duration {
	return time.Minute
}
