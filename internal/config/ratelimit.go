package config

import (
	"strconv"
	"time"
)

// RateLimitConfig describes a single fixed-window limit.
type RateLimitConfig struct {
	Enabled bool
	Window  time.Duration
	MaxHits int
}

// GetSessionRateLimit returns the per-IP limit on session creation.
// SESSION_RATE_LIMIT sets the allowed requests per minute; 0 disables it.
func GetSessionRateLimit() RateLimitConfig {
	maxHits := 30
	if raw := GetEnvOrDefault("SESSION_RATE_LIMIT", ""); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxHits = parsed
		}
	}

	return RateLimitConfig{
		Enabled: maxHits > 0,
		Window:  time.Minute,
		MaxHits: maxHits,
	}
}
