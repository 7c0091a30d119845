package dispatcher

import (
	"nightly/internal/config"
	"time"
)

// Hardcoded delivery defaults - these rarely need tuning.
const (
	defaultMaxRetries       = 3
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30 * time.Second
)

// MemoryConfig holds configuration for the in-memory dispatcher. The
// pipeline is a short-lived nightly job, so defaults are small.
type MemoryConfig struct {
	BufferSize  int           // pending events buffer (default: 1024)
	Workers     int           // concurrent delivery goroutines (default: 4)
	HTTPTimeout time.Duration // per-request timeout (default: 10s)
}

// LoadConfigFromEnv loads dispatcher configuration from environment variables.
func LoadConfigFromEnv() MemoryConfig {
	cfg := MemoryConfig{
		BufferSize:  config.GetIntEnv("NIGHTLY_DISPATCHER_BUFFER_SIZE", 1024),
		Workers:     config.GetIntEnv("NIGHTLY_DISPATCHER_WORKERS", 4),
		HTTPTimeout: config.GetDurationEnv("NIGHTLY_DISPATCHER_HTTP_TIMEOUT", 10*time.Second),
	}
	return cfg.withDefaults()
}

// withDefaults fills in zero values with defaults.
func (c MemoryConfig) withDefaults() MemoryConfig {
	if c.BufferSize <= 0 {
		c.BufferSize = 1024
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}
