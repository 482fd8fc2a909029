package notify

import (
	"spidertrigger/internal/config"
	"time"
)

// Delivery defaults; these rarely need tuning.
const (
	defaultMaxAttempts    = 4
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultSource         = "/spider-trigger"
)

// Config holds configuration for the webhook notifier.
type Config struct {
	URL         string        // Webhook endpoint, empty disables the notifier
	SigningKey  string        // HMAC key, empty sends unsigned events
	Source      string        // CloudEvent source (default: /spider-trigger)
	BufferSize  int           // Pending reports buffer (default: 1000)
	Workers     int           // Concurrent delivery goroutines (default: 4)
	HTTPTimeout time.Duration // Per-request timeout (default: 10s)
}

// LoadConfigFromEnv loads notifier tuning from environment variables.
// URL and key come from the service configuration.
func LoadConfigFromEnv(url, key string) Config {
	cfg := Config{
		URL:         url,
		SigningKey:  key,
		Source:      config.GetEnv("REPORT_WEBHOOK_SOURCE", defaultSource),
		BufferSize:  config.GetIntEnv("REPORT_WEBHOOK_BUFFER_SIZE", 1000),
		Workers:     config.GetIntEnv("REPORT_WEBHOOK_WORKERS", 4),
		HTTPTimeout: config.GetDurationEnv("REPORT_WEBHOOK_TIMEOUT", 10*time.Second),
	}
	return cfg.withDefaults()
}

// Enabled reports whether a destination is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

func (c Config) withDefaults() Config {
	if c.Source == "" {
		c.Source = defaultSource
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 1000
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}
