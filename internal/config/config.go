// Package config provides configuration loading from environment variables
// and an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServiceConfig holds configuration for the trigger service.
type ServiceConfig struct {
	Port              string
	MetricsPort       string
	APIKey            string
	ShutdownDrainWait time.Duration // Time to wait for load balancer to drain (0 to skip)
	LogLevel          slog.Level
	ReportWebhookURL  string
	ReportWebhookKey  string
}

// LoadServiceConfig loads service configuration from environment variables.
func LoadServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:              GetEnv("PORT", "8080"),
		MetricsPort:       GetEnv("METRICS_PORT", "9090"),
		APIKey:            GetSecretFile(GetEnv("API_KEY_FILE", "")),
		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", 5*time.Second),
		LogLevel:          ParseLevel(GetEnv("LOG_LEVEL", "info")),
		ReportWebhookURL:  GetEnv("REPORT_WEBHOOK_URL", ""),
		ReportWebhookKey:  GetSecretFile(GetEnv("REPORT_WEBHOOK_KEY_FILE", "")),
	}
}

// RuntimeConfig is the static, process-wide runtime configuration applied to
// every launched container. It is loaded once at startup.
type RuntimeConfig struct {
	Endpoint    string        `yaml:"endpoint"`    // Docker endpoint, e.g. unix:///var/run/docker.sock
	Volumes     []string      `yaml:"volumes"`     // Bind strings, e.g. /data/spiders:/data
	PullImages  bool          `yaml:"pullImages"`  // Pull images missing on the host before create
	Timeout     time.Duration `yaml:"timeout"`     // Deadline for each create and start call
	PullTimeout time.Duration `yaml:"pullTimeout"` // Deadline for one image pull, retries included
}

// fileConfig mirrors the YAML configuration file layout.
type fileConfig struct {
	Docker RuntimeConfig `yaml:"docker"`
}

// LoadRuntimeConfig reads the optional YAML file at path and applies environment
// overrides on top of it. A missing path is not an error.
func LoadRuntimeConfig(path string) (RuntimeConfig, error) {
	cfg := RuntimeConfig{
		Endpoint:    "unix:///var/run/docker.sock",
		PullImages:  true,
		Timeout:     2 * time.Minute,
		PullTimeout: 10 * time.Minute,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			fc := fileConfig{Docker: cfg}
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return RuntimeConfig{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
			cfg = fc.Docker
		case !os.IsNotExist(err):
			return RuntimeConfig{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg.Endpoint = GetEnv("DOCKER_ENDPOINT", cfg.Endpoint)
	cfg.Volumes = GetListEnv("DOCKER_VOLUMES", " ", cfg.Volumes)
	cfg.PullImages = GetBoolEnv("DOCKER_PULL_IMAGES", cfg.PullImages)
	cfg.Timeout = GetDurationEnv("DOCKER_TIMEOUT", cfg.Timeout)
	cfg.PullTimeout = GetDurationEnv("DOCKER_PULL_TIMEOUT", cfg.PullTimeout)
	return cfg, nil
}

// ParseLevel converts a textual log level to a slog.Level. Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
