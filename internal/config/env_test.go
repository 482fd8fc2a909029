package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	result := GetEnv("TEST_NONEXISTENT_VAR", "default")
	if result != "default" {
		t.Errorf("Expected 'default', got %q", result)
	}

	t.Setenv("TEST_GET_ENV", "custom")
	result = GetEnv("TEST_GET_ENV", "default")
	if result != "custom" {
		t.Errorf("Expected 'custom', got %q", result)
	}
}

func TestGetIntEnv(t *testing.T) {
	if result := GetIntEnv("TEST_NONEXISTENT_INT", 42); result != 42 {
		t.Errorf("Expected 42, got %d", result)
	}

	t.Setenv("TEST_INT_ENV", "123")
	if result := GetIntEnv("TEST_INT_ENV", 42); result != 123 {
		t.Errorf("Expected 123, got %d", result)
	}

	t.Setenv("TEST_INVALID_INT", "not-a-number")
	if result := GetIntEnv("TEST_INVALID_INT", 42); result != 42 {
		t.Errorf("Expected 42 for invalid int, got %d", result)
	}
}

func TestGetBoolEnv(t *testing.T) {
	if !GetBoolEnv("TEST_NONEXISTENT_BOOL", true) {
		t.Error("Expected default true")
	}

	t.Setenv("TEST_BOOL_ENV", "false")
	if GetBoolEnv("TEST_BOOL_ENV", true) {
		t.Error("Expected false")
	}

	t.Setenv("TEST_INVALID_BOOL", "maybe")
	if !GetBoolEnv("TEST_INVALID_BOOL", true) {
		t.Error("Expected default for invalid bool")
	}
}

func TestGetDurationEnv(t *testing.T) {
	defaultDuration := 5 * time.Second

	if result := GetDurationEnv("TEST_NONEXISTENT_DURATION", defaultDuration); result != defaultDuration {
		t.Errorf("Expected %v, got %v", defaultDuration, result)
	}

	t.Setenv("TEST_DURATION_ENV", "30s")
	if result := GetDurationEnv("TEST_DURATION_ENV", defaultDuration); result != 30*time.Second {
		t.Errorf("Expected 30s, got %v", result)
	}

	t.Setenv("TEST_INVALID_DURATION", "not-a-duration")
	if result := GetDurationEnv("TEST_INVALID_DURATION", defaultDuration); result != defaultDuration {
		t.Errorf("Expected %v for invalid duration, got %v", defaultDuration, result)
	}
}

func TestGetListEnv(t *testing.T) {
	fallback := []string{"/a:/a"}

	if got := GetListEnv("TEST_NONEXISTENT_LIST", " ", fallback); !reflect.DeepEqual(got, fallback) {
		t.Errorf("Expected fallback, got %v", got)
	}

	t.Setenv("TEST_LIST_ENV", "  /data:/data   /logs:/logs:ro ")
	want := []string{"/data:/data", "/logs:/logs:ro"}
	if got := GetListEnv("TEST_LIST_ENV", " ", fallback); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	t.Setenv("TEST_BLANK_LIST", "   ")
	if got := GetListEnv("TEST_BLANK_LIST", " ", fallback); !reflect.DeepEqual(got, fallback) {
		t.Errorf("Expected fallback for blank list, got %v", got)
	}
}

func TestGetSecretFile(t *testing.T) {
	if result := GetSecretFile(""); result != "" {
		t.Errorf("Expected empty string for empty path, got %q", result)
	}

	if result := GetSecretFile("/nonexistent/path/to/secret"); result != "" {
		t.Errorf("Expected empty string for nonexistent file, got %q", result)
	}

	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("my-secret-value\n"), 0o600); err != nil {
		t.Fatalf("Failed to write secret: %v", err)
	}
	if result := GetSecretFile(path); result != "my-secret-value" {
		t.Errorf("Expected %q, got %q", "my-secret-value", result)
	}
}

func TestLoadRuntimeConfig_Defaults(t *testing.T) {
	cfg, err := LoadRuntimeConfig("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Endpoint != "unix:///var/run/docker.sock" {
		t.Errorf("Unexpected default endpoint %q", cfg.Endpoint)
	}
	if !cfg.PullImages {
		t.Error("Expected image pulls enabled by default")
	}
	if len(cfg.Volumes) != 0 {
		t.Errorf("Expected no volumes, got %v", cfg.Volumes)
	}
	if cfg.Timeout != 2*time.Minute || cfg.PullTimeout != 10*time.Minute {
		t.Errorf("Unexpected default timeouts %v / %v", cfg.Timeout, cfg.PullTimeout)
	}
}

func TestLoadRuntimeConfig_FileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `docker:
  endpoint: tcp://10.0.0.5:2375
  pullImages: false
  timeout: 30s
  pullTimeout: 5m
  volumes:
    - /data/spiders:/data
    - /var/log/spiders:/logs
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadRuntimeConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Endpoint != "tcp://10.0.0.5:2375" {
		t.Errorf("Expected endpoint from file, got %q", cfg.Endpoint)
	}
	if cfg.PullImages {
		t.Error("Expected pullImages false from file")
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.Timeout)
	}
	if cfg.PullTimeout != 5*time.Minute {
		t.Errorf("Expected 5m pull timeout, got %v", cfg.PullTimeout)
	}
	want := []string{"/data/spiders:/data", "/var/log/spiders:/logs"}
	if !reflect.DeepEqual(cfg.Volumes, want) {
		t.Errorf("Expected volumes %v, got %v", want, cfg.Volumes)
	}

	t.Setenv("DOCKER_ENDPOINT", "unix:///run/docker.sock")
	t.Setenv("DOCKER_VOLUMES", "/override:/override")
	t.Setenv("DOCKER_PULL_TIMEOUT", "20m")
	cfg, err = LoadRuntimeConfig(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Endpoint != "unix:///run/docker.sock" {
		t.Errorf("Expected env endpoint override, got %q", cfg.Endpoint)
	}
	if !reflect.DeepEqual(cfg.Volumes, []string{"/override:/override"}) {
		t.Errorf("Expected env volume override, got %v", cfg.Volumes)
	}
	if cfg.PullTimeout != 20*time.Minute {
		t.Errorf("Expected env pull timeout override, got %v", cfg.PullTimeout)
	}
}

func TestLoadRuntimeConfig_MissingFile(t *testing.T) {
	if _, err := LoadRuntimeConfig(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("Expected missing file to be ignored, got %v", err)
	}
}

func TestLoadRuntimeConfig_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("docker: [unterminated"), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadRuntimeConfig(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
