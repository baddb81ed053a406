package config

import (
	"testing"
	"time"

	"github.com/marmos91/sharegate/internal/bytesize"
	"github.com/marmos91/sharegate/pkg/api"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default log output 'stdout', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadHeaderTimeout != 10*time.Second {
		t.Errorf("Expected default read header timeout 10s, got %v", cfg.Server.ReadHeaderTimeout)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Errorf("Expected no write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestApplyDefaults_Content(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Content.ChunkSize != 128*bytesize.KiB {
		t.Errorf("Expected default chunk size 128KiB, got %s", cfg.Content.ChunkSize)
	}
	if cfg.Content.RateLimit != 0 {
		t.Errorf("Expected rate limiting off, got %s", cfg.Content.RateLimit)
	}
	if cfg.Content.DefaultType != "application/octet-stream" {
		t.Errorf("Expected default type application/octet-stream, got %q", cfg.Content.DefaultType)
	}
}

func TestApplyDefaults_Session(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("Expected default TTL 24h, got %v", cfg.Session.TTL)
	}
	if cfg.Session.Store != SessionStoreMemory {
		t.Errorf("Expected memory store, got %q", cfg.Session.Store)
	}
	if cfg.Session.Secret != "" {
		t.Error("ApplyDefaults must not invent a session secret")
	}
}

func TestApplyDefaults_Backends(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if !cfg.Backends.SMB.IsEnabled() {
		t.Error("Expected SMB enabled by default")
	}
	if cfg.Backends.SMB.Port != 445 {
		t.Errorf("Expected SMB port 445, got %d", cfg.Backends.SMB.Port)
	}
	if cfg.Backends.S3.Enabled {
		t.Error("Expected S3 disabled by default")
	}
	if cfg.Backends.S3.Region != "us-east-1" {
		t.Errorf("Expected region us-east-1, got %q", cfg.Backends.S3.Region)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "debug", Format: "json"},
		Server:  api.ServerConfig{Port: 9000},
		Metrics: MetricsConfig{Enabled: true},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090 once enabled, got %d", cfg.Metrics.Port)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	a, b := GetDefaultConfig(), GetDefaultConfig()

	if len(a.Session.Secret) != 64 {
		t.Errorf("Expected a 64-character secret, got %d", len(a.Session.Secret))
	}
	if a.Session.Secret == b.Session.Secret {
		t.Error("Expected a fresh secret per call")
	}
	if err := Validate(a); err != nil {
		t.Errorf("Expected default config to validate, got: %v", err)
	}
}
