package config

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/marmos91/sharegate/internal/bytesize"
	"github.com/marmos91/sharegate/pkg/api"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
// The session secret is never defaulted here: see GenerateSecret.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	applyServerDefaults(&cfg.Server)
	applyContentDefaults(&cfg.Content)
	applySessionDefaults(&cfg.Session)
	applyBackendDefaults(&cfg.Backends)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets the metrics port when metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyServerDefaults(cfg *api.ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	// WriteTimeout stays zero: a timeout would cut long streams.
}

func applyContentDefaults(cfg *ContentConfig) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = 128 * bytesize.KiB
	}
	if cfg.DefaultType == "" {
		cfg.DefaultType = "application/octet-stream"
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Store == "" {
		cfg.Store = SessionStoreMemory
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "sharegate_session"
	}
}

func applyBackendDefaults(cfg *BackendsConfig) {
	if cfg.SMB.Port == 0 {
		cfg.SMB.Port = 445
	}
	if cfg.SMB.DialTimeout == 0 {
		cfg.SMB.DialTimeout = 10 * time.Second
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
}

// GenerateSecret returns a random 64-character hex secret suitable for
// session.secret.
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetDefaultConfig returns a Config struct with all default values applied
// and a freshly generated session secret.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)

	// crypto/rand does not fail on supported platforms.
	cfg.Session.Secret, _ = GenerateSecret()
	return cfg
}
