package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/sharegate/internal/bytesize"
	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/api"
)

// Config represents the sharegate configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (SHAREGATE_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for in-flight streams on shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Server configures the HTTP server that lists and streams files
	Server api.ServerConfig `mapstructure:"server" yaml:"server"`

	// Content controls how file bodies are produced
	Content ContentConfig `mapstructure:"content" yaml:"content"`

	// Session configures browser sessions holding share credentials
	Session SessionConfig `mapstructure:"session" yaml:"session"`

	// Backends enables and configures the remote share protocols
	Backends BackendsConfig `mapstructure:"backends" yaml:"backends"`

	// Bookmarks are shown on the index page, in order
	Bookmarks []BookmarkConfig `mapstructure:"bookmarks" validate:"dive" yaml:"bookmarks,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the /metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// ContentConfig controls streaming.
type ContentConfig struct {
	// ChunkSize is the buffer each response is copied through
	// Default: 128Ki
	ChunkSize bytesize.ByteSize `mapstructure:"chunk_size" validate:"omitempty,min=4096" yaml:"chunk_size"`

	// RateLimit caps each response at this many bytes per second; 0 disables it
	RateLimit bytesize.ByteSize `mapstructure:"rate_limit" yaml:"rate_limit,omitempty"`

	// DefaultType is sent for unknown extensions
	// Default: application/octet-stream
	DefaultType string `mapstructure:"default_type" yaml:"default_type"`

	// Types maps extensions (".mkv") to media types, overriding the built-ins
	Types map[string]string `mapstructure:"types" yaml:"types,omitempty"`

	// Sniff detects the type of files with unknown extensions from their
	// first bytes instead of sending DefaultType
	Sniff bool `mapstructure:"sniff" yaml:"sniff"`
}

// Session store types.
const (
	SessionStoreMemory = "memory"
	SessionStoreBadger = "badger"
)

// SessionConfig configures browser sessions.
type SessionConfig struct {
	// Secret signs cookies and seals stored credentials (at least 32 characters)
	// Override: SHAREGATE_SESSION_SECRET
	Secret string `mapstructure:"secret" validate:"required,min=32" yaml:"secret"`

	// TTL is the sliding session lifetime
	// Default: 24h
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0" yaml:"ttl"`

	// Store selects the session store: memory or badger
	// Default: memory
	Store string `mapstructure:"store" validate:"omitempty,oneof=memory badger" yaml:"store"`

	// Path is the badger directory; required when Store is badger
	Path string `mapstructure:"path" validate:"required_if=Store badger" yaml:"path,omitempty"`

	// CookieName defaults to sharegate_session
	CookieName string `mapstructure:"cookie_name" yaml:"cookie_name,omitempty"`

	// SecureCookie marks the cookie HTTPS-only
	SecureCookie bool `mapstructure:"secure_cookie" yaml:"secure_cookie"`
}

// BackendsConfig enables the remote share protocols.
type BackendsConfig struct {
	SMB   SMBConfig   `mapstructure:"smb" yaml:"smb"`
	S3    S3Config    `mapstructure:"s3" yaml:"s3"`
	Local LocalConfig `mapstructure:"local" yaml:"local"`
}

// SMBConfig configures smb:// targets.
type SMBConfig struct {
	// Enabled defaults to true.
	// Use a pointer to distinguish "not set" from "explicitly false"
	Enabled *bool `mapstructure:"enabled" yaml:"enabled,omitempty"`

	// Port defaults to 445
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// DialTimeout bounds connection setup and NTLM logon
	// Default: 10s
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`

	// HideAdminShares drops C$, ADMIN$ and friends from server listings
	HideAdminShares bool `mapstructure:"hide_admin_shares" yaml:"hide_admin_shares"`
}

// IsEnabled returns whether SMB is enabled. Defaults to true if not set.
func (c *SMBConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// S3Config configures s3:// targets.
type S3Config struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Region defaults to us-east-1
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint overrides the service endpoint for S3-compatible servers
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint,omitempty"`

	// UsePathStyle is required by most S3-compatible servers
	UsePathStyle bool `mapstructure:"use_path_style" yaml:"use_path_style"`

	// AccessKey and SecretKey apply when a session carries no credentials.
	// When both are empty the default AWS credential chain is used.
	AccessKey string `mapstructure:"access_key" validate:"required_with=SecretKey" yaml:"access_key,omitempty"`
	SecretKey string `mapstructure:"secret_key" validate:"required_with=AccessKey" yaml:"secret_key,omitempty"`
}

// LocalConfig exposes local directories as local://<name>/ roots.
type LocalConfig struct {
	// Roots maps a root name to a directory
	Roots map[string]string `mapstructure:"roots" validate:"dive,keys,required,endkeys,required" yaml:"roots,omitempty"`
}

// BookmarkConfig is a named link shown on the index page.
type BookmarkConfig struct {
	Name   string `mapstructure:"name" validate:"required" yaml:"name"`
	Target string `mapstructure:"target" validate:"required" yaml:"target"`
}

// envKeys are bound explicitly so SHAREGATE_* variables apply even when the
// key is absent from the config file.
var envKeys = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"telemetry.enabled",
	"telemetry.endpoint",
	"metrics.enabled",
	"metrics.port",
	"server.port",
	"content.chunk_size",
	"content.rate_limit",
	"session.secret",
	"session.store",
	"session.path",
	"backends.s3.enabled",
	"backends.s3.endpoint",
	"backends.s3.access_key",
	"backends.s3.secret_key",
}

// Load loads configuration from file, environment, and defaults.
//
// A missing config file is not an error: defaults plus environment
// overrides are used instead. A missing session secret is replaced by an
// ephemeral one.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	if cfg.Session.Secret == "" {
		secret, err := GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.Session.Secret = secret
		logger.Warn("session.secret is not set; using an ephemeral secret, sessions will not survive a restart")
	}

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  sharegate config init\n\n"+
				"Or specify a custom config file:\n"+
				"  sharegate <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  sharegate config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file holds the session secret and possibly S3 keys.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use SHAREGATE_ prefix and underscores
	// Example: SHAREGATE_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("SHAREGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/sharegate/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		// os.PathError when an explicit config file doesn't exist
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize so
// config files can use sizes like "128Ki" or "4MB".
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %d", v)
			}
			return bytesize.ByteSize(v), nil
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %d", v)
			}
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			if v < 0 {
				return nil, fmt.Errorf("negative byte size: %v", v)
			}
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "30s" or "5m" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/sharegate, ~/.config/sharegate, or
// "." when no home directory can be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "sharegate")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "sharegate")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
