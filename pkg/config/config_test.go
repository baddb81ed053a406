package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/sharegate/internal/bytesize"
)

const testSecret = "test-secret-key-for-testing-minimum-32-chars"

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences (e.g. \U -> Unicode escape), causing parse errors.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: "info"

session:
  secret: "`+testSecret+`"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Content.ChunkSize != 128*bytesize.KiB {
		t.Errorf("Expected chunk size 128KiB, got %s", cfg.Content.ChunkSize)
	}
	if cfg.Session.Secret != testSecret {
		t.Errorf("Expected secret from file, got %q", cfg.Session.Secret)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	media := t.TempDir()
	configPath := writeConfig(t, `
shutdown_timeout: 5s
server:
  port: 8081
  write_timeout: 0s
content:
  chunk_size: 256Ki
  rate_limit: 2Mi
  default_type: application/x-binary
  types:
    .mkv: video/x-matroska
session:
  secret: "`+testSecret+`"
  ttl: 1h
  store: badger
  path: /var/lib/sharegate/sessions
backends:
  smb:
    enabled: false
  s3:
    enabled: true
    endpoint: http://localhost:4566
    use_path_style: true
  local:
    roots:
      media: "`+yamlSafePath(media)+`"
bookmarks:
  - name: Media
    target: local://media/
  - name: Archive
    target: s3://archive/
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout 5s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Content.ChunkSize != 256*bytesize.KiB {
		t.Errorf("Expected chunk size 256KiB, got %s", cfg.Content.ChunkSize)
	}
	if cfg.Content.RateLimit != 2*bytesize.MiB {
		t.Errorf("Expected rate limit 2MiB, got %s", cfg.Content.RateLimit)
	}
	if cfg.Content.Types[".mkv"] != "video/x-matroska" {
		t.Errorf("Expected .mkv override, got %v", cfg.Content.Types)
	}
	if cfg.Session.TTL != time.Hour || cfg.Session.Store != SessionStoreBadger {
		t.Errorf("Unexpected session config: %+v", cfg.Session)
	}
	if cfg.Backends.SMB.IsEnabled() {
		t.Error("Expected SMB to be disabled")
	}
	if !cfg.Backends.S3.Enabled || cfg.Backends.S3.Region != "us-east-1" {
		t.Errorf("Unexpected S3 config: %+v", cfg.Backends.S3)
	}
	if len(cfg.Bookmarks) != 2 || cfg.Bookmarks[1].Name != "Archive" {
		t.Errorf("Unexpected bookmarks: %+v", cfg.Bookmarks)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading with no config file returns a valid default config with an
	// ephemeral session secret.
	nonExistentPath := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default server port 8080, got %d", cfg.Server.Port)
	}
	if len(cfg.Session.Secret) < 32 {
		t.Errorf("Expected generated session secret, got %q", cfg.Session.Secret)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidByteSize(t *testing.T) {
	configPath := writeConfig(t, `
content:
  chunk_size: lots
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid chunk_size")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("SHAREGATE_LOGGING_LEVEL", "ERROR")
	t.Setenv("SHAREGATE_SERVER_PORT", "9091")
	t.Setenv("SHAREGATE_SESSION_SECRET", testSecret)

	configPath := writeConfig(t, `
logging:
  level: "INFO"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Server.Port != 9091 {
		t.Errorf("Expected port 9091 from env var, got %d", cfg.Server.Port)
	}
	if cfg.Session.Secret != testSecret {
		t.Errorf("Expected secret from env var, got %q", cfg.Session.Secret)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Content.ChunkSize = 64 * bytesize.KiB
	cfg.Bookmarks = []BookmarkConfig{{Name: "Media", Target: "smb://fileserver/media/"}}

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Expected mode 0600, got %o", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Session.Secret != cfg.Session.Secret {
		t.Error("Session secret did not round-trip")
	}
	if loaded.Content.ChunkSize != 64*bytesize.KiB {
		t.Errorf("Expected chunk size 64KiB, got %s", loaded.Content.ChunkSize)
	}
	if len(loaded.Bookmarks) != 1 || loaded.Bookmarks[0].Target != "smb://fileserver/media/" {
		t.Errorf("Bookmarks did not round-trip: %+v", loaded.Bookmarks)
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := MustLoad(path); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if got, want := GetDefaultConfigPath(), filepath.Join(xdg, "sharegate", "config.yaml"); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if filepath.Base(GetConfigDir()) != "sharegate" {
		t.Errorf("Expected directory name 'sharegate', got %q", GetConfigDir())
	}
	if DefaultConfigExists() {
		t.Error("Expected no default config in a fresh XDG_CONFIG_HOME")
	}
}
