package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitConfig_Success(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	for _, section := range []string{
		"# sharegate Configuration File",
		"logging:",
		"server:",
		"content:",
		"session:",
		"backends:",
	} {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing %q", section)
		}
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("Config file mode = %o, want 600", perm)
	}
}

func TestInitConfig_Loadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Generated config does not load: %v", err)
	}
	if len(cfg.Session.Secret) < 32 {
		t.Errorf("Expected a generated session secret, got %q", cfg.Session.Secret)
	}
}

func TestInitConfigToPath_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logging: {}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	err := InitConfigToPath(path, false)
	if !errors.Is(err, ErrConfigExists) {
		t.Fatalf("Expected ErrConfigExists, got %v", err)
	}

	if err := InitConfigToPath(path, true); err != nil {
		t.Fatalf("Forced init failed: %v", err)
	}
	content, _ := os.ReadFile(path)
	if !strings.Contains(string(content), "session:") {
		t.Error("Forced init did not replace the file")
	}
}
