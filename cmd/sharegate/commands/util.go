package commands

import (
	"fmt"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/config"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initClientLogger keeps client commands quiet: logs go to stderr so they
// never mix with listings or file bodies on stdout.
func initClientLogger() {
	level := "ERROR"
	if verbose {
		level = "DEBUG"
	}
	_ = logger.Init(logger.Config{Level: level, Format: "text", Output: "stderr"})
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
