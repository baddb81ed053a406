package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/internal/telemetry"
	"github.com/marmos91/sharegate/pkg/api"
	"github.com/marmos91/sharegate/pkg/config"
	"github.com/marmos91/sharegate/pkg/content"
	"github.com/marmos91/sharegate/pkg/session"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/sharegate/pkg/metrics/prometheus"
)

// sweepInterval is how often expired sessions are purged from the memory store.
const sweepInterval = 5 * time.Minute

var noWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sharegate HTTP server",
	Long: `Start the sharegate HTTP server in the foreground.

The server lists shares and streams files at /get/<target>, honouring
Range requests. Logging settings are reloaded when the configuration file
changes; everything else requires a restart.

Examples:
  # Start with the default configuration file
  sharegate serve

  # Start with a custom config file
  sharegate serve --config /etc/sharegate/config.yaml

  # Override settings from the environment
  SHAREGATE_LOGGING_LEVEL=DEBUG SHAREGATE_SERVER_PORT=9000 sharegate serve`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload logging settings when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "sharegate",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "sharegate",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	logger.Info("Starting sharegate", "version", Version, "commit", Commit)
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Metrics first: the registry, session store and streamers pick up
	// their collectors at construction time.
	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		go func() {
			if err := metricsResult.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error", logger.Err(err))
			}
		}()
	} else {
		logger.Info("Metrics collection disabled")
	}

	reg, err := config.InitializeRegistry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize registry: %w", err)
	}

	sessions, err := config.CreateSessionManager(cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Error("Session store close error", logger.Err(err))
		}
	}()
	if mem, ok := sessions.Store().(*session.MemoryStore); ok {
		go mem.RunSweeper(ctx, sweepInterval)
	}
	logger.Info("Sessions initialized", "store", cfg.Session.Store, "ttl", cfg.Session.TTL)

	opts := config.ContentOptions(cfg.Content)
	server, err := api.NewServer(cfg.Server, api.Services{
		Registry: reg,
		Sessions: sessions,
		Full:     content.NewFullStreamer(opts),
		Partial:  content.NewRangeStreamer(opts),
		Metrics:  metricsResult.HTTP,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	server.SetShutdownTimeout(cfg.ShutdownTimeout)

	if path := watchedConfigPath(); path != "" && !noWatch {
		go func() {
			if err := config.Watch(ctx, path, func(c *config.Config) {
				config.ApplyLogging(c.Logging)
			}); err != nil {
				logger.Warn("Configuration watcher stopped", logger.Err(err))
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.", "port", cfg.Server.Port)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", logger.Err(err))
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// watchedConfigPath returns the config file to watch, or "" when running
// on defaults.
func watchedConfigPath() string {
	if f := GetConfigFile(); f != "" {
		return f
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return ""
}
