package config

import (
	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/metrics"
)

// MetricsResult holds what InitializeMetrics set up. Both fields are nil
// when metrics are disabled.
type MetricsResult struct {
	// Server exposes /metrics on its own port
	Server *metrics.Server

	// HTTP records request counts and latencies for the content server
	HTTP metrics.HTTPMetrics
}

// InitializeMetrics creates the Prometheus registry when metrics are
// enabled. It must run before the registry, session store and streamers
// are built, since their metric constructors return nil until then.
func InitializeMetrics(cfg *Config) MetricsResult {
	if cfg == nil || !cfg.Metrics.Enabled {
		logger.Debug("Metrics disabled")
		return MetricsResult{}
	}

	metrics.InitRegistry()
	logger.Debug("Metrics registry initialized", "port", cfg.Metrics.Port)

	return MetricsResult{
		Server: metrics.NewServer(cfg.Metrics.Port),
		HTTP:   metrics.NewHTTPMetrics(),
	}
}
