package config

import (
	"context"
	"fmt"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/metrics"
	"github.com/marmos91/sharegate/pkg/registry"
	"github.com/marmos91/sharegate/pkg/remotefs"
	"github.com/marmos91/sharegate/pkg/remotefs/local"
	"github.com/marmos91/sharegate/pkg/remotefs/s3"
	"github.com/marmos91/sharegate/pkg/remotefs/smb"
)

// InitializeRegistry creates a Registry holding every enabled backend and
// the configured bookmarks.
//
// Each backend is wrapped with remotefs.Instrument so remote operations are
// traced and, when metrics are enabled, counted.
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	reg, err := config.InitializeRegistry(ctx, cfg)
//	if err != nil {
//	    log.Fatalf("Failed to initialize registry: %v", err)
//	}
func InitializeRegistry(ctx context.Context, cfg *Config) (*registry.Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}
	logger.Debug("Initializing registry from configuration")

	backends, err := createBackends(cfg.Backends)
	if err != nil {
		return nil, err
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no backend enabled: enable smb, s3 or configure local roots")
	}

	reg := registry.NewRegistry()
	remoteMetrics := metrics.NewRemoteMetrics()
	for _, b := range backends {
		if err := reg.RegisterBackend(remotefs.Instrument(b, remoteMetrics)); err != nil {
			return nil, fmt.Errorf("failed to register %s backend: %w", b.Scheme(), err)
		}
	}
	logger.Info("Registered backends", "schemes", reg.ListSchemes())

	for _, bm := range cfg.Bookmarks {
		if err := reg.AddBookmark(bm.Name, bm.Target); err != nil {
			return nil, fmt.Errorf("failed to add bookmark %q: %w", bm.Name, err)
		}
	}
	if n := len(cfg.Bookmarks); n > 0 {
		logger.Info("Registered bookmarks", "count", n)
	}

	return reg, nil
}

func createBackends(cfg BackendsConfig) ([]remotefs.Backend, error) {
	var out []remotefs.Backend

	if cfg.SMB.IsEnabled() {
		out = append(out, smb.New(smb.Config{
			Port:            cfg.SMB.Port,
			DialTimeout:     cfg.SMB.DialTimeout,
			HideAdminShares: cfg.SMB.HideAdminShares,
		}))
	}

	if cfg.S3.Enabled {
		out = append(out, s3.New(s3.Config{
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.UsePathStyle,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
		}))
	}

	if len(cfg.Local.Roots) > 0 {
		b, err := local.New(cfg.Local.Roots)
		if err != nil {
			return nil, fmt.Errorf("failed to create local backend: %w", err)
		}
		out = append(out, b)
	}

	return out, nil
}
