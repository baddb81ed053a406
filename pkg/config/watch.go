package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/sharegate/internal/logger"
)

// Watch reloads the config file at path whenever it changes and passes
// each valid result to onChange. Invalid edits are logged and skipped.
// Watch blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file so editors that
// replace the file through a rename are still noticed.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}
	logger.Debug("Watching configuration", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(abs)
			if err != nil {
				logger.Warn("Ignoring invalid configuration change", "path", abs, logger.Err(err))
				continue
			}
			logger.Info("Configuration reloaded", "path", abs)
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// ApplyLogging pushes the reloadable logging settings to the logger.
func ApplyLogging(cfg LoggingConfig) {
	logger.SetLevel(cfg.Level)
	logger.SetFormat(cfg.Format)
}
