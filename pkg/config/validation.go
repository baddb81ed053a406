package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/sharegate/internal/telemetry"
	"github.com/marmos91/sharegate/pkg/remotefs"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed '%s' validation", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if err := validateProfileTypes(cfg.Telemetry.Profiling); err != nil {
		return err
	}
	if err := validateBookmarks(cfg); err != nil {
		return err
	}
	return validateLocalRoots(cfg.Backends.Local)
}

func validateProfileTypes(cfg ProfilingConfig) error {
	for _, pt := range cfg.ProfileTypes {
		known := false
		for _, name := range telemetry.ProfileTypeNames {
			if strings.EqualFold(pt, name) {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("telemetry.profiling.profile_types: unknown profile type %q", pt)
		}
	}
	return nil
}

// validateBookmarks checks names are unique and targets parse and use an
// enabled backend.
func validateBookmarks(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Bookmarks))
	for i, b := range cfg.Bookmarks {
		if seen[b.Name] {
			return fmt.Errorf("bookmarks[%d]: duplicate name %q", i, b.Name)
		}
		seen[b.Name] = true

		loc, err := remotefs.ParseLocation(b.Target)
		if err != nil {
			return fmt.Errorf("bookmarks[%d] %q: %w", i, b.Name, err)
		}
		if !cfg.Backends.enabled(loc.Scheme) {
			return fmt.Errorf("bookmarks[%d] %q: backend %q is not enabled", i, b.Name, loc.Scheme)
		}
	}
	return nil
}

func validateLocalRoots(cfg LocalConfig) error {
	for name, dir := range cfg.Roots {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("backends.local.roots: root name %q must not contain a path separator", name)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("backends.local.roots.%s: %w", name, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("backends.local.roots.%s: %s is not a directory", name, dir)
		}
	}
	return nil
}

func (c *BackendsConfig) enabled(scheme string) bool {
	switch scheme {
	case remotefs.SchemeSMB:
		return c.SMB.IsEnabled()
	case remotefs.SchemeS3:
		return c.S3.Enabled
	case remotefs.SchemeLocal:
		return len(c.Local.Roots) > 0
	}
	return false
}
