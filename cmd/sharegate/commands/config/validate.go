package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/sharegate/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the sharegate configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  sharegate config validate

  # Validate specific config file
  sharegate config validate --config /etc/sharegate/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)

	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}

	displayPath := path
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	if !cfg.Session.SecureCookie {
		warnings = append(warnings, "secure_cookie is off; enable it when sharegate is served over HTTPS")
	}
	if cfg.Session.Store == config.SessionStoreMemory {
		warnings = append(warnings, "memory session store: sessions are lost on restart")
	}
	if !cfg.Backends.SMB.IsEnabled() && !cfg.Backends.S3.Enabled && len(cfg.Backends.Local.Roots) == 0 {
		warnings = append(warnings, "no backend enabled: the server will refuse to start")
	}

	var schemes []string
	if cfg.Backends.SMB.IsEnabled() {
		schemes = append(schemes, "smb")
	}
	if cfg.Backends.S3.Enabled {
		schemes = append(schemes, "s3")
	}
	if len(cfg.Backends.Local.Roots) > 0 {
		schemes = append(schemes, "local")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  HTTP port:       %d\n", cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  Backends:        %s\n", strings.Join(schemes, ", "))
	_, _ = fmt.Fprintf(out, "  Bookmarks:       %d\n", len(cfg.Bookmarks))
	_, _ = fmt.Fprintf(out, "  Session store:   %s\n", cfg.Session.Store)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}
