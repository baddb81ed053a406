package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/sharegate/internal/cli/output"
	"github.com/marmos91/sharegate/pkg/config"
)

var (
	showOutput  string
	showSecrets bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective sharegate configuration: file, environment
overrides and defaults merged. Secrets are masked unless --show-secrets is set.

Examples:
  # Show default config as YAML
  sharegate config show

  # Show as JSON
  sharegate config show --output json

  # Show specific config file
  sharegate config show --config /etc/sharegate/config.yaml`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print the session secret and S3 keys")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(configPath(cmd))
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	if !showSecrets {
		maskSecrets(cfg)
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}

const masked = "********"

func maskSecrets(cfg *config.Config) {
	if cfg.Session.Secret != "" {
		cfg.Session.Secret = masked
	}
	if cfg.Backends.S3.SecretKey != "" {
		cfg.Backends.S3.SecretKey = masked
	}
}
