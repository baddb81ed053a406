package config

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/sharegate/internal/cli/prompt"
	"github.com/marmos91/sharegate/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample sharegate configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/sharegate/config.yaml.
Use --config to specify a custom path. A random session secret is generated
for the new file.

Examples:
  # Initialize with default location
  sharegate config init

  # Initialize with custom path
  sharegate config init --config /etc/sharegate/config.yaml

  # Overwrite an existing config without asking
  sharegate config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	err := config.InitConfigToPath(path, initForce)
	if errors.Is(err, config.ErrConfigExists) {
		overwrite, perr := prompt.Confirm(fmt.Sprintf("%s already exists. Overwrite", path), false)
		if perr != nil {
			if prompt.IsAborted(perr) {
				return err
			}
			return perr
		}
		if !overwrite {
			return err
		}
		err = config.InitConfigToPath(path, true)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Add bookmarks and enable the backends you need")
	_, _ = fmt.Fprintln(out, "  2. Start the server with: sharegate serve")
	_, _ = fmt.Fprintf(out, "  3. Or specify custom config: sharegate serve --config %s\n", path)
	_, _ = fmt.Fprintln(out, "\nSecurity note:")
	_, _ = fmt.Fprintln(out, "  The file holds a generated session secret and is readable by you only.")
	_, _ = fmt.Fprintln(out, "  To keep the secret out of the file, set it from the environment:")
	_, _ = fmt.Fprintln(out, "    export SHAREGATE_SESSION_SECRET=$(openssl rand -hex 32)")
	return nil
}
