package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/configs"
	"github.com/PolarWolf314/cask/internal/daemon"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
	logger "github.com/PolarWolf314/cask/internal/logging"
	"github.com/PolarWolf314/cask/internal/ui"
)

var configInitForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
	RootCmd.AddCommand(ConfigCmd)
}

var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the config file",
	// The config commands must work when the file is broken, so they skip
	// the root's config loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		Logger = logger.Logger{Verbose: verbose, Debug: debug}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Prints the configuration in effect, with defaults filled in for settings
the file leaves out, followed by the paths cask uses.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configs.UserCaskSettings.ConfigFile()
		Logger.Infof("Loading config from %s", path)
		c, err := configs.LoadConfigFrom(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(out, ui.Muted.Sprint("no config file, showing defaults"))
		}
		if err := toml.NewEncoder(out).Encode(c); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "# %-12s %s\n", "config:", path)
		fmt.Fprintf(out, "# %-12s %s\n", "store:", c.StorePath(storeFlag))
		fmt.Fprintf(out, "# %-12s %s\n", "audit log:", configs.UserCaskSettings.AuditLogFile())
		fmt.Fprintf(out, "# %-12s %s\n", "daemon log:", configs.UserCaskSettings.DaemonLogFile())
		fmt.Fprintf(out, "# %-12s %s\n", "sockets:", daemon.DefaultSocketDir())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Writes a config file holding every setting at its default, ready to
edit. An existing file is only replaced with --force.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configs.UserCaskSettings.ConfigFile()
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%w: %s already exists (use --force to replace it)", kerrors.ErrUsage, path)
		}
		if err := configs.SaveConfig(configs.Default()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Sprint("✓")+" Wrote "+ui.Path.Sprint(path))
		return nil
	},
}
