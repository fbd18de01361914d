package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/workflows"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "replace an existing store")
	RootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new, empty store",
	Long: `Creates a new store protected by a new password.

The store location comes from --file, $CASK_STORE or the store setting in
the config file, in that order.

Examples:
  cask init
  cask init --file ~/work.gpg
  cask init --force   # replace an existing store`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if shellSession != nil {
			return notInShell(cmd)
		}
		Logger.Infof("Starting init command")
		result, err := workflows.Init(commandContext(cmd), newEnv(), workflows.InitOptions{Force: initForce})
		if err != nil {
			return err
		}
		if result.StoppedDaemon {
			Logger.Infof("Stopped the daemon caching the old store")
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Sprint("✓")+" Created store "+ui.Path.Sprint(result.StorePath))
		fmt.Fprintln(cmd.OutOrStdout(), ui.Info.Sprint("→")+" Add a secret with "+ui.Code.Sprint("cask create PATH -g"))
		return nil
	},
}
