package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/migrate"
	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/workflows"
)

var (
	migrateTo     int
	migrateDryRun bool
)

func init() {
	migrateCmd.Flags().IntVar(&migrateTo, "to", 0, fmt.Sprintf("target format version (default %d)", migrate.Current()))
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "show the steps without writing the store")
	RootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade a store written by an older release",
	Long: `Rewrites the store in a newer format, one version at a time, and prints
what each step did. A store that is already current is left alone.

Examples:
  cask migrate
  cask migrate --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if shellSession != nil {
			return notInShell(cmd)
		}
		result, err := workflows.Migrate(commandContext(cmd), newEnv(), workflows.MigrateOptions{
			To:     migrateTo,
			DryRun: migrateDryRun,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, step := range result.Steps {
			fmt.Fprintln(out, step)
		}
		switch {
		case result.Written:
			fmt.Fprintln(out, ui.Success.Sprint("✓")+" Store migrated")
		case migrateDryRun:
			fmt.Fprintln(out, "Nothing written, run again without "+ui.Flag.Sprint("--dry-run")+" to migrate")
		default:
			fmt.Fprintln(out, "Store is already current")
		}
		return nil
	},
}
