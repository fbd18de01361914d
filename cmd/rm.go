package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/utils"
	"github.com/PolarWolf314/cask/internal/workflows"
)

var (
	rmRecursive bool
	rmYes       bool
)

func init() {
	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false, "remove directories and their contents")
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "do not ask before a recursive removal")
	RootCmd.AddCommand(rmCmd)
}

var rmCmd = &cobra.Command{
	Use:   "rm PATH...",
	Short: "Remove entries",
	Long: `Removes files, symlinks and empty directories. A symlink is removed
itself, not what it points to. With -r, directories are removed with
everything in them.

Each path is removed on its own: one that fails does not stop the others,
and the removals that worked are kept.

Examples:
  cask rm web/login
  cask rm -r old        # asks first on a terminal
  cask rm -ry old`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if rmRecursive && !rmYes {
			fmt.Fprint(cmd.ErrOrStderr(), ui.Warning.Sprint("⚠")+" Removing recursively:"+utils.FormatPaths(args))
			ok, err := confirm(fmt.Sprintf("Remove %d %s and everything below them?", len(args), utils.Plural(len(args), "path")))
			if err != nil {
				return err
			}
			if !ok {
				Logger.Infof("Nothing removed")
				return nil
			}
		}
		return withSession(cmd, func(ctx context.Context, s *workflows.Session) error {
			return workflows.Remove(ctx, s, workflows.RemoveOptions{Paths: args, Recursive: rmRecursive})
		})
	},
}
