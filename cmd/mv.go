package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/workflows"
)

var mvForce bool

func init() {
	mvCmd.Flags().BoolVar(&mvForce, "force", false, "replace an existing destination")
	RootCmd.AddCommand(mvCmd)
}

var mvCmd = &cobra.Command{
	Use:   "mv SRC DST",
	Short: "Move or rename an entry",
	Long: `Moves SRC to DST. A symlink is moved itself, not what it points to.

If DST is an existing directory, SRC is moved into it under its own name.
This also happens when you meant DST as the exact new name, so check the
result with -v when the destination might exist.

An existing file, symlink or empty directory at the final name is only
replaced with --force. A non-empty directory is never replaced.

Examples:
  cask mv web/login web/login.old
  cask mv web/login archive/        # into archive`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *workflows.Session) error {
			result, err := workflows.Move(ctx, s, workflows.MoveOptions{Src: args[0], Dst: args[1], Overwrite: mvForce})
			if err != nil {
				return err
			}
			Logger.Infof("Moved %s to %s", ui.Path.Sprint(result.From), ui.Path.Sprint(result.To))
			return nil
		})
	},
}
