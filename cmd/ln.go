package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/workflows"
)

func init() {
	RootCmd.AddCommand(lnCmd)
}

var lnCmd = &cobra.Command{
	Use:   "ln TARGET PATH",
	Short: "Create a symlink",
	Long: `Creates a symlink at PATH pointing to TARGET. TARGET is stored as given,
is resolved relative to the directory holding the link, and need not exist.
An existing entry at PATH is never replaced.

Examples:
  cask ln web/login current
  cask ln ../shared/key projects/a/key`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *workflows.Session) error {
			return workflows.Link(ctx, s, args[0], args[1])
		})
	},
}
