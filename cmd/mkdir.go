package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/workflows"
)

func init() {
	RootCmd.AddCommand(mkdirCmd)
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir PATH...",
	Short: "Create directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *workflows.Session) error {
			return workflows.Mkdir(ctx, s, args)
		})
	},
}
