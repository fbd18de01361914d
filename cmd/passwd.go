package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/workflows"
)

func init() {
	RootCmd.AddCommand(passwdCmd)
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the store password",
	Long: `Re-encrypts the store under a new password. A daemon caching the store
is stopped first, so the current password is asked for even when the
daemon would otherwise have spared you.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *workflows.Session) error {
			if err := workflows.Passwd(ctx, s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Sprint("✓")+" Password changed")
			return nil
		})
	},
}
