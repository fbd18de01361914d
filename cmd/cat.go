package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/workflows"
)

func init() {
	RootCmd.AddCommand(catCmd)
}

var catCmd = &cobra.Command{
	Use:   "cat PATH...",
	Short: "Print the contents of files",
	Long: `Prints each file's data on its own line. Symlinks are followed.

Examples:
  cask cat web/login
  cask cat web/login bank/pin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *workflows.Session) error {
			values, err := workflows.Cat(ctx, s, args)
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v.Data)
			}
			return err
		})
	},
}
