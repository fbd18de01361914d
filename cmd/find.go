package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/workflows"
)

var (
	findFiles bool
	findName  string
)

func init() {
	findCmd.Flags().BoolVar(&findFiles, "files", false, "print regular files only, not directories or symlinks")
	findCmd.Flags().StringVar(&findName, "name", "", "print entries whose name matches a glob such as '*login*'")
	RootCmd.AddCommand(findCmd)
}

var findCmd = &cobra.Command{
	Use:   "find [PATH]",
	Short: "List everything below a directory",
	Long: `Prints every entry below PATH (default: the current directory), one per
line, depth first and sorted by name. Directories end in "/". Symlinks are
printed but not followed.

A --name pattern is matched against the entry's name, or against its path
below PATH when the pattern contains "/". "**" matches any number of
directories.

Examples:
  cask find
  cask find web --files
  cask find --name '*login*'
  cask find --name 'web/**/token'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := workflows.FindOptions{FilesOnly: findFiles, Name: findName}
		if len(args) == 1 {
			opts.Path = args[0]
		}
		return withSession(cmd, func(ctx context.Context, s *workflows.Session) error {
			paths, err := workflows.Find(ctx, s, opts)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		})
	},
}
