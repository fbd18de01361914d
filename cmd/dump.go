package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/utils"
	"github.com/PolarWolf314/cask/internal/workflows"
)

var dumpYAML bool

func init() {
	dumpCmd.Flags().BoolVar(&dumpYAML, "yaml", false, "print a readable YAML view without metadata")
	RootCmd.AddCommand(dumpCmd)
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the whole decrypted store",
	Long: `Prints the decrypted store document, every secret included, exactly as
it is stored. With --yaml, prints a readable view instead: directories are
mappings, files are strings and symlinks are tagged !symlink.

Examples:
  cask dump > backup.json   # unencrypted, handle with care
  cask dump --yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := workflows.DumpJSON
		if dumpYAML {
			format = workflows.DumpYAML
		}
		return withSession(cmd, func(ctx context.Context, s *workflows.Session) error {
			if utils.IsTerminal() {
				Logger.Warnf("Printing every secret in %s", ui.Path.Sprint(s.Canonical()))
			}
			out, err := workflows.Dump(ctx, s, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		})
	},
}
