package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/tree"
	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/workflows"
)

var (
	lsLong bool
	lsDir  bool
)

func init() {
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "show type, modification time and host")
	lsCmd.Flags().BoolVarP(&lsDir, "directory", "d", false, "list directories themselves, not their contents")
	RootCmd.AddCommand(lsCmd)
}

var lsCmd = &cobra.Command{
	Use:   "ls [PATH...]",
	Short: "List directory contents",
	Long: `Lists the entries of each directory, or the entry itself for files and
symlinks. Directories are shown with a trailing / and symlinks with @.

Examples:
  cask ls
  cask ls -l web
  cask ls -d web`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *workflows.Session) error {
			result, err := workflows.List(ctx, s, workflows.ListOptions{Paths: args, Self: lsDir})
			if result != nil {
				printListings(cmd.OutOrStdout(), result.Listings, len(args) > 1)
			}
			return err
		})
	},
}

func printListings(w io.Writer, listings []workflows.Listing, headers bool) {
	for i, l := range listings {
		if headers && l.Dir {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, l.Path+":")
		}
		if lsLong {
			printLong(w, l.Entries)
			continue
		}
		for _, e := range l.Entries {
			fmt.Fprintln(w, shortName(e))
		}
	}
}

func shortName(e tree.Entry) string {
	switch e.Kind {
	case tree.KindDir:
		return ui.Dir.Sprint(e.Name) + "/"
	case tree.KindSymlink:
		return ui.Link.Sprint(e.Name) + "@"
	default:
		return e.Name
	}
}

func printLong(w io.Writer, entries []tree.Entry) {
	table := ui.NewTable("Type", "Modified", "Host", "Name")
	for _, e := range entries {
		modified, host := "-", "-"
		if e.HasMeta {
			modified = e.Meta.Time().Format("2006-01-02 15:04")
			host = ui.Host(e.Meta.Host)
		}
		name := shortName(e)
		if e.Kind == tree.KindSymlink {
			name = strings.TrimSuffix(name, "@") + " -> " + e.Target
		}
		table.AddRow(e.Kind.String(), modified, host, name)
	}
	table.Render(w)
}
