package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/audit"
	"github.com/PolarWolf314/cask/internal/configs"
	"github.com/PolarWolf314/cask/internal/store"
	"github.com/PolarWolf314/cask/internal/workflows"
)

var (
	logLimit     int
	logReverse   bool
	logUser      string
	logOperation string
	logAllStores bool
	logSince     string
	logUntil     string
	logOneline   bool
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logUser, "user", "", "filter by local user name")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation type (comma-separated)")
	logCmd.Flags().BoolVar(&logAllStores, "all", false, "show entries for every store, not just the current one")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "compact one-line format")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")

	RootCmd.AddCommand(logCmd)
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the audit log of store operations.

Shows who did what to which paths and when, never the secrets themselves.
Entries are kept for every store in one journal; by default only the
current store's are shown.

Examples:
  cask log                          # View the current store's log
  cask log -n 10                    # Last 10 entries
  cask log --reverse                # Most recent first
  cask log --operation create,rm    # Filter by operation
  cask log --since 2026-01-01       # Filter by date
  cask log --all --json             # Every store, as JSON`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	Logger.Infof("Starting log command")

	opts := workflows.LogOptions{
		Limit:      logLimit,
		Reverse:    logReverse,
		User:       logUser,
		Operations: logOperation,
		Since:      logSince,
		Until:      logUntil,
	}
	if !logAllStores {
		path := config.StorePath(storeFlag)
		canonical, err := store.Canonical(path)
		if err != nil {
			// No directory, so no store and no entries for it either.
			canonical = path
		}
		opts.Store = canonical
	}

	journal := audit.Journal{Path: configs.UserCaskSettings.AuditLogFile()}
	result, err := workflows.Log(commandContext(cmd), journal, opts)
	if err != nil {
		return err
	}

	Logger.Debugf("Parsed %d entries from audit log", result.TotalEntriesBeforeFilter)
	Logger.Debugf("After filtering: %d entries", len(result.Entries))

	out := cmd.OutOrStdout()
	if len(result.Entries) == 0 {
		switch {
		case result.TotalEntriesBeforeFilter == 0 && !config.Audit:
			fmt.Fprintln(out, "No audit log entries found. Auditing is switched off in the config.")
		case result.TotalEntriesBeforeFilter == 0:
			fmt.Fprintln(out, "No audit log entries found.")
		default:
			fmt.Fprintln(out, "No audit log entries found matching the filters.")
		}
		return nil
	}

	switch {
	case logJSON:
		return outputLogJSON(out, result.Entries)
	case logOneline:
		outputLogOneline(out, result.Entries)
	default:
		outputLogDefault(out, result.Entries)
	}
	return nil
}

func outputLogJSON(out io.Writer, entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func outputLogOneline(out io.Writer, entries []audit.Entry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%s %s %s %s\n", workflows.FormatDate(e.Timestamp), e.User, e.Operation, workflows.FormatDetails(e))
	}
}

func outputLogDefault(out io.Writer, entries []audit.Entry) {
	for _, e := range entries {
		user := e.User + "@" + e.Host
		fmt.Fprintf(out, "%-19s  %-25s  %-10s  %s\n", workflows.FormatDateTime(e.Timestamp), user, e.Operation, workflows.FormatDetails(e))
	}
}
