package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/workflows"
)

var daemonIdleTimeout time.Duration

func init() {
	daemonServeCmd.Flags().DurationVar(&daemonIdleTimeout, "idle-timeout", 0, "exit after this long without a request (0: the config setting)")
	DaemonCmd.AddCommand(daemonServeCmd)
	DaemonCmd.AddCommand(daemonStopCmd)
	DaemonCmd.AddCommand(daemonStatusCmd)
	RootCmd.AddCommand(DaemonCmd)
}

var DaemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the background process caching the store",
	Long: `A daemon holds one decrypted store in memory so commands can skip the
password. Start one with --daemon on any command, or set autostart in the
config. It exits after the idle timeout, on "cask daemon stop", or when
the store's password changes.`,
}

var daemonServeCmd = &cobra.Command{
	Use:    "serve",
	Short:  "Run the daemon in the foreground",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Timestamps = true
		if noDaemon {
			return fmt.Errorf("%w: --no-daemon cannot be used with daemon serve", kerrors.ErrUsage)
		}
		idle := daemonIdleTimeout
		if idle == 0 {
			idle = config.Daemon.IdleTimeout.Duration
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		env := newEnv()
		Logger.Infof("Daemon %d starting for %s", os.Getpid(), env.Store.Path)
		err := workflows.Serve(ctx, env, workflows.ServeOptions{Handoff: os.Stdin, IdleTimeout: idle})
		if err != nil {
			Logger.Errorf("%v", err)
			return err
		}
		Logger.Infof("Daemon %d exiting", os.Getpid())
		return nil
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon caching the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stopped, err := workflows.StopServe(commandContext(cmd), newEnv())
		if err != nil {
			return err
		}
		if stopped {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Sprint("✓")+" Daemon stopped")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No daemon is running for this store")
		}
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a daemon caches the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := workflows.Status(commandContext(cmd), newEnv())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-8s %s\n", "store:", ui.Path.Sprint(status.Store))
		if status.Socket == "" {
			fmt.Fprintf(out, "%-8s %s\n", "daemon:", "disabled")
			return nil
		}
		fmt.Fprintf(out, "%-8s %s\n", "socket:", status.Socket)
		if status.Running {
			fmt.Fprintf(out, "%-8s %s\n", "daemon:", ui.Success.Sprint("running"))
		} else {
			fmt.Fprintf(out, "%-8s %s\n", "daemon:", "not running")
		}
		return nil
	},
}
