package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/cask/internal/configs"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
	"github.com/PolarWolf314/cask/internal/ui"
	"github.com/PolarWolf314/cask/internal/workflows"
)

// shellSession is the session of the running interactive shell. Commands
// run inside the shell use it instead of opening their own.
var shellSession *workflows.Session

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// withSession runs fn against an open store: the shell's session if there
// is one, otherwise a session opened for this command alone and closed
// afterwards, starting a daemon first when asked to.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *workflows.Session) error) error {
	ctx := commandContext(cmd)
	if shellSession != nil {
		return fn(ctx, shellSession)
	}

	s, err := workflows.Open(ctx, newEnv())
	if err != nil {
		return err
	}
	stop := releaseOnSignal(s)
	defer stop()
	defer s.Close()

	if err := fn(ctx, s); err != nil {
		return err
	}
	if daemonFlag || (config.Daemon.Autostart && !noDaemon) {
		spawnDaemon(ctx, s)
	}
	return nil
}

// releaseOnSignal removes the session's lock if the process is interrupted
// before it closes the session normally.
func releaseOnSignal(s *workflows.Session) (stop func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigChan:
			if err := s.Release(); err != nil {
				Logger.Errorf("%v", err)
			}
			Logger.Debugf("Received %s, lock released", sig)
			os.Exit(130)
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}

// spawnDaemon starts a daemon for s. A daemon that fails to start is not
// an error for the command that already succeeded.
func spawnDaemon(ctx context.Context, s *workflows.Session) {
	exe, err := os.Executable()
	if err != nil {
		Logger.Warnf("Not starting daemon: %v", err)
		return
	}
	logPath := configs.UserCaskSettings.DaemonLogFile()
	pid, err := s.SpawnDaemon(ctx, workflows.SpawnOptions{
		Executable: exe,
		Args: []string{
			"daemon", "serve", "--verbose",
			"--file", s.Canonical(),
			"--idle-timeout", config.Daemon.IdleTimeout.String(),
		},
		LogPath: logPath,
	})
	if err != nil {
		Logger.Warnf("Could not start daemon: %v", err)
		return
	}
	if pid != 0 {
		Logger.Infof("Daemon %d caching %s", pid, ui.Path.Sprint(s.Canonical()))
	}
}

// notInShell rejects commands that replace or restructure the store while
// the shell holds it open.
func notInShell(cmd *cobra.Command) error {
	return fmt.Errorf("%w: %s cannot run inside the shell", kerrors.ErrUsage, cmd.Name())
}
