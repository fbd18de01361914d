//go:build unix

package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// Spawn starts a detached daemon and waits until its socket accepts
// connections. It returns the child's pid. The password and document
// travel over the child's stdin, never its arguments or environment.
func Spawn(ctx context.Context, cfg SpawnConfig) (int, error) {
	exe := cfg.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return 0, fmt.Errorf("failed to get executable path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0700); err != nil {
		return 0, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}

	cmd := exec.Command(exe, cfg.Args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		logFile.Close()
		return 0, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	logFile.Close()

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	werr := WriteHandoff(stdin, cfg.Password, cfg.Document)
	stdin.Close()
	if werr != nil {
		_ = cmd.Process.Kill()
		return 0, fmt.Errorf("%w: %v (see %s)", kerrors.ErrDaemon, werr, cfg.LogPath)
	}

	if err := waitReady(ctx, cfg, exited); err != nil {
		_ = cmd.Process.Kill()
		return 0, err
	}
	return cmd.Process.Pid, nil
}

func waitReady(ctx context.Context, cfg SpawnConfig, exited <-chan error) error {
	timeout := time.NewTimer(cfg.readyTimeout())
	defer timeout.Stop()
	tick := time.NewTicker(25 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case err := <-exited:
			return fmt.Errorf("%w: daemon exited during startup: %v (see %s)", kerrors.ErrDaemon, err, cfg.LogPath)
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return fmt.Errorf("%w: daemon not ready after %s (see %s)", kerrors.ErrDaemon, cfg.readyTimeout(), cfg.LogPath)
		case <-tick.C:
			if c, err := net.DialTimeout("unix", cfg.Socket, 250*time.Millisecond); err == nil {
				c.Close()
				return nil
			}
		}
	}
}
