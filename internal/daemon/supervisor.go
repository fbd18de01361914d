package daemon

import "time"

// SpawnConfig describes a daemon to start in the background.
type SpawnConfig struct {
	// Executable is the cask binary; empty means the running one.
	Executable string

	// Args are the arguments that make the child run the server.
	Args []string

	// Socket is polled to detect that the child is ready.
	Socket string

	// LogPath receives the child's stdout and stderr.
	LogPath string

	Password []byte
	Document []byte

	// ReadyTimeout bounds the wait for the socket; zero means 10s.
	ReadyTimeout time.Duration
}

func (c SpawnConfig) readyTimeout() time.Duration {
	if c.ReadyTimeout <= 0 {
		return 10 * time.Second
	}
	return c.ReadyTimeout
}
