package configs

import (
	"os"
	"path/filepath"

	"github.com/PolarWolf314/cask/internal/utils"
)

type UserSettings struct {
	// UserConfigsPath holds config.toml.
	UserConfigsPath string

	// UserStatePath holds the audit journal and daemon log.
	UserStatePath string

	// UserDataPath is where the default store lives.
	UserDataPath string

	Username string
}

var UserCaskSettings *UserSettings

func init() {
	UserCaskSettings = defaultSettings()
}

func defaultSettings() *UserSettings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(homeDir, ".config")
	}

	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		stateDir = filepath.Join(homeDir, ".local", "state")
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	username, err := utils.GetUsername()
	if err != nil {
		username = "unknown"
	}

	return &UserSettings{
		UserConfigsPath: filepath.Join(configDir, "cask"),
		UserStatePath:   filepath.Join(stateDir, "cask"),
		UserDataPath:    filepath.Join(dataDir, "cask"),
		Username:        username,
	}
}

// ConfigFile returns the path of config.toml.
func (s *UserSettings) ConfigFile() string {
	return filepath.Join(s.UserConfigsPath, "config.toml")
}

// DaemonLogFile returns the log file background daemons write to.
func (s *UserSettings) DaemonLogFile() string {
	return filepath.Join(s.UserStatePath, "daemon.log")
}

// AuditLogFile returns the audit journal path.
func (s *UserSettings) AuditLogFile() string {
	return filepath.Join(s.UserStatePath, "audit.jsonl")
}

// DefaultStorePath returns the store used when nothing else is configured.
func (s *UserSettings) DefaultStorePath() string {
	return filepath.Join(s.UserDataPath, "store.gpg")
}
