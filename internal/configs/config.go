package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PolarWolf314/cask/internal/pwgen"
)

// StoreEnv overrides the configured store path.
const StoreEnv = "CASK_STORE"

// Config is the contents of config.toml.
type Config struct {
	Store        string       `toml:"store"`
	GPG          string       `toml:"gpg"`
	PasswordSpec string       `toml:"password_spec"`
	Audit        bool         `toml:"audit"`
	Daemon       DaemonConfig `toml:"daemon"`
	Shell        ShellConfig  `toml:"shell"`
}

type DaemonConfig struct {
	// Autostart spawns a daemon after every command that decrypted the
	// store itself.
	Autostart   bool     `toml:"autostart"`
	IdleTimeout Duration `toml:"idle_timeout"`
}

type ShellConfig struct {
	IdleTimeout Duration `toml:"idle_timeout"`
}

// Duration is a time.Duration written as a string such as "15m".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("duration %s is negative", text)
	}
	d.Duration = v
	return nil
}

// Default returns the configuration used when config.toml is absent.
func Default() *Config {
	return &Config{
		Store:        UserCaskSettings.DefaultStorePath(),
		GPG:          "gpg",
		PasswordSpec: pwgen.DefaultSpec,
		Audit:        true,
		Daemon: DaemonConfig{
			IdleTimeout: Duration{15 * time.Minute},
		},
		Shell: ShellConfig{
			IdleTimeout: Duration{10 * time.Minute},
		},
	}
}

// LoadConfig loads the user configuration from the config file.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(UserCaskSettings.ConfigFile())
}

// LoadConfigFrom loads configuration from path. Settings the file leaves
// out keep their defaults.
func LoadConfigFrom(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}

	if err := LoadTOML(path, config); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// SaveConfig writes config to the user config file.
func SaveConfig(config *Config) error {
	if err := SaveTOML(UserCaskSettings.ConfigFile(), config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Validate checks settings that would otherwise only fail when used.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Store) == "" {
		return errors.New("store must not be empty")
	}
	if strings.TrimSpace(c.GPG) == "" {
		return errors.New("gpg must not be empty")
	}
	if _, err := pwgen.Parse(c.PasswordSpec); err != nil {
		return fmt.Errorf("password_spec: %w", err)
	}
	return nil
}

// StorePath picks the store path: flag if set, else $CASK_STORE, else the
// config file, with "~/" expanded.
func (c *Config) StorePath(flag string) string {
	path := c.Store
	if env := os.Getenv(StoreEnv); env != "" {
		path = env
	}
	if flag != "" {
		path = flag
	}
	return ExpandHome(path)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
