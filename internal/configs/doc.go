// Package configs manages cask's user configuration and well-known paths.
//
// Configuration is stored in TOML at $XDG_CONFIG_HOME/cask/config.toml. A
// missing file means every setting takes its default:
//
//	store = "$XDG_DATA_HOME/cask/store.gpg"
//	gpg = "gpg"
//	password_spec = "20:u=1:l=1:d=1:p=1"
//	audit = true
//
//	[daemon]
//	autostart = false
//	idle_timeout = "15m"
//
//	[shell]
//	idle_timeout = "10m"
//
// # Store path
//
// The store path is chosen, in decreasing priority, from the --file flag,
// the CASK_STORE environment variable and the config file. A leading "~/"
// is expanded to the home directory.
//
// # Settings
//
// UserCaskSettings is initialized at startup with the config, state and
// data directories, following the XDG base directory conventions.
package configs
