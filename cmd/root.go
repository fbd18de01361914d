package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/PolarWolf314/cask/internal/audit"
	"github.com/PolarWolf314/cask/internal/configs"
	"github.com/PolarWolf314/cask/internal/daemon"
	kerrors "github.com/PolarWolf314/cask/internal/errors"
	logger "github.com/PolarWolf314/cask/internal/logging"
	"github.com/PolarWolf314/cask/internal/store"
	"github.com/PolarWolf314/cask/internal/workflows"
)

var (
	storeFlag  string
	verbose    bool
	debug      bool
	daemonFlag bool
	noDaemon   bool

	Logger logger.Logger
	config *configs.Config

	// prompter answers password prompts. Tests replace it.
	prompter workflows.Prompter = workflows.TerminalPrompter{}

	// newCipher builds the store cipher from the configuration. Tests
	// replace it.
	newCipher = func(c *configs.Config) store.Cipher { return store.GPG{Binary: c.GPG} }

	// socketDir locates daemon sockets. Tests replace it.
	socketDir = daemon.DefaultSocketDir

	RootCmd = &cobra.Command{
		Use:   "cask",
		Short: "An encrypted tree of secrets in a single file",
		Long: `cask keeps secrets in a small filesystem of directories, files and
symlinks, stored as one gpg-encrypted file.

Each command decrypts the store, applies one change and encrypts it again.
Run with --daemon to keep the decrypted store cached in a background
process so later commands do not ask for the password, or use
"cask shell" for an interactive session.

Examples:
  cask init
  cask mkdir web
  cask create web/login -g -s 24
  cask cat web/login
  cask ls -l web`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)

			if daemonFlag && noDaemon {
				return fmt.Errorf("%w: --daemon and --no-daemon cannot be used together", kerrors.ErrUsage)
			}

			loaded, err := configs.LoadConfig()
			if err != nil {
				var unknown *configs.UnknownKeysError
				if errors.As(err, &unknown) {
					return fmt.Errorf("%w (fix or remove them, or rewrite the file with %s)", err, "cask config init --force")
				}
				return err
			}
			config = loaded
			Logger.Debugf("Loaded config from %s", configs.UserCaskSettings.ConfigFile())
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&storeFlag, "file", "f", "", "store file (default from $"+configs.StoreEnv+" or config)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	RootCmd.PersistentFlags().BoolVar(&daemonFlag, "daemon", false, "start a daemon caching the store after the command")
	RootCmd.PersistentFlags().BoolVar(&noDaemon, "no-daemon", false, "neither use nor start a daemon")
}

// newEnv assembles what workflows need from the flags and configuration.
func newEnv() *workflows.Env {
	env := &workflows.Env{
		Store:    store.New(config.StorePath(storeFlag), newCipher(config)),
		Prompter: prompter,
		Logger:   Logger,
		Quiet:    verbose || debug,
	}
	if config.Audit {
		env.Journal = audit.Journal{Path: configs.UserCaskSettings.AuditLogFile()}
	}
	if !noDaemon {
		env.SocketDir = socketDir()
	}
	return env
}

// resetFlags returns every flag of cmd and its subcommands to its default.
// The shell runs many commands through one command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(flag *pflag.Flag) {
		if sv, ok := flag.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = flag.Value.Set(flag.DefValue)
		}
		flag.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
