// Package logger provides leveled logging for cask commands and the
// session daemon.
//
// Verbosity is controlled by two persistent flags:
//
//   - --verbose: shows info messages
//   - --debug: shows info and debug messages
//
// Warnings and errors are always shown, on stderr.
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Saved %s", path)
//
// The root command builds the logger in its PersistentPreRun and passes it
// down to workflows. The daemon additionally sets Timestamps.
package logger
