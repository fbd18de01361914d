// Package utils provides shared helpers used across cask's packages.
//
// # System Utilities
//
//   - GetUsername: returns the current system username
//   - GetHostname, ShortHostname: return the system hostname
//
// # I/O Utilities
//
//   - StdinIsPiped: reports whether stdin is redirected
//   - ReadLine: reads a single secret value from a reader
//
// # Terminal Utilities
//
// Password entry and terminal detection, reading from /dev/tty so that
// stdin stays free for piped data:
//   - ReadPassphraseFromTTY: hidden input
//   - IsTerminal, IsTTYAvailable: terminal detection
//   - ClearScreen: used by the interactive shell
//
// # String Utilities
//
//   - FormatPaths: formats paths as a bulleted list
//   - Plural: picks singular or plural nouns
package utils
