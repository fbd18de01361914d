package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// StartSpinner shows message with a spinner on stderr while slow work runs,
// unless quiet is set or stderr is not a terminal. The returned function
// stops it and prints final, if non-empty, on its own line.
func StartSpinner(message string, quiet bool) func(final string) {
	return startSpinner(os.Stderr, message, quiet || !term.IsTerminal(int(os.Stderr.Fd())))
}

func startSpinner(w io.Writer, message string, quiet bool) func(final string) {
	if quiet {
		return func(final string) {
			if final != "" {
				fmt.Fprint(w, EnsureNewline(final))
			}
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	// Ignore color errors - continue without colored spinner if it fails.
	_ = s.Color("cyan")
	s.Start()

	return func(final string) {
		s.Stop()
		if final != "" {
			fmt.Fprint(w, EnsureNewline(final))
		}
	}
}
