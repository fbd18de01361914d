package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// StdinIsPiped reports whether stdin carries redirected data rather than a
// terminal.
func StdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	// If ModeCharDevice is set, stdin is connected to a terminal.
	return stat.Mode()&os.ModeCharDevice == 0
}

// ReadLine reads one line from r without its line terminator.
// Returns an error if r is empty.
func ReadLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	if line == "" {
		return "", fmt.Errorf("no input provided")
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}
