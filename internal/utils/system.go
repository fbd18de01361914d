package utils

import (
	"os"
	"os/user"
	"strings"
)

// GetUsername returns the current username.
func GetUsername() (string, error) {
	user, err := user.Current()
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// GetHostname returns the system hostname.
func GetHostname() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", err
	}
	return hostname, nil
}

// ShortHostname returns the hostname up to its first dot, or fallback when
// the hostname cannot be determined.
func ShortHostname(fallback string) string {
	hostname, err := GetHostname()
	if err != nil || hostname == "" {
		return fallback
	}
	short, _, _ := strings.Cut(hostname, ".")
	return short
}
