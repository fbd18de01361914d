package utils

import (
	"strings"
	"testing"
)

func TestGetUsername(t *testing.T) {
	username, err := GetUsername()
	if err != nil {
		t.Fatalf("GetUsername failed: %v", err)
	}
	if username == "" {
		t.Fatal("Expected non-empty username")
	}
}

func TestGetHostname(t *testing.T) {
	hostname, err := GetHostname()
	if err != nil {
		t.Fatalf("GetHostname failed: %v", err)
	}
	if hostname == "" {
		t.Fatal("Expected non-empty hostname")
	}
}

func TestShortHostname(t *testing.T) {
	short := ShortHostname("fallback")
	if short == "" || strings.Contains(short, ".") {
		t.Fatalf("Expected a dotless hostname, got %q", short)
	}
}

func TestReadLine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"newline terminated", "s3cret\nignored\n", "s3cret", false},
		{"no newline", "s3cret", "s3cret", false},
		{"crlf", "s3cret\r\n", "s3cret", false},
		{"blank line", "\n", "", false},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadLine(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ReadLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlural(t *testing.T) {
	if Plural(1, "entry") != "entry" || Plural(2, "path") != "paths" || Plural(0, "path") != "paths" {
		t.Error("Plural returned an unexpected form")
	}
}
