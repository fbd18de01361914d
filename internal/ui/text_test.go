package ui

import (
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// withColor forces colored output for the rest of the test.
func withColor(t *testing.T) {
	t.Helper()
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")
	prev := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = prev })
}

func TestPlainDecorations(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"command", Code.Sprint("cask init"), "`cask init`"},
		{"command with args", Code.Sprintf("cask %s %s", "cat", "web/login"), "`cask cat web/login`"},
		{"store path", Path.Sprint("/web/login"), "/web/login"},
		{"prompt store", Highlight.Sprint("/home/a/store.gpg"), "'/home/a/store.gpg'"},
		{"missing config", Muted.Sprint("no config file"), "(no config file)"},
		{"recursive removal", Warning.Sprint("⚠"), "⚠"},
		{"directory", Dir.Sprint("web"), "web"},
		{"symlink", Link.Sprint("current"), "current"},
		{"host", Host("laptop"), "laptop"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestColorDropsDecorations(t *testing.T) {
	withColor(t)

	for _, f := range []Formatter{Code, Highlight, Muted, Warning, Dir} {
		got := f.Sprint("web/login")
		assert.Contains(t, got, "\x1b[")
		assert.Contains(t, got, "web/login")
		assert.NotContains(t, got, "`")
		assert.NotContains(t, got, "'")
		assert.NotContains(t, got, "(")
	}
}

func TestHost(t *testing.T) {
	withColor(t)

	a := Host("laptop")
	assert.Equal(t, a, Host("laptop"), "same host, same color")
	assert.Contains(t, a, "laptop")
	assert.Contains(t, a, "\x1b[")
	assert.Equal(t, "", Host(""))
}

func TestEnsureNewline(t *testing.T) {
	assert.Equal(t, "\n", EnsureNewline(""))
	assert.Equal(t, "done\n", EnsureNewline("done"))
	assert.Equal(t, "done\n", EnsureNewline("done\n"))
}
