// Package ui provides semantic text formatting for CLI output.
//
// This package defines formatters for different types of content (code,
// paths, errors, etc.) that render appropriately based on terminal
// capabilities. When colors are available, content is colorized. When
// NO_COLOR is set or the terminal doesn't support colors, text-based
// decorations (backticks, quotes) are used instead.
//
// # Semantic Formatters
//
// Use the appropriate formatter for the content type:
//
//	ui.Code.Sprint("cask init")               // Commands and code
//	ui.Path.Sprint("/web/login")              // Store paths
//	ui.Success.Sprint("✓")                     // Success indicators
//	ui.Error.Sprint("✗")                       // Error indicators
//	ui.Warning.Sprint("⚠")                     // Warnings before destructive steps
//	ui.Info.Sprint("→")                        // Informational hints
//	ui.Highlight.Sprint("/home/a/store.gpg")  // Store named in a password prompt
//	ui.Muted.Sprint("optional")               // De-emphasized text
//	ui.Dir.Sprint("web") + "/"                // Listings
//	ui.Host("laptop")                         // Hosts, colored by name
//
// # Color Behavior
//
// Colors are disabled when:
//   - NO_COLOR environment variable is set (any value)
//   - Terminal doesn't support colors (TERM=dumb, not a TTY)
//
// When colors are disabled, formatters apply text decorations:
//   - Code: `backticks`
//   - Highlight: 'single quotes'
//   - Muted: (parentheses)
//   - Others: no decoration (self-evident from context)
//
// # Tables and Spinners
//
// Table renders borderless columns for long listings and the audit log.
// StartSpinner shows progress while gpg runs and stays silent when stderr
// is not a terminal.
package ui
