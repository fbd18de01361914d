package audit

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Entry represents a single audit log entry. Entries name paths inside the
// store but never carry secret values.
type Entry struct {
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Local user performing the action.
	Host      string `json:"host"`
	Operation string `json:"op"`
	Store     string `json:"store"` // Canonical store file.

	// Optional fields depending on operation.
	Paths  []string `json:"paths,omitempty"`  // Tree paths touched.
	Daemon bool     `json:"daemon,omitempty"` // Served through a session daemon.
	Failed string   `json:"failed,omitempty"` // Error text when the operation failed.
}

// Journal appends entries to a JSON Lines file. The zero Journal discards
// everything, which is how auditing is switched off.
type Journal struct {
	Path string
}

// Log appends an entry to the journal.
// Operations should not fail just because audit logging failed, so errors
// are dropped.
func (j Journal) Log(entry Entry) {
	if j.Path == "" {
		return
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	if err := os.MkdirAll(filepath.Dir(j.Path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(j.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the journal.
// Returns an empty slice if the journal doesn't exist.
func (j Journal) ReadEntries() ([]Entry, error) {
	if j.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(j.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				// Skip malformed entries.
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
