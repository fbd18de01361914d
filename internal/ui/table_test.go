package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTableRender(t *testing.T) {
	table := NewTable("name", "modified")
	table.AddRow("web/", "2024-01-02 10:00")
	table.AddRow("mail", "2024-01-03 11:30")
	if table.Len() != 2 {
		t.Fatalf("Expected 2 rows, got %d", table.Len())
	}

	var buf bytes.Buffer
	table.Render(&buf)
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and two rows, got %q", out)
	}
	if !strings.Contains(lines[0], "NAME") {
		t.Errorf("Expected upper-cased header, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "web/") || !strings.HasPrefix(lines[2], "mail") {
		t.Errorf("Rows out of order: %q", out)
	}
	if strings.Contains(out, "|") || strings.Contains(out, "+") {
		t.Errorf("Expected borderless output, got %q", out)
	}
}

func TestQuietSpinnerPrintsFinalMessage(t *testing.T) {
	var buf bytes.Buffer
	stop := startSpinner(&buf, "Decrypting", true)
	stop("done")
	if buf.String() != "done\n" {
		t.Errorf("Expected final message only, got %q", buf.String())
	}

	buf.Reset()
	stop = startSpinner(&buf, "Decrypting", true)
	stop("")
	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}
