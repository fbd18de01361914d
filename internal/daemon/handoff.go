package daemon

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteHandoff sends a starting daemon its password and initial document:
// one line holding the base64 password, then the document verbatim.
func WriteHandoff(w io.Writer, password, doc []byte) error {
	if _, err := io.WriteString(w, b64.EncodeToString(password)+"\n"); err != nil {
		return fmt.Errorf("sending password: %w", err)
	}
	if _, err := w.Write(doc); err != nil {
		return fmt.Errorf("sending document: %w", err)
	}
	return nil
}

// ReadHandoff reads what WriteHandoff wrote, up to EOF.
func ReadHandoff(r io.Reader) (password, doc []byte, err error) {
	br := bufio.NewReader(r)
	line, err := br.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading password: %w", err)
	}
	password, err = b64.DecodeString(strings.TrimSuffix(line, "\n"))
	if err != nil {
		return nil, nil, fmt.Errorf("decoding password: %w", err)
	}
	doc, err = io.ReadAll(br)
	if err != nil {
		return nil, nil, fmt.Errorf("reading document: %w", err)
	}
	return password, doc, nil
}
