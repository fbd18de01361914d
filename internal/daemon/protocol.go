package daemon

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/cask/internal/errors"
)

// Request verbs.
const (
	VerbRead  = "READ"
	VerbWrite = "WRITE"
	VerbExit  = "EXIT"
)

// Reply statuses.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

var b64 = base64.StdEncoding

// Request is a parsed request line with its arguments decoded.
type Request struct {
	Verb string
	Args [][]byte
}

// arity is the number of arguments each verb takes.
var arity = map[string]int{
	VerbRead:  1,
	VerbWrite: 2,
	VerbExit:  0,
}

// FormatRequest renders a request line, including the trailing newline.
func FormatRequest(verb string, args ...[]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(verb)
	for _, a := range args {
		buf.WriteByte(' ')
		buf.WriteString(b64.EncodeToString(a))
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// ParseRequest parses one request line. The trailing newline is optional.
func ParseRequest(line []byte) (Request, error) {
	fields := strings.Split(strings.TrimSuffix(string(line), "\n"), " ")
	verb := fields[0]
	want, ok := arity[verb]
	if !ok {
		return Request{}, fmt.Errorf("unknown request %q", truncate(verb))
	}
	if len(fields)-1 != want {
		return Request{}, fmt.Errorf("%s takes %d arguments, got %d", verb, want, len(fields)-1)
	}
	req := Request{Verb: verb}
	for i, f := range fields[1:] {
		arg, err := b64.DecodeString(f)
		if err != nil {
			return Request{}, fmt.Errorf("%s argument %d: %v", verb, i+1, err)
		}
		req.Args = append(req.Args, arg)
	}
	return req, nil
}

// FormatOK renders a success reply with an optional payload.
func FormatOK(payload []byte) []byte {
	if payload == nil {
		return []byte(StatusOK + "\n")
	}
	return []byte(StatusOK + " " + b64.EncodeToString(payload) + "\n")
}

// FormatError renders a failure reply. The message is flattened to one line.
func FormatError(msg string) []byte {
	msg = strings.Join(strings.Fields(msg), " ")
	return []byte(StatusError + " " + msg + "\n")
}

// ParseReply parses a reply line. An ERROR reply is returned as an error
// wrapping ErrDaemon; an OK reply yields its payload, nil when absent.
func ParseReply(line []byte) ([]byte, error) {
	s := strings.TrimSuffix(string(line), "\n")
	status, rest, hasRest := strings.Cut(s, " ")
	switch status {
	case StatusOK:
		if !hasRest {
			return nil, nil
		}
		payload, err := b64.DecodeString(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed reply payload: %v", kerrors.ErrDaemon, err)
		}
		return payload, nil
	case StatusError:
		return nil, fmt.Errorf("%w: %s", kerrors.ErrDaemon, rest)
	}
	return nil, fmt.Errorf("%w: malformed reply %q", kerrors.ErrDaemon, truncate(s))
}

func truncate(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
