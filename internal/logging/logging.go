package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

type Logger struct {
	Verbose bool
	Debug   bool

	// Timestamps prefixes every line with the local time. The daemon sets
	// it because its output goes to a long-lived log file.
	Timestamps bool
}

func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		l.print(os.Stdout, color.GreenString("[info] "), msg, args...)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		l.print(os.Stdout, color.CyanString("[debug] "), msg, args...)
	}
}

func (l Logger) Warnf(msg string, args ...any) {
	l.print(os.Stderr, color.YellowString("[warn] "), msg, args...)
}

func (l Logger) Errorf(msg string, args ...any) {
	l.print(os.Stderr, color.RedString("[error] "), msg, args...)
}

func (l Logger) print(w io.Writer, prefix, msg string, args ...any) {
	if l.Timestamps {
		prefix = time.Now().Format("2006-01-02 15:04:05 ") + prefix
	}
	fmt.Fprintf(w, prefix+msg+"\n", args...)
}
