// Package diagnostics reports severity-leveled, single-line messages
// against a configurable writer: a direct port of the original compiler's
// logger.c, minus its process-wide global (this backend is a library, not
// a standalone process, so the output stream is a value, not a static).
package diagnostics

import (
	"fmt"
	"io"
	"os"
)

// Severity classifies a reported message.
type Severity uint8

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "severity(?)"
	}
}

// Position locates a diagnostic in source text. A zero Position (empty
// File) is printed without a location prefix.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) known() bool { return p.File != "" }

// Reporter writes diagnostics to an underlying stream. The zero value is
// not usable; construct one with New.
type Reporter struct {
	out io.Writer
}

// New builds a Reporter writing to out. A nil out defaults to os.Stderr,
// matching stmInitLogger's "no output file given" behavior.
func New(out io.Writer) *Reporter {
	if out == nil {
		out = os.Stderr
	}
	return &Reporter{out: out}
}

func (r *Reporter) log(sev Severity, pos Position, msg string) {
	if pos.known() {
		fmt.Fprintf(r.out, "%s:%d:%d: %s: %s\n", pos.File, pos.Line, pos.Column, sev, msg)
	} else {
		fmt.Fprintf(r.out, "%s: %s\n", sev, msg)
	}
}

// Info reports a non-severe, informative message.
func (r *Reporter) Info(pos Position, msg string) { r.log(Info, pos, msg) }

// Warning reports a non-severe warning.
func (r *Reporter) Warning(pos Position, msg string) { r.log(Warning, pos, msg) }

// Error reports an error; unlike Fatal, the caller is expected to keep
// going (e.g. to collect multiple diagnostics before giving up).
func (r *Reporter) Error(pos Position, msg string) { r.log(Error, pos, msg) }

// Fatal reports an unrecoverable diagnostic and ends the process, matching
// stmLogFatal's exit(EXIT_FAILURE).
func (r *Reporter) Fatal(pos Position, msg string) {
	r.log(Fatal, pos, msg)
	os.Exit(1)
}
