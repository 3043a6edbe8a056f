// File: logger.go
// Role: The Logger interface and its two built-in implementations.
package diaglog

import (
	"fmt"
	"os"
)

// Logger receives diagnostic lines a comparison run produces along the
// way: a step that panicked, a step that returned an error, a degenerate
// scoring feature. Nothing in this module requires a Logger to
// function; config.Config defaults to Discard.
type Logger interface {
	Warnf(format string, args ...any)
}

// discard is the default Logger: it drops every line, mirroring
// FlowOptions.Verbose defaulting to false in the teacher's flow package.
type discard struct{}

func (discard) Warnf(string, ...any) {}

// Discard is the no-op Logger used when a config leaves Logger unset.
var Discard Logger = discard{}

// Std writes every line to an underlying writer (os.Stderr by default),
// one line per call, prefixed "bindiff: ".
type Std struct {
	Out *os.File
}

// NewStd returns a Std logging to os.Stderr.
func NewStd() *Std {
	return &Std{Out: os.Stderr}
}

func (s *Std) Warnf(format string, args ...any) {
	out := s.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, "bindiff: "+format+"\n", args...)
}
