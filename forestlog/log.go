// Package forestlog centralizes the loggers the forest engine and its
// tooling write to, replacing the teacher's bare *log.Logger pair
// (log/log.go's Loggers{Csn, Pollard}) with btclog's leveled backend so
// callers can turn verbosity up or down per subsystem without
// recompiling.
package forestlog

import (
	"io"
	"os"

	"github.com/btcsuite/btclog"
)

// Loggers groups the subsystems that want independent verbosity: the
// accumulator engine itself and the CLI tooling built on top of it.
// Mirrors the shape of the teacher's Loggers struct one-for-one, just
// with btclog.Logger in place of *log.Logger.
type Loggers struct {
	Forest btclog.Logger
	Tool   btclog.Logger
}

var backend = btclog.NewBackend(os.Stdout)

// New creates a Loggers pair writing to w at level, or to stdout if w
// is nil.
func New(w io.Writer, level btclog.Level) Loggers {
	b := backend
	if w != nil {
		b = btclog.NewBackend(w)
	}
	l := Loggers{
		Forest: b.Logger("FRST"),
		Tool:   b.Logger("TOOL"),
	}
	l.SetLevel(level)
	return l
}

// SetLevel applies level to every logger in l, the generalization of
// the teacher's SetLoggers (which only ever assigned the same *log.Logger
// to every field).
func (l Loggers) SetLevel(level btclog.Level) {
	l.Forest.SetLevel(level)
	l.Tool.SetLevel(level)
}

// Disabled returns a Loggers pair that discards everything, for tests
// and library callers that don't want forest's own logging.
func Disabled() Loggers {
	return New(io.Discard, btclog.LevelOff)
}
