package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Verbosity levels accepted by StreamWriters.
const (
	LevelOps   = 0 // actionable warnings, errors, data loss
	LevelDiag  = 1 // per-scan diagnostics
	LevelTrace = 2 // per-frame telemetry
)

// StreamWriters maps a verbosity level onto the ops/diag/trace writers that
// the scan packages accept in SetLogWriters. Streams above the level are nil
// (disabled). A nil w disables everything.
func StreamWriters(level int, w io.Writer) (ops, diag, trace io.Writer) {
	if w == nil {
		return nil, nil, nil
	}
	ops = w
	if level >= LevelDiag {
		diag = w
	}
	if level >= LevelTrace {
		trace = w
	}
	return ops, diag, trace
}
