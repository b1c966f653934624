// Package monitoring carries the swappable diagnostic logger shared by the
// event worker, the batch runner and the HTTP surfaces.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or
// mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that routes through Logf with a fixed prefix,
// e.g. Prefixed("run 1a2b")("trial %s failed", id) logs
// "run 1a2b: trial s01/q01 failed". The prefix binds at call time, so a
// logger swapped in later still receives the prefixed lines.
func Prefixed(prefix string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf("%s: %s", prefix, fmt.Sprintf(format, v...))
	}
}
