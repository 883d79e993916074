// Package monitoring centralizes the daemon's diagnostic logging.
package monitoring

import "log"

// Logf is the process-wide diagnostic logger. It defaults to log.Printf
// and may be replaced through SetLogger to redirect or mute output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the process logger. Passing nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
