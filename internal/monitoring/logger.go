// Package monitoring holds the process-wide diagnostic logger shared by the
// mask pipeline, corpus loader, sweep runner, and web monitor. Components log
// through monitoring.Logf with a bracketed prefix ("[Pipeline] ...") so a
// single stream stays greppable per component.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// may be swapped with SetLogger so embedders and tests can redirect or mute
// pipeline diagnostics.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. A nil argument installs a no-op
// logger rather than a nil function.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// Mute silences the package logger and returns a restore function. Intended
// for tests that drive noisy components (sweeps, corpus reloads).
func Mute() (restore func()) {
	prev := Logf
	Logf = func(string, ...any) {}
	return func() { Logf = prev }
}
