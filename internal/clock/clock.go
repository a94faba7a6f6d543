// Package clock indirects wall-clock access so tests can pin time.
package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Since returns the elapsed time measured against NowFunc.
func Since(t time.Time) time.Duration { return Now().Sub(t) }

// Pin fixes NowFunc at t and returns a restore function.
func Pin(t time.Time) func() {
	prev := NowFunc
	NowFunc = func() time.Time { return t }
	return func() { NowFunc = prev }
}
