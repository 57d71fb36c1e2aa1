// Package clock supplies "now" to code that windows data by calendar date.
package clock

import "time"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in the local time zone.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed always returns the same instant. Used by tests and replays.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }
