// Package clock abstracts one-shot callback scheduling so timing code can be
// driven by a fake clock in tests instead of real sleeps.
package clock

import "time"

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop cancels the callback. Returns false if it already fired or was stopped.
	Stop() bool
}

// Clock schedules callbacks and reports the current time.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// Real is the Clock backed by the time package.
var Real Clock = realClock{}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (realClock) Now() time.Time {
	return time.Now()
}
