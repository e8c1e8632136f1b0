// Package buttons turns raw button samples into debounced presses.
// This package has NO hardware dependencies. Time is always injectable via
// time.Time parameters.
package buttons

import "time"

// Button identifies a physical control.
type Button string

const (
	ButtonStart Button = "START"
	ButtonPause Button = "PAUSE"
	ButtonEnd   Button = "END"
)

// Level is the debounced state of a button.
type Level string

const (
	LevelPressed  Level = "PRESSED"
	LevelReleased Level = "RELEASED"
)

// Input is a single sample of logical button states (true = pressed).
type Input struct {
	Start bool
	Pause bool
	End   bool
	Time  time.Time
}

// Press is a debounced released→pressed transition.
type Press struct {
	Button Button
	Time   time.Time
}

// PressCounts tracks presses per button since startup.
type PressCounts struct {
	Start int
	Pause int
	End   int
}

// channelState tracks debounce state for a single button.
type channelState struct {
	// Current stable (debounced) level
	Stable Level
	// Pending level during debounce
	Pending Level
	// Time when pending level was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// Detector debounces the three buttons and reports presses.
type Detector struct {
	debounceDuration time.Duration
	start            channelState
	pause            channelState
	end              channelState
	baselined        bool
	counts           PressCounts
}

// NewDetector creates a press detector with the given debounce duration.
func NewDetector(debounceDuration time.Duration) *Detector {
	return &Detector{debounceDuration: debounceDuration}
}

// Process takes a new sample and returns any presses, in START, PAUSE, END
// order. A button already held down when sampling begins never reports a
// press until it has been released.
func (d *Detector) Process(input Input) []Press {
	startPressed := d.processChannel(&d.start, levelOf(input.Start), input.Time)
	pausePressed := d.processChannel(&d.pause, levelOf(input.Pause), input.Time)
	endPressed := d.processChannel(&d.end, levelOf(input.End), input.Time)

	if !d.baselined {
		if d.start.Baselined && d.pause.Baselined && d.end.Baselined {
			d.baselined = true
		}
		return nil // No presses until baseline established
	}

	var presses []Press
	if startPressed {
		d.counts.Start++
		presses = append(presses, Press{Button: ButtonStart, Time: input.Time})
	}
	if pausePressed {
		d.counts.Pause++
		presses = append(presses, Press{Button: ButtonPause, Time: input.Time})
	}
	if endPressed {
		d.counts.End++
		presses = append(presses, Press{Button: ButtonEnd, Time: input.Time})
	}
	return presses
}

// processChannel handles debounce logic for a single button.
// Returns true when a stable release→press transition completes.
func (d *Detector) processChannel(ch *channelState, level Level, now time.Time) bool {
	// First time seeing this button
	if !ch.Baselined {
		if ch.Pending != level {
			// Start observing, or restart on change
			ch.Pending = level
			ch.PendingSince = now
			return false
		}
		if now.Sub(ch.PendingSince) >= d.debounceDuration {
			ch.Stable = level
			ch.Baselined = true
			ch.Pending = ""
		}
		return false
	}

	if level == ch.Stable {
		// Bounce back to stable, clear any pending
		ch.Pending = ""
		return false
	}

	if ch.Pending != level {
		ch.Pending = level
		ch.PendingSince = now
		return false
	}

	if now.Sub(ch.PendingSince) >= d.debounceDuration {
		ch.Stable = level
		ch.Pending = ""
		return level == LevelPressed
	}
	return false
}

func levelOf(pressed bool) Level {
	if pressed {
		return LevelPressed
	}
	return LevelReleased
}

// IsBaselined returns whether every button has a stable level.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// Counts returns the presses seen since startup.
func (d *Detector) Counts() PressCounts {
	return d.counts
}
