// Package gpio provides button input and buzzer output with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Sample is a single reading of the three buttons (already in logical form).
type Sample struct {
	Start bool // true = pressed
	Pause bool
	End   bool
}

// Reader reads button states.
type Reader interface {
	// Read returns the logical button states.
	// Buttons are wired active-low: raw 0 = logical pressed.
	Read() (Sample, error)

	// Close releases GPIO resources.
	Close() error
}

// Output is a single driven line.
type Output interface {
	SetValue(value int) error
	Close() error
}

// Pins holds line offsets (BCM numbering).
type Pins struct {
	Start int
	Pause int
	End   int
	Tick  int
	Bell  int
}

// DefaultPins is the wiring used by the reference build.
var DefaultPins = Pins{
	Start: 17,
	Pause: 27,
	End:   22,
	Tick:  23,
	Bell:  24,
}

// Buzzer pulse lengths.
const (
	TickPulse = 40 * time.Millisecond
	BellPulse = 600 * time.Millisecond
)
