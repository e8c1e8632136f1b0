//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/round-timer/internal/clock"
)

const chipName = "gpiochip0"

// RealReader reads buttons from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	start *gpiocdev.Line
	pause *gpiocdev.Line
	end   *gpiocdev.Line
}

// NewRealReader creates a button reader for actual Raspberry Pi hardware.
func NewRealReader(pins Pins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip}
	// Buttons short to ground, so hold the lines up.
	for _, req := range []struct {
		name string
		pin  int
		line **gpiocdev.Line
	}{
		{"START", pins.Start, &r.start},
		{"PAUSE", pins.Pause, &r.pause},
		{"END", pins.End, &r.end},
	} {
		l, err := chip.RequestLine(req.pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", req.name, req.pin, err)
		}
		*req.line = l
	}
	return r, nil
}

// Read returns the logical button states.
// Inverts raw GPIO: raw low (0) = pressed.
func (r *RealReader) Read() (Sample, error) {
	var s Sample
	for _, req := range []struct {
		name string
		line *gpiocdev.Line
		out  *bool
	}{
		{"START", r.start, &s.Start},
		{"PAUSE", r.pause, &s.Pause},
		{"END", r.end, &s.End},
	} {
		raw, err := req.line.Value()
		if err != nil {
			return Sample{}, fmt.Errorf("read %s pin: %w", req.name, err)
		}
		*req.out = raw == 0
	}
	return s, nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing.
func (r *RealReader) Close() error {
	var errs []error
	for _, l := range []*gpiocdev.Line{r.start, r.pause, r.end} {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NewRealBuzzer requests the tick and bell lines as outputs, initially low.
func NewRealBuzzer(pins Pins, clk clock.Clock) (*Buzzer, error) {
	tick, err := gpiocdev.RequestLine(chipName, pins.Tick, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request tick pin %d: %w", pins.Tick, err)
	}
	bell, err := gpiocdev.RequestLine(chipName, pins.Bell, gpiocdev.AsOutput(0))
	if err != nil {
		tick.Close()
		return nil, fmt.Errorf("request bell pin %d: %w", pins.Bell, err)
	}
	return NewBuzzer(tick, bell, clk), nil
}
