//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/round-timer/internal/clock"
)

// ErrUnsupported is returned by the hardware constructors off Linux, where
// there is no GPIO character device. Use -no-gpio or the fakes instead.
var ErrUnsupported = errors.New("gpio: character device GPIO requires Linux")

// RealReader stands in for the Linux button reader.
type RealReader struct{}

func NewRealReader(Pins) (*RealReader, error) { return nil, ErrUnsupported }

func (*RealReader) Read() (Sample, error) { return Sample{}, ErrUnsupported }

func (*RealReader) Close() error { return nil }

func NewRealBuzzer(Pins, clock.Clock) (*Buzzer, error) { return nil, ErrUnsupported }
