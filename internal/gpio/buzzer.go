package gpio

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sweeney/round-timer/internal/clock"
)

// Buzzer plays cues by pulsing two output lines: a short click on the tick
// line and a long ring on the bell line. A new pulse on a line restarts it.
type Buzzer struct {
	mu        sync.Mutex
	clock     clock.Clock
	tick      Output
	bell      Output
	tickTimer clock.Timer
	bellTimer clock.Timer
	closed    bool
}

// NewBuzzer creates a Buzzer driving the given lines. A nil clock uses the
// real one.
func NewBuzzer(tick, bell Output, clk clock.Clock) *Buzzer {
	if clk == nil {
		clk = clock.Real
	}
	return &Buzzer{clock: clk, tick: tick, bell: bell}
}

// PlayTick pulses the tick line.
func (b *Buzzer) PlayTick() error {
	return b.pulse(b.tick, &b.tickTimer, TickPulse, "tick")
}

// PlayBell cuts any tick still sounding, then pulses the bell line.
func (b *Buzzer) PlayBell() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errBuzzerClosed
	}
	if b.tickTimer != nil {
		b.tickTimer.Stop()
		b.tickTimer = nil
	}
	if err := b.tick.SetValue(0); err != nil {
		log.Printf("gpio: silence tick line: %v", err)
	}
	return b.pulseLocked(b.bell, &b.bellTimer, BellPulse, "bell")
}

var errBuzzerClosed = errors.New("gpio: buzzer closed")

func (b *Buzzer) pulse(out Output, timer *clock.Timer, d time.Duration, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errBuzzerClosed
	}
	return b.pulseLocked(out, timer, d, name)
}

// pulseLocked drives out high and schedules its release. Caller must hold b.mu.
func (b *Buzzer) pulseLocked(out Output, timer *clock.Timer, d time.Duration, name string) error {
	if *timer != nil {
		(*timer).Stop()
	}
	if err := out.SetValue(1); err != nil {
		return fmt.Errorf("drive %s line: %w", name, err)
	}
	*timer = b.clock.AfterFunc(d, func() {
		if err := out.SetValue(0); err != nil {
			log.Printf("gpio: release %s line: %v", name, err)
		}
	})
	return nil
}

// Close silences both lines and releases them.
func (b *Buzzer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for _, t := range []clock.Timer{b.tickTimer, b.bellTimer} {
		if t != nil {
			t.Stop()
		}
	}
	if err := b.tick.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("silence tick line: %w", err))
	}
	if err := b.bell.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("silence bell line: %w", err))
	}
	if err := b.tick.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close tick line: %w", err))
	}
	if err := b.bell.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close bell line: %w", err))
	}
	return errors.Join(errs...)
}
