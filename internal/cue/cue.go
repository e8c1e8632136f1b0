// Package cue provides players for the workout's tick and bell cues: a beep
// speaker, a terminal bell, fan-out to several players and a recorder for
// tests. Hardware buzzers live in package gpio.
package cue

import (
	"errors"
	"fmt"
	"io"
)

// Player plays the two cues. It has the same method set as workout.Player.
type Player interface {
	PlayTick() error
	PlayBell() error
}

// Multi plays every cue on each of its players. One failing player does not
// stop the others.
type Multi []Player

func (m Multi) PlayTick() error {
	var errs []error
	for _, p := range m {
		if err := p.PlayTick(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) PlayBell() error {
	var errs []error
	for _, p := range m {
		if err := p.PlayBell(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every cue.
type Nop struct{}

func (Nop) PlayTick() error { return nil }
func (Nop) PlayBell() error { return nil }

// TerminalBell rings the terminal (BEL) for the bell cue. Ticks are silent.
type TerminalBell struct {
	W io.Writer
}

func (t TerminalBell) PlayTick() error { return nil }

func (t TerminalBell) PlayBell() error {
	if _, err := io.WriteString(t.W, "\a"); err != nil {
		return fmt.Errorf("terminal bell: %w", err)
	}
	return nil
}
