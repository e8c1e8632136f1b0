package workout

import "fmt"

// FormatSeconds renders n as MM:SS. Minutes are not capped at 59.
func FormatSeconds(n int) string {
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%02d:%02d", n/60, n%60)
}

// Snapshot is a point-in-time view of the timer for display.
// It is a value and stays valid after the engine lock is released.
type Snapshot struct {
	State
	Settings Settings
}

// CountdownValue returns the countdown and whether one is showing.
func (s Snapshot) CountdownValue() (int, bool) {
	return s.Countdown, s.HasCountdown
}

func (s Snapshot) DisplayRoundLength() string {
	return FormatSeconds(s.Settings.RoundLength)
}

func (s Snapshot) DisplayRestLength() string {
	return FormatSeconds(s.Settings.RestLength)
}

func (s Snapshot) DisplayRounds() int {
	return s.Settings.Rounds
}

func (s Snapshot) DisplayTimeLeft() string {
	return FormatSeconds(s.TimeLeft)
}

func (s Snapshot) DisplayTotalTime() string {
	return FormatSeconds(s.Settings.TotalSeconds())
}
