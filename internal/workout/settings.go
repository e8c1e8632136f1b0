package workout

import "fmt"

// Settings bounds, in seconds.
const (
	MinRoundLength = 10
	MaxRoundLength = 30 * 60
	MinRestLength  = 10
	MaxRestLength  = 10 * 60
	LengthStep     = 5
	MinRounds      = 1
)

// Settings is the user-adjustable workout configuration.
type Settings struct {
	RoundLength int // seconds
	RestLength  int // seconds
	Rounds      int
}

// DefaultSettings returns 3 rounds of 2:00 with 1:00 rest.
func DefaultSettings() Settings {
	return Settings{RoundLength: 120, RestLength: 60, Rounds: 3}
}

// Validate checks the bounds and the step grid. Adjustments never break
// them; this is for values that come from outside, such as a config file.
func (s Settings) Validate() error {
	if s.RoundLength < MinRoundLength || s.RoundLength > MaxRoundLength {
		return fmt.Errorf("round length must be between %d and %d seconds, got %d", MinRoundLength, MaxRoundLength, s.RoundLength)
	}
	if s.RoundLength%LengthStep != 0 {
		return fmt.Errorf("round length must be a multiple of %d seconds, got %d", LengthStep, s.RoundLength)
	}
	if s.RestLength < MinRestLength || s.RestLength > MaxRestLength {
		return fmt.Errorf("rest length must be between %d and %d seconds, got %d", MinRestLength, MaxRestLength, s.RestLength)
	}
	if s.RestLength%LengthStep != 0 {
		return fmt.Errorf("rest length must be a multiple of %d seconds, got %d", LengthStep, s.RestLength)
	}
	if s.Rounds < MinRounds {
		return fmt.Errorf("rounds must be at least %d, got %d", MinRounds, s.Rounds)
	}
	return nil
}

// TotalSeconds is the length of the whole workout: every round plus the
// rests between them.
func (s Settings) TotalSeconds() int {
	if s.Rounds <= 0 {
		return 0
	}
	return s.Rounds*s.RoundLength + (s.Rounds-1)*s.RestLength
}

// The adjusters below return false when the move would leave the bounds,
// in which case nothing changes.

func (s *Settings) IncrementRoundLength() bool {
	return step(&s.RoundLength, LengthStep, MinRoundLength, MaxRoundLength)
}

func (s *Settings) DecrementRoundLength() bool {
	return step(&s.RoundLength, -LengthStep, MinRoundLength, MaxRoundLength)
}

func (s *Settings) IncrementRestLength() bool {
	return step(&s.RestLength, LengthStep, MinRestLength, MaxRestLength)
}

func (s *Settings) DecrementRestLength() bool {
	return step(&s.RestLength, -LengthStep, MinRestLength, MaxRestLength)
}

// IncrementRounds has no upper bound.
func (s *Settings) IncrementRounds() bool {
	s.Rounds++
	return true
}

func (s *Settings) DecrementRounds() bool {
	if s.Rounds <= MinRounds {
		return false
	}
	s.Rounds--
	return true
}

func step(v *int, delta, min, max int) bool {
	next := *v + delta
	if next < min || next > max {
		return false
	}
	*v = next
	return true
}
