// Package workout contains the interval-workout timer: the adjustable
// Settings, the pure Step transition function and the Engine that runs it
// against a clock.
//
// Step has NO side effects. Cues and timer scheduling come back as Effects
// and are carried out by the Engine, so the phase logic is testable without
// any clock at all.
package workout

import "time"

// Phase is the workout's current mode.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseCountdown Phase = "COUNTDOWN"
	PhaseRound     Phase = "ROUND"
	PhaseRest      Phase = "REST"
	PhaseDone      Phase = "DONE"
)

// Active reports whether the phase runs a live timer and accepts pause.
func (p Phase) Active() bool {
	return p == PhaseCountdown || p == PhaseRound || p == PhaseRest
}

// Cue is an audio signal emitted by the phase engine.
type Cue string

const (
	CueTick Cue = "TICK"
	CueBell Cue = "BELL"
)

// TimerKind identifies which scheduled callback family is live.
type TimerKind int

const (
	TimerNone TimerKind = iota
	TimerCountdown
	TimerHold
	TimerSegment
)

func (k TimerKind) String() string {
	switch k {
	case TimerCountdown:
		return "countdown"
	case TimerHold:
		return "hold"
	case TimerSegment:
		return "segment"
	default:
		return "none"
	}
}

// Periodic reports whether the timer re-arms itself after firing.
func (k TimerKind) Periodic() bool {
	return k == TimerCountdown || k == TimerSegment
}

// Timing constants.
const (
	CountdownFrom = 3
	TickInterval  = time.Second

	// HoldDelay is the beat between the countdown reading zero and round 1.
	HoldDelay = 300 * time.Millisecond

	// WarningSeconds is how many final seconds of a segment get a tick cue.
	WarningSeconds = 3
)

// EventType is an input to the phase engine.
type EventType string

const (
	EventStart         EventType = "START"
	EventTogglePause   EventType = "TOGGLE_PAUSE"
	EventEnd           EventType = "END"
	EventCountdownTick EventType = "COUNTDOWN_TICK"
	EventHoldElapsed   EventType = "HOLD_ELAPSED"
	EventSegmentTick   EventType = "SEGMENT_TICK"
)

// State is the runtime state of a workout.
type State struct {
	Phase    Phase
	Round    int
	TimeLeft int // seconds remaining in the current segment
	Paused   bool

	// Countdown is only meaningful while HasCountdown is set.
	Countdown    int
	HasCountdown bool

	// Timer is the callback family that should be live.
	Timer TimerKind
}

// Idle returns the cleared state.
func Idle() State {
	return State{Phase: PhaseIdle}
}

// ScheduleAction tells the engine what to do with its scheduled callback.
type ScheduleAction int

const (
	// ScheduleKeep leaves the live callback as it is.
	ScheduleKeep ScheduleAction = iota
	// ScheduleStart cancels the live callback and arms a new one.
	ScheduleStart
	// ScheduleStop cancels the live callback.
	ScheduleStop
)

// Effects are the side effects a transition asks for.
type Effects struct {
	Cues     []Cue
	Schedule ScheduleAction
	Timer    TimerKind // set when Schedule == ScheduleStart
}

// TransitionType names an externally visible change of workout state.
type TransitionType string

const (
	TransitionWorkoutStart TransitionType = "WORKOUT_START"
	TransitionRoundStart   TransitionType = "ROUND_START"
	TransitionRestStart    TransitionType = "REST_START"
	TransitionWorkoutDone  TransitionType = "WORKOUT_DONE"
	TransitionWorkoutEnd   TransitionType = "WORKOUT_END"
	TransitionPaused       TransitionType = "PAUSED"
	TransitionResumed      TransitionType = "RESUMED"
)

// Transition is a phase, round or pause change, to be published.
type Transition struct {
	Timestamp time.Time
	Type      TransitionType
	From      Phase
	Phase     Phase
	Round     int
	Rounds    int
	TimeLeft  int
	Paused    bool
}
