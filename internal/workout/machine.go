package workout

// Step applies one event to the state and returns the new state together with
// the effects the caller must carry out. Events that do not apply in the
// current state return the state unchanged and no effects.
//
// Settings are read only when a phase is entered, so adjustments made during
// a workout affect the next segment, not the running one.
func Step(s State, cfg Settings, ev EventType) (State, Effects) {
	switch ev {
	case EventStart:
		return start(s)
	case EventTogglePause:
		return togglePause(s)
	case EventEnd:
		return Idle(), Effects{Schedule: ScheduleStop}
	case EventCountdownTick:
		return countdownTick(s)
	case EventHoldElapsed:
		return holdElapsed(s, cfg)
	case EventSegmentTick:
		return segmentTick(s, cfg)
	}
	return s, Effects{}
}

func start(s State) (State, Effects) {
	if s.Phase != PhaseIdle || s.HasCountdown {
		return s, Effects{}
	}
	next := State{
		Phase:        PhaseCountdown,
		Countdown:    CountdownFrom,
		HasCountdown: true,
		Timer:        TimerCountdown,
	}
	return next, Effects{
		Cues:     []Cue{CueTick},
		Schedule: ScheduleStart,
		Timer:    TimerCountdown,
	}
}

func togglePause(s State) (State, Effects) {
	if !s.Phase.Active() {
		return s, Effects{}
	}
	s.Paused = !s.Paused
	// The hold does not elapse while paused; resuming restarts it.
	if !s.Paused && s.Phase == PhaseCountdown && s.Timer == TimerHold {
		return s, Effects{Schedule: ScheduleStart, Timer: TimerHold}
	}
	return s, Effects{}
}

func countdownTick(s State) (State, Effects) {
	if s.Phase != PhaseCountdown || s.Timer != TimerCountdown || s.Paused {
		return s, Effects{}
	}
	s.Countdown--
	if s.Countdown >= 1 {
		return s, Effects{Cues: []Cue{CueTick}}
	}
	// Zero stays on display for the hold beat before round 1.
	s.Countdown = 0
	s.Timer = TimerHold
	return s, Effects{Schedule: ScheduleStart, Timer: TimerHold}
}

func holdElapsed(s State, cfg Settings) (State, Effects) {
	if s.Phase != PhaseCountdown || s.Timer != TimerHold || s.Paused {
		return s, Effects{}
	}
	s.Countdown = 0
	s.HasCountdown = false
	return enterRound(s, 1, cfg)
}

func segmentTick(s State, cfg Settings) (State, Effects) {
	if (s.Phase != PhaseRound && s.Phase != PhaseRest) || s.Paused {
		return s, Effects{}
	}
	s.TimeLeft--
	if s.TimeLeft > 0 {
		if s.TimeLeft <= WarningSeconds {
			return s, Effects{Cues: []Cue{CueTick}}
		}
		return s, Effects{}
	}
	s.TimeLeft = 0

	if s.Phase == PhaseRest {
		return enterRound(s, s.Round+1, cfg)
	}

	// Round finished. >= so that lowering Rounds mid-workout still terminates.
	if s.Round >= cfg.Rounds {
		s.Phase = PhaseDone
		s.Timer = TimerNone
		return s, Effects{Cues: []Cue{CueBell}, Schedule: ScheduleStop}
	}
	s.Phase = PhaseRest
	s.TimeLeft = cfg.RestLength
	s.Timer = TimerSegment
	return s, Effects{Cues: []Cue{CueBell}, Schedule: ScheduleStart, Timer: TimerSegment}
}

func enterRound(s State, round int, cfg Settings) (State, Effects) {
	s.Phase = PhaseRound
	s.Round = round
	s.TimeLeft = cfg.RoundLength
	s.Timer = TimerSegment
	return s, Effects{Cues: []Cue{CueBell}, Schedule: ScheduleStart, Timer: TimerSegment}
}

// Classify reports the externally visible change between two states, if any.
// Countdown and time-left changes alone are not transitions.
func Classify(prev, next State) (TransitionType, bool) {
	if prev.Phase != next.Phase {
		switch next.Phase {
		case PhaseCountdown:
			return TransitionWorkoutStart, true
		case PhaseRound:
			return TransitionRoundStart, true
		case PhaseRest:
			return TransitionRestStart, true
		case PhaseDone:
			return TransitionWorkoutDone, true
		case PhaseIdle:
			return TransitionWorkoutEnd, true
		}
		return "", false
	}
	if prev.Paused != next.Paused {
		if next.Paused {
			return TransitionPaused, true
		}
		return TransitionResumed, true
	}
	return "", false
}
