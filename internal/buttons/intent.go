package buttons

import "github.com/sweeney/round-timer/internal/workout"

// IntentFor maps a press to the intent it means in the given phase. START
// starts from idle and dismisses a finished workout; it does nothing while a
// workout runs.
func IntentFor(b Button, phase workout.Phase) (workout.Intent, bool) {
	switch b {
	case ButtonStart:
		switch phase {
		case workout.PhaseIdle:
			return workout.IntentStart, true
		case workout.PhaseDone:
			return workout.IntentCloseAfterDone, true
		}
	case ButtonPause:
		return workout.IntentTogglePause, true
	case ButtonEnd:
		return workout.IntentEnd, true
	}
	return "", false
}
