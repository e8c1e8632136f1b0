package workout

import "fmt"

// Intent names a user action so front ends (web, MQTT, buttons) can address
// the engine without knowing its method set.
type Intent string

const (
	IntentStart                Intent = "start"
	IntentTogglePause          Intent = "toggle-pause"
	IntentEnd                  Intent = "end"
	IntentCloseAfterDone       Intent = "close"
	IntentIncrementRoundLength Intent = "round-length-up"
	IntentDecrementRoundLength Intent = "round-length-down"
	IntentIncrementRestLength  Intent = "rest-length-up"
	IntentDecrementRestLength  Intent = "rest-length-down"
	IntentIncrementRounds      Intent = "rounds-up"
	IntentDecrementRounds      Intent = "rounds-down"
)

// Intents lists every known intent in display order.
var Intents = []Intent{
	IntentStart,
	IntentTogglePause,
	IntentEnd,
	IntentCloseAfterDone,
	IntentIncrementRoundLength,
	IntentDecrementRoundLength,
	IntentIncrementRestLength,
	IntentDecrementRestLength,
	IntentIncrementRounds,
	IntentDecrementRounds,
}

// ParseIntent maps a name to a known Intent.
func ParseIntent(name string) (Intent, error) {
	for _, in := range Intents {
		if string(in) == name {
			return in, nil
		}
	}
	return "", fmt.Errorf("unknown intent %q", name)
}
