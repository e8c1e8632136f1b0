// Package mqtt provides MQTT publishing and remote commands with abstraction for testing.
package mqtt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/round-timer/internal/workout"
)

// Topic is the MQTT topic for workout transitions.
const Topic = "fitness/round-timer/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "fitness/round-timer/system"

// TopicCommands is the MQTT topic the daemon listens on for intents.
const TopicCommands = "fitness/round-timer/commands"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a workout transition to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(tr workout.Transition) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// Commander delivers intents received on TopicCommands.
type Commander interface {
	// SubscribeCommands registers handler for incoming intents. Payloads that
	// do not name a known intent are logged and dropped.
	SubscribeCommands(handler func(workout.Intent)) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Workout WorkoutPayload `json:"workout"`
}

// WorkoutPayload contains the transition details.
type WorkoutPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Phase     string `json:"phase"`
	Round     int    `json:"round"`
	Rounds    int    `json:"rounds"`
	TimeLeft  int    `json:"time_left"`
	Paused    bool   `json:"paused"`
}

// FormatPayload creates the JSON payload for a workout transition.
func FormatPayload(tr workout.Transition) ([]byte, error) {
	payload := Payload{
		Workout: WorkoutPayload{
			Timestamp: tr.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(tr.Type),
			Phase:     string(tr.Phase),
			Round:     tr.Round,
			Rounds:    tr.Rounds,
			TimeLeft:  tr.TimeLeft,
			Paused:    tr.Paused,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// CommandPayload is the JSON form of a command message.
type CommandPayload struct {
	Intent string `json:"intent"`
}

// ParseCommand reads an intent from a command message. Both a bare intent
// name ("toggle-pause") and {"intent":"toggle-pause"} are accepted.
func ParseCommand(payload []byte) (workout.Intent, error) {
	payload = bytes.TrimSpace(payload)
	name := string(payload)
	if len(payload) > 0 && payload[0] == '{' {
		var cmd CommandPayload
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return "", fmt.Errorf("decode command: %w", err)
		}
		name = cmd.Intent
	}
	return workout.ParseIntent(strings.TrimSpace(name))
}
