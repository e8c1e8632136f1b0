package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/round-timer/internal/workout"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Workout       WorkoutJSON  `json:"workout"`
	Settings      SettingsJSON `json:"settings"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Presses       PressesJSON  `json:"button_presses"`
	Counts        CountsJSON   `json:"workout_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// WorkoutJSON is the live state of the workout.
type WorkoutJSON struct {
	Phase     string `json:"phase"`
	Round     int    `json:"round"`
	Rounds    int    `json:"rounds"`
	TimeLeft  int    `json:"time_left"`
	Display   string `json:"time_left_display"`
	Paused    bool   `json:"paused"`
	Countdown *int   `json:"countdown,omitempty"`
}

// SettingsJSON is the configured workout.
type SettingsJSON struct {
	RoundLength  int    `json:"round_length"`
	RestLength   int    `json:"rest_length"`
	Rounds       int    `json:"rounds"`
	TotalSeconds int    `json:"total_seconds"`
	TotalDisplay string `json:"total_display"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// PressesJSON is the JSON representation of button press counts.
type PressesJSON struct {
	Start int `json:"start"`
	Pause int `json:"pause"`
	End   int `json:"end"`
}

// CountsJSON is the JSON representation of workout counts.
type CountsJSON struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Ended     int `json:"ended"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64    `json:"poll_ms"`
	DebounceMs  int64    `json:"debounce_ms"`
	HeartbeatMs int64    `json:"heartbeat_ms"`
	Broker      string   `json:"broker"`
	HTTPAddr    string   `json:"http_addr"`
	Players     []string `json:"players"`
}

// NewWorkoutJSON converts an engine snapshot to its JSON form.
func NewWorkoutJSON(ws workout.Snapshot) WorkoutJSON {
	phase := string(ws.Phase)
	if phase == "" {
		phase = string(workout.PhaseIdle)
	}
	wj := WorkoutJSON{
		Phase:    phase,
		Round:    ws.Round,
		Rounds:   ws.Settings.Rounds,
		TimeLeft: ws.TimeLeft,
		Display:  ws.DisplayTimeLeft(),
		Paused:   ws.Paused,
	}
	if n, ok := ws.CountdownValue(); ok {
		wj.Countdown = &n
	}
	return wj
}

func buildInner(snap Snapshot) StatusInner {
	players := snap.Config.Players
	if players == nil {
		players = []string{}
	}
	cfg := snap.Workout.Settings

	return StatusInner{
		Workout: NewWorkoutJSON(snap.Workout),
		Settings: SettingsJSON{
			RoundLength:  cfg.RoundLength,
			RestLength:   cfg.RestLength,
			Rounds:       cfg.Rounds,
			TotalSeconds: cfg.TotalSeconds(),
			TotalDisplay: snap.Workout.DisplayTotalTime(),
		},
		Ready:         snap.Baselined,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Presses: PressesJSON{
			Start: snap.Presses.Start,
			Pause: snap.Presses.Pause,
			End:   snap.Presses.End,
		},
		Counts: CountsJSON{
			Started:   snap.Counts.Started,
			Completed: snap.Counts.Completed,
			Ended:     snap.Counts.Ended,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Players:     players,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
