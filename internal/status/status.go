// Package status provides a thread-safe status tracker for the round-timer daemon.
// It is read by HTTP handlers and system-event publishing.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/round-timer/internal/buttons"
	"github.com/sweeney/round-timer/internal/clock"
	"github.com/sweeney/round-timer/internal/workout"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Players     []string // enabled cue players, e.g. "speaker", "buzzer"
}

// WorkoutCounts tracks workout lifecycle transitions since startup.
type WorkoutCounts struct {
	Started   int
	Completed int
	Ended     int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value and stays valid after the lock is released.
type Snapshot struct {
	Workout       workout.Snapshot
	Baselined     bool
	Presses       buttons.PressCounts
	Counts        WorkoutCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu    sync.RWMutex
	clock clock.Clock
	snap  Snapshot
}

// NewTracker creates a Tracker that starts now and reads time from clk.
func NewTracker(clk clock.Clock, cfg Config) *Tracker {
	if clk == nil {
		clk = clock.Real
	}
	return &Tracker{
		clock: clk,
		snap: Snapshot{
			Workout:   workout.Snapshot{State: workout.Idle(), Settings: workout.DefaultSettings()},
			StartTime: clk.Now(),
			Config:    cfg,
		},
	}
}

// UpdateWorkout stores the engine's latest snapshot.
// Called from the engine's OnUpdate observer.
func (t *Tracker) UpdateWorkout(ws workout.Snapshot) {
	t.mu.Lock()
	t.snap.Workout = ws
	t.mu.Unlock()
}

// RecordTransition counts workout starts, completions and early ends.
func (t *Tracker) RecordTransition(tr workout.Transition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch tr.Type {
	case workout.TransitionWorkoutStart:
		t.snap.Counts.Started++
	case workout.TransitionWorkoutDone:
		t.snap.Counts.Completed++
	case workout.TransitionWorkoutEnd:
		if tr.From != workout.PhaseDone {
			t.snap.Counts.Ended++
		}
	}
}

// UpdateButtons sets the button baseline status and press counts.
// Called from runLoop on every poll.
func (t *Tracker) UpdateButtons(baselined bool, presses buttons.PressCounts) {
	t.mu.Lock()
	t.snap.Baselined = baselined
	t.snap.Presses = presses
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.clock.Now()
	return s
}
