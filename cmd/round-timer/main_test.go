package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/round-timer/internal/clock"
	"github.com/sweeney/round-timer/internal/gpio"
	"github.com/sweeney/round-timer/internal/mqtt"
	"github.com/sweeney/round-timer/internal/status"
	"github.com/sweeney/round-timer/internal/workout"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "GymNet")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "GymNet",
	}
	if *info != want {
		t.Errorf("expected %+v, got %+v", want, *info)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.Type != "" || info.IP != "" || info.SSID != "" {
		t.Errorf("expected unset fields empty, got %+v", info)
	}
}

// --- flag tests ---

func TestParseFlagsDefaults(t *testing.T) {
	cfg, opts, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Settings() != workout.DefaultSettings() {
		t.Errorf("expected default settings, got %+v", cfg.Settings())
	}
	if opts.printState || opts.printConfig {
		t.Errorf("expected no print options, got %+v", opts)
	}
}

func TestParseFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "round-timer.yaml")
	data := "workout:\n  round_length: 180\n  rest_length: 30\n  rounds: 5\nmqtt:\n  broker: tcp://file:1883\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := parseFlags([]string{"-config", path, "-rounds", "8", "-broker", "", "-no-gpio"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workout.RoundLength != 180 {
		t.Errorf("expected round length from file 180, got %d", cfg.Workout.RoundLength)
	}
	if cfg.Workout.RestLength != 30 {
		t.Errorf("expected rest length from file 30, got %d", cfg.Workout.RestLength)
	}
	if cfg.Workout.Rounds != 8 {
		t.Errorf("expected rounds from flag 8, got %d", cfg.Workout.Rounds)
	}
	if cfg.MQTT.Broker != "" {
		t.Errorf("expected broker cleared by flag, got %q", cfg.MQTT.Broker)
	}
	if cfg.GPIO.Enabled || cfg.GPIO.Buzzer {
		t.Errorf("expected gpio disabled, got %+v", cfg.GPIO)
	}
}

func TestParseFlagsUnsetFlagKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "round-timer.yaml")
	if err := os.WriteFile(path, []byte("heartbeat: 1m\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := parseFlags([]string{"-config", path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Heartbeat != time.Minute {
		t.Errorf("expected heartbeat 1m from file, got %v", cfg.Heartbeat)
	}
}

func TestParseFlagsInvalid(t *testing.T) {
	if _, _, err := parseFlags([]string{"-round-length", "5"}); err == nil {
		t.Error("expected error for round length below minimum")
	}
	if _, _, err := parseFlags([]string{"-round-length", "13"}); err == nil {
		t.Error("expected error for round length off the 5s grid")
	}
	if _, _, err := parseFlags([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Error("expected error for missing config file")
	}
}

// --- runLoop tests ---

var loopStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Only called from runLoop's goroutine.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// repeat returns n copies of sample.
func repeat(sample gpio.Sample, n int) []gpio.Sample {
	out := make([]gpio.Sample, n)
	for i := range out {
		out[i] = sample
	}
	return out
}

func concat(parts ...[]gpio.Sample) []gpio.Sample {
	var out []gpio.Sample
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// faultReader wraps a FakeReader and returns errors for a range of Read() calls.
type faultReader struct {
	inner      *gpio.FakeReader
	call       int
	faultStart int // first call index that returns error (inclusive)
	faultEnd   int // last call index that returns error (exclusive)
}

func (r *faultReader) Read() (gpio.Sample, error) {
	i := r.call
	r.call++
	if i >= r.faultStart && i < r.faultEnd {
		return gpio.Sample{}, errors.New("gpio fault")
	}
	return r.inner.Read()
}

func (r *faultReader) Close() error { return r.inner.Close() }

// harness is an engine on a frozen clock wired the way run wires it.
type harness struct {
	engine      *workout.Engine
	tracker     *status.Tracker
	pub         *mqtt.FakePublisher
	transitions chan workout.Transition
}

func newHarness() *harness {
	clk := clock.NewFake(loopStart)
	h := &harness{
		tracker:     status.NewTracker(clk, status.Config{}),
		pub:         mqtt.NewFakePublisher(),
		transitions: make(chan workout.Transition, 64),
	}
	h.engine = workout.New(workout.DefaultSettings(), workout.Options{
		Clock:        clk,
		OnUpdate:     h.tracker.UpdateWorkout,
		OnTransition: forwardTransitions(h.tracker, h.transitions),
	})
	return h
}

// run drives runLoop for nTicks then delivers signal.
func (h *harness) run(t *testing.T, reader gpio.Reader, debounce, heartbeat time.Duration, now func() time.Time, nTicks int, signal os.Signal) {
	t.Helper()
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(loopDeps{
			reader:      reader,
			control:     h.engine,
			publisher:   h.pub,
			mqttStatus:  h.pub,
			tracker:     h.tracker,
			transitions: h.transitions,
			debounce:    debounce,
			heartbeat:   heartbeat,
			now:         now,
		}, tick, sig)
	}()

	for i := 0; i < nTicks; i++ {
		tick <- time.Time{}
	}
	sig <- signal

	if err := <-errCh; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func TestRunLoopNoEventsAtBaseline(t *testing.T) {
	h := newHarness()
	reader := gpio.NewFakeReader(repeat(gpio.Sample{}, 4))

	h.run(t, reader, 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 4, syscall.SIGTERM)

	if len(h.pub.Transitions) != 0 {
		t.Errorf("expected 0 transitions, got %d", len(h.pub.Transitions))
	}
	if len(h.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
	}
	if h.pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN event, got %q", h.pub.SystemEvents[0].Event)
	}
	if !h.tracker.Snapshot().Baselined {
		t.Error("expected tracker to report baselined")
	}
}

func TestRunLoopStartButton(t *testing.T) {
	// 4× baseline + 4× START held → one press, one WORKOUT_START
	h := newHarness()
	reader := gpio.NewFakeReader(concat(
		repeat(gpio.Sample{}, 4),
		repeat(gpio.Sample{Start: true}, 4),
	))

	h.run(t, reader, 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 8, syscall.SIGTERM)

	types := h.pub.Types()
	if len(types) != 1 || types[0] != workout.TransitionWorkoutStart {
		t.Fatalf("expected [WORKOUT_START], got %v", types)
	}
	if h.engine.Snapshot().Phase != workout.PhaseCountdown {
		t.Errorf("expected COUNTDOWN, got %s", h.engine.Snapshot().Phase)
	}

	snap := h.tracker.Snapshot()
	if snap.Presses.Start != 1 {
		t.Errorf("expected 1 START press, got %d", snap.Presses.Start)
	}
	if snap.Counts.Started != 1 {
		t.Errorf("expected 1 workout started, got %d", snap.Counts.Started)
	}
}

func TestRunLoopStartIgnoredWhileRunning(t *testing.T) {
	// Already in countdown: START is ignored, END stops the workout.
	h := newHarness()
	h.engine.Start()
	reader := gpio.NewFakeReader(concat(
		repeat(gpio.Sample{}, 4),
		repeat(gpio.Sample{Start: true}, 4),
		repeat(gpio.Sample{}, 4),
		repeat(gpio.Sample{End: true}, 4),
	))

	h.run(t, reader, 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 16, syscall.SIGTERM)

	want := []workout.TransitionType{workout.TransitionWorkoutStart, workout.TransitionWorkoutEnd}
	got := h.pub.Types()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if h.engine.Snapshot().Phase != workout.PhaseIdle {
		t.Errorf("expected IDLE, got %s", h.engine.Snapshot().Phase)
	}
}

func TestRunLoopPauseButton(t *testing.T) {
	h := newHarness()
	h.engine.Start()
	reader := gpio.NewFakeReader(concat(
		repeat(gpio.Sample{}, 4),
		repeat(gpio.Sample{Pause: true}, 4),
	))

	h.run(t, reader, 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 8, syscall.SIGINT)

	got := h.pub.Types()
	if len(got) != 2 || got[1] != workout.TransitionPaused {
		t.Fatalf("expected [WORKOUT_START PAUSED], got %v", got)
	}
	if !h.engine.Snapshot().Paused {
		t.Error("expected engine paused")
	}
}

func TestRunLoopBounceRejection(t *testing.T) {
	h := newHarness()
	reader := gpio.NewFakeReader(concat(
		repeat(gpio.Sample{}, 4),
		[]gpio.Sample{{Start: true}},
		repeat(gpio.Sample{}, 4),
	))

	h.run(t, reader, 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 9, syscall.SIGTERM)

	if len(h.pub.Transitions) != 0 {
		t.Errorf("expected 0 transitions (bounce rejected), got %d", len(h.pub.Transitions))
	}
	if h.engine.Snapshot().Phase != workout.PhaseIdle {
		t.Errorf("expected IDLE, got %s", h.engine.Snapshot().Phase)
	}
}

func TestRunLoopWithoutButtons(t *testing.T) {
	h := newHarness()
	h.run(t, nil, 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 4, syscall.SIGTERM)

	if len(h.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
	}
	if h.tracker.Snapshot().Baselined {
		t.Error("expected not baselined without a reader")
	}
}

func TestRunLoopGPIOReadError(t *testing.T) {
	reader := &faultReader{
		inner:      gpio.NewFakeReader(repeat(gpio.Sample{}, 2)),
		faultStart: 2,
		faultEnd:   4,
	}
	h := newHarness()

	h.run(t, reader, 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 4, syscall.SIGTERM)

	found := false
	for _, se := range h.pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event after GPIO errors")
	}
}

func TestRunLoopGPIOErrorRecovery(t *testing.T) {
	// 4 baseline + 3 errors + 4 pressed
	reader := &faultReader{
		inner: gpio.NewFakeReader(concat(
			repeat(gpio.Sample{}, 4),
			repeat(gpio.Sample{Start: true}, 4),
		)),
		faultStart: 4,
		faultEnd:   7,
	}
	h := newHarness()

	h.run(t, reader, 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 11, syscall.SIGTERM)

	types := h.pub.Types()
	if len(types) != 1 || types[0] != workout.TransitionWorkoutStart {
		t.Fatalf("expected [WORKOUT_START] after recovery, got %v", types)
	}
}

func TestRunLoopPublishError(t *testing.T) {
	h := newHarness()
	h.pub.PublishError = fmt.Errorf("broker unavailable")
	reader := gpio.NewFakeReader(concat(
		repeat(gpio.Sample{}, 4),
		repeat(gpio.Sample{Start: true}, 4),
	))

	h.run(t, reader, 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 8, syscall.SIGTERM)

	if len(h.pub.Transitions) != 0 {
		t.Errorf("expected 0 recorded transitions (publish failed), got %d", len(h.pub.Transitions))
	}
	// The workout still started and was counted
	if h.tracker.Snapshot().Counts.Started != 1 {
		t.Errorf("expected 1 workout started, got %d", h.tracker.Snapshot().Counts.Started)
	}
	found := false
	for _, se := range h.pub.SystemEvents {
		if se.Event == "SHUTDOWN" {
			found = true
		}
	}
	if !found {
		t.Error("expected SHUTDOWN system event despite publish errors")
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	// Clock calls: start t0, then ticks at +5m, +10m, +15m, +20m.
	// A 15m heartbeat fires once, at +15m.
	h := newHarness()
	h.pub.Connected = true
	reader := gpio.NewFakeReader(repeat(gpio.Sample{}, 4))

	h.run(t, reader, 10*time.Minute, 15*time.Minute, fakeClock(loopStart, 5*time.Minute), 4, syscall.SIGTERM)

	var heartbeats, shutdowns int
	for _, se := range h.pub.SystemEvents {
		switch se.Event {
		case "HEARTBEAT":
			heartbeats++
			if se.Retained {
				t.Error("expected HEARTBEAT not retained")
			}
			if len(se.RawPayload) == 0 {
				t.Fatal("HEARTBEAT event missing status payload")
			}
			var body status.StatusJSON
			if err := json.Unmarshal(se.RawPayload, &body); err != nil {
				t.Fatalf("invalid heartbeat payload: %v", err)
			}
			if body.Status.Event != "HEARTBEAT" {
				t.Errorf("expected event HEARTBEAT, got %q", body.Status.Event)
			}
			if !body.Status.MQTT.Connected {
				t.Error("expected mqtt connected in heartbeat")
			}
		case "SHUTDOWN":
			shutdowns++
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 HEARTBEAT event, got %d", heartbeats)
	}
	if shutdowns != 1 {
		t.Errorf("expected 1 SHUTDOWN event, got %d", shutdowns)
	}
}

func TestRunLoopHeartbeatIncludesNetworkInfo(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.42")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "associated")
	t.Setenv(envNetworkWifiSSID, "GymNet")

	h := newHarness()
	reader := gpio.NewFakeReader(repeat(gpio.Sample{}, 4))

	h.run(t, reader, 10*time.Minute, 15*time.Minute, fakeClock(loopStart, 5*time.Minute), 4, syscall.SIGTERM)

	var hb *mqtt.SystemEvent
	for i := range h.pub.SystemEvents {
		if h.pub.SystemEvents[i].Event == "HEARTBEAT" {
			hb = &h.pub.SystemEvents[i]
			break
		}
	}
	if hb == nil {
		t.Fatal("expected a HEARTBEAT system event")
	}

	var body status.StatusJSON
	if err := json.Unmarshal(hb.RawPayload, &body); err != nil {
		t.Fatalf("invalid heartbeat payload: %v", err)
	}
	n := body.Status.Network
	if n == nil {
		t.Fatal("HEARTBEAT payload missing network info")
	}
	if n.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", n.IP, "192.168.1.42")
	}
	if n.SSID != "GymNet" {
		t.Errorf("Network.SSID: got %q, want %q", n.SSID, "GymNet")
	}
	if n.WifiStatus != "associated" {
		t.Errorf("Network.WifiStatus: got %q, want %q", n.WifiStatus, "associated")
	}
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	h := newHarness()
	h.run(t, gpio.NewFakeReader(repeat(gpio.Sample{}, 4)), 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 4, syscall.SIGINT)

	if len(h.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
	}
	se := h.pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", se.Reason)
	}
	if !se.Retained {
		t.Error("expected Retained=true for SHUTDOWN")
	}
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	h := newHarness()
	h.run(t, gpio.NewFakeReader(repeat(gpio.Sample{}, 4)), 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 4, syscall.SIGTERM)

	if len(h.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(h.pub.SystemEvents))
	}
	se := h.pub.SystemEvents[0]
	if se.Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", se.Reason)
	}

	var body status.StatusJSON
	if err := json.Unmarshal(se.RawPayload, &body); err != nil {
		t.Fatalf("invalid shutdown payload: %v", err)
	}
	if body.Status.Reason != "SIGTERM" {
		t.Errorf("expected payload reason SIGTERM, got %q", body.Status.Reason)
	}
}

func TestRunLoopShutdownDrainsTransitions(t *testing.T) {
	// Transitions queued before the signal are published before SHUTDOWN.
	h := newHarness()
	h.engine.Start()
	h.engine.TogglePause()

	h.run(t, nil, 250*time.Millisecond, 0, fakeClock(loopStart, 100*time.Millisecond), 0, syscall.SIGTERM)

	got := h.pub.Types()
	if len(got) != 2 {
		t.Fatalf("expected 2 transitions drained, got %v", got)
	}
}

func TestForwardTransitionsDropsWhenFull(t *testing.T) {
	tracker := status.NewTracker(clock.NewFake(loopStart), status.Config{})
	ch := make(chan workout.Transition, 1)
	fwd := forwardTransitions(tracker, ch)

	fwd(workout.Transition{Type: workout.TransitionWorkoutStart, Phase: workout.PhaseCountdown})
	fwd(workout.Transition{Type: workout.TransitionWorkoutEnd, Phase: workout.PhaseIdle})

	if len(ch) != 1 {
		t.Errorf("expected 1 queued transition, got %d", len(ch))
	}
	c := tracker.Snapshot().Counts
	if c.Started != 1 || c.Ended != 1 {
		t.Errorf("expected both transitions counted, got %+v", c)
	}
}

func TestOfflinePublisher(t *testing.T) {
	var p offlinePublisher
	if err := p.Publish(workout.Transition{}); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if p.IsConnected() {
		t.Error("expected offline publisher disconnected")
	}
}
