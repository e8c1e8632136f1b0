package internal

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sweeney/round-timer/internal/buttons"
	"github.com/sweeney/round-timer/internal/clock"
	"github.com/sweeney/round-timer/internal/cue"
	"github.com/sweeney/round-timer/internal/gpio"
	"github.com/sweeney/round-timer/internal/mqtt"
	"github.com/sweeney/round-timer/internal/status"
	"github.com/sweeney/round-timer/internal/web"
	"github.com/sweeney/round-timer/internal/workout"
)

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// rig wires the engine to fakes the way the daemon wires it to hardware.
type rig struct {
	clk      *clock.Fake
	engine   *workout.Engine
	tracker  *status.Tracker
	pub      *mqtt.FakePublisher
	recorder *cue.Recorder
	tickOut  *gpio.FakeOutput
	bellOut  *gpio.FakeOutput
	buzzer   *gpio.Buzzer
}

func newRig(t *testing.T, settings workout.Settings) *rig {
	t.Helper()
	r := &rig{
		clk:      clock.NewFake(startTime),
		pub:      mqtt.NewFakePublisher(),
		recorder: cue.NewRecorder(),
		tickOut:  &gpio.FakeOutput{},
		bellOut:  &gpio.FakeOutput{},
	}
	r.tracker = status.NewTracker(r.clk, status.Config{Players: []string{"buzzer", "recorder"}})
	r.buzzer = gpio.NewBuzzer(r.tickOut, r.bellOut, r.clk)
	r.engine = workout.New(settings, workout.Options{
		Clock:    r.clk,
		Player:   cue.Multi{r.buzzer, r.recorder},
		OnUpdate: r.tracker.UpdateWorkout,
		OnTransition: func(tr workout.Transition) {
			r.tracker.RecordTransition(tr)
			if err := r.pub.Publish(tr); err != nil {
				t.Logf("publish: %v", err)
			}
		},
	})
	t.Cleanup(r.engine.Close)
	return r
}

func minSettings() workout.Settings {
	return workout.Settings{
		RoundLength: workout.MinRoundLength,
		RestLength:  workout.MinRestLength,
		Rounds:      2,
	}
}

func pulses(values []int) int {
	n := 0
	for _, v := range values {
		if v == 1 {
			n++
		}
	}
	return n
}

// TestIntegrationFullWorkout runs a two-round workout from button press to
// dismissal and checks every outward surface.
func TestIntegrationFullWorkout(t *testing.T) {
	r := newRig(t, minSettings())
	detector := buttons.NewDetector(50 * time.Millisecond)

	press := func(b buttons.Button, at time.Time) {
		t.Helper()
		in := buttons.Input{Time: at}
		switch b {
		case buttons.ButtonStart:
			in.Start = true
		case buttons.ButtonPause:
			in.Pause = true
		case buttons.ButtonEnd:
			in.End = true
		}
		detector.Process(in)
		presses := detector.Process(buttons.Input{Start: in.Start, Pause: in.Pause, End: in.End, Time: at.Add(50 * time.Millisecond)})
		if len(presses) != 1 {
			t.Fatalf("expected 1 press of %s, got %v", b, presses)
		}
		intent, ok := buttons.IntentFor(presses[0].Button, r.engine.Snapshot().Phase)
		if !ok {
			t.Fatalf("%s has no intent in %s", b, r.engine.Snapshot().Phase)
		}
		r.engine.Dispatch(intent)
		detector.Process(buttons.Input{Time: at.Add(100 * time.Millisecond)})
		detector.Process(buttons.Input{Time: at.Add(150 * time.Millisecond)})
	}

	// Baseline with everything released
	detector.Process(buttons.Input{Time: startTime})
	detector.Process(buttons.Input{Time: startTime.Add(50 * time.Millisecond)})

	press(buttons.ButtonStart, startTime.Add(time.Second))
	if got := r.engine.Snapshot(); got.Phase != workout.PhaseCountdown || got.Countdown != 3 {
		t.Fatalf("expected COUNTDOWN 3, got %+v", got.State)
	}

	// 3-2-1, hold, then two rounds with one rest between
	r.clk.Advance(3*time.Second + workout.HoldDelay)
	if got := r.engine.Snapshot(); got.Phase != workout.PhaseRound || got.Round != 1 {
		t.Fatalf("expected ROUND 1, got %+v", got.State)
	}
	r.clk.Advance(30 * time.Second)
	if got := r.engine.Snapshot().Phase; got != workout.PhaseDone {
		t.Fatalf("expected DONE, got %s", got)
	}
	r.clk.Advance(gpio.BellPulse)

	// START on the done screen dismisses it
	press(buttons.ButtonStart, startTime.Add(time.Minute))
	if got := r.engine.Snapshot().Phase; got != workout.PhaseIdle {
		t.Fatalf("expected IDLE after dismiss, got %s", got)
	}

	want := []workout.TransitionType{
		workout.TransitionWorkoutStart,
		workout.TransitionRoundStart,
		workout.TransitionRestStart,
		workout.TransitionRoundStart,
		workout.TransitionWorkoutDone,
		workout.TransitionWorkoutEnd,
	}
	got := r.pub.Types()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	// 3 countdown ticks + 3 warning ticks in each of round, rest, round
	if n := r.recorder.Count("TICK"); n != 12 {
		t.Errorf("expected 12 tick cues, got %d", n)
	}
	if n := r.recorder.Count("BELL"); n != 4 {
		t.Errorf("expected 4 bell cues, got %d", n)
	}
	if n := pulses(r.tickOut.Values); n != 12 {
		t.Errorf("expected 12 buzzer tick pulses, got %d", n)
	}
	if n := pulses(r.bellOut.Values); n != 4 {
		t.Errorf("expected 4 buzzer bell pulses, got %d", n)
	}
	if r.tickOut.Value() != 0 || r.bellOut.Value() != 0 {
		t.Error("expected buzzer lines released")
	}

	counts := r.tracker.Snapshot().Counts
	if counts.Started != 1 || counts.Completed != 1 || counts.Ended != 0 {
		t.Errorf("unexpected workout counts: %+v", counts)
	}
	if r.clk.Pending() != 0 {
		t.Errorf("expected no pending timers, got %d", r.clk.Pending())
	}
}

func TestIntegrationPayloadFormat(t *testing.T) {
	r := newRig(t, minSettings())
	r.engine.Start()
	r.clk.Advance(3*time.Second + workout.HoldDelay)

	if len(r.pub.Payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(r.pub.Payloads))
	}
	var p mqtt.Payload
	if err := json.Unmarshal(r.pub.Payloads[1], &p); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if p.Workout.Event != "ROUND_START" {
		t.Errorf("expected ROUND_START, got %q", p.Workout.Event)
	}
	if p.Workout.Round != 1 || p.Workout.Rounds != 2 {
		t.Errorf("expected round 1/2, got %d/%d", p.Workout.Round, p.Workout.Rounds)
	}
	if p.Workout.TimeLeft != workout.MinRoundLength {
		t.Errorf("expected time_left %d, got %d", workout.MinRoundLength, p.Workout.TimeLeft)
	}
	if p.Workout.Timestamp != "2026-01-01T12:00:03Z" {
		t.Errorf("unexpected timestamp %q", p.Workout.Timestamp)
	}
}

func TestIntegrationPauseHoldsClock(t *testing.T) {
	r := newRig(t, minSettings())
	r.engine.Start()
	r.clk.Advance(3*time.Second + workout.HoldDelay)
	r.clk.Advance(2 * time.Second)

	r.engine.TogglePause()
	r.clk.Advance(time.Minute)
	if got := r.engine.Snapshot(); got.TimeLeft != workout.MinRoundLength-2 || !got.Paused {
		t.Fatalf("expected paused at %d, got %+v", workout.MinRoundLength-2, got.State)
	}

	r.engine.TogglePause()
	r.clk.Advance(time.Second)
	if got := r.engine.Snapshot().TimeLeft; got != workout.MinRoundLength-3 {
		t.Errorf("expected %d after resume, got %d", workout.MinRoundLength-3, got)
	}

	types := r.pub.Types()
	if types[len(types)-2] != workout.TransitionPaused || types[len(types)-1] != workout.TransitionResumed {
		t.Errorf("expected PAUSED then RESUMED, got %v", types)
	}
}

func TestIntegrationPublishFailureDoesNotStopTimer(t *testing.T) {
	r := newRig(t, minSettings())
	r.pub.PublishError = errors.New("broker unavailable")

	r.engine.Start()
	r.clk.Advance(3*time.Second + workout.HoldDelay)

	if got := r.engine.Snapshot().Phase; got != workout.PhaseRound {
		t.Errorf("expected ROUND despite publish failures, got %s", got)
	}
	if r.tracker.Snapshot().Counts.Started != 1 {
		t.Error("expected workout counted despite publish failures")
	}
}

func TestIntegrationCueFailureDoesNotStopTimer(t *testing.T) {
	r := newRig(t, minSettings())
	r.bellOut.SetError = errors.New("line busy")
	r.recorder.BellError = errors.New("no audio device")

	r.engine.Start()
	r.clk.Advance(3*time.Second + workout.HoldDelay + workout.MinRoundLength*time.Second)

	if got := r.engine.Snapshot().Phase; got != workout.PhaseRest {
		t.Errorf("expected REST despite cue failures, got %s", got)
	}
}

func TestIntegrationMQTTCommands(t *testing.T) {
	r := newRig(t, minSettings())
	if err := r.pub.SubscribeCommands(func(in workout.Intent) { r.engine.Dispatch(in) }); err != nil {
		t.Fatal(err)
	}

	if !r.pub.Deliver([]byte(`{"intent":"rounds-up"}`)) {
		t.Fatal("expected rounds-up accepted")
	}
	if !r.pub.Deliver([]byte("start")) {
		t.Fatal("expected start accepted")
	}
	if r.pub.Deliver([]byte("explode")) {
		t.Error("expected unknown command rejected")
	}

	snap := r.engine.Snapshot()
	if snap.Settings.Rounds != 3 {
		t.Errorf("expected 3 rounds, got %d", snap.Settings.Rounds)
	}
	if snap.Phase != workout.PhaseCountdown {
		t.Errorf("expected COUNTDOWN, got %s", snap.Phase)
	}
}

func TestIntegrationWebControl(t *testing.T) {
	r := newRig(t, minSettings())
	srv := httptest.NewServer(web.New("", r.tracker, r.engine).Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/intents/start", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	r.clk.Advance(3*time.Second + workout.HoldDelay + 4*time.Second)

	resp, err = http.Get(srv.URL + "/index.json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid status json: %v", err)
	}
	w := body.Status.Workout
	if w.Phase != "ROUND" || w.Round != 1 {
		t.Errorf("expected ROUND 1, got %s %d", w.Phase, w.Round)
	}
	if w.TimeLeft != workout.MinRoundLength-4 {
		t.Errorf("expected time_left %d, got %d", workout.MinRoundLength-4, w.TimeLeft)
	}
	if w.Display != "00:06" {
		t.Errorf("expected display 00:06, got %q", w.Display)
	}
	if body.Status.Counts.Started != 1 {
		t.Errorf("expected 1 started, got %d", body.Status.Counts.Started)
	}
}

func TestIntegrationStartupAndShutdownEvents(t *testing.T) {
	r := newRig(t, minSettings())
	r.pub.Connected = true
	r.tracker.SetMQTTConnected(r.pub.IsConnected())

	snap := r.tracker.Snapshot()
	if err := r.pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}); err != nil {
		t.Fatal(err)
	}

	r.engine.Start()
	r.clk.Advance(10 * time.Second)

	snap = r.tracker.Snapshot()
	if err := r.pub.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     "SIGTERM",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"),
	}); err != nil {
		t.Fatal(err)
	}

	if len(r.pub.SystemPayloads) != 2 {
		t.Fatalf("expected 2 system payloads, got %d", len(r.pub.SystemPayloads))
	}
	var startup, shutdown status.StatusJSON
	if err := json.Unmarshal(r.pub.SystemPayloads[0], &startup); err != nil {
		t.Fatalf("invalid startup payload: %v", err)
	}
	if err := json.Unmarshal(r.pub.SystemPayloads[1], &shutdown); err != nil {
		t.Fatalf("invalid shutdown payload: %v", err)
	}
	if startup.Status.Event != "STARTUP" || startup.Status.Workout.Phase != "IDLE" {
		t.Errorf("unexpected startup status: %+v", startup.Status)
	}
	if !startup.Status.MQTT.Connected {
		t.Error("expected startup to report mqtt connected")
	}
	if shutdown.Status.Reason != "SIGTERM" {
		t.Errorf("expected reason SIGTERM, got %q", shutdown.Status.Reason)
	}
	if shutdown.Status.Workout.Phase != "ROUND" {
		t.Errorf("expected shutdown mid-round, got %s", shutdown.Status.Workout.Phase)
	}
	if shutdown.Status.UptimeSeconds != 10 {
		t.Errorf("expected uptime 10, got %d", shutdown.Status.UptimeSeconds)
	}
	if len(shutdown.Status.Config.Players) != 2 {
		t.Errorf("expected 2 players in config, got %v", shutdown.Status.Config.Players)
	}
}
