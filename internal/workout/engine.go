package workout

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sweeney/round-timer/internal/clock"
)

// Player plays the two cues. Calls must return promptly; errors are logged
// and dropped by the Engine.
type Player interface {
	PlayTick() error
	PlayBell() error
}

// Options configures an Engine. Zero values fall back to the real clock,
// a silent player and the standard timing constants.
type Options struct {
	Clock    clock.Clock
	Player   Player
	Interval time.Duration
	Hold     time.Duration

	// OnUpdate is called after every change to state or settings.
	OnUpdate func(Snapshot)
	// OnTransition is called on phase, round and pause changes.
	OnTransition func(Transition)
}

// Engine runs the phase machine against a clock. All mutations are
// serialised by mu; observers are called after mu is released and must
// not assume they run on any particular goroutine.
type Engine struct {
	mu           sync.Mutex
	clock        clock.Clock
	player       Player
	interval     time.Duration
	hold         time.Duration
	onUpdate     func(Snapshot)
	onTransition func(Transition)

	settings Settings
	state    State
	task     *task
	gen      uint64
	closed   bool
}

// task is the single live scheduled callback. gen identifies it so that a
// callback that fires after being replaced is dropped.
type task struct {
	kind  TimerKind
	gen   uint64
	timer clock.Timer
}

// outcome is what a locked mutation hands to deliver.
type outcome struct {
	cues       []Cue
	transition *Transition
	changed    bool
	snap       Snapshot
}

// New creates an idle Engine with the given settings.
func New(settings Settings, opts Options) *Engine {
	e := &Engine{
		clock:        opts.Clock,
		player:       opts.Player,
		interval:     opts.Interval,
		hold:         opts.Hold,
		onUpdate:     opts.OnUpdate,
		onTransition: opts.OnTransition,
		settings:     settings,
		state:        Idle(),
	}
	if e.clock == nil {
		e.clock = clock.Real
	}
	if e.player == nil {
		e.player = silent{}
	}
	if e.interval <= 0 {
		e.interval = TickInterval
	}
	if e.hold <= 0 {
		e.hold = HoldDelay
	}
	return e
}

// Start begins the 3-2-1 countdown. No-op unless idle.
func (e *Engine) Start() { e.handle(EventStart) }

// TogglePause pauses or resumes. No-op when idle or done.
func (e *Engine) TogglePause() { e.handle(EventTogglePause) }

// End stops the workout from any phase and clears the runtime state.
func (e *Engine) End() { e.handle(EventEnd) }

// CloseAfterDone dismisses a finished workout. Same as End.
func (e *Engine) CloseAfterDone() { e.handle(EventEnd) }

func (e *Engine) IncrementRoundLength() bool { return e.adjust((*Settings).IncrementRoundLength) }
func (e *Engine) DecrementRoundLength() bool { return e.adjust((*Settings).DecrementRoundLength) }
func (e *Engine) IncrementRestLength() bool  { return e.adjust((*Settings).IncrementRestLength) }
func (e *Engine) DecrementRestLength() bool  { return e.adjust((*Settings).DecrementRestLength) }
func (e *Engine) IncrementRounds() bool      { return e.adjust((*Settings).IncrementRounds) }
func (e *Engine) DecrementRounds() bool      { return e.adjust((*Settings).DecrementRounds) }

// Dispatch performs a named intent and reports whether it changed the state
// or settings. Unknown intents, and intents that do not apply in the current
// phase, return false.
func (e *Engine) Dispatch(in Intent) bool {
	switch in {
	case IntentStart:
		return e.handle(EventStart)
	case IntentTogglePause:
		return e.handle(EventTogglePause)
	case IntentEnd, IntentCloseAfterDone:
		return e.handle(EventEnd)
	case IntentIncrementRoundLength:
		return e.IncrementRoundLength()
	case IntentDecrementRoundLength:
		return e.DecrementRoundLength()
	case IntentIncrementRestLength:
		return e.IncrementRestLength()
	case IntentDecrementRestLength:
		return e.DecrementRestLength()
	case IntentIncrementRounds:
		return e.IncrementRounds()
	case IntentDecrementRounds:
		return e.DecrementRounds()
	}
	return false
}

// Snapshot returns the current state and settings.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Close cancels the live callback and clears the runtime state. Every later
// intent or callback is ignored. If a workout was running, observers get one
// last idle snapshot.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.cancel()
	prev := e.state
	e.state = Idle()
	e.closed = true
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if prev != snap.State {
		e.deliver(outcome{changed: true, snap: snap})
	}
}

func (e *Engine) handle(ev EventType) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	out := e.apply(ev)
	e.mu.Unlock()
	e.deliver(out)
	return out.changed
}

func (e *Engine) adjust(fn func(*Settings) bool) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	ok := fn(&e.settings)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if ok {
		e.deliver(outcome{changed: true, snap: snap})
	}
	return ok
}

// fire runs when a scheduled callback is due. Caller must not hold mu.
func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	t := e.task
	if e.closed || t == nil || t.gen != gen {
		e.mu.Unlock()
		return
	}
	if !t.kind.Periodic() {
		e.task = nil
	}
	out := e.apply(eventFor(t.kind))
	// Still the live task: the step kept it, so keep it ticking.
	if t.kind.Periodic() && e.task == t {
		e.schedule(t)
	}
	e.mu.Unlock()
	e.deliver(out)
}

// apply runs Step and carries out its schedule directive. Caller must hold mu.
func (e *Engine) apply(ev EventType) outcome {
	prev := e.state
	next, fx := Step(prev, e.settings, ev)
	e.state = next

	switch fx.Schedule {
	case ScheduleStart:
		e.arm(fx.Timer)
	case ScheduleStop:
		e.cancel()
	}

	out := outcome{
		cues:    fx.Cues,
		changed: next != prev,
		snap:    e.snapshotLocked(),
	}
	if typ, ok := Classify(prev, next); ok {
		out.transition = &Transition{
			Timestamp: e.clock.Now(),
			Type:      typ,
			From:      prev.Phase,
			Phase:     next.Phase,
			Round:     next.Round,
			Rounds:    e.settings.Rounds,
			TimeLeft:  next.TimeLeft,
			Paused:    next.Paused,
		}
	}
	return out
}

// arm is the only place a callback is scheduled from scratch: the previous
// one is always cancelled first. Caller must hold mu.
func (e *Engine) arm(kind TimerKind) {
	e.cancel()
	e.gen++
	t := &task{kind: kind, gen: e.gen}
	e.task = t
	e.schedule(t)
}

// schedule (re)arms t's clock timer. Caller must hold mu.
func (e *Engine) schedule(t *task) {
	d := e.interval
	if t.kind == TimerHold {
		d = e.hold
	}
	gen := t.gen
	t.timer = e.clock.AfterFunc(d, func() { e.fire(gen) })
}

// cancel stops the live callback, if any. Caller must hold mu.
func (e *Engine) cancel() {
	if e.task == nil {
		return
	}
	if e.task.timer != nil {
		e.task.timer.Stop()
	}
	e.task = nil
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{State: e.state, Settings: e.settings}
}

func (e *Engine) deliver(out outcome) {
	for _, c := range out.cues {
		e.play(c)
	}
	if out.transition != nil && e.onTransition != nil {
		e.onTransition(*out.transition)
	}
	if out.changed && e.onUpdate != nil {
		e.onUpdate(out.snap)
	}
}

// play dispatches one cue. A failing or panicking player never reaches the
// phase engine.
func (e *Engine) play(c Cue) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("cue: %s player panic: %v", strings.ToLower(string(c)), r)
		}
	}()

	var err error
	switch c {
	case CueTick:
		err = e.player.PlayTick()
	case CueBell:
		err = e.player.PlayBell()
	}
	if err != nil {
		log.Printf("cue: %s: %v", strings.ToLower(string(c)), err)
	}
}

func eventFor(kind TimerKind) EventType {
	switch kind {
	case TimerCountdown:
		return EventCountdownTick
	case TimerHold:
		return EventHoldElapsed
	default:
		return EventSegmentTick
	}
}

type silent struct{}

func (silent) PlayTick() error { return nil }
func (silent) PlayBell() error { return nil }
