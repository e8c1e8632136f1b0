package cue

import "sync"

// Recorder is a test double that records played cues.
type Recorder struct {
	mu sync.Mutex

	// Played holds "TICK" and "BELL" in play order.
	Played []string

	// TickError and BellError, if set, are returned by the matching call.
	TickError error
	BellError error

	// Panic makes every call panic, to exercise callers' recovery.
	Panic bool
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// PlayTick records a tick.
func (r *Recorder) PlayTick() error {
	return r.record("TICK", r.TickError)
}

// PlayBell records a bell.
func (r *Recorder) PlayBell() error {
	return r.record("BELL", r.BellError)
}

func (r *Recorder) record(name string, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Panic {
		panic("recorder: " + name)
	}
	r.Played = append(r.Played, name)
	return err
}

// Cues returns a copy of the played cues.
func (r *Recorder) Cues() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Played))
	copy(out, r.Played)
	return out
}

// Count returns how many times the named cue was played.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Played {
		if c == name {
			n++
		}
	}
	return n
}

// Reset clears recorded cues and configured errors.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Played = nil
	r.TickError = nil
	r.BellError = nil
	r.Panic = false
}
