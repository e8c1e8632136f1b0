package cue

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
)

const sampleRate = beep.SampleRate(44100)

// Synthesised tones used when no sound file is configured.
const (
	tickFreq     = 1760.0
	tickDuration = 90 * time.Millisecond
	bellFreq     = 880.0
	bellDuration = 700 * time.Millisecond
)

// Speaker plays cues on the default audio device. Each cue is decoded once
// into memory; playing restarts it from the beginning.
type Speaker struct {
	mu       sync.Mutex
	tick     *beep.Buffer
	bell     *beep.Buffer
	tickCtrl *beep.Ctrl
	bellCtrl *beep.Ctrl
}

// NewSpeaker initialises the audio device and loads both cues. An empty path
// selects the built-in tone for that cue; otherwise the file must be Ogg Vorbis.
func NewSpeaker(tickFile, bellFile string) (*Speaker, error) {
	format := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 2}

	tick, err := loadCue(tickFile, format, tickFreq, tickDuration)
	if err != nil {
		return nil, fmt.Errorf("load tick: %w", err)
	}
	bell, err := loadCue(bellFile, format, bellFreq, bellDuration)
	if err != nil {
		return nil, fmt.Errorf("load bell: %w", err)
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}

	return &Speaker{tick: tick, bell: bell}, nil
}

func loadCue(path string, format beep.Format, freq float64, d time.Duration) (*beep.Buffer, error) {
	buf := beep.NewBuffer(format)

	if path == "" {
		tone, err := generators.SineTone(format.SampleRate, freq)
		if err != nil {
			return nil, fmt.Errorf("tone %.0fHz: %w", freq, err)
		}
		buf.Append(beep.Take(format.SampleRate.N(d), tone))
		return buf, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	streamer, fileFormat, err := vorbis.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()

	if fileFormat.SampleRate == format.SampleRate {
		buf.Append(streamer)
	} else {
		buf.Append(beep.Resample(4, fileFormat.SampleRate, format.SampleRate, streamer))
	}
	return buf, nil
}

// PlayTick cuts any tick still sounding and plays it again from the start.
func (s *Speaker) PlayTick() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	speaker.Lock()
	silence(s.tickCtrl)
	speaker.Unlock()

	s.tickCtrl = &beep.Ctrl{Streamer: s.tick.Streamer(0, s.tick.Len())}
	speaker.Play(s.tickCtrl)
	return nil
}

// PlayBell cuts the tick and any bell still sounding, so a trailing tick can
// never mask the bell.
func (s *Speaker) PlayBell() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	speaker.Lock()
	silence(s.tickCtrl)
	silence(s.bellCtrl)
	speaker.Unlock()
	s.tickCtrl = nil

	s.bellCtrl = &beep.Ctrl{Streamer: s.bell.Streamer(0, s.bell.Len())}
	speaker.Play(s.bellCtrl)
	return nil
}

// Close stops playback and releases the audio device.
func (s *Speaker) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}

// silence drains a playing cue. Caller must hold the speaker lock.
func silence(c *beep.Ctrl) {
	if c != nil {
		c.Streamer = nil
	}
}
