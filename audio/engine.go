package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go-beatmaker/debug"
	"go-beatmaker/drums"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// ErrNoAudio is returned when no audio output can be opened.
var ErrNoAudio = errors.New("audio output unavailable")

const (
	DefaultSampleRate = beep.SampleRate(44100)
	DefaultBuffer     = 20 * time.Millisecond
)

// Output is the device the mixer is played through.
type Output interface {
	Init(rate beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Suspend() error
	Resume() error
}

type speakerOutput struct{}

func (speakerOutput) Init(rate beep.SampleRate, bufferSize int) error {
	return speaker.Init(rate, bufferSize)
}
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Suspend() error       { return speaker.Suspend() }
func (speakerOutput) Resume() error        { return speaker.Resume() }

// Engine synthesizes the drum kit through the system speaker. Its clock
// counts rendered samples, so scheduled hits land on exact samples.
type Engine struct {
	out    Output
	rate   beep.SampleRate
	buffer time.Duration
	level  float64

	mixer *clockedMixer

	mu        sync.Mutex
	started   bool
	initErr   error
	suspended bool
}

// NewEngine creates an engine. Nothing is opened until Init.
func NewEngine(rate beep.SampleRate, buffer time.Duration) *Engine {
	return newEngine(speakerOutput{}, rate, buffer)
}

func newEngine(out Output, rate beep.SampleRate, buffer time.Duration) *Engine {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Engine{
		out:    out,
		rate:   rate,
		buffer: buffer,
		level:  0.8,
		mixer:  newClockedMixer(),
	}
}

// Init opens the speaker on first use and resumes it if suspended. It is
// safe to call on every key press. A failed open is remembered.
func (e *Engine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initErr != nil {
		return e.initErr
	}
	if !e.started {
		if err := e.out.Init(e.rate, e.rate.N(e.buffer)); err != nil {
			e.initErr = fmt.Errorf("%w: %v", ErrNoAudio, err)
			debug.Log("audio", "init failed: %v", err)
			return e.initErr
		}
		e.out.Play(e.mixer)
		e.started = true
		debug.Log("audio", "speaker open at %d Hz, buffer %s", e.rate, e.buffer)
		return nil
	}
	if e.suspended {
		if err := e.out.Resume(); err != nil {
			debug.Log("audio", "resume: %v", err)
			return nil
		}
		e.suspended = false
	}
	return nil
}

// Suspend pauses output. The clock stops with it; Init resumes.
func (e *Engine) Suspend() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.suspended {
		return
	}
	if err := e.out.Suspend(); err != nil {
		debug.Log("audio", "suspend: %v", err)
		return
	}
	e.suspended = true
}

// CurrentTime returns seconds of audio rendered since the speaker opened.
func (e *Engine) CurrentTime() float64 {
	return float64(e.mixer.Position()) / float64(e.rate)
}

// SetMuted silences output without stopping the clock.
func (e *Engine) SetMuted(muted bool) {
	e.mixer.muted.Store(muted)
}

// Muted reports whether output is silenced.
func (e *Engine) Muted() bool {
	return e.mixer.muted.Load()
}

// Play starts inst on the next rendered sample.
func (e *Engine) Play(inst drums.Instrument) {
	e.schedule(inst, e.mixer.Position())
}

// PlayAt starts inst at clock time at. Times already rendered play at once.
func (e *Engine) PlayAt(inst drums.Instrument, at float64) {
	e.schedule(inst, int64(math.Round(at*float64(e.rate))))
}

func (e *Engine) schedule(inst drums.Instrument, start int64) {
	e.mu.Lock()
	ready := e.started
	e.mu.Unlock()
	if !ready {
		return
	}
	p := Patch(inst, e.rate)
	if p == nil {
		return
	}
	e.mixer.Schedule(start, newVolume(p, e.level))
}
