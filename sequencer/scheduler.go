package sequencer

import (
	"math"
	"sync"
	"time"

	"go-beatmaker/debug"
	"go-beatmaker/drums"
)

// Engine is the sound output the scheduler drives. Times are seconds on
// the engine's own clock.
type Engine interface {
	Init() error
	CurrentTime() float64
	Play(inst drums.Instrument)
	PlayAt(inst drums.Instrument, at float64)
}

// Source returns the live pattern. It is called on every tick so edits
// made during playback are heard on the next pass.
type Source func() *Pattern

const (
	DefaultLookAhead = 0.1
	DefaultInterval  = 25 * time.Millisecond
	// DefaultEpsilon is how far in the past a freeform note may be and
	// still be dispatched.
	DefaultEpsilon = 0.01
)

// Session is the cursor state of one playback run.
type Session struct {
	LoopStart   float64 // engine time of ordinal 0
	LastOrdinal int64   // last absolute step dispatched, -1 before the first
	CurrentStep int     // display step
	Tempo       int     // tempo the timeline above was laid out with
}

// rebase keeps the next undispatched ordinal at the same absolute time
// when the tempo changes
func (s *Session) rebase(tempo int) {
	if tempo == s.Tempo || tempo <= 0 {
		return
	}
	n := float64(s.LastOrdinal + 1)
	s.LoopStart += n * (StepDuration(float64(s.Tempo)) - StepDuration(float64(tempo)))
	s.Tempo = tempo
}

// Scheduler dispatches grid steps and freeform notes to the engine a
// little ahead of time, driven by a wall-clock ticker. The engine clock
// decides when sounds actually play.
type Scheduler struct {
	engine    Engine
	source    Source
	lookAhead float64
	interval  time.Duration
	epsilon   float64

	// OnStep is called outside the lock when the display step changes.
	OnStep func(step int)

	mu      sync.Mutex
	session *Session
	stop    chan struct{}
	done    chan struct{}
	// done channel of the loop goroutine currently running OnStep
	calling chan struct{}
}

// NewScheduler creates a stopped scheduler. Zero lookAhead or interval
// select the defaults.
func NewScheduler(engine Engine, source Source, lookAhead float64, interval time.Duration) *Scheduler {
	if lookAhead <= 0 {
		lookAhead = DefaultLookAhead
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		engine:    engine,
		source:    source,
		lookAhead: lookAhead,
		interval:  interval,
		epsilon:   DefaultEpsilon,
	}
}

// Start begins a session at the engine's current time and dispatches the
// first window before returning. It reports false if already running.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return false
	}
	p := s.source()
	s.session = &Session{
		LoopStart:   s.engine.CurrentTime(),
		LastOrdinal: -1,
		Tempo:       p.Tempo,
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.tickLocked()
	debug.Log("scheduler", "start at %.3f, %d bpm", s.session.LoopStart, p.Tempo)
	s.mu.Unlock()

	go s.loop(stop, done)
	return true
}

// Stop ends the session. Nothing is dispatched after Stop returns; hits
// already handed to the engine still play.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	debug.Log("scheduler", "stop after ordinal %d", s.session.LastOrdinal)
	s.session = nil
	close(s.stop)
	done := s.done
	wait := s.calling != done
	s.mu.Unlock()
	if wait {
		<-done
	}
}

// Running reports whether a session is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// Session returns a copy of the active session.
func (s *Scheduler) Session() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// CurrentStep returns the display step, 0 when stopped.
func (s *Scheduler) CurrentStep() int {
	sess, _ := s.Session()
	return sess.CurrentStep
}

func (s *Scheduler) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(done)
		}
	}
}

// Tick runs one scheduling pass. The ticker calls it; tests call it
// directly with a fake clock.
func (s *Scheduler) Tick() {
	s.tick(nil)
}

// tick runs a pass; loop is the calling loop's done channel, nil otherwise.
// OnStep may call Stop, which then returns without waiting for its own loop.
func (s *Scheduler) tick(loop chan struct{}) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return
	}
	step, changed := s.tickLocked()
	onStep := s.OnStep
	if !changed || onStep == nil {
		s.mu.Unlock()
		return
	}
	if loop != nil {
		s.calling = loop
	}
	s.mu.Unlock()

	onStep(step)

	if loop != nil {
		s.mu.Lock()
		if s.calling == loop {
			s.calling = nil
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) tickLocked() (step int, changed bool) {
	sess := s.session
	p := s.source()
	sess.rebase(p.Tempo)

	bpm := float64(sess.Tempo)
	d := StepDuration(bpm)
	loop := d * TotalSteps
	now := s.engine.CurrentTime()
	elapsed := now - sess.LoopStart

	step = 0
	if elapsed > 0 {
		step = StepIndexAt(elapsed, bpm)
	}

	for float64(sess.LastOrdinal+1)*d < elapsed+s.lookAhead {
		ord := sess.LastOrdinal + 1
		at := sess.LoopStart + float64(ord)*d
		idx := int(ord % TotalSteps)
		iteration := ord / TotalSteps
		loopStart := sess.LoopStart + float64(iteration)*loop

		for i := range p.Tracks {
			inst := drums.Instrument(i)
			t := &p.Tracks[i]
			if t.Steps[idx] {
				s.engine.PlayAt(inst, at)
			}
			for _, n := range t.NotesIn(idx) {
				noteAt := loopStart + n.Offset*loop
				if noteAt > now-s.epsilon {
					s.engine.PlayAt(inst, noteAt)
				}
			}
		}
		sess.LastOrdinal = ord
	}
	debug.LogEvery(200, "scheduler", "now=%.3f ordinal=%d step=%d", now, sess.LastOrdinal, step)

	changed = step != sess.CurrentStep
	sess.CurrentStep = step
	return step, changed
}

// LoopOffset returns where in the loop the engine clock is now, as a
// fraction in [0, 1). It reports false when stopped.
func (s *Scheduler) LoopOffset() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session
	if sess == nil {
		return 0, false
	}
	sess.rebase(s.source().Tempo)

	loop := LoopDuration(float64(sess.Tempo))
	elapsed := s.engine.CurrentTime() - sess.LoopStart
	r := math.Mod(elapsed, loop)
	if r < 0 {
		r += loop
	}
	off := r / loop
	if off >= 1 {
		off = 0
	}
	return off, true
}
