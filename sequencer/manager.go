package sequencer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go-beatmaker/ai"
	"go-beatmaker/debug"
	"go-beatmaker/drums"
	"go-beatmaker/midi"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrNoAudio is returned by Play when the engine cannot start.
	ErrNoAudio = errors.New("sound engine unavailable")
	// ErrBusy is returned when a generation is already running.
	ErrBusy = errors.New("pattern generation already in progress")
	// ErrUnknownPreset is returned for a preset name that doesn't exist.
	ErrUnknownPreset = errors.New("unknown preset")
)

// DefaultDebounce is the per-pad retrigger window.
const DefaultDebounce = 65 * time.Millisecond

// Options configures a Manager. Zero values select defaults.
type Options struct {
	Tempo     int
	LookAhead float64
	Interval  time.Duration
	Debounce  time.Duration
	Kit       drums.DrumKit // maps incoming controller notes to pads
	Generator ai.Generator
}

// Manager ties the pattern store, scheduler and engine together and is the
// single entry point for user actions.
type Manager struct {
	store  *Store
	engine Engine
	sched  *Scheduler
	tap    *TapTempo
	kit    drums.DrumKit

	gen        ai.Generator
	aiSem      *semaphore.Weighted
	generating atomic.Bool

	debounce time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastTrigger [drums.Count]time.Time
	cursor      int

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a stopped manager around engine.
func NewManager(engine Engine, opts Options) *Manager {
	if opts.Tempo <= 0 || opts.Tempo > MaxEntryTempo {
		opts.Tempo = DefaultTempo
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Kit.Name == "" {
		opts.Kit = drums.GetKit(drums.DefaultKit)
	}

	m := &Manager{
		store:      NewStore(opts.Tempo),
		engine:     engine,
		tap:        NewTapTempo(),
		kit:        opts.Kit,
		gen:        opts.Generator,
		aiSem:      semaphore.NewWeighted(1),
		debounce:   opts.Debounce,
		now:        time.Now,
		UpdateChan: make(chan struct{}, 1),
	}
	m.sched = NewScheduler(engine, m.store.Snapshot, opts.LookAhead, opts.Interval)
	m.sched.OnStep = func(int) { m.notifyUpdate() }
	return m
}

// notifyUpdate wakes the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Pattern returns the current pattern snapshot.
func (m *Manager) Pattern() *Pattern {
	return m.store.Snapshot()
}

// Store exposes the pattern store.
func (m *Manager) Store() *Store {
	return m.store
}

// Scheduler exposes the scheduler.
func (m *Manager) Scheduler() *Scheduler {
	return m.sched
}

// Transport

// Play starts playback. If the engine can't start, playback stays stopped.
func (m *Manager) Play() error {
	if err := m.engine.Init(); err != nil {
		debug.Log("transport", "play refused: %v", err)
		return fmt.Errorf("%w: %v", ErrNoAudio, err)
	}
	if m.sched.Start() {
		m.notifyUpdate()
	}
	return nil
}

// Stop halts playback and returns the playhead to step 0.
func (m *Manager) Stop() {
	m.sched.Stop()
	m.notifyUpdate()
}

// TogglePlay flips between playing and stopped.
func (m *Manager) TogglePlay() error {
	if m.sched.Running() {
		m.Stop()
		return nil
	}
	return m.Play()
}

// Playing reports whether the transport is running.
func (m *Manager) Playing() bool {
	return m.sched.Running()
}

// Step returns the playhead step, 0 when stopped.
func (m *Manager) Step() int {
	return m.sched.CurrentStep()
}

// Tempo

// Tempo returns the current BPM.
func (m *Manager) Tempo() int {
	return m.store.Snapshot().Tempo
}

// SetTempo sets BPM, clamped to the control range.
func (m *Manager) SetTempo(bpm int) int {
	bpm = ClampTempo(bpm)
	m.store.SetTempo(bpm)
	m.notifyUpdate()
	return bpm
}

// NudgeTempo moves BPM by delta within the control range.
func (m *Manager) NudgeTempo(delta int) int {
	return m.SetTempo(m.Tempo() + delta)
}

// EnterTempo is direct numeric entry: values up to MaxEntryTempo are taken
// as is, anything else is ignored.
func (m *Manager) EnterTempo(bpm int) bool {
	if !m.store.SetTempo(bpm) {
		return false
	}
	m.notifyUpdate()
	return true
}

// Tap registers a tap-tempo press and applies the tempo once known.
func (m *Manager) Tap() (int, bool) {
	bpm, ok := m.tap.Tap()
	if ok {
		m.SetTempo(bpm)
	}
	return bpm, ok
}

// Editing

// Cursor returns the edit cursor step.
func (m *Manager) Cursor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

// MoveCursor moves the edit cursor by delta, wrapping around the loop.
func (m *Manager) MoveCursor(delta int) int {
	m.mu.Lock()
	m.cursor = ((m.cursor+delta)%TotalSteps + TotalSteps) % TotalSteps
	c := m.cursor
	m.mu.Unlock()
	m.notifyUpdate()
	return c
}

// ToggleStep flips a grid step and auditions it when it turns on.
func (m *Manager) ToggleStep(inst drums.Instrument, step int) bool {
	m.initEngine()
	on := m.store.ToggleStep(inst, step)
	if on {
		m.engine.Play(inst)
	}
	m.notifyUpdate()
	return on
}

// ClearTrack empties one track.
func (m *Manager) ClearTrack(inst drums.Instrument) {
	m.store.ClearTrack(inst)
	m.notifyUpdate()
}

// ClearAll empties every track.
func (m *Manager) ClearAll() {
	m.store.ClearAll()
	m.notifyUpdate()
}

// LoadPreset replaces tempo and grid with the named preset.
func (m *Manager) LoadPreset(name string) error {
	p, ok := FindPreset(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	m.initEngine()
	m.store.LoadPreset(p)
	debug.Log("pattern", "loaded preset %q", p.Name)
	m.notifyUpdate()
	return nil
}

// DeleteNote removes a freeform note.
func (m *Manager) DeleteNote(inst drums.Instrument, id string) bool {
	ok := m.store.DeleteNote(inst, id)
	if ok {
		m.notifyUpdate()
	}
	return ok
}

// DeleteNoteAt removes the first freeform note in step's window.
func (m *Manager) DeleteNoteAt(inst drums.Instrument, step int) bool {
	n, ok := m.store.NoteNear(inst, step)
	if !ok {
		return false
	}
	return m.DeleteNote(inst, n.ID)
}

// Performance

// TriggerPad is a live hit on inst. It sounds immediately; while playing
// it records a freeform note at the current loop position, while stopped
// it toggles the grid step under the cursor. Hits within the debounce
// window of the previous hit on the same pad are dropped.
func (m *Manager) TriggerPad(inst drums.Instrument) bool {
	if !inst.Valid() {
		return false
	}
	now := m.now()
	m.mu.Lock()
	last := m.lastTrigger[inst]
	if !last.IsZero() && now.Sub(last) < m.debounce {
		m.mu.Unlock()
		return false
	}
	m.lastTrigger[inst] = now
	cursor := m.cursor
	m.mu.Unlock()

	if err := m.engine.Init(); err != nil {
		debug.Log("pads", "%s ignored: %v", inst, err)
		return false
	}
	m.engine.Play(inst)

	offset, running := m.sched.LoopOffset()
	if !running {
		m.store.ToggleStep(inst, cursor)
		m.notifyUpdate()
		return true
	}
	if n, ok := m.store.AddNote(inst, offset); ok {
		debug.Log("pads", "%s recorded at %.4f (step %d)", inst, n.Offset, n.Step())
	}
	m.notifyUpdate()
	return true
}

// HandleNote routes a note from a MIDI controller to its pad.
func (m *Manager) HandleNote(note, velocity uint8) bool {
	if velocity == 0 {
		return false
	}
	inst, ok := m.kit.Lookup(note)
	if !ok {
		inst, ok = drums.GetKit(drums.DefaultKit).Lookup(note)
	}
	if !ok {
		debug.Log("pads", "unmapped note %d", note)
		return false
	}
	return m.TriggerPad(inst)
}

// AttachController feeds a controller's notes into the pads until the
// controller closes or ctx is done.
func (m *Manager) AttachController(ctx context.Context, ctrl midi.Controller) {
	go func() {
		events := ctrl.NoteEvents()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				m.HandleNote(ev.Note, ev.Velocity)
			}
		}
	}()
}

// AI

// Generating reports whether a generation request is outstanding.
func (m *Manager) Generating() bool {
	return m.generating.Load()
}

// Generate asks the AI collaborator for a pattern and applies it. Only one
// request runs at a time. An empty prompt does nothing. If ctx is done by
// the time the answer arrives, the answer is discarded.
func (m *Manager) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", nil
	}
	if m.gen == nil {
		return "", fmt.Errorf("%w: no generator configured", ai.ErrUnavailable)
	}
	if !m.aiSem.TryAcquire(1) {
		return "", ErrBusy
	}
	defer m.aiSem.Release(1)
	m.generating.Store(true)
	defer m.generating.Store(false)
	m.notifyUpdate()
	defer m.notifyUpdate()

	res, err := m.gen.Generate(ctx, prompt)
	if ctx.Err() != nil {
		debug.Log("ai", "discarding result for %q: %v", prompt, ctx.Err())
		return "", ctx.Err()
	}
	if err != nil {
		debug.Log("ai", "generate %q: %v", prompt, err)
		return "", err
	}
	if res == nil || res.Patterns == nil {
		return "", ai.ErrNoPattern
	}

	m.store.ApplyPattern(instrumentSteps(res.Patterns))
	debug.Log("ai", "applied %q pattern", res.Genre)
	return res.Genre, nil
}

// instrumentSteps converts id-keyed step lists, skipping unknown ids
func instrumentSteps(byID map[string][]int) map[drums.Instrument][]int {
	out := make(map[drums.Instrument][]int, len(byID))
	for id, steps := range byID {
		if inst, ok := drums.Parse(id); ok {
			out[inst] = steps
		}
	}
	return out
}

// Export

// ExportMIDI renders the current pattern as a Standard MIDI File.
func (m *Manager) ExportMIDI() []byte {
	return ExportMIDI(m.store.Snapshot())
}

// ExportFile writes the current pattern into dir.
func (m *Manager) ExportFile(dir string) (string, error) {
	path, err := WriteMIDIFile(m.store.Snapshot(), dir)
	if err != nil {
		return "", err
	}
	debug.Log("export", "wrote %s", path)
	return path, nil
}

// Engine extras

type muter interface {
	SetMuted(bool)
	Muted() bool
}

// ToggleMute silences or restores the engine. It reports false if the
// engine can't be muted.
func (m *Manager) ToggleMute() (muted, ok bool) {
	e, ok := m.engine.(muter)
	if !ok {
		return false, false
	}
	e.SetMuted(!e.Muted())
	m.notifyUpdate()
	return e.Muted(), true
}

// Muted reports whether the engine is muted.
func (m *Manager) Muted() bool {
	if e, ok := m.engine.(muter); ok {
		return e.Muted()
	}
	return false
}

// initEngine unlocks audio on user interaction; failure is not fatal here
func (m *Manager) initEngine() {
	if err := m.engine.Init(); err != nil {
		debug.Log("audio", "init: %v", err)
	}
}

// Close stops playback.
func (m *Manager) Close() {
	m.sched.Stop()
}
