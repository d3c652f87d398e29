package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-beatmaker/ai"
	"go-beatmaker/drums"
	"go-beatmaker/sequencer"
	"go-beatmaker/theme"
)

type silentEngine struct {
	mu    sync.Mutex
	plays []drums.Instrument
}

func (e *silentEngine) Init() error                      { return nil }
func (e *silentEngine) CurrentTime() float64             { return 0 }
func (e *silentEngine) PlayAt(drums.Instrument, float64) {}

func (e *silentEngine) Play(inst drums.Instrument) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plays = append(e.plays, inst)
}

type stubGenerator struct {
	res *ai.Result
	err error
}

func (g stubGenerator) Generate(context.Context, string) (*ai.Result, error) {
	return g.res, g.err
}

func newTestModel(t *testing.T, gen ai.Generator) Model {
	t.Helper()
	mgr := sequencer.NewManager(&silentEngine{}, sequencer.Options{Interval: time.Hour, Generator: gen})
	m := NewModel(context.Background(), mgr, nil, theme.Default())
	m.ExportDir = t.TempDir()
	t.Cleanup(mgr.Close)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestToggleStepAtCursor(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(t, m, runes("l"), runes("l"), runes("j"), runes("x"))

	p := m.Manager.Pattern()
	if !p.Track(drums.Snare).Steps[2] {
		t.Fatal("snare step 2 should be on")
	}
	if p.Track(drums.Kick).Steps[2] {
		t.Error("kick should be untouched")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Manager.Pattern().Track(drums.Snare).Steps[2] {
		t.Error("enter should toggle the step back off")
	}
}

func TestTrackSelectionWraps(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(t, m, runes("k"))
	if m.selected() != drums.Cowbell {
		t.Errorf("selected = %v, want Cowbell", m.selected())
	}
	m, _ = press(t, m, runes("j"))
	if m.selected() != drums.Kick {
		t.Errorf("selected = %v, want Kick", m.selected())
	}
}

func TestClearAllNeedsConfirm(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if m.Manager.Tempo() != 126 || m.Manager.Pattern().Empty() {
		t.Fatal("F1 should load Classic House")
	}

	m, _ = press(t, m, runes("C"), runes("n"))
	if m.Manager.Pattern().Empty() {
		t.Fatal("declined confirm must not clear")
	}

	m, _ = press(t, m, runes("C"), runes("y"))
	if !m.Manager.Pattern().Empty() {
		t.Error("confirmed clear should empty the grid")
	}
	if m.Manager.Tempo() != 126 {
		t.Error("clear all keeps tempo")
	}
}

func TestClearAllOnEmptyGridSkipsConfirm(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(t, m, runes("C"))
	if m.mode != modeNormal || m.status != "Nothing to clear" {
		t.Errorf("mode = %v, status = %q", m.mode, m.status)
	}
}

func TestViewMarksRecordedNotes(t *testing.T) {
	m := newTestModel(t, nil)
	m.Manager.Store().AddNote(drums.Clap, 0.5)
	if !strings.ContainsRune(m.View(), m.Theme.Symbols.StepNote) {
		t.Error("recorded note not drawn")
	}
}

func TestTempoEntry(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(t, m, runes("b"), runes("3a0"), runes("0"), tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Manager.Tempo(); got != 300 {
		t.Errorf("tempo = %d, want 300 (direct entry is not clamped)", got)
	}

	m, _ = press(t, m, runes("b"), runes("0"), tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Manager.Tempo(); got != 300 {
		t.Errorf("tempo = %d, zero must be ignored", got)
	}
	if !m.warn {
		t.Error("invalid tempo should warn")
	}

	m, _ = press(t, m, runes("+"))
	if got := m.Manager.Tempo(); got != sequencer.MaxTempo {
		t.Errorf("nudge from 300 = %d, want clamp to %d", got, sequencer.MaxTempo)
	}

	m, _ = press(t, m, runes("b"), runes("99999999"))
	if m.input != "999" {
		t.Errorf("tempo field = %q, want 3 digits", m.input)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Manager.Tempo(); got != 999 {
		t.Errorf("tempo = %d, want 999", got)
	}
}

func TestPromptGenerates(t *testing.T) {
	gen := stubGenerator{res: &ai.Result{
		Genre:    "Techno",
		Patterns: map[string][]int{"Kick": {0, 4, 8}},
	}}
	m := newTestModel(t, gen)

	m, cmd := press(t, m, runes("g"), runes("dark"), tea.KeyMsg{Type: tea.KeySpace}, runes("techno"), tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("submitting a prompt should return a command")
	}
	msg := cmd()
	gm, ok := msg.(GenerateMsg)
	if !ok || gm.Prompt != "dark techno" {
		t.Fatalf("unexpected msg %#v", msg)
	}

	m, _ = press(t, m, gm)
	if !strings.Contains(m.status, "Techno") {
		t.Errorf("status = %q", m.status)
	}
	if steps := m.Manager.Pattern().Track(drums.Kick).ActiveSteps(); len(steps) != 3 {
		t.Errorf("kick steps = %v", steps)
	}
}

func TestPromptEscapeCancels(t *testing.T) {
	m := newTestModel(t, nil)
	m, cmd := press(t, m, runes("g"), runes("boom"), tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil || m.mode != modeNormal || m.input != "" {
		t.Errorf("escape should leave the prompt without a command")
	}
}

func TestGenerateErrorMessages(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(t, m, GenerateMsg{Err: ai.ErrUnavailable})
	if m.status != ai.MsgUnavailable {
		t.Errorf("status = %q", m.status)
	}
	m, _ = press(t, m, GenerateMsg{Err: ai.ErrNoPattern})
	if m.status != ai.MsgNoPattern {
		t.Errorf("status = %q", m.status)
	}
}

func TestExportKey(t *testing.T) {
	m := newTestModel(t, nil)
	m, _ = press(t, m, runes("e"))
	if m.warn || !strings.Contains(m.status, "midnight_human_beat_120bpm.mid") {
		t.Errorf("status = %q", m.status)
	}
}

func TestViewShowsTransport(t *testing.T) {
	m := newTestModel(t, nil)
	v := m.View()
	for _, want := range []string{"go-beatmaker", "STOP", "120bpm", "Kick", "Cowbell"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, nil)
	m, cmd := press(t, m, runes("q"))
	if cmd == nil || !m.quitting {
		t.Fatal("q should quit")
	}
	if m.ctx.Err() == nil {
		t.Error("quitting should cancel in-flight work")
	}
	if m.View() != "" {
		t.Error("view should be empty after quit")
	}
}
