package sequencer

import (
	"fmt"
	"testing"

	"go-beatmaker/drums"
)

func newTestStore() *Store {
	s := NewStore(DefaultTempo)
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("note-%d", n)
	}
	return s
}

func TestToggleStep(t *testing.T) {
	s := newTestStore()
	if !s.ToggleStep(drums.Kick, 4) {
		t.Fatal("first toggle should turn the step on")
	}
	if s.ToggleStep(drums.Kick, 4) {
		t.Fatal("second toggle should turn it off")
	}
	if s.ToggleStep(drums.Kick, 64) || s.ToggleStep(drums.Kick, -1) {
		t.Error("out of range steps must be ignored")
	}
	if s.ToggleStep(drums.Instrument(9), 0) {
		t.Error("unknown instrument must be ignored")
	}
	if !s.Snapshot().Empty() {
		t.Error("pattern should be empty again")
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := newTestStore()
	s.AddNote(drums.Clap, 0.5)
	before := s.Snapshot()

	s.ToggleStep(drums.Snare, 8)
	s.AddNote(drums.Clap, 0.75)
	s.SetTempo(90)

	if before.Tracks[drums.Snare].Steps[8] {
		t.Error("old snapshot saw a later step edit")
	}
	if len(before.Tracks[drums.Clap].Notes) != 1 {
		t.Error("old snapshot saw a later note")
	}
	if before.Tempo != DefaultTempo {
		t.Error("old snapshot saw a later tempo")
	}
	after := s.Snapshot()
	if !after.Tracks[drums.Snare].Steps[8] || len(after.Tracks[drums.Clap].Notes) != 2 || after.Tempo != 90 {
		t.Errorf("new snapshot missing edits: %+v", after)
	}
}

func TestLoadPresetClassicHouse(t *testing.T) {
	s := newTestStore()
	s.ToggleStep(drums.Cowbell, 1)
	s.ToggleStep(drums.Kick, 1)
	s.AddNote(drums.Snare, 0.3)

	p, ok := FindPreset("classic house")
	if !ok {
		t.Fatal("Classic House missing")
	}
	s.LoadPreset(p)
	got := s.Snapshot()

	if got.Tempo != 126 {
		t.Errorf("tempo = %d, want 126", got.Tempo)
	}
	if got.NoteCount() != 0 {
		t.Error("preset load must drop freeform notes")
	}
	want := map[drums.Instrument][]int{
		drums.Kick:    {0, 4, 8, 12, 16, 20, 24, 28, 32, 36, 40, 44, 48, 52, 56, 60},
		drums.Clap:    {4, 12, 20, 28, 36, 44, 52, 60},
		drums.HiHat:   {2, 6, 10, 14, 18, 22, 26, 30, 34, 38, 42, 46, 50, 54, 58, 62},
		drums.OpenHH:  {2, 10, 18, 26, 34, 42, 50, 58},
		drums.Snare:   nil,
		drums.Cowbell: nil,
	}
	for inst, steps := range want {
		gotSteps := got.Track(inst).ActiveSteps()
		if fmt.Sprint(gotSteps) != fmt.Sprint(steps) {
			t.Errorf("%s steps = %v, want %v", inst, gotSteps, steps)
		}
	}
}

func TestPresetTable(t *testing.T) {
	want := map[string]int{"Classic House": 126, "Trap Banger": 140, "Boom Bap": 92, "Dark Techno": 132}
	if len(Presets) != len(want) {
		t.Fatalf("presets = %d, want %d", len(Presets), len(want))
	}
	for _, p := range Presets {
		if want[p.Name] != p.Tempo {
			t.Errorf("%s tempo = %d", p.Name, p.Tempo)
		}
	}
	trap, _ := FindPreset("trap-banger")
	if hh := trap.Patterns[drums.HiHat]; len(hh) != 33 || hh[32] != 63 {
		t.Errorf("trap hi-hat = %v", hh)
	}
	techno, _ := FindPreset("DARK TECHNO")
	if hh := techno.Patterns[drums.HiHat]; len(hh) != 32 || hh[31] != 31 {
		t.Errorf("techno hi-hat = %v", hh)
	}
	if _, ok := FindPreset("polka"); ok {
		t.Error("unknown preset found")
	}
}

func TestApplyPatternClamps(t *testing.T) {
	s := newTestStore()
	s.SetTempo(100)
	s.ToggleStep(drums.Clap, 3)
	s.AddNote(drums.Kick, 0.2)

	s.ApplyPattern(map[drums.Instrument][]int{
		drums.Kick:  {0, 16, 63, 64, 70, -1},
		drums.Snare: {8},
	})
	p := s.Snapshot()

	if got := fmt.Sprint(p.Track(drums.Kick).ActiveSteps()); got != "[0 16 63]" {
		t.Errorf("kick = %s, want [0 16 63]", got)
	}
	if got := fmt.Sprint(p.Track(drums.Snare).ActiveSteps()); got != "[8]" {
		t.Errorf("snare = %s", got)
	}
	if len(p.Track(drums.Clap).ActiveSteps()) != 0 {
		t.Error("instruments missing from the response end up empty")
	}
	if p.NoteCount() != 0 {
		t.Error("freeform notes should be dropped")
	}
	if p.Tempo != 100 {
		t.Errorf("tempo changed to %d", p.Tempo)
	}
}

func TestFreeformNotes(t *testing.T) {
	s := newTestStore()
	if _, ok := s.AddNote(drums.HiHat, 1.0); ok {
		t.Error("offset 1 is outside the loop")
	}
	if _, ok := s.AddNote(drums.HiHat, -0.1); ok {
		t.Error("negative offset accepted")
	}

	a, _ := s.AddNote(drums.HiHat, 0.126) // step 8
	b, _ := s.AddNote(drums.HiHat, 0.5)   // step 32
	if a.ID == b.ID {
		t.Fatal("ids must be unique")
	}
	if a.Step() != 8 || b.Step() != 32 {
		t.Errorf("steps = %d, %d", a.Step(), b.Step())
	}

	n, ok := s.NoteNear(drums.HiHat, 8)
	if !ok || n.ID != a.ID {
		t.Errorf("NoteNear(8) = %+v, %v", n, ok)
	}
	if _, ok := s.NoteNear(drums.HiHat, 9); ok {
		t.Error("no note in step 9")
	}

	if !s.DeleteNote(drums.HiHat, a.ID) {
		t.Fatal("delete failed")
	}
	if s.DeleteNote(drums.HiHat, a.ID) {
		t.Error("double delete reported success")
	}
	if s.DeleteNote(drums.Kick, b.ID) {
		t.Error("deleted a note from the wrong track")
	}
	notes := s.Snapshot().Track(drums.HiHat).Notes
	if len(notes) != 1 || notes[0].ID != b.ID {
		t.Errorf("remaining notes = %+v", notes)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore()
	s.ToggleStep(drums.Kick, 0)
	s.ToggleStep(drums.Snare, 8)
	s.AddNote(drums.Kick, 0.1)
	s.AddNote(drums.Snare, 0.1)

	s.ClearTrack(drums.Kick)
	p := s.Snapshot()
	if len(p.Track(drums.Kick).ActiveSteps()) != 0 || len(p.Track(drums.Kick).Notes) != 0 {
		t.Error("kick not cleared")
	}
	if !p.Track(drums.Snare).Steps[8] || len(p.Track(drums.Snare).Notes) != 1 {
		t.Error("clearing kick touched snare")
	}

	s.SetTempo(99)
	s.ClearAll()
	if p := s.Snapshot(); !p.Empty() || p.Tempo != 99 {
		t.Errorf("ClearAll: empty=%v tempo=%d", p.Empty(), p.Tempo)
	}
}

func TestSetTempoBounds(t *testing.T) {
	s := newTestStore()
	if s.SetTempo(0) || s.SetTempo(-5) {
		t.Error("non-positive tempo accepted")
	}
	if !s.SetTempo(300) || s.Snapshot().Tempo != 300 {
		t.Error("store keeps direct entries unclamped")
	}
	if !s.SetTempo(MaxEntryTempo) || s.Snapshot().Tempo != MaxEntryTempo {
		t.Errorf("%d should be accepted", MaxEntryTempo)
	}
	if s.SetTempo(MaxEntryTempo+1) || s.SetTempo(99999999) {
		t.Error("tempo above the entry limit accepted")
	}
	if s.Snapshot().Tempo != MaxEntryTempo {
		t.Errorf("rejected entry changed tempo to %d", s.Snapshot().Tempo)
	}
}
