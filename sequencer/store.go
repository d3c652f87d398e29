package sequencer

import (
	"sync"
	"sync/atomic"

	"go-beatmaker/drums"

	"github.com/google/uuid"
)

// Store owns the current Pattern. Reads are lock-free snapshots; every
// write clones the pattern, edits the clone and swaps it in, so a reader
// sees either the old version or the new one in full.
type Store struct {
	mu    sync.Mutex // serializes writers
	cur   atomic.Pointer[Pattern]
	newID func() string
}

// NewStore returns a store holding an empty pattern at tempo.
func NewStore(tempo int) *Store {
	s := &Store{newID: uuid.NewString}
	s.cur.Store(NewPattern(tempo))
	return s
}

// Snapshot returns the current pattern. Callers must not modify it.
func (s *Store) Snapshot() *Pattern {
	return s.cur.Load()
}

// update applies fn to a copy of the pattern and publishes it if fn
// reports a change.
func (s *Store) update(fn func(p *Pattern) bool) *Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur.Load().clone()
	if !fn(next) {
		return s.cur.Load()
	}
	s.cur.Store(next)
	return next
}

func validStep(step int) bool {
	return step >= 0 && step < TotalSteps
}

// ToggleStep flips one grid step and returns its new value.
func (s *Store) ToggleStep(inst drums.Instrument, step int) bool {
	if !inst.Valid() || !validStep(step) {
		return false
	}
	var on bool
	s.update(func(p *Pattern) bool {
		t := p.Track(inst)
		t.Steps[step] = !t.Steps[step]
		on = t.Steps[step]
		return true
	})
	return on
}

// SetStep sets one grid step.
func (s *Store) SetStep(inst drums.Instrument, step int, on bool) {
	if !inst.Valid() || !validStep(step) {
		return
	}
	s.update(func(p *Pattern) bool {
		t := p.Track(inst)
		if t.Steps[step] == on {
			return false
		}
		t.Steps[step] = on
		return true
	})
}

// ClearTrack resets a track's grid and drops its freeform notes.
func (s *Store) ClearTrack(inst drums.Instrument) {
	if !inst.Valid() {
		return
	}
	s.update(func(p *Pattern) bool {
		p.Tracks[inst] = Track{}
		return true
	})
}

// ClearAll clears every track. Tempo is kept.
func (s *Store) ClearAll() {
	s.update(func(p *Pattern) bool {
		p.Tracks = [drums.Count]Track{}
		return true
	})
}

// LoadPreset replaces the tempo and every track with the preset's grid.
func (s *Store) LoadPreset(pr Preset) {
	s.update(func(p *Pattern) bool {
		p.Tempo = pr.Tempo
		p.Tracks = gridTracks(pr.Patterns)
		return true
	})
}

// ApplyPattern replaces every track with the given step lists. Missing
// instruments end up empty; the tempo is untouched.
func (s *Store) ApplyPattern(patterns map[drums.Instrument][]int) {
	s.update(func(p *Pattern) bool {
		p.Tracks = gridTracks(patterns)
		return true
	})
}

// gridTracks builds tracks from step index lists, dropping indices outside
// the grid
func gridTracks(patterns map[drums.Instrument][]int) [drums.Count]Track {
	var tracks [drums.Count]Track
	for inst, steps := range patterns {
		if !inst.Valid() {
			continue
		}
		for _, idx := range steps {
			if validStep(idx) {
				tracks[inst].Steps[idx] = true
			}
		}
	}
	return tracks
}

// AddNote records a freeform note at offset and returns it.
func (s *Store) AddNote(inst drums.Instrument, offset float64) (FreeformNote, bool) {
	if !inst.Valid() || offset < 0 || offset >= 1 {
		return FreeformNote{}, false
	}
	n := FreeformNote{ID: s.newID(), Offset: offset}
	s.update(func(p *Pattern) bool {
		t := p.Track(inst)
		t.Notes = append(t.Notes, n)
		return true
	})
	return n, true
}

// DeleteNote removes the note with id from inst's track.
func (s *Store) DeleteNote(inst drums.Instrument, id string) bool {
	if !inst.Valid() {
		return false
	}
	found := false
	s.update(func(p *Pattern) bool {
		t := p.Track(inst)
		for i, n := range t.Notes {
			if n.ID == id {
				t.Notes = append(t.Notes[:i:i], t.Notes[i+1:]...)
				found = true
				return true
			}
		}
		return false
	})
	return found
}

// NoteNear returns the first freeform note in step's window.
func (s *Store) NoteNear(inst drums.Instrument, step int) (FreeformNote, bool) {
	if !inst.Valid() || !validStep(step) {
		return FreeformNote{}, false
	}
	t := s.Snapshot().Track(inst)
	for _, n := range t.Notes {
		if InWindow(n.Offset, step) {
			return n, true
		}
	}
	return FreeformNote{}, false
}

// SetTempo stores bpm as given. Values outside (0, MaxEntryTempo] are
// ignored.
func (s *Store) SetTempo(bpm int) bool {
	if bpm <= 0 || bpm > MaxEntryTempo {
		return false
	}
	s.update(func(p *Pattern) bool {
		if p.Tempo == bpm {
			return false
		}
		p.Tempo = bpm
		return true
	})
	return true
}
