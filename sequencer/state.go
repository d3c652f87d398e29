package sequencer

import (
	"go-beatmaker/drums"
)

// FreeformNote is an unquantized hit. Offset is its position within one
// loop, in [0, 1), and does not depend on tempo.
type FreeformNote struct {
	ID     string  `json:"id"`
	Offset float64 `json:"offset"`
}

// Step returns the grid step whose window holds the note.
func (n FreeformNote) Step() int {
	return StepForOffset(n.Offset)
}

// Track holds one instrument's grid and its freeform notes
type Track struct {
	Steps [TotalSteps]bool `json:"steps"`
	Notes []FreeformNote   `json:"notes"`
}

// NotesIn returns the freeform notes that fall in step's window.
func (t *Track) NotesIn(step int) []FreeformNote {
	var out []FreeformNote
	for _, n := range t.Notes {
		if InWindow(n.Offset, step) {
			out = append(out, n)
		}
	}
	return out
}

// ActiveSteps returns the indices of every active grid step.
func (t *Track) ActiveSteps() []int {
	var out []int
	for i, on := range t.Steps {
		if on {
			out = append(out, i)
		}
	}
	return out
}

// Pattern is one immutable version of the whole kit. Readers may hold a
// *Pattern indefinitely; writers produce a new one.
type Pattern struct {
	Tempo  int                `json:"tempo"`
	Tracks [drums.Count]Track `json:"tracks"`
}

// NewPattern returns an empty pattern at tempo.
func NewPattern(tempo int) *Pattern {
	return &Pattern{Tempo: tempo}
}

// Track returns the track for inst.
func (p *Pattern) Track(inst drums.Instrument) *Track {
	return &p.Tracks[inst]
}

// Empty reports whether nothing would sound.
func (p *Pattern) Empty() bool {
	for i := range p.Tracks {
		if len(p.Tracks[i].Notes) > 0 || len(p.Tracks[i].ActiveSteps()) > 0 {
			return false
		}
	}
	return true
}

// NoteCount returns the number of freeform notes across all tracks.
func (p *Pattern) NoteCount() int {
	n := 0
	for i := range p.Tracks {
		n += len(p.Tracks[i].Notes)
	}
	return n
}

func (p *Pattern) clone() *Pattern {
	c := *p
	for i := range c.Tracks {
		if p.Tracks[i].Notes != nil {
			c.Tracks[i].Notes = append([]FreeformNote(nil), p.Tracks[i].Notes...)
		}
	}
	return &c
}
