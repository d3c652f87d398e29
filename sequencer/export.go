package sequencer

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go-beatmaker/drums"
	"go-beatmaker/midi"
)

const (
	TicksPerStep = midi.Division / 4
	LoopTicks    = TotalSteps * TicksPerStep

	gateTicks         = 10
	quantizedVelocity = 100
	freeformVelocity  = 110 // accent for played-in notes
)

// Events flattens a pattern into note-on/note-off pairs, quantized steps
// first then freeform notes, track by track. The result is unsorted.
func Events(p *Pattern) []midi.Event {
	var events []midi.Event
	add := func(tick int64, note, vel uint8) {
		events = append(events,
			midi.Event{Tick: tick, Type: midi.NoteOn, Channel: midi.DrumChannel, Note: note, Velocity: vel},
			midi.Event{Tick: tick + gateTicks, Type: midi.NoteOff, Channel: midi.DrumChannel, Note: note},
		)
	}

	for i := range p.Tracks {
		note := drums.GMNote(drums.Instrument(i))
		t := &p.Tracks[i]
		for step, on := range t.Steps {
			if on {
				add(int64(step*TicksPerStep), note, quantizedVelocity)
			}
		}
		for _, n := range t.Notes {
			add(int64(math.Round(n.Offset*LoopTicks)), note, freeformVelocity)
		}
	}
	return events
}

// ExportMIDI renders p as a format 0 Standard MIDI File. The same pattern
// always yields the same bytes.
func ExportMIDI(p *Pattern) []byte {
	return midi.EncodeFile(Events(p), float64(p.Tempo))
}

// ExportFileName is the download name for a beat at tempo.
func ExportFileName(tempo int) string {
	return fmt.Sprintf("midnight_human_beat_%dbpm.mid", tempo)
}

// WriteMIDIFile exports p into dir and returns the file path.
func WriteMIDIFile(p *Pattern, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, ExportFileName(p.Tempo))
	if err := os.WriteFile(path, ExportMIDI(p), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
