package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"go-beatmaker/theme"
)

func TestCellGlyph(t *testing.T) {
	s := theme.Default().Symbols
	tests := []struct {
		cell Cell
		want rune
	}{
		{Cell{}, s.StepEmpty},
		{Cell{Active: true}, s.StepActive},
		{Cell{Notes: 2}, s.StepNote},
		{Cell{Active: true, Notes: 1}, s.StepBoth},
		{Cell{Cursor: true}, s.CursorEmpty},
		{Cell{Cursor: true, Active: true, Notes: 1}, s.CursorActive},
		{Cell{Cursor: true, Notes: 1}, s.CursorNote},
		{Cell{Playhead: true}, s.StepEmpty},
	}
	for _, tt := range tests {
		if got := tt.cell.Glyph(s); got != tt.want {
			t.Errorf("%+v: got %q, want %q", tt.cell, got, tt.want)
		}
	}
}

func TestRenderTrackRowWidth(t *testing.T) {
	th := theme.Default()
	cells := make([]Cell, 64)
	cells[0].Active = true
	cells[5].Notes = 1
	cells[9].Cursor = true
	cells[12].Playhead = true

	row := RenderTrackRow(th, TrackRow{Label: "Kick", Color: th.Accent(), Cells: cells, StepsPerBar: 16, Selected: true})
	// label + opening separator + 64 cells + 3 inner separators + closing separator
	if w := lipgloss.Width(row); w != 9+1+64+3+1 {
		t.Errorf("row width = %d", w)
	}
	if w := lipgloss.Width(RenderRuler(th, 64, 16)); w != 10+64+3 {
		t.Errorf("ruler width = %d", w)
	}
}

func TestRenderKeyLine(t *testing.T) {
	got := RenderKeyLine([]KeyBinding{{"space", "play"}, {"q", "quit"}})
	if got != "space:play  q:quit" {
		t.Errorf("got %q", got)
	}
}

func TestRenderPadRow(t *testing.T) {
	out := RenderPadRow([]Pad{{Key: "1", Label: "Kick"}, {Key: "2", Label: "Snare", Lit: true}})
	if !strings.Contains(out, "[1]") || !strings.Contains(out, "Snare") {
		t.Errorf("unexpected pad row %q", out)
	}
}
