package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-beatmaker/theme"
)

// Cell is the display state of one step
type Cell struct {
	Active   bool // quantized hit
	Notes    int  // freeform notes recorded in this step's window
	Cursor   bool
	Playhead bool
}

// Glyph picks the symbol for c
func (c Cell) Glyph(s theme.Symbols) rune {
	switch {
	case c.Cursor && c.Active:
		return s.CursorActive
	case c.Cursor && c.Notes > 0:
		return s.CursorNote
	case c.Cursor:
		return s.CursorEmpty
	case c.Active && c.Notes > 0:
		return s.StepBoth
	case c.Active:
		return s.StepActive
	case c.Notes > 0:
		return s.StepNote
	}
	return s.StepEmpty
}

// TrackRow describes one rendered grid line
type TrackRow struct {
	Label       string
	Color       lipgloss.Color
	Selected    bool
	Cells       []Cell
	StepsPerBar int
}

// RenderTrackRow draws a label followed by the step cells, with a separator
// between bars. Lit cells take the track color, the playhead column gets a
// background highlight.
func RenderTrackRow(th *theme.Theme, row TrackRow) string {
	label := lipgloss.NewStyle().Width(9).Foreground(th.FG())
	if row.Selected {
		label = label.Foreground(row.Color).Bold(true)
	}

	hit := lipgloss.NewStyle().Foreground(row.Color)
	idle := lipgloss.NewStyle().Foreground(th.Muted())
	cursor := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)
	sep := idle.Render(string(th.Symbols.BarSep))

	var out strings.Builder
	out.WriteString(label.Render(row.Label))
	out.WriteString(sep)
	for i, c := range row.Cells {
		if i > 0 && row.StepsPerBar > 0 && i%row.StepsPerBar == 0 {
			out.WriteString(sep)
		}
		style := idle
		switch {
		case c.Cursor && row.Selected:
			style = cursor
		case c.Active || c.Notes > 0:
			style = hit
		}
		if c.Playhead {
			style = style.Background(th.Surface())
		}
		out.WriteString(style.Render(string(c.Glyph(th.Symbols))))
	}
	out.WriteString(sep)
	return out.String()
}

// RenderRuler draws beat numbers above the grid, aligned with RenderTrackRow
func RenderRuler(th *theme.Theme, steps, stepsPerBar int) string {
	var out strings.Builder
	out.WriteString(strings.Repeat(" ", 10))
	for i := 0; i < steps; i++ {
		if i > 0 && stepsPerBar > 0 && i%stepsPerBar == 0 {
			out.WriteString(" ")
		}
		switch {
		case stepsPerBar > 0 && i%stepsPerBar == 0:
			out.WriteByte(byte('1' + (i/stepsPerBar)%9))
		case i%4 == 0:
			out.WriteString("'")
		default:
			out.WriteString(" ")
		}
	}
	return lipgloss.NewStyle().Foreground(th.Muted()).Render(out.String())
}
