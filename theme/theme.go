package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"go-beatmaker/drums"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Pads
	Solid rune // ■ pad lit
	Empty rune // □ pad idle

	// Grid states (no cursor)
	StepEmpty  rune // · inactive step
	StepActive rune // ● quantized hit
	StepNote   rune // ◆ freeform note only
	StepBoth   rune // ◈ quantized hit and freeform note

	// Grid states (with cursor)
	CursorEmpty  rune // ○ cursor on empty
	CursorActive rune // ◉ cursor on quantized hit
	CursorNote   rune // ◇ cursor on freeform note

	BarSep rune // │ between bars
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Solid: '■',
			Empty: '□',

			StepEmpty:  '·',
			StepActive: '●',
			StepNote:   '◆',
			StepBoth:   '◈',

			CursorEmpty:  '○',
			CursorActive: '◉',
			CursorNote:   '◇',

			BarSep: '│',
		},
	}
}

// Default returns a theme on the built-in palette
func Default() *Theme {
	return New(DefaultPalette())
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // night
	RoleSurface = 0.1 // dark indigo
	RoleMuted   = 0.2 // slate purple
	RoleFG      = 0.4 // light lavender
	RoleAccent  = 0.5 // indigo
	RoleCursor  = 0.6 // pink
	RoleActive  = 0.7 // rose
	RoleWarning = 0.8 // amber
	RoleSuccess = 1.0 // gold
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) Surface() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSurface))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// Instrument returns the track color for inst. Instruments carry their own
// colors so tracks stay recognizable across palettes.
func (t *Theme) Instrument(inst drums.Instrument) lipgloss.Color {
	return rgbToLipgloss(inst.Color())
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(Hex(c))
}

// Hex formats c as #rrggbb
func Hex(c RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
