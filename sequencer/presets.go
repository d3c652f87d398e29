package sequencer

import (
	"strings"

	"go-beatmaker/drums"
)

// Preset is a named starting groove
type Preset struct {
	Name     string
	Tempo    int
	Patterns map[drums.Instrument][]int
}

// every returns start, start+stride, ... below TotalSteps
func every(start, stride int) []int {
	var out []int
	for i := start; i < TotalSteps; i += stride {
		out = append(out, i)
	}
	return out
}

func span(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

// Presets is the built-in preset table, in menu order.
var Presets = []Preset{
	{
		Name:  "Classic House",
		Tempo: 126,
		Patterns: map[drums.Instrument][]int{
			drums.Kick:   every(0, 4),
			drums.Clap:   every(4, 8),
			drums.HiHat:  every(2, 4),
			drums.OpenHH: every(2, 8),
		},
	},
	{
		Name:  "Trap Banger",
		Tempo: 140,
		Patterns: map[drums.Instrument][]int{
			drums.Kick:    {0, 10, 16, 26, 32, 42, 48, 58},
			drums.Snare:   {8, 24, 40, 56},
			drums.HiHat:   append(every(0, 2), 63),
			drums.Cowbell: {14, 30, 46, 62},
		},
	},
	{
		Name:  "Boom Bap",
		Tempo: 92,
		Patterns: map[drums.Instrument][]int{
			drums.Kick:  {0, 11, 16, 19, 32, 43, 48, 51},
			drums.Snare: {8, 24, 40, 56},
			drums.HiHat: every(0, 2),
		},
	},
	{
		Name:  "Dark Techno",
		Tempo: 132,
		Patterns: map[drums.Instrument][]int{
			drums.Kick:    every(0, 4),
			drums.HiHat:   span(0, 31),
			drums.Clap:    {8, 24, 40, 56},
			drums.Cowbell: every(2, 4),
		},
	},
}

func presetKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

// FindPreset looks a preset up by name, ignoring case, spaces and dashes.
func FindPreset(name string) (Preset, bool) {
	key := presetKey(name)
	for _, p := range Presets {
		if presetKey(p.Name) == key {
			return p, true
		}
	}
	return Preset{}, false
}
