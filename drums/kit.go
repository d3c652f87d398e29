package drums

import "strings"

// Instrument identifies one of the fixed drum voices. Tracks are stored in
// Instrument order.
type Instrument int

const (
	Kick Instrument = iota
	Snare
	HiHat
	OpenHH
	Clap
	Cowbell
)

// Count is the number of instruments (and tracks).
const Count = 6

// All lists every instrument in track order.
var All = [Count]Instrument{Kick, Snare, HiHat, OpenHH, Clap, Cowbell}

var ids = [Count]string{"Kick", "Snare", "HiHat", "OpenHH", "Clap", "Cowbell"}

var names = [Count]string{"Kick", "Snare", "Hi-Hat", "Open HH", "Clap", "Cowbell"}

// Track colors, roughly the rose/indigo/emerald/yellow/orange/fuchsia set
var colors = [Count][3]uint8{
	{244, 63, 94},
	{99, 102, 241},
	{52, 211, 153},
	{250, 204, 21},
	{251, 146, 60},
	{232, 121, 249},
}

// ID returns the stable identifier used in presets and AI responses.
func (i Instrument) ID() string {
	if !i.Valid() {
		return ""
	}
	return ids[i]
}

// Name returns the display name.
func (i Instrument) Name() string {
	if !i.Valid() {
		return ""
	}
	return names[i]
}

// Color returns the display color as RGB.
func (i Instrument) Color() [3]uint8 {
	if !i.Valid() {
		return [3]uint8{}
	}
	return colors[i]
}

func (i Instrument) String() string {
	return i.ID()
}

// Valid reports whether i is one of the known instruments.
func (i Instrument) Valid() bool {
	return i >= 0 && int(i) < Count
}

// Parse looks up an instrument by identifier (case-insensitive).
func Parse(id string) (Instrument, bool) {
	for i, s := range ids {
		if strings.EqualFold(s, id) {
			return Instrument(i), true
		}
	}
	return 0, false
}

// DrumKit maps instruments to MIDI notes
type DrumKit struct {
	Name  string
	Notes [Count]uint8
}

// Kits contains all available drum kit mappings
var Kits = map[string]DrumKit{
	"gm": {
		Name: "General MIDI",
		Notes: [Count]uint8{
			36, // Kick
			38, // Snare
			42, // Closed HH
			46, // Open HH
			39, // Clap
			56, // Cowbell
		},
	},
	"rd8": {
		Name: "Behringer RD-8",
		Notes: [Count]uint8{
			36, // BD
			40, // SD - RD-8 uses 40, not 38
			42, // CH
			46, // OH
			39, // CP
			56, // CB
		},
	},
	"tr8s": {
		Name:  "Roland TR-8S",
		Notes: [Count]uint8{36, 38, 42, 46, 39, 56},
	},
	"er1": {
		Name: "Korg ER-1",
		Notes: [Count]uint8{
			36, // Perc Synth 1
			38, // Perc Synth 2
			42, // Closed HH (PCM)
			46, // Open HH (PCM)
			39, // Hand Clap (PCM)
			41, // Perc Synth 4
		},
	},
}

// DefaultKit is the default kit name
const DefaultKit = "gm"

// KitNames returns the list of available kit names
func KitNames() []string {
	return []string{"gm", "rd8", "tr8s", "er1"}
}

// GetKit returns a kit by name, defaulting to GM if not found
func GetKit(name string) DrumKit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}

// Note returns the kit's MIDI note for inst.
func (k DrumKit) Note(inst Instrument) uint8 {
	if !inst.Valid() {
		return 0
	}
	return k.Notes[inst]
}

// Lookup finds the instrument mapped to note in this kit.
func (k DrumKit) Lookup(note uint8) (Instrument, bool) {
	for i, n := range k.Notes {
		if n == note {
			return Instrument(i), true
		}
	}
	return 0, false
}

// GMNote returns the General MIDI percussion note used for file export.
func GMNote(inst Instrument) uint8 {
	return Kits[DefaultKit].Note(inst)
}
