package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// OutputType selects the sound engine backend
type OutputType string

const (
	OutputSynth OutputType = "synth" // built-in synthesizer on the system speaker
	OutputMIDI  OutputType = "midi"  // note messages to an external MIDI port
)

// Tempo control range, mirrored from the sequencer to keep config a leaf
const (
	minTempo = 40
	maxTempo = 240
)

// AIConfig configures the pattern generator
type AIConfig struct {
	Model    string `json:"model,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	TimeoutS int    `json:"timeoutSeconds,omitempty"`

	APIKey string `json:"-"` // from environment only, never saved
}

// Config is the main configuration structure
type Config struct {
	Output      OutputType `json:"output"`
	MIDIOutPort string     `json:"midiOutPort,omitempty"`
	MIDIInPort  string     `json:"midiInPort,omitempty"` // empty = any input port
	Kit         string     `json:"kit,omitempty"`

	SampleRate  int `json:"sampleRate"`
	BufferMs    int `json:"bufferMs"`
	LookAheadMs int `json:"lookAheadMs"`
	IntervalMs  int `json:"intervalMs"`
	DebounceMs  int `json:"debounceMs"`

	LastTempo int    `json:"lastTempo,omitempty"`
	ExportDir string `json:"exportDir,omitempty"`
	Palette   string `json:"palette,omitempty"` // GIMP palette file, empty = built-in

	AI    AIConfig `json:"ai,omitempty"`
	Debug bool     `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output:      OutputSynth,
		Kit:         "gm",
		SampleRate:  44100,
		BufferMs:    20,
		LookAheadMs: 100,
		IntervalMs:  25,
		DebounceMs:  65,
		LastTempo:   120,
		AI: AIConfig{
			Model:    "gemini-3-flash-preview",
			Endpoint: "https://generativelanguage.googleapis.com/",
			TimeoutS: 30,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-beatmaker"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LogPath returns the debug log location
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// Load reads the config from disk, or returns defaults if not found.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err == nil {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.fill()
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BEATMAKER_OUTPUT"); v != "" {
		c.Output = OutputType(v)
	}
	if v := os.Getenv("BEATMAKER_MIDI_OUT"); v != "" {
		c.MIDIOutPort = v
	}
	if v := os.Getenv("BEATMAKER_MIDI_IN"); v != "" {
		c.MIDIInPort = v
	}
	if v := os.Getenv("BEATMAKER_KIT"); v != "" {
		c.Kit = v
	}
	envInt("BEATMAKER_SAMPLE_RATE", &c.SampleRate)
	envInt("BEATMAKER_LOOKAHEAD_MS", &c.LookAheadMs)
	envInt("BEATMAKER_INTERVAL_MS", &c.IntervalMs)
	envInt("BEATMAKER_DEBOUNCE_MS", &c.DebounceMs)
	if v := os.Getenv("BEATMAKER_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if v := os.Getenv("BEATMAKER_EXPORT_DIR"); v != "" {
		c.ExportDir = v
	}

	c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("API_KEY")
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}

// fill replaces zero or invalid values with defaults
func (c *Config) fill() {
	d := DefaultConfig()
	if c.Output != OutputSynth && c.Output != OutputMIDI {
		c.Output = d.Output
	}
	if c.Kit == "" {
		c.Kit = d.Kit
	}
	if c.SampleRate <= 0 {
		c.SampleRate = d.SampleRate
	}
	if c.BufferMs <= 0 {
		c.BufferMs = d.BufferMs
	}
	if c.LookAheadMs <= 0 {
		c.LookAheadMs = d.LookAheadMs
	}
	if c.IntervalMs <= 0 {
		c.IntervalMs = d.IntervalMs
	}
	if c.DebounceMs <= 0 {
		c.DebounceMs = d.DebounceMs
	}
	if c.LastTempo <= 0 {
		c.LastTempo = d.LastTempo
	}
	// a direct entry outside the control range is not carried over
	if c.LastTempo < minTempo {
		c.LastTempo = minTempo
	}
	if c.LastTempo > maxTempo {
		c.LastTempo = maxTempo
	}
	if c.AI.Model == "" {
		c.AI.Model = d.AI.Model
	}
	if c.AI.Endpoint == "" {
		c.AI.Endpoint = d.AI.Endpoint
	}
	if c.AI.TimeoutS <= 0 {
		c.AI.TimeoutS = d.AI.TimeoutS
	}
}

// LookAhead returns the scheduling window in seconds
func (c *Config) LookAhead() float64 {
	return float64(c.LookAheadMs) / 1000
}

// Interval returns the scheduler driver period
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Debounce returns the per-instrument retrigger window
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Buffer returns the audio output buffer length
func (c *Config) Buffer() time.Duration {
	return time.Duration(c.BufferMs) * time.Millisecond
}

// ResolveExportDir returns where exported MIDI files go (cwd if unset)
func (c *Config) ResolveExportDir() string {
	if c.ExportDir != "" {
		return c.ExportDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
