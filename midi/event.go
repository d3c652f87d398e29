package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// DrumChannel is the zero-based General MIDI percussion channel (channel 10).
const DrumChannel uint8 = 9

// Event is a channel message positioned on the file's tick timeline
type Event struct {
	Tick     int64
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Message returns the raw channel-voice bytes for the event.
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	default:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	}
}
