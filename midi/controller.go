package midi

// ControllerType identifies the kind of controller
type ControllerType int

const (
	ControllerUnknown ControllerType = iota
	ControllerKeyboard
)

// NoteEvent is sent when a pad or key is struck on an input device
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// Controller is the interface for MIDI input devices used as performance pads
type Controller interface {
	ID() string
	Type() ControllerType

	// Note-on events from the device (velocity > 0 only)
	NoteEvents() <-chan NoteEvent

	// Lifecycle
	Close() error
}
