package sequencer

import (
	"math"
	"time"
)

const (
	tapWindow    = 2 * time.Second
	tapIntervals = 4
)

// TapTempo turns a series of taps into a tempo.
type TapTempo struct {
	taps []time.Time
	now  func() time.Time
}

func NewTapTempo() *TapTempo {
	return &TapTempo{now: time.Now}
}

// Tap records a tap. Once two taps fall within the window it returns the
// mean of the last few intervals as a clamped tempo.
func (t *TapTempo) Tap() (int, bool) {
	now := t.now()
	if n := len(t.taps); n > 0 && now.Sub(t.taps[n-1]) > tapWindow {
		t.taps = t.taps[:0]
	}
	t.taps = append(t.taps, now)
	if len(t.taps) > tapIntervals+1 {
		t.taps = t.taps[len(t.taps)-tapIntervals-1:]
	}
	if len(t.taps) < 2 {
		return 0, false
	}

	span := t.taps[len(t.taps)-1].Sub(t.taps[0])
	mean := span.Seconds() / float64(len(t.taps)-1)
	if mean <= 0 {
		return 0, false
	}
	return ClampTempo(int(math.Round(60 / mean))), true
}

// Reset forgets previous taps.
func (t *TapTempo) Reset() {
	t.taps = t.taps[:0]
}
