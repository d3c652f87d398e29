package midi

import (
	"encoding/binary"
	"math"
	"sort"
)

// Division is the file resolution in ticks per quarter note.
const Division = 128

var (
	headerID = [4]byte{'M', 'T', 'h', 'd'}
	trackID  = [4]byte{'M', 'T', 'r', 'k'}
)

// AppendVLQ appends v as a variable-length quantity, most significant
// 7-bit group first.
func AppendVLQ(buf []byte, v uint32) []byte {
	var tmp [5]byte
	i := len(tmp) - 1
	tmp[i] = byte(v & 0x7F)
	for v > 0x7F {
		v >>= 7
		i--
		tmp[i] = byte(v&0x7F) | 0x80
	}
	return append(buf, tmp[i:]...)
}

// TempoMicros converts BPM to microseconds per quarter note, rounded and
// clamped to the 24-bit range of the tempo meta event.
func TempoMicros(bpm float64) uint32 {
	if bpm <= 0 {
		return 0xFFFFFF
	}
	us := math.Round(60_000_000 / bpm)
	if us > 0xFFFFFF {
		return 0xFFFFFF
	}
	if us < 1 {
		return 1
	}
	return uint32(us)
}

// SortEvents orders events by tick. Events sharing a tick keep their input order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Tick < events[j].Tick
	})
}

// EncodeTrack builds the body of a track chunk: the tempo meta event, the
// delta-encoded events in the given order, and end-of-track.
func EncodeTrack(events []Event, bpm float64) []byte {
	tempo := TempoMicros(bpm)
	data := make([]byte, 0, 11+len(events)*5)
	data = append(data, 0x00, 0xFF, 0x51, 0x03, byte(tempo>>16), byte(tempo>>8), byte(tempo))

	var last int64
	for _, ev := range events {
		delta := ev.Tick - last
		if delta < 0 {
			delta = 0
		}
		data = AppendVLQ(data, uint32(delta))
		data = append(data, ev.Message()...)
		last = ev.Tick
	}

	return append(data, 0x00, 0xFF, 0x2F, 0x00)
}

// EncodeFile returns a complete format 0 Standard MIDI File holding the
// events (sorted by tick) on a single track.
func EncodeFile(events []Event, bpm float64) []byte {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	SortEvents(sorted)

	track := EncodeTrack(sorted, bpm)

	out := make([]byte, 0, 22+len(track))
	out = append(out, headerID[:]...)
	out = binary.BigEndian.AppendUint32(out, 6)
	out = binary.BigEndian.AppendUint16(out, 0) // format 0
	out = binary.BigEndian.AppendUint16(out, 1) // one track
	out = binary.BigEndian.AppendUint16(out, Division)

	out = append(out, trackID[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(track)))
	return append(out, track...)
}
