package midi

import (
	"bytes"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestAppendVLQ(t *testing.T) {
	tests := []struct {
		in   uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{0x40, []byte{0x40}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x81, 0x00}},
		{256, []byte{0x82, 0x00}},
		{0x2000, []byte{0xC0, 0x00}},
		{0x3FFF, []byte{0xFF, 0x7F}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tt := range tests {
		if got := AppendVLQ(nil, tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("AppendVLQ(%#x) = % X, want % X", tt.in, got, tt.want)
		}
	}
}

func TestTempoMicros(t *testing.T) {
	tests := []struct {
		bpm  float64
		want uint32
	}{
		{120, 500000},
		{126, 476190},
		{92, 652174},
		{240, 250000},
		{0, 0xFFFFFF},
		{1, 0xFFFFFF},
	}
	for _, tt := range tests {
		if got := TempoMicros(tt.bpm); got != tt.want {
			t.Errorf("TempoMicros(%v) = %d, want %d", tt.bpm, got, tt.want)
		}
	}
}

func TestEncodeFileEmpty(t *testing.T) {
	got := EncodeFile(nil, 120)
	want := []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 0, 0, 1, 0, 128,
		'M', 'T', 'r', 'k', 0, 0, 0, 11,
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20,
		0x00, 0xFF, 0x2F, 0x00,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("empty file:\n got % X\nwant % X", got, want)
	}
}

func TestEncodeFileSortsAndDeltas(t *testing.T) {
	events := []Event{
		{Tick: 266, Type: NoteOff, Channel: DrumChannel, Note: 36},
		{Tick: 256, Type: NoteOn, Channel: DrumChannel, Note: 36, Velocity: 100},
		{Tick: 0, Type: NoteOn, Channel: DrumChannel, Note: 42, Velocity: 100},
		{Tick: 10, Type: NoteOff, Channel: DrumChannel, Note: 42},
	}
	got := EncodeFile(events, 120)

	body := got[22:]
	wantBody := []byte{
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20,
		0x00, 0x99, 42, 100,
		0x0A, 0x89, 42, 0,
		0x81, 0x76, 0x99, 36, 100, // delta 246
		0x0A, 0x89, 36, 0,
		0x00, 0xFF, 0x2F, 0x00,
	}
	if !bytes.Equal(body, wantBody) {
		t.Fatalf("track body:\n got % X\nwant % X", body, wantBody)
	}
	if n := int(got[18])<<24 | int(got[19])<<16 | int(got[20])<<8 | int(got[21]); n != len(wantBody) {
		t.Errorf("track length = %d, want %d", n, len(wantBody))
	}
	if events[0].Tick != 266 {
		t.Error("EncodeFile must not reorder the caller's slice")
	}
}

func TestEncodeFileReadsBack(t *testing.T) {
	events := []Event{
		{Tick: 0, Type: NoteOn, Channel: DrumChannel, Note: 36, Velocity: 100},
		{Tick: 10, Type: NoteOff, Channel: DrumChannel, Note: 36},
		{Tick: 1024, Type: NoteOn, Channel: DrumChannel, Note: 38, Velocity: 110},
		{Tick: 1034, Type: NoteOff, Channel: DrumChannel, Note: 38},
	}
	data := EncodeFile(events, 92)

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("smf.ReadFrom: %v", err)
	}
	if len(s.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(s.Tracks))
	}
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || uint16(mt) != Division {
		t.Errorf("time format = %v, want %d metric ticks", s.TimeFormat, Division)
	}

	var (
		abs     int64
		bpm     float64
		noteOns []int64
	)
	for _, ev := range s.Tracks[0] {
		abs += int64(ev.Delta)
		var tempo float64
		if ev.Message.GetMetaTempo(&tempo) {
			bpm = tempo
		}
		var ch, key, vel uint8
		if gomidi.Message(ev.Message).GetNoteOn(&ch, &key, &vel) {
			if ch != DrumChannel {
				t.Errorf("note on channel %d, want %d", ch, DrumChannel)
			}
			noteOns = append(noteOns, abs)
		}
	}
	if bpm < 91.99 || bpm > 92.01 {
		t.Errorf("tempo = %v, want ~92", bpm)
	}
	if len(noteOns) != 2 || noteOns[0] != 0 || noteOns[1] != 1024 {
		t.Errorf("note-on ticks = %v, want [0 1024]", noteOns)
	}
}

func TestEventMessage(t *testing.T) {
	on := Event{Type: NoteOn, Channel: 9, Note: 56, Velocity: 110}.Message()
	if !bytes.Equal(on, []byte{0x99, 56, 110}) {
		t.Errorf("note on bytes % X", []byte(on))
	}
	off := Event{Type: NoteOff, Channel: 9, Note: 56}.Message()
	if !bytes.Equal(off, []byte{0x89, 56, 0}) {
		t.Errorf("note off bytes % X", []byte(off))
	}
}
