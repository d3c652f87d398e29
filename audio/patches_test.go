package audio

import (
	"math"
	"testing"

	"go-beatmaker/drums"

	"github.com/gopxl/beep"
)

func drain(s beep.Streamer) (total int, peak float64) {
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			if a := math.Abs(buf[i][0]); a > peak {
				peak = a
			}
		}
		total += n
		if !ok || n == 0 {
			return total, peak
		}
	}
}

func TestPatchesAreFinite(t *testing.T) {
	rate := beep.SampleRate(22050)
	for _, inst := range drums.All {
		p := Patch(inst, rate)
		if p == nil {
			t.Fatalf("%s: no patch", inst)
		}
		total, peak := drain(p)
		if total == 0 || total > rate.N(Length(inst)) {
			t.Errorf("%s: rendered %d samples, want 1..%d", inst, total, rate.N(Length(inst)))
		}
		if peak == 0 {
			t.Errorf("%s: silent", inst)
		}
		if peak > 4 || math.IsNaN(peak) {
			t.Errorf("%s: peak %v out of range", inst, peak)
		}
	}
}

func TestKickLength(t *testing.T) {
	rate := beep.SampleRate(44100)
	total, _ := drain(Patch(drums.Kick, rate))
	if total != rate.N(kickLength) {
		t.Errorf("kick = %d samples, want %d", total, rate.N(kickLength))
	}
}

func TestPatchUnknown(t *testing.T) {
	if Patch(drums.Instrument(42), 44100) != nil {
		t.Error("unknown instrument should have no patch")
	}
}

func TestExpRamp(t *testing.T) {
	r := expRamp(1, 0.01, 0.5)
	if r(0) != 1 {
		t.Errorf("start = %v", r(0))
	}
	if got := r(0.25); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("midpoint = %v, want 0.1", got)
	}
	if r(0.5) != 0.01 || r(2) != 0.01 {
		t.Error("ramp should hold its end value")
	}
}

func TestClapGainBursts(t *testing.T) {
	for _, at := range []float64{0, 0.01, 0.02, 0.03} {
		if g := clapGain(at + 1e-6); g < 0.79 {
			t.Errorf("burst at %v: gain %v", at, g)
		}
	}
	if g := clapGain(0.05); g != 0.01 {
		t.Errorf("tail gain = %v, want 0.01", g)
	}
}

func TestHighPassRemovesDC(t *testing.T) {
	rate := beep.SampleRate(44100)
	f := highPass(&constStream{v: 1, n: 4410}, 1000, rate)
	buf := make([][2]float64, 4410)
	f.Stream(buf)
	if tail := math.Abs(buf[len(buf)-1][0]); tail > 1e-3 {
		t.Errorf("DC leaks through high-pass: %v", tail)
	}
}
