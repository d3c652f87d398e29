package audio

import (
	"math"
	"math/rand"
	"time"

	"go-beatmaker/drums"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

const (
	kickLength    = 500 * time.Millisecond
	snareLength   = 200 * time.Millisecond
	snareDecay    = 100 * time.Millisecond
	hiHatLength   = 50 * time.Millisecond
	openHHLength  = 200 * time.Millisecond
	clapLength    = 200 * time.Millisecond
	clapNoise     = 100 * time.Millisecond
	cowbellLength = 300 * time.Millisecond

	// WebAudio's default biquad Q
	filterQ = 1.0
)

// Patch builds a fresh voice for inst. Every voice is finite.
func Patch(inst drums.Instrument, rate beep.SampleRate) beep.Streamer {
	switch inst {
	case drums.Kick:
		return kick(rate)
	case drums.Snare:
		return snare(rate)
	case drums.HiHat:
		return hiHat(rate, hiHatLength)
	case drums.OpenHH:
		return hiHat(rate, openHHLength)
	case drums.Clap:
		return clap(rate)
	case drums.Cowbell:
		return cowbell(rate)
	default:
		return nil
	}
}

// Length returns how long the voice for inst lasts.
func Length(inst drums.Instrument) time.Duration {
	switch inst {
	case drums.Kick:
		return kickLength
	case drums.Snare:
		return snareLength
	case drums.HiHat:
		return hiHatLength
	case drums.OpenHH:
		return openHHLength
	case drums.Clap:
		return clapLength
	case drums.Cowbell:
		return cowbellLength
	}
	return 0
}

func kick(rate beep.SampleRate) beep.Streamer {
	d := kickLength.Seconds()
	osc := newOscillator(waveSine, expRamp(150, 0.01, d), rate)
	return beep.Take(rate.N(kickLength), shape(osc, expRamp(1, 0.01, d), rate))
}

func snare(rate beep.SampleRate) beep.Streamer {
	d := snareDecay.Seconds()
	body := highPass(beep.Take(rate.N(snareDecay), noise{}), 1000, rate)
	tone := newOscillator(waveTriangle, constant(100), rate)
	return beep.Take(rate.N(snareLength), beep.Mix(
		shape(body, expRamp(1, 0.01, d), rate),
		shape(tone, expRamp(0.7, 0.01, d), rate),
	))
}

func hiHat(rate beep.SampleRate, length time.Duration) beep.Streamer {
	n := highPass(beep.Take(rate.N(length), noise{}), 7000, rate)
	return beep.Take(rate.N(length), shape(n, expRamp(0.3, 0.01, length.Seconds()), rate))
}

func clap(rate beep.SampleRate) beep.Streamer {
	n := highPass(beep.Take(rate.N(clapNoise), noise{}), 1500, rate)
	return beep.Take(rate.N(clapLength), shape(n, clapGain, rate))
}

// clapGain is four 10ms bursts followed by a floor until the noise runs out
func clapGain(t float64) float64 {
	const burst = 0.01
	if t < 4*burst {
		local := t - math.Floor(t/burst)*burst
		return expRamp(0.8, 0.01, burst)(local)
	}
	return 0.01
}

func cowbell(rate beep.SampleRate) beep.Streamer {
	tones := beep.Mix(
		newOscillator(waveSquare, constant(540), rate),
		newOscillator(waveSquare, constant(800), rate),
	)
	body := bandPass(tones, 800, rate)
	return beep.Take(rate.N(cowbellLength), shape(body, expRamp(0.5, 0.01, cowbellLength.Seconds()), rate))
}

// newVolume wraps s in a linear gain; 0 or below is silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// expRamp moves from v0 to v1 exponentially over d seconds, then holds v1.
func expRamp(v0, v1, d float64) func(t float64) float64 {
	ratio := v1 / v0
	return func(t float64) float64 {
		if t >= d {
			return v1
		}
		if t <= 0 {
			return v0
		}
		return v0 * math.Pow(ratio, t/d)
	}
}

func constant(v float64) func(float64) float64 {
	return func(float64) float64 { return v }
}

type waveform int

const (
	waveSine waveform = iota
	waveTriangle
	waveSquare
)

// oscillator is an endless wave whose frequency may move over time
type oscillator struct {
	wave  waveform
	freq  func(t float64) float64
	rate  beep.SampleRate
	phase float64
	pos   int
}

func newOscillator(wave waveform, freq func(t float64) float64, rate beep.SampleRate) *oscillator {
	return &oscillator{wave: wave, freq: freq, rate: rate}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	sr := float64(o.rate)
	for i := range samples {
		var val float64
		switch o.wave {
		case waveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case waveTriangle:
			val = 1 - 4*math.Abs(o.phase-0.5)
		case waveSquare:
			if o.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		}
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq(float64(o.pos)/sr) / sr
		o.phase -= math.Floor(o.phase)
		o.pos++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

type noise struct{}

func (noise) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		v := rand.Float64()*2 - 1
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

func (noise) Err() error { return nil }

// shaper multiplies a stream by a gain curve measured from its first sample
type shaper struct {
	s    beep.Streamer
	gain func(t float64) float64
	rate beep.SampleRate
	pos  int
}

func shape(s beep.Streamer, gain func(t float64) float64, rate beep.SampleRate) beep.Streamer {
	return &shaper{s: s, gain: gain, rate: rate}
}

func (sh *shaper) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = sh.s.Stream(samples)
	for i := 0; i < n; i++ {
		g := sh.gain(float64(sh.pos) / float64(sh.rate))
		samples[i][0] *= g
		samples[i][1] *= g
		sh.pos++
	}
	return n, ok
}

func (sh *shaper) Err() error { return sh.s.Err() }

// biquad is a second-order IIR filter (RBJ cookbook coefficients)
type biquad struct {
	s                  beep.Streamer
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     [2]float64
}

func highPass(s beep.Streamer, freq float64, rate beep.SampleRate) beep.Streamer {
	w0, alpha := filterParams(freq, rate)
	cos := math.Cos(w0)
	a0 := 1 + alpha
	return &biquad{
		s:  s,
		b0: (1 + cos) / 2 / a0,
		b1: -(1 + cos) / a0,
		b2: (1 + cos) / 2 / a0,
		a1: -2 * cos / a0,
		a2: (1 - alpha) / a0,
	}
}

func bandPass(s beep.Streamer, freq float64, rate beep.SampleRate) beep.Streamer {
	w0, alpha := filterParams(freq, rate)
	cos := math.Cos(w0)
	a0 := 1 + alpha
	return &biquad{
		s:  s,
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * cos / a0,
		a2: (1 - alpha) / a0,
	}
}

func filterParams(freq float64, rate beep.SampleRate) (w0, alpha float64) {
	nyquist := float64(rate) / 2
	if freq >= nyquist {
		freq = nyquist * 0.99
	}
	w0 = 2 * math.Pi * freq / float64(rate)
	alpha = math.Sin(w0) / (2 * filterQ)
	return w0, alpha
}

func (f *biquad) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.s.Stream(samples)
	for i := 0; i < n; i++ {
		for c := 0; c < 2; c++ {
			x := samples[i][c]
			y := f.b0*x + f.b1*f.x1[c] + f.b2*f.x2[c] - f.a1*f.y1[c] - f.a2*f.y2[c]
			f.x2[c], f.x1[c] = f.x1[c], x
			f.y2[c], f.y1[c] = f.y1[c], y
			samples[i][c] = y
		}
	}
	return n, ok
}

func (f *biquad) Err() error { return f.s.Err() }
