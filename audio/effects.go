package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

// oscillator generates raw audio waves
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a new oscillator for wave generation
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	samples := rate.N(duration)
	return &oscillator{
		freq:     freq,
		phase:    0,
		duration: samples,
		position: 0,
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, false
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveNoise:
			val = rand.Float64()*2 - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		// Advance phase
		o.phase += o.freq / float64(o.rate)
		o.phase = o.phase - math.Floor(o.phase) // Keep in [0, 1)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies attack/release shaping to a stream
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	sustainSamples int
	totalSamples   int
}

// NewEnvelope creates an ADSR envelope (simplified to just attack/release)
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(duration)
	att := rate.N(attack)
	rel := rate.N(release)
	sus := total - att - rel
	if sus < 0 {
		sus = 0
	}

	return &envelope{
		streamer:       s,
		position:       0,
		attackSamples:  att,
		releaseSamples: rel,
		sustainSamples: sus,
		totalSamples:   total,
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, false
		}

		var vol float64 = 1.0

		// Attack phase
		if e.position < e.attackSamples && e.attackSamples > 0 {
			vol = float64(e.position) / float64(e.attackSamples)
		}
		// Release phase
		releaseStart := e.attackSamples + e.sustainSamples
		if e.position >= releaseStart && e.releaseSamples > 0 {
			remaining := e.totalSamples - e.position
			vol = float64(remaining) / float64(e.releaseSamples)
			if vol < 0 {
				vol = 0
			}
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}

	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// Helper to create a volume effect safely
// math.Log2(0) is -Inf, so we handle 0 volume by making it silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// Chime timings
const (
	chimeAttack       = 5 * time.Millisecond
	chimeNote1        = 70 * time.Millisecond
	chimeNote2        = 160 * time.Millisecond
	chimeNote1Release = 30 * time.Millisecond
	chimeNote2Release = 120 * time.Millisecond
)

// note is one enveloped oscillator tone
func note(freq float64, d, release time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	osc := NewOscillator(freq, d, wave, rate)
	return NewEnvelope(osc, d, chimeAttack, release, rate)
}

// createSwitchChime is a rising two-note chime (B5 -> E6) with a soft octave overtone
func createSwitchChime(cfg Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)

	n1 := note(987.77, chimeNote1, chimeNote1Release, WaveSquare, rate)
	n2 := beep.Mix(
		newVolume(note(1318.51, chimeNote2, chimeNote2Release, WaveSine, rate), 0.7),
		newVolume(note(2637.02, chimeNote2, chimeNote2Release/2, WaveSine, rate), 0.3),
	)

	return newVolume(beep.Seq(newVolume(n1, 0.5), n2), cfg.Volume)
}

// createWrapChime is the falling counterpart (E6 -> B5) played when the playlist restarts
func createWrapChime(cfg Config) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)

	n1 := note(1318.51, chimeNote1, chimeNote1Release, WaveSine, rate)
	n2 := note(987.77, chimeNote2, chimeNote2Release, WaveSine, rate)

	return newVolume(beep.Seq(n1, n2), cfg.Volume)
}

// createChime returns the streamer for a sound, nil when unknown
func createChime(s Sound, cfg Config) beep.Streamer {
	switch s {
	case SoundSwitch:
		return createSwitchChime(cfg)
	case SoundWrap:
		return createWrapChime(cfg)
	default:
		return nil
	}
}
