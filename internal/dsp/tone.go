// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"sync/atomic"
	"time"
)

// toneFloor is the gain the confirmation tone ramps down to.
const toneFloor = 0.001

// Tone is a fire-and-forget sine voice with an exponential gain ramp.
// Trigger may be called from any goroutine; Mix belongs to the output
// callback.
type Tone struct {
	sampleRate float64
	step       float64 // phase increment per sample
	gain       float64
	decay      float64 // per-sample gain multiplier
	length     int     // samples per trigger

	armed atomic.Bool

	// Owned by the output callback.
	pos   int
	phase float64
	level float64
}

// NewTone creates a voice playing frequency Hz for duration, starting at
// gain and ramping exponentially to 0.001.
func NewTone(sampleRate, frequency float64, duration time.Duration, gain float64) *Tone {
	length := int(math.Round(duration.Seconds() * sampleRate))
	t := &Tone{
		sampleRate: sampleRate,
		step:       2 * math.Pi * frequency / sampleRate,
		gain:       gain,
		decay:      1,
		length:     length,
	}
	if length > 1 && gain > toneFloor {
		t.decay = math.Pow(toneFloor/gain, 1/float64(length-1))
	}
	t.pos = length
	return t
}

// Trigger restarts the tone at the next output buffer.
func (t *Tone) Trigger() {
	t.armed.Store(true)
}

// Active reports whether the voice still has samples to play. Like Mix,
// it belongs to the output callback.
func (t *Tone) Active() bool {
	return t.armed.Load() || t.pos < t.length
}

// Mix adds the voice into out.
func (t *Tone) Mix(out []float32) {
	if t.armed.CompareAndSwap(true, false) {
		t.pos, t.phase, t.level = 0, 0, t.gain
	}
	for i := range out {
		if t.pos >= t.length {
			return
		}
		out[i] += float32(t.level * math.Sin(t.phase))
		t.phase += t.step
		if t.phase > 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
		t.level *= t.decay
		t.pos++
	}
}
