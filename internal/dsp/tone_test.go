// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"
	"time"

	"codeclab/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestToneSilentUntilTriggered(t *testing.T) {
	tone := NewTone(testSampleRate, 400, 100*time.Millisecond, 0.1)
	out := make([]float32, 256)
	tone.Mix(out)
	assert.Zero(t, utils.Peak(out))
	assert.False(t, tone.Active())
}

func TestTonePlaysOnceWithRamp(t *testing.T) {
	tone := NewTone(testSampleRate, 400, 100*time.Millisecond, 0.1)
	tone.Trigger()
	assert.True(t, tone.Active())

	// 0.1 s at 44.1 kHz is 4410 samples; render a little more.
	out := make([]float32, 5000)
	tone.Mix(out)

	assert.LessOrEqual(t, utils.Peak(out[:500]), 0.1)
	assert.Greater(t, utils.Peak(out[:500]), 0.05)
	// The tail is near the 0.001 floor.
	assert.Less(t, utils.Peak(out[4300:4410]), 0.002)
	assert.Zero(t, utils.Peak(out[4410:]))
	assert.False(t, tone.Active())
}

func TestToneMixAdds(t *testing.T) {
	tone := NewTone(testSampleRate, 400, 10*time.Millisecond, 0.1)
	tone.Trigger()
	out := make([]float32, 64)
	for i := range out {
		out[i] = 0.5
	}
	tone.Mix(out)
	// Sample 0 has phase 0 so only the bed remains.
	assert.InDelta(t, 0.5, out[0], 1e-6)
	assert.InDelta(t, 0.5+0.1*math.Sin(2*math.Pi*400/testSampleRate)*tone.decay, out[1], 1e-4)
}

func TestToneRetrigger(t *testing.T) {
	tone := NewTone(testSampleRate, 400, 10*time.Millisecond, 0.1)
	tone.Trigger()
	tone.Mix(make([]float32, 1000))
	assert.False(t, tone.Active())

	tone.Trigger()
	out := make([]float32, 100)
	tone.Mix(out)
	assert.Greater(t, utils.Peak(out), 0.05)
}
