// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"

	"codeclab/internal/variant"
	"codeclab/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 44100.0

// butterworthDB is the cutoff resonance of a maximally flat response.
var butterworthDB = 20 * math.Log10(1/math.Sqrt2)

// peakGain sweeps the response from 10 Hz to 20 kHz.
func peakGain(c Coefficients, sampleRate float64) float64 {
	peak := 0.0
	for f := 10.0; f < 20000; f++ {
		peak = max(peak, c.Response(f, sampleRate))
	}
	return peak
}

func dB(gain float64) float64 { return 20 * math.Log10(gain) }

func TestLowpassResponse(t *testing.T) {
	c := Lowpass(1000, butterworthDB, testSampleRate)
	assert.InDelta(t, 1.0, c.Response(10, testSampleRate), 0.01, "DC passes")
	assert.InDelta(t, 1/math.Sqrt2, c.Response(1000, testSampleRate), 0.01, "-3 dB at cutoff")
	assert.Less(t, c.Response(10000, testSampleRate), 0.05, "stopband")
}

func TestHighpassResponse(t *testing.T) {
	c := Highpass(1000, butterworthDB, testSampleRate)
	assert.Less(t, c.Response(50, testSampleRate), 0.01)
	assert.InDelta(t, 1.0, c.Response(15000, testSampleRate), 0.02)
}

func TestBandpassPeakIsUnity(t *testing.T) {
	c := Bandpass(2000, 0.7, testSampleRate)
	assert.InDelta(t, 1.0, c.Response(2000, testSampleRate), 1e-6)
	assert.Less(t, c.Response(100, testSampleRate), 0.2)
}

func TestResonanceIsDecibelsAtCutoff(t *testing.T) {
	for _, q := range []float64{-3, 0, 1, 6, 10} {
		lp := Lowpass(1500, q, testSampleRate)
		assert.InDelta(t, q, dB(lp.Response(1500, testSampleRate)), 0.01, "lowpass Q %v dB", q)
		hp := Highpass(1500, q, testSampleRate)
		assert.InDelta(t, q, dB(hp.Response(1500, testSampleRate)), 0.01, "highpass Q %v dB", q)
	}
}

func TestCatalogLowpassPeaks(t *testing.T) {
	tests := []struct {
		id       variant.ID
		cutoffDB float64
		peakDB   float64
	}{
		{variant.LPC, 10, 10.11}, // Q 10 dB
		{variant.RELP, 1, 1.96},  // Q unset, 1 dB
	}
	catalog := variant.Default()
	for _, sr := range []float64{testSampleRate, 48000} {
		for _, tt := range tests {
			v, err := catalog.Lookup(tt.id)
			require.NoError(t, err)
			c, err := Design(v.Filter, sr)
			require.NoError(t, err)
			assert.InDelta(t, tt.cutoffDB, dB(c.Response(v.Filter.Frequency, sr)), 0.01, "%s cutoff at %v Hz", tt.id, sr)
			assert.InDelta(t, tt.peakDB, dB(peakGain(c, sr)), 0.05, "%s peak at %v Hz", tt.id, sr)
		}
	}
}

func TestOutOfRangeIsPassthrough(t *testing.T) {
	for _, c := range []Coefficients{
		Lowpass(0, 1, testSampleRate),
		Highpass(testSampleRate, 1, testSampleRate),
		Bandpass(-1, 1, testSampleRate),
	} {
		assert.Equal(t, passthrough, c)
	}
}

func TestSectionBlockMatchesSample(t *testing.T) {
	c := Lowpass(1200, 1, testSampleRate)
	in := utils.ComplexWave(512, testSampleRate)

	bySample := NewSection(c)
	want := make([]float32, len(in))
	for i, x := range in {
		want[i] = float32(bySample.ProcessSample(float64(x)))
	}

	byBlock := NewSection(c)
	got := make([]float32, len(in))
	byBlock.ProcessBlock(got[:256], in[:256])
	byBlock.ProcessBlock(got[256:], in[256:])

	for i := range want {
		require.InDelta(t, want[i], got[i], 1e-6, "sample %d", i)
	}
}

func TestSectionInPlaceAndReset(t *testing.T) {
	s := NewSection(Lowpass(800, 10, testSampleRate))
	buf := utils.SineWave(256, testSampleRate, 800, 0.5)
	s.ProcessBlock(buf, buf)
	s.Reset()

	silence := make([]float32, 64)
	s.ProcessBlock(silence, silence)
	for _, v := range silence {
		require.Zero(t, v)
	}
}

func TestFilterAttenuatesOutOfBand(t *testing.T) {
	f, err := NewFilter(variant.Variant{
		ID:     variant.RELP,
		Filter: variant.FilterSpec{Kind: variant.Lowpass, Frequency: 1200, Q: variant.DefaultQ},
	}, testSampleRate)
	require.NoError(t, err)

	high := utils.SineWave(4096, testSampleRate, 8000, 0.5)
	out := make([]float32, len(high))
	f.Process(out, high)
	// Skip the transient before measuring.
	assert.Less(t, utils.RMS(out[1024:]), utils.RMS(high)*0.1)
}

func TestFilterBank(t *testing.T) {
	catalog := variant.Default()
	bank, err := NewFilterBank(catalog, testSampleRate)
	require.NoError(t, err)
	assert.Equal(t, catalog.Len(), bank.Len())
	for _, id := range catalog.IDs() {
		require.NotNil(t, bank.Node(id))
		assert.Equal(t, id, bank.Node(id).ID())
	}
	assert.Nil(t, bank.Node("gsm"))
}

func TestDesignUnknownKind(t *testing.T) {
	_, err := Design(variant.FilterSpec{Kind: variant.FilterKind(42), Frequency: 100}, testSampleRate)
	assert.Error(t, err)
}

func TestFilterProcessZeroAllocs(t *testing.T) {
	f, err := NewFilter(variant.Default().First(), testSampleRate)
	require.NoError(t, err)
	in := utils.SineWave(512, testSampleRate, 440, 0.5)
	out := make([]float32, len(in))

	allocs := testing.AllocsPerRun(100, func() {
		f.Process(out, in)
	})
	if allocs > 0 {
		t.Errorf("Process allocated %v times per run, expected 0", allocs)
	}
}

func BenchmarkFilterProcess(b *testing.B) {
	f, _ := NewFilter(variant.Default().First(), testSampleRate)
	in := utils.SineWave(512, testSampleRate, 440, 0.5)
	out := make([]float32, len(in))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		f.Process(out, in)
	}
}
