// SPDX-License-Identifier: MIT

// Package analysis implements the monitoring Tap: a ring buffer of the
// samples currently reaching it plus a spectrum analyser over them.
package analysis

import (
	"fmt"
	"sync"

	"codeclab/pkg/bitint"
)

// Tap is the single monitoring point of the signal graph. The audio
// callbacks Write whatever the active route delivers; readers take the
// most recent block without ever touching the route.
type Tap struct {
	mu     sync.Mutex
	buf    []float32
	mask   int
	pos    int // next write slot
	filled int // samples written since the last Clear, capped at len(buf)

	fftSize   int
	analyseMu sync.Mutex
	scratch   []float32 // latest block, used under analyseMu
	spectrum  *Spectrum
}

// NewTap creates a Tap holding at least fftSize samples.
func NewTap(fftSize int, sampleRate float64, windowType WindowFunc, smoothing float64) (*Tap, error) {
	spectrum, err := NewSpectrum(fftSize, sampleRate, windowType, smoothing)
	if err != nil {
		return nil, fmt.Errorf("tap: %w", err)
	}
	size := bitint.NextPowerOfTwo(fftSize)
	return &Tap{
		buf:      make([]float32, size),
		mask:     bitint.Mask(size),
		fftSize:  fftSize,
		scratch:  make([]float32, fftSize),
		spectrum: spectrum,
	}, nil
}

// Write appends samples to the ring buffer. It is called from the audio
// callbacks and does not allocate.
func (t *Tap) Write(samples []float32) {
	t.mu.Lock()
	for _, s := range samples {
		t.buf[t.pos] = s
		t.pos = (t.pos + 1) & t.mask
	}
	t.filled = min(t.filled+len(samples), len(t.buf))
	t.mu.Unlock()
}

// Clear drops the buffered samples so readers see silence until the next
// Write.
func (t *Tap) Clear() {
	t.mu.Lock()
	clear(t.buf)
	t.pos = 0
	t.filled = 0
	t.mu.Unlock()
	t.spectrum.Reset()
}

// FFTSize returns the analyser block size.
func (t *Tap) FFTSize() int { return t.fftSize }

// FrequencyBinCount returns the number of spectrum bins, which is also the
// default time-domain block length.
func (t *Tap) FrequencyBinCount() int { return t.fftSize / 2 }

// Spectrum returns the analyser behind the Tap.
func (t *Tap) Spectrum() *Spectrum { return t.spectrum }

// TimeDomain fills dst with the most recent len(dst) samples in
// chronological order. Slots never written read as 0.
func (t *Tap) TimeDomain(dst []float32) {
	t.mu.Lock()
	t.latestLocked(dst)
	t.mu.Unlock()
}

// ByteTimeDomain fills dst with the most recent samples mapped onto bytes,
// 128 being silence.
func (t *Tap) ByteTimeDomain(dst []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := min(len(dst), len(t.buf))
	start := (t.pos - n) & t.mask
	for i := range n {
		dst[i] = toByteSample(t.buf[(start+i)&t.mask])
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 128
	}
}

// Analyse runs the spectrum over the most recent fftSize samples. Only
// the copy of the block holds the ring lock, so writers never wait for
// the FFT.
func (t *Tap) Analyse() {
	t.analyseMu.Lock()
	defer t.analyseMu.Unlock()

	t.mu.Lock()
	t.latestLocked(t.scratch)
	t.mu.Unlock()

	t.spectrum.Analyse(t.scratch)
}

// FloatFrequencyData analyses the latest block and writes the spectrum in
// dB into dst.
func (t *Tap) FloatFrequencyData(dst []float32) {
	t.Analyse()
	t.spectrum.FloatFrequencyData(dst)
}

// ByteFrequencyData analyses the latest block and writes the byte spectrum
// into dst.
func (t *Tap) ByteFrequencyData(dst []byte) {
	t.Analyse()
	t.spectrum.ByteFrequencyData(dst)
}

// Filled reports how many samples were written since the last Clear,
// capped at the ring size.
func (t *Tap) Filled() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filled
}

func (t *Tap) latestLocked(dst []float32) {
	n := min(len(dst), len(t.buf))
	start := (t.pos - n) & t.mask
	for i := range n {
		dst[i] = t.buf[(start+i)&t.mask]
	}
	clear(dst[n:])
}

// toByteSample maps [-1, 1] onto [0, 255] with 0 at 128.
func toByteSample(s float32) byte {
	v := 128 * (1 + s)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}
