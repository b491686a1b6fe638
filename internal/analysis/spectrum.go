// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	applog "codeclab/internal/log"
	"codeclab/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Default decibel range mapped onto the byte spectrum.
const (
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// SpectrumProvider exposes the latest smoothed magnitude spectrum.
type SpectrumProvider interface {
	MagnitudesInto(dst []float64) error   // MagnitudesInto copies the spectrum into dst (len Bins()).
	FrequencyForBin(binIndex int) float64 // FrequencyForBin returns the centre frequency (Hz) of a bin.
	Bins() int                            // Bins returns the number of spectrum bins (fftSize/2).
	SampleRate() float64                  // SampleRate returns the analysed sample rate.
}

// spectrumWorkspace holds the pre-allocated FFT buffers.
type spectrumWorkspace struct {
	input     []float64    // Windowed input block.
	fftOutput []complex128 // FFT coefficients, fftSize/2+1.
	smoothed  []float64    // Smoothed linear magnitudes, fftSize/2.
	window    []float64    // Window coefficients.
	mu        sync.RWMutex // Guards smoothed.
}

// Spectrum computes a windowed, time-smoothed magnitude spectrum of the
// most recent fftSize samples, the way a browser analyser node does.
type Spectrum struct {
	fft        *fourier.FFT
	fftSize    int
	sampleRate float64
	smoothing  float64
	minDB      float64
	maxDB      float64
	workspace  spectrumWorkspace
}

var _ SpectrumProvider = (*Spectrum)(nil)

// NewSpectrum creates an analyser for blocks of fftSize samples.
func NewSpectrum(fftSize int, sampleRate float64, windowType WindowFunc, smoothing float64) (*Spectrum, error) {
	if !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", fftSize)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if smoothing < 0 || smoothing >= 1 {
		return nil, fmt.Errorf("smoothing must be in [0, 1), got %f", smoothing)
	}

	applog.Debugf("Analysis: Initializing Spectrum (Size: %d, SampleRate: %.1f Hz, Window: %v)", fftSize, sampleRate, windowType)

	return &Spectrum{
		fft:        fourier.NewFFT(fftSize),
		fftSize:    fftSize,
		sampleRate: sampleRate,
		smoothing:  smoothing,
		minDB:      DefaultMinDecibels,
		maxDB:      DefaultMaxDecibels,
		workspace: spectrumWorkspace{
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, fftSize/2+1),
			smoothed:  make([]float64, fftSize/2),
			window:    windowCoefficients(fftSize, windowType),
		},
	}, nil
}

// Analyse folds block into the smoothed spectrum. block is zero padded
// or truncated to fftSize.
func (s *Spectrum) Analyse(block []float32) {
	ws := &s.workspace
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for i := range s.fftSize {
		if i < len(block) {
			ws.input[i] = float64(block[i]) * ws.window[i]
		} else {
			ws.input[i] = 0
		}
	}

	s.fft.Coefficients(ws.fftOutput, ws.input)

	scale := 1.0 / float64(s.fftSize)
	for i := range ws.smoothed {
		mag := cmplx.Abs(ws.fftOutput[i]) * scale
		ws.smoothed[i] = s.smoothing*ws.smoothed[i] + (1-s.smoothing)*mag
	}
}

// Reset clears the smoothing history.
func (s *Spectrum) Reset() {
	s.workspace.mu.Lock()
	clear(s.workspace.smoothed)
	s.workspace.mu.Unlock()
}

// MagnitudesInto copies the smoothed linear magnitudes into dst.
func (s *Spectrum) MagnitudesInto(dst []float64) error {
	s.workspace.mu.RLock()
	defer s.workspace.mu.RUnlock()

	if len(dst) != len(s.workspace.smoothed) {
		return fmt.Errorf("destination slice length %d does not match required length %d", len(dst), len(s.workspace.smoothed))
	}
	copy(dst, s.workspace.smoothed)
	return nil
}

// FloatFrequencyData writes the spectrum in dB into dst. Silent bins are
// -Inf.
func (s *Spectrum) FloatFrequencyData(dst []float32) {
	s.workspace.mu.RLock()
	defer s.workspace.mu.RUnlock()

	n := min(len(dst), len(s.workspace.smoothed))
	for i := range n {
		dst[i] = float32(toDecibels(s.workspace.smoothed[i]))
	}
}

// ByteFrequencyData writes the spectrum into dst with minDB..maxDB mapped
// onto 0..255.
func (s *Spectrum) ByteFrequencyData(dst []byte) {
	s.workspace.mu.RLock()
	defer s.workspace.mu.RUnlock()

	rangeScale := 255 / (s.maxDB - s.minDB)
	n := min(len(dst), len(s.workspace.smoothed))
	for i := range n {
		db := toDecibels(s.workspace.smoothed[i])
		v := rangeScale * (db - s.minDB)
		switch {
		case math.IsNaN(v) || v < 0:
			dst[i] = 0
		case v > 255:
			dst[i] = 255
		default:
			dst[i] = byte(v)
		}
	}
}

// FrequencyForBin returns the centre frequency (Hz) of binIndex, 0 when out
// of range.
func (s *Spectrum) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= len(s.workspace.smoothed) {
		return 0.0
	}
	return float64(binIndex) * (s.sampleRate / float64(s.fftSize))
}

// Bins returns fftSize/2.
func (s *Spectrum) Bins() int { return s.fftSize / 2 }

// Size returns the FFT size.
func (s *Spectrum) Size() int { return s.fftSize }

// SampleRate returns the analysed sample rate.
func (s *Spectrum) SampleRate() float64 { return s.sampleRate }

func toDecibels(mag float64) float64 {
	if mag <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(mag)
}
