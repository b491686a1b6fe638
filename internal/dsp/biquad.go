// SPDX-License-Identifier: MIT

// Package dsp implements the per-variant biquad filters and the
// confirmation tone voice. Everything here runs on the audio callback,
// so processing methods never allocate.
package dsp

import "math"

// Coefficients of a second-order section with a0 normalised to 1.
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Section is a Direct Form II Transposed biquad with its own state.
type Section struct {
	Coefficients

	d0, d1 float64
}

// NewSection returns a Section with zero state.
func NewSection(c Coefficients) *Section {
	return &Section{Coefficients: c}
}

// ProcessSample filters one sample.
func (s *Section) ProcessSample(x float64) float64 {
	y := s.B0*x + s.d0
	s.d0 = s.B1*x - s.A1*y + s.d1
	s.d1 = s.B2*x - s.A2*y
	return y
}

// ProcessBlock filters src into dst. dst and src may alias; dst must be
// at least len(src) long.
func (s *Section) ProcessBlock(dst, src []float32) {
	d0, d1 := s.d0, s.d1
	b0, b1, b2, a1, a2 := s.B0, s.B1, s.B2, s.A1, s.A2
	for i, in := range src {
		x := float64(in)
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		dst[i] = float32(y)
	}
	s.d0, s.d1 = d0, d1
}

// Reset clears the filter state.
func (s *Section) Reset() {
	s.d0, s.d1 = 0, 0
}

// Response returns the magnitude response at freq Hz.
func (c Coefficients) Response(freq, sampleRate float64) float64 {
	w := 2 * math.Pi * freq / sampleRate
	// z^-1 = e^{-jw}
	cos1, sin1 := math.Cos(w), math.Sin(w)
	cos2, sin2 := math.Cos(2*w), math.Sin(2*w)
	numRe := c.B0 + c.B1*cos1 + c.B2*cos2
	numIm := -c.B1*sin1 - c.B2*sin2
	denRe := 1 + c.A1*cos1 + c.A2*cos2
	denIm := -c.A1*sin1 - c.A2*sin2
	return math.Hypot(numRe, numIm) / math.Hypot(denRe, denIm)
}

// normalizedW0 returns the angular frequency for freq, false when freq is
// outside (0, Nyquist).
func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || freq <= 0 || freq >= sampleRate/2 {
		return 0, false
	}
	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 {
		return 1
	}
	return q
}

// resonanceAlpha is alpha for a lowpass or highpass whose Q is a resonance
// in dB: the gain at the cutoff is 10^(q/20).
func resonanceAlpha(sw, q float64) float64 {
	return sw / 2 * math.Pow(10, -q/20)
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	return Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

// passthrough is the identity section used for out-of-range designs.
var passthrough = Coefficients{B0: 1}

// Lowpass designs an RBJ lowpass at freq Hz with a resonance of q dB at
// the cutoff. q = -3.01 gives a Butterworth response.
func Lowpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough
	}
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := resonanceAlpha(sw, q)
	return normalize((1-cw)/2, 1-cw, (1-cw)/2, 1+alpha, -2*cw, 1-alpha)
}

// Highpass designs an RBJ highpass at freq Hz with a resonance of q dB at
// the cutoff.
func Highpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough
	}
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := resonanceAlpha(sw, q)
	return normalize((1+cw)/2, -(1 + cw), (1+cw)/2, 1+alpha, -2*cw, 1-alpha)
}

// Bandpass designs an RBJ bandpass centred on freq Hz with 0 dB peak gain.
// q is the linear quality factor; zero or less means 1.
func Bandpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough
	}
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * normalizedQ(q))
	return normalize(alpha, 0, -alpha, 1+alpha, -2*cw, 1-alpha)
}
