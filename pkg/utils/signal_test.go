// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"os"
	"testing"
)

const (
	testSize       = 1024
	testSampleRate = 44100
	testFrequency  = 440.0 // A4 note
)

var testMagnitudes []float64

func TestMain(m *testing.M) {
	testMagnitudes = make([]float64, testSize)

	// A "hill" with its peak at testSize/4.
	for i := range testMagnitudes {
		testMagnitudes[i] = math.Exp(-0.01 * math.Pow(float64(i-testSize/4), 2))
	}

	os.Exit(m.Run())
}

func TestSineWave(t *testing.T) {
	wave := SineWave(testSize, testSampleRate, testFrequency, 0.5)
	if len(wave) != testSize {
		t.Fatalf("expected %d samples, got %d", testSize, len(wave))
	}
	if wave[0] != 0 {
		t.Errorf("expected sine to start at 0, got %v", wave[0])
	}
	if p := Peak(wave); p > 0.5+1e-6 || p < 0.49 {
		t.Errorf("expected peak near 0.5, got %v", p)
	}
	// RMS of a sine is amplitude/sqrt(2).
	if rms := RMS(wave); math.Abs(rms-0.5/math.Sqrt2) > 0.01 {
		t.Errorf("expected rms near %v, got %v", 0.5/math.Sqrt2, rms)
	}
}

func TestComplexWaveBounded(t *testing.T) {
	wave := ComplexWave(testSize, testSampleRate)
	if p := Peak(wave); p > 0.9 {
		t.Errorf("expected peak <= 0.9, got %v", p)
	}
}

func TestRMSEmpty(t *testing.T) {
	if RMS(nil) != 0 {
		t.Error("expected 0 for empty input")
	}
}

func TestFindPeakBin(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		end      int
		expected int
	}{
		{"Full Range", 0, testSize - 1, testSize / 4},
		{"Clamped Range", -5, testSize * 2, testSize / 4},
		{"Right Of Peak", testSize / 2, testSize - 1, testSize / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPeakBin(testMagnitudes, tt.start, tt.end); got != tt.expected {
				t.Errorf("FindPeakBin(%d, %d) = %d, expected %d", tt.start, tt.end, got, tt.expected)
			}
		})
	}

	if FindPeakBin(nil, 0, 10) != 0 {
		t.Error("expected 0 for empty magnitudes")
	}
}
