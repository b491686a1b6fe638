// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
)

// FrequencyBand is a named frequency range and its latest level.
type FrequencyBand struct {
	Name    string
	LowHz   float64
	HighHz  float64
	Level   float64 // 0..1
	numBins int
}

// BandMeter reduces a spectrum to a handful of band levels for the lesson
// panel.
type BandMeter struct {
	provider SpectrumProvider
	bands    []*FrequencyBand
	mags     []float64
	scale    float64
}

// NewBandMeter creates a meter over the standard sub..treble bands.
func NewBandMeter(provider SpectrumProvider) (*BandMeter, error) {
	if provider == nil {
		return nil, fmt.Errorf("band meter requires a spectrum provider")
	}
	nyquist := provider.SampleRate() / 2
	return &BandMeter{
		provider: provider,
		bands: []*FrequencyBand{
			{Name: "sub", LowHz: 20, HighHz: 60},
			{Name: "bass", LowHz: 60, HighHz: 250},
			{Name: "lowMid", LowHz: 250, HighHz: 500},
			{Name: "mid", LowHz: 500, HighHz: 2000},
			{Name: "highMid", LowHz: 2000, HighHz: 4000},
			{Name: "treble", LowHz: 4000, HighHz: nyquist},
		},
		mags:  make([]float64, provider.Bins()),
		scale: 50.0,
	}, nil
}

// Measure recomputes every band from the provider's latest spectrum.
func (m *BandMeter) Measure() error {
	if err := m.provider.MagnitudesInto(m.mags); err != nil {
		return err
	}

	for _, band := range m.bands {
		band.Level = 0
		band.numBins = 0
	}

	for i, mag := range m.mags {
		freq := m.provider.FrequencyForBin(i)
		for _, band := range m.bands {
			if freq >= band.LowHz && freq < band.HighHz {
				band.Level += mag * mag
				band.numBins++
				break
			}
		}
	}

	for _, band := range m.bands {
		if band.numBins == 0 {
			continue
		}
		rms := math.Sqrt(band.Level / float64(band.numBins))
		band.Level = math.Min(1.0, rms*m.scale)
	}
	return nil
}

// Levels returns the band levels by name.
func (m *BandMeter) Levels() map[string]float64 {
	out := make(map[string]float64, len(m.bands))
	for _, band := range m.bands {
		out[band.Name] = band.Level
	}
	return out
}

// Bands returns the band names in ascending frequency order.
func (m *BandMeter) Bands() []string {
	names := make([]string, len(m.bands))
	for i, band := range m.bands {
		names[i] = band.Name
	}
	return names
}
