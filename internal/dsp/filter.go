// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"sync"

	"codeclab/internal/variant"
)

// Filter is the live node built for one processing variant. The input and
// output callbacks may both reach it across a route change, so the
// section state is guarded.
type Filter struct {
	id   variant.ID
	spec variant.FilterSpec

	mu  sync.Mutex
	sec Section
}

// Design returns the coefficients for spec at sampleRate.
func Design(spec variant.FilterSpec, sampleRate float64) (Coefficients, error) {
	switch spec.Kind {
	case variant.Lowpass:
		return Lowpass(spec.Frequency, spec.Q, sampleRate), nil
	case variant.Highpass:
		return Highpass(spec.Frequency, spec.Q, sampleRate), nil
	case variant.Bandpass:
		return Bandpass(spec.Frequency, spec.Q, sampleRate), nil
	default:
		return Coefficients{}, fmt.Errorf("unsupported filter kind %v", spec.Kind)
	}
}

// NewFilter builds the node for v.
func NewFilter(v variant.Variant, sampleRate float64) (*Filter, error) {
	c, err := Design(v.Filter, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("variant %q: %w", v.ID, err)
	}
	return &Filter{id: v.ID, spec: v.Filter, sec: Section{Coefficients: c}}, nil
}

// ID returns the variant this node belongs to.
func (f *Filter) ID() variant.ID { return f.id }

// Coefficients returns the designed coefficients.
func (f *Filter) Coefficients() Coefficients {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sec.Coefficients
}

// Process filters src into dst.
func (f *Filter) Process(dst, src []float32) {
	f.mu.Lock()
	f.sec.ProcessBlock(dst, src)
	f.mu.Unlock()
}

// Reset clears the node state so a new route starts from silence.
func (f *Filter) Reset() {
	f.mu.Lock()
	f.sec.Reset()
	f.mu.Unlock()
}

// FilterBank holds one node per variant, built once and reused across
// selections.
type FilterBank struct {
	nodes map[variant.ID]*Filter
}

// NewFilterBank builds a node for every variant in catalog.
func NewFilterBank(catalog *variant.Catalog, sampleRate float64) (*FilterBank, error) {
	b := &FilterBank{nodes: make(map[variant.ID]*Filter, catalog.Len())}
	for _, v := range catalog.All() {
		f, err := NewFilter(v, sampleRate)
		if err != nil {
			return nil, err
		}
		b.nodes[v.ID] = f
	}
	return b, nil
}

// Node returns the node for id, or nil if there is none.
func (b *FilterBank) Node(id variant.ID) *Filter {
	return b.nodes[id]
}

// Len returns the number of nodes.
func (b *FilterBank) Len() int {
	return len(b.nodes)
}
