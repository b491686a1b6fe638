// SPDX-License-Identifier: MIT
package visual

import (
	applog "codeclab/internal/log"
)

// TraceSource provides the latest time-domain block. The analysis Tap
// satisfies it.
type TraceSource interface {
	ByteTimeDomain(dst []byte)
}

// Surface reports the size of the container the trace is drawn into.
type Surface interface {
	Size() (width, height int)
}

// Renderer draws traces onto a backing surface.
type Renderer interface {
	Resize(width, height int)
	Render(trace Trace)
}

// Options configures a Sampler.
type Options struct {
	Source    TraceSource
	Surface   Surface
	Renderer  Renderer
	BlockSize int           // samples per frame
	Color     func() string // color of the selected variant
	Running   func() bool   // engine running flag
}

// Sampler renders one trace per Frame call. It only reads from the graph.
type Sampler struct {
	source   TraceSource
	surface  Surface
	renderer Renderer
	color    func() string
	running  func() bool

	block  []byte
	points []Point
	width  int
	height int
	frames uint64
}

// NewSampler creates a sampler; BlockSize defaults to 1024.
func NewSampler(opts Options) *Sampler {
	size := opts.BlockSize
	if size <= 0 {
		size = 1024
	}
	return &Sampler{
		source:   opts.Source,
		surface:  opts.Surface,
		renderer: opts.Renderer,
		color:    opts.Color,
		running:  opts.Running,
		block:    make([]byte, size),
		points:   make([]Point, 0, size+1),
	}
}

// Frame samples the source and renders one trace. It does nothing while
// the engine is not running.
func (s *Sampler) Frame() {
	if s.running != nil && !s.running() {
		return
	}

	w, h := s.surface.Size()
	if w != s.width || h != s.height {
		applog.Debugf("Visual: Resizing surface %dx%d -> %dx%d", s.width, s.height, w, h)
		s.width, s.height = w, h
		s.renderer.Resize(w, h)
	}

	s.source.ByteTimeDomain(s.block)
	s.points = Polyline(s.block, w, h, s.points)

	color := ""
	if s.color != nil {
		color = s.color()
	}
	s.renderer.Render(Trace{Points: s.points, Color: color, Width: w, Height: h})
	s.frames++
}

// Frames returns the number of rendered frames.
func (s *Sampler) Frames() uint64 { return s.frames }

// Block returns the samples of the last frame. The slice is reused.
func (s *Sampler) Block() []byte { return s.block }

// Multi fans every call out to several renderers.
type Multi []Renderer

// Resize implements Renderer.
func (m Multi) Resize(width, height int) {
	for _, r := range m {
		r.Resize(width, height)
	}
}

// Render implements Renderer.
func (m Multi) Render(trace Trace) {
	for _, r := range m {
		r.Render(trace)
	}
}

// FixedSurface is a Surface of constant size, used when no window exists.
type FixedSurface struct {
	Width, Height int
}

// Size implements Surface.
func (s FixedSurface) Size() (int, int) { return s.Width, s.Height }
