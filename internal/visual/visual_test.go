// SPDX-License-Identifier: MIT
package visual

import (
	"testing"

	"codeclab/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct{ w, h int }

func (s *fakeSurface) Size() (int, int) { return s.w, s.h }

type fakeRenderer struct {
	resizes [][2]int
	traces  []Trace
}

func (r *fakeRenderer) Resize(w, h int) { r.resizes = append(r.resizes, [2]int{w, h}) }

func (r *fakeRenderer) Render(t Trace) {
	t.Points = append([]Point(nil), t.Points...)
	r.traces = append(r.traces, t)
}

type constSource byte

func (c constSource) ByteTimeDomain(dst []byte) {
	for i := range dst {
		dst[i] = byte(c)
	}
}

func TestPolylineGeometry(t *testing.T) {
	pts := Polyline([]byte{128, 255, 0, 128}, 400, 100, nil)
	require.Len(t, pts, 5)
	assert.Equal(t, Point{0, 50}, pts[0])
	assert.Equal(t, Point{100, 255.0 / 128 * 50}, pts[1])
	assert.Equal(t, Point{200, 0}, pts[2])
	assert.Equal(t, Point{300, 50}, pts[3])
	assert.Equal(t, Point{400, 50}, pts[4], "closes on the centre line")
}

func TestPolylineDegenerate(t *testing.T) {
	assert.Empty(t, Polyline(nil, 10, 10, nil))
	assert.Empty(t, Polyline([]byte{1}, 0, 10, nil))
}

func TestSamplerSilentTapIsFlat(t *testing.T) {
	tap, err := analysis.NewTap(2048, 44100, analysis.Blackman, 0.8)
	require.NoError(t, err)
	r := &fakeRenderer{}
	s := NewSampler(Options{
		Source:    tap,
		Surface:   &fakeSurface{w: 300, h: 80},
		Renderer:  r,
		BlockSize: tap.FrequencyBinCount(),
		Color:     func() string { return "#3b82f6" },
	})

	s.Frame()
	require.Len(t, r.traces, 1)
	trace := r.traces[0]
	assert.Equal(t, "#3b82f6", trace.Color)
	assert.Len(t, trace.Points, 1025)
	for _, p := range trace.Points {
		require.Equal(t, 40.0, p.Y)
	}
}

func TestSamplerResizesOnlyOnChange(t *testing.T) {
	surface := &fakeSurface{w: 100, h: 50}
	r := &fakeRenderer{}
	s := NewSampler(Options{Source: constSource(128), Surface: surface, Renderer: r, BlockSize: 16})

	s.Frame()
	s.Frame()
	surface.w = 120
	s.Frame()

	assert.Equal(t, [][2]int{{100, 50}, {120, 50}}, r.resizes)
	assert.Equal(t, uint64(3), s.Frames())
	assert.Equal(t, 120.0, r.traces[2].Points[16].X)
}

func TestSamplerIdleWhenNotRunning(t *testing.T) {
	running := false
	r := &fakeRenderer{}
	s := NewSampler(Options{
		Source:   constSource(200),
		Surface:  &fakeSurface{w: 10, h: 10},
		Renderer: r,
		Running:  func() bool { return running },
	})
	s.Frame()
	assert.Empty(t, r.traces)

	running = true
	s.Frame()
	assert.Len(t, r.traces, 1)
	assert.Len(t, s.Block(), 1024)
	assert.Equal(t, byte(200), s.Block()[0])
}

func TestMultiFansOut(t *testing.T) {
	a, b := &fakeRenderer{}, &fakeRenderer{}
	s := NewSampler(Options{
		Source:    constSource(128),
		Surface:   FixedSurface{Width: 64, Height: 32},
		Renderer:  Multi{a, b},
		BlockSize: 8,
	})
	s.Frame()
	assert.Len(t, a.traces, 1)
	assert.Len(t, b.traces, 1)
	assert.Equal(t, [][2]int{{64, 32}}, b.resizes)
}
