// SPDX-License-Identifier: MIT
package playback

import (
	"testing"
	"time"

	"codeclab/internal/errs"
	"codeclab/internal/graph"
	"codeclab/internal/sched"
	"codeclab/internal/variant"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuffer(n int) *audio.Float32Buffer {
	data := make([]float32, n)
	for i := range data {
		data[i] = 0.25
	}
	return &audio.Float32Buffer{Format: &audio.Format{NumChannels: 1, SampleRate: 8000}, Data: data}
}

type fixture struct {
	sched  *sched.Manual
	graph  *graph.Manager
	ctrl   *Controller
	starts int
	ends   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{sched: sched.NewManual(time.Unix(0, 0))}
	f.graph = graph.NewManager(variant.Default())
	require.NoError(t, f.graph.Initialize())
	f.ctrl = NewController(f.sched, f.graph, Hooks{
		OnStart: func() { f.starts++ },
		OnEnd:   func() { f.ends++ },
	})
	return f
}

func TestBufferSourceReadsOnce(t *testing.T) {
	fired := 0
	src := NewBufferSource([]float32{1, 2, 3}, func() { fired++ })

	dst := make([]float32, 2)
	assert.Equal(t, 2, src.Read(dst))
	assert.Equal(t, []float32{1, 2}, dst)
	assert.Zero(t, fired)

	assert.Equal(t, 1, src.Read(dst))
	assert.Equal(t, []float32{3, 0}, dst)
	assert.Equal(t, 1, fired)

	assert.Equal(t, 0, src.Read(dst))
	assert.Equal(t, []float32{0, 0}, dst)
	assert.Equal(t, 1, fired, "onEnded fires once")
}

func TestBufferSourceStop(t *testing.T) {
	fired := false
	src := NewBufferSource([]float32{1, 2, 3}, func() { fired = true })
	src.Stop()
	src.Stop()
	dst := []float32{9, 9}
	assert.Equal(t, 0, src.Read(dst))
	assert.Equal(t, []float32{0, 0}, dst)
	assert.False(t, fired)
	assert.True(t, src.Stopped())
}

func TestPlayRoutesAndRestores(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.graph.SelectVariant(variant.CELP))
	require.NoError(t, f.ctrl.Play(testBuffer(10)))

	assert.True(t, f.ctrl.Active())
	assert.Equal(t, graph.Playback, f.graph.State().Mode)
	assert.True(t, f.graph.Route().Sink)
	assert.Equal(t, 1, f.starts)

	out := make([]float32, 8)
	assert.True(t, f.ctrl.Render(out))
	assert.Equal(t, float32(0.25), out[7])
	f.ctrl.Render(out)
	assert.Equal(t, []float32{0.25, 0.25, 0, 0, 0, 0, 0, 0}, out)

	// The end notification is posted, not run inline.
	assert.Equal(t, graph.Playback, f.graph.State().Mode)
	f.sched.Drain()

	assert.False(t, f.ctrl.Active())
	assert.Equal(t, graph.RoutingState{Selected: variant.CELP, Active: variant.CELP, Mode: graph.Live}, f.graph.State())
	assert.False(t, f.graph.Route().Sink)
	assert.Equal(t, 1, f.ends)
	assert.False(t, f.ctrl.Render(out))
}

func TestPlayPreconditions(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.ctrl.Play(nil), errs.ErrInvalidState)
	assert.ErrorIs(t, f.ctrl.Play(&audio.Float32Buffer{}), errs.ErrInvalidState)
	assert.Equal(t, graph.Live, f.graph.State().Mode)

	require.NoError(t, f.ctrl.Play(testBuffer(10)))
	assert.ErrorIs(t, f.ctrl.Play(testBuffer(10)), errs.ErrInvalidState)
}

func TestPlayUninitializedGraph(t *testing.T) {
	s := sched.NewManual(time.Unix(0, 0))
	ctrl := NewController(s, graph.NewManager(variant.Default()), Hooks{})
	err := ctrl.Play(testBuffer(4))
	assert.ErrorIs(t, err, errs.ErrNotInitialized)
	assert.False(t, ctrl.Active())
}

func TestStopInterruptsAndIgnoresLateEnd(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Play(testBuffer(4)))

	// The source finishes and posts its end...
	f.ctrl.Render(make([]float32, 8))
	// ...but Stop wins before the loop gets to it.
	f.ctrl.Stop()
	assert.Equal(t, graph.Live, f.graph.State().Mode)
	assert.Equal(t, 1, f.ends)

	f.sched.Drain()
	assert.Equal(t, 1, f.ends, "stale end is ignored")
	assert.Equal(t, graph.Live, f.graph.State().Mode)

	f.ctrl.Stop()
	assert.Equal(t, 1, f.ends, "second stop is a no-op")
}

func TestSelectionDuringPlaybackAppliesAfterwards(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.graph.SelectVariant(variant.CELP))
	require.NoError(t, f.ctrl.Play(testBuffer(4)))
	require.NoError(t, f.graph.SelectVariant(variant.LPC))
	assert.Equal(t, variant.CELP, f.graph.Route().Variant)

	f.ctrl.Render(make([]float32, 4))
	f.sched.Drain()
	assert.Equal(t, variant.LPC, f.graph.Route().Variant)
	assert.True(t, f.graph.Route().Input)
}
