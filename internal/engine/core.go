// SPDX-License-Identifier: MIT

// Package engine wires the graph, capture, playback and sampler
// components to the audio backend and the presentation bus.
package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"codeclab/internal/analysis"
	"codeclab/internal/audio"
	"codeclab/internal/bus"
	"codeclab/internal/capture"
	"codeclab/internal/config"
	"codeclab/internal/dsp"
	"codeclab/internal/errs"
	"codeclab/internal/graph"
	applog "codeclab/internal/log"
	"codeclab/internal/playback"
	"codeclab/internal/sched"
	"codeclab/internal/variant"
	"codeclab/internal/visual"
)

// Options configures a Core. Only Config, Backend and Scheduler are
// required.
type Options struct {
	Config      *config.Config
	Catalog     *variant.Catalog
	Backend     audio.Backend
	Scheduler   sched.Scheduler
	Publisher   bus.Publisher
	Renderer    visual.Renderer
	Surface     visual.Surface
	Decoder     capture.Decoder
	NewRecorder capture.RecorderFactory
}

// rig holds the per-session audio nodes shared with the callbacks.
type rig struct {
	filters *dsp.FilterBank
	tap     *analysis.Tap
	tone    *dsp.Tone
	bands   *analysis.BandMeter

	in  []float32 // owned by the input callback
	out []float32 // owned by the output callback
}

// Core is the engine state machine. Commands and hooks run on the
// scheduler goroutine; processInput and processOutput run on the audio
// callback threads and only read the route snapshot and the rig.
type Core struct {
	cfg     *config.Config
	backend audio.Backend
	sched   sched.Scheduler
	pub     bus.Publisher

	graph    *graph.Manager
	capture  *capture.Controller
	playback *playback.Controller
	sampler  *visual.Sampler

	rig     atomic.Pointer[rig]
	running atomic.Bool

	initialized  bool // backend.Init succeeded and Terminate is owed
	input        audio.Stream
	output       audio.Stream
	cancelFrames sched.Cancel
	lastFeed     time.Time

	disabled  bool
	remaining time.Duration
	lastErr   error
	frame     []byte
}

// NewCore builds an uninitialized core.
func NewCore(opts Options) (*Core, error) {
	if opts.Config == nil || opts.Backend == nil || opts.Scheduler == nil {
		return nil, fmt.Errorf("engine: config, backend and scheduler are required")
	}
	cfg := opts.Config

	catalog := opts.Catalog
	if catalog == nil {
		if len(cfg.Variants) > 0 {
			var err error
			if catalog, err = variant.FromConfig(cfg.Variants); err != nil {
				return nil, fmt.Errorf("engine: %w", err)
			}
		} else {
			catalog = variant.Default()
		}
	}

	c := &Core{
		cfg:     cfg,
		backend: opts.Backend,
		sched:   opts.Scheduler,
		pub:     opts.Publisher,
		graph:   graph.NewManager(catalog),
		frame:   make([]byte, cfg.Visual.FFTSize/2),
	}
	if c.pub == nil {
		c.pub = discard{}
	}

	decoder := opts.Decoder
	if decoder == nil {
		decoder = capture.WAVDecoder{}
	}
	newRecorder := opts.NewRecorder
	if newRecorder == nil {
		newRecorder = capture.WAVRecorderFactory(cfg.CaptureDir(), int(cfg.Audio.SampleRate),
			cfg.Capture.BitDepth, cfg.Audio.FramesPerBuffer)
	}

	var err error
	c.capture, err = capture.NewController(c.sched, capture.Options{
		Ceiling:     cfg.Capture.Ceiling,
		Tick:        cfg.Capture.Tick,
		KeepFiles:   cfg.Capture.KeepFiles,
		NewRecorder: newRecorder,
		Decoder:     decoder,
		Hooks: capture.Hooks{
			OnState: c.onCaptureState,
			OnTick:  c.onCaptureTick,
			OnError: c.onCaptureError,
			OnReset: c.onCaptureReset,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	c.playback = playback.NewController(c.sched, c.graph, playback.Hooks{
		OnStart: func() { c.publishStatus() },
		OnEnd:   func() { c.publishStatus() },
	})

	renderer := opts.Renderer
	if renderer == nil {
		renderer = visual.Multi{}
	}
	surface := opts.Surface
	if surface == nil {
		surface = visual.FixedSurface{Width: len(c.frame), Height: 256}
	}
	c.sampler = visual.NewSampler(visual.Options{
		Source:    traceSource{c},
		Surface:   surface,
		Renderer:  renderer,
		BlockSize: len(c.frame),
		Color:     c.selectedColor,
		Running:   c.running.Load,
	})
	return c, nil
}

// Graph returns the graph manager.
func (c *Core) Graph() *graph.Manager { return c.graph }

// Capture returns the capture controller.
func (c *Core) Capture() *capture.Controller { return c.capture }

// Playback returns the playback controller.
func (c *Core) Playback() *playback.Controller { return c.playback }

// Sampler returns the visualization sampler.
func (c *Core) Sampler() *visual.Sampler { return c.sampler }

// Running reports whether the engine is initialized and its streams run.
func (c *Core) Running() bool { return c.running.Load() }

// Initialize acquires the input and output streams, builds the nodes and
// wires the default live route.
func (c *Core) Initialize() error {
	if c.graph.State().Mode != graph.Uninitialized {
		return fmt.Errorf("initialize: %w", errs.ErrAlreadyInitialized)
	}

	r, err := c.buildRig()
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	if err := c.openStreams(); err != nil {
		c.releaseStreams()
		c.disabled = true
		c.lastErr = err
		applog.Errorf("Engine: %v", err)
		c.publishStatus()
		return err
	}

	if err := c.graph.Initialize(); err != nil {
		c.releaseStreams()
		return fmt.Errorf("initialize: %w", err)
	}
	c.rig.Store(r)

	for _, s := range []audio.Stream{c.input, c.output} {
		if err := s.Start(); err != nil {
			c.rig.Store(nil)
			_ = c.graph.Shutdown()
			c.releaseStreams()
			err = fmt.Errorf("start stream: %w: %v", errs.ErrSourceUnavailable, err)
			c.disabled = true
			c.lastErr = err
			c.publishStatus()
			return err
		}
	}

	c.disabled = false
	c.lastErr = nil
	c.running.Store(true)
	c.lastFeed = time.Time{}
	c.cancelFrames = c.sched.Every(c.cfg.Visual.FrameInterval, c.onFrame)

	applog.Infof("Engine: Initialized with %s selected", c.graph.State().Selected.Label())
	c.publishVariant()
	c.publishStatus()
	return nil
}

func (c *Core) buildRig() (*rig, error) {
	sr := c.cfg.Audio.SampleRate
	filters, err := dsp.NewFilterBank(c.graph.Catalog(), sr)
	if err != nil {
		return nil, err
	}
	window, err := analysis.ParseWindowFunc(c.cfg.Visual.FFTWindow)
	if err != nil {
		return nil, err
	}
	tap, err := analysis.NewTap(c.cfg.Visual.FFTSize, sr, window, c.cfg.Visual.Smoothing)
	if err != nil {
		return nil, err
	}
	bands, err := analysis.NewBandMeter(tap.Spectrum())
	if err != nil {
		return nil, err
	}
	return &rig{
		filters: filters,
		tap:     tap,
		tone:    dsp.NewTone(sr, c.cfg.Tone.Frequency, c.cfg.Tone.Duration, c.cfg.Tone.Gain),
		bands:   bands,
		in:      make([]float32, c.cfg.Audio.FramesPerBuffer),
		out:     make([]float32, c.cfg.Audio.FramesPerBuffer),
	}, nil
}

func (c *Core) openStreams() error {
	if err := c.backend.Init(); err != nil {
		return fmt.Errorf("audio backend: %w: %v", errs.ErrSourceUnavailable, err)
	}
	c.initialized = true

	audioCfg := c.cfg.Audio
	in, err := c.backend.OpenInput(audio.StreamConfig{
		Device:          audioCfg.InputDevice,
		Channels:        audioCfg.InputChannels,
		SampleRate:      audioCfg.SampleRate,
		FramesPerBuffer: audioCfg.FramesPerBuffer,
		LowLatency:      audioCfg.LowLatency,
	}, c.processInput)
	if err != nil {
		return fmt.Errorf("open input: %w: %v", errs.ErrSourceUnavailable, err)
	}
	c.input = in

	out, err := c.backend.OpenOutput(audio.StreamConfig{
		Device:          audioCfg.OutputDevice,
		Channels:        1,
		SampleRate:      audioCfg.SampleRate,
		FramesPerBuffer: audioCfg.FramesPerBuffer,
		LowLatency:      audioCfg.LowLatency,
	}, c.processOutput)
	if err != nil {
		return fmt.Errorf("open output: %w: %v", errs.ErrSourceUnavailable, err)
	}
	c.output = out
	return nil
}

// releaseStreams stops and closes whatever streams are open and
// terminates the backend if it was initialized.
func (c *Core) releaseStreams() {
	for _, s := range []audio.Stream{c.input, c.output} {
		if s == nil {
			continue
		}
		if err := s.Stop(); err != nil {
			applog.Warnf("Engine: stop stream: %v", err)
		}
		if err := s.Close(); err != nil {
			applog.Warnf("Engine: close stream: %v", err)
		}
	}
	c.input, c.output = nil, nil
	if c.initialized {
		if err := c.backend.Terminate(); err != nil {
			applog.Warnf("Engine: terminate backend: %v", err)
		}
		c.initialized = false
	}
}

// Shutdown releases every resource and returns to uninitialized. Calling
// it again is a no-op.
func (c *Core) Shutdown() error {
	if c.graph.State().Mode == graph.Uninitialized && c.input == nil && c.output == nil {
		return nil
	}

	c.playback.Stop()
	if c.capture.State() != capture.Idle {
		c.capture.Reset()
	}

	c.running.Store(false)
	if c.cancelFrames != nil {
		c.cancelFrames()
		c.cancelFrames = nil
	}

	// Streams stop before the nodes go away.
	c.releaseStreams()
	if err := c.graph.Shutdown(); err != nil {
		applog.Errorf("Engine: %v", err)
	}
	c.rig.Store(nil)
	c.remaining = 0

	applog.Infof("Engine: Shut down")
	c.publishStatus()
	return nil
}

// SelectVariant routes the live source through id, plays the confirmation
// tone and publishes the variant metadata.
func (c *Core) SelectVariant(id variant.ID) error {
	if _, err := c.graph.Catalog().Lookup(id); err != nil {
		return fmt.Errorf("select: %w", err)
	}
	if err := c.graph.SelectVariant(id); err != nil {
		return fmt.Errorf("select %s: %w", id, err)
	}
	if r := c.rig.Load(); r != nil && c.cfg.Tone.Enabled {
		r.tone.Trigger()
	}
	c.publishVariant()
	c.publishStatus()
	return nil
}

// StartCapture begins a capture session on an initialized engine.
func (c *Core) StartCapture() error {
	if c.graph.State().Mode == graph.Uninitialized {
		return fmt.Errorf("start capture: initialize first: %w", errs.ErrInvalidState)
	}
	return c.capture.Start()
}

// StopCapture ends the recording and decodes it in the background.
func (c *Core) StopCapture() error {
	return c.capture.Stop()
}

// Reset discards the capture session and any playback of it.
func (c *Core) Reset() error {
	c.capture.Reset()
	return nil
}

// Play plays the decoded capture through the selected variant.
func (c *Core) Play() error {
	if c.capture.State() != capture.Ready {
		return fmt.Errorf("play while capture %v: %w", c.capture.State(), errs.ErrInvalidState)
	}
	return c.playback.Play(c.capture.Buffer())
}

// Snapshot is a consistent view of the engine for the UI.
type Snapshot struct {
	Routing   graph.RoutingState
	Capture   capture.State
	Playing   bool
	Running   bool
	Disabled  bool
	Remaining time.Duration
	Status    bus.StatusEvent
}

// Snapshot returns the current engine view.
func (c *Core) Snapshot() Snapshot {
	return Snapshot{
		Routing:   c.graph.State(),
		Capture:   c.capture.State(),
		Playing:   c.playback.Active(),
		Running:   c.running.Load(),
		Disabled:  c.disabled,
		Remaining: c.remaining,
		Status:    c.status(),
	}
}

// processInput feeds the recorder and, on the live route, pushes the
// filtered input into the Tap.
func (c *Core) processInput(in []float32) {
	c.capture.WriteInput(in)

	route := c.graph.Route()
	r := c.rig.Load()
	if r == nil || route.Mode != graph.Live || !route.Input {
		return
	}
	node := r.filters.Node(route.Variant)
	if node == nil {
		return
	}
	for len(in) > 0 {
		n := min(len(in), len(r.in))
		node.Process(r.in[:n], in[:n])
		r.tap.Write(r.in[:n])
		in = in[n:]
	}
}

// processOutput renders the playback buffer through the active variant
// into the Tap, and to the Sink while it is connected. The confirmation
// tone is mixed on top.
func (c *Core) processOutput(out []float32) {
	clear(out)
	r := c.rig.Load()
	if r == nil {
		return
	}

	route := c.graph.Route()
	if route.Mode == graph.Playback && route.Buffer {
		node := r.filters.Node(route.Variant)
		for off := 0; off < len(out); {
			n := min(len(out)-off, len(r.out))
			chunk := r.out[:n]
			if !c.playback.Render(chunk) {
				break
			}
			if node != nil {
				node.Process(chunk, chunk)
			}
			r.tap.Write(chunk)
			if route.Sink {
				copy(out[off:off+n], chunk)
			}
			off += n
		}
	}

	r.tone.Mix(out)
}

// onFrame runs once per display frame.
func (c *Core) onFrame() {
	c.sampler.Frame()

	interval := c.cfg.Transport.FeedInterval
	now := c.sched.Now()
	if interval > 0 && now.Sub(c.lastFeed) < interval {
		return
	}
	c.lastFeed = now
	c.publishTrace()
}

func (c *Core) publishTrace() {
	r := c.rig.Load()
	if r == nil {
		return
	}
	r.tap.ByteTimeDomain(c.frame)
	r.tap.Analyse()
	var levels map[string]float64
	if err := r.bands.Measure(); err == nil {
		levels = r.bands.Levels()
	}

	selected := c.graph.State().Selected
	samples := make([]byte, len(c.frame))
	copy(samples, c.frame)
	if err := c.pub.PublishTrace(bus.TraceEvent{
		Variant: string(selected),
		Color:   c.selectedColor(),
		Samples: samples,
		Bands:   levels,
	}); err != nil {
		applog.Warnf("Engine: %v", err)
	}
}

func (c *Core) onCaptureState(state capture.State, _ *capture.Session) {
	if state != capture.Recording {
		c.remaining = 0
	}
	if state != capture.Idle {
		c.lastErr = nil
	}
	c.publishStatus()
}

func (c *Core) onCaptureTick(remaining time.Duration) {
	c.remaining = remaining
	c.publishStatus()
}

func (c *Core) onCaptureError(err error) {
	c.lastErr = err
}

func (c *Core) onCaptureReset() {
	c.playback.Stop()
	c.lastErr = nil
	c.remaining = 0
}

func (c *Core) selectedColor() string {
	v, err := c.graph.Catalog().Lookup(c.graph.State().Selected)
	if err != nil {
		return c.graph.Catalog().First().Meta.Color
	}
	return v.Meta.Color
}

func (c *Core) publishVariant() {
	v, err := c.graph.Catalog().Lookup(c.graph.State().Selected)
	if err != nil {
		return
	}
	if err := c.pub.PublishVariant(bus.NewVariantEvent(v)); err != nil {
		applog.Warnf("Engine: %v", err)
	}
}

func (c *Core) publishStatus() {
	if err := c.pub.PublishStatus(c.status()); err != nil {
		applog.Warnf("Engine: %v", err)
	}
}

// traceSource reads the Tap of the current rig; without one it yields a
// silent block.
type traceSource struct{ c *Core }

func (s traceSource) ByteTimeDomain(dst []byte) {
	if r := s.c.rig.Load(); r != nil {
		r.tap.ByteTimeDomain(dst)
		return
	}
	for i := range dst {
		dst[i] = 128
	}
}

// discard drops every event.
type discard struct{}

func (discard) PublishVariant(bus.VariantEvent) error { return nil }
func (discard) PublishStatus(bus.StatusEvent) error   { return nil }
func (discard) PublishTrace(bus.TraceEvent) error     { return nil }
