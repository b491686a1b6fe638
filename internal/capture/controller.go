// SPDX-License-Identifier: MIT

// Package capture implements the bounded capture lifecycle: record for at
// most a ceiling duration, decode asynchronously and hold the decoded
// buffer until reset.
package capture

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"codeclab/internal/errs"
	applog "codeclab/internal/log"
	"codeclab/internal/sched"

	"github.com/go-audio/audio"
	"github.com/google/uuid"
)

// State is the capture lifecycle state.
type State int

const (
	Idle State = iota
	Recording
	Processing
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is one capture attempt.
type Session struct {
	ID         string
	Generation uint64
	StartedAt  time.Time
	Path       string
	Buffer     *audio.Float32Buffer // set once decoded
}

// Hooks notify the owner of lifecycle changes. All hooks run on the
// scheduler goroutine. Nil hooks are skipped.
type Hooks struct {
	OnState func(state State, session *Session)
	OnTick  func(remaining time.Duration)
	OnError func(err error)
	// OnReset runs before the state returns to Idle on Reset, so the owner
	// can tear down playback of the discarded buffer.
	OnReset func()
}

// Options configures a Controller.
type Options struct {
	Ceiling     time.Duration
	Tick        time.Duration
	KeepFiles   bool
	NewRecorder RecorderFactory
	Decoder     Decoder
	Hooks       Hooks
}

// Controller owns the capture state machine. Its methods run on the
// scheduler goroutine, except WriteInput which belongs to the input
// callback.
type Controller struct {
	sched       sched.Scheduler
	ceiling     time.Duration
	tick        time.Duration
	keepFiles   bool
	newRecorder RecorderFactory
	decoder     Decoder
	hooks       Hooks

	state      State
	generation uint64
	session    *Session
	recorder   Recorder
	cancelTick sched.Cancel

	// live is the recorder the input callback writes to while recording.
	live atomic.Pointer[recorderRef]
}

type recorderRef struct{ r Recorder }

// NewController creates an idle controller.
func NewController(s sched.Scheduler, opts Options) (*Controller, error) {
	if opts.Ceiling <= 0 || opts.Tick <= 0 {
		return nil, fmt.Errorf("capture: ceiling and tick must be positive")
	}
	if opts.NewRecorder == nil || opts.Decoder == nil {
		return nil, fmt.Errorf("capture: recorder factory and decoder are required")
	}
	return &Controller{
		sched:       s,
		ceiling:     opts.Ceiling,
		tick:        opts.Tick,
		keepFiles:   opts.KeepFiles,
		newRecorder: opts.NewRecorder,
		decoder:     opts.Decoder,
		hooks:       opts.Hooks,
	}, nil
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Generation returns the current generation.
func (c *Controller) Generation() uint64 { return c.generation }

// Session returns the current session, nil when idle.
func (c *Controller) Session() *Session { return c.session }

// Buffer returns the decoded buffer when Ready, nil otherwise.
func (c *Controller) Buffer() *audio.Float32Buffer {
	if c.state != Ready || c.session == nil {
		return nil
	}
	return c.session.Buffer
}

// Ceiling returns the maximum recording duration.
func (c *Controller) Ceiling() time.Duration { return c.ceiling }

// Start begins recording a new session. Only valid from Idle.
func (c *Controller) Start() error {
	if c.state != Idle {
		return fmt.Errorf("start capture while %v: %w", c.state, errs.ErrInvalidState)
	}

	c.generation++
	id := uuid.NewString()
	rec, err := c.newRecorder(id)
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	c.session = &Session{
		ID:         id,
		Generation: c.generation,
		StartedAt:  c.sched.Now(),
		Path:       rec.Path(),
	}
	c.recorder = rec
	c.live.Store(&recorderRef{r: rec})
	c.cancelTick = c.sched.Every(c.tick, c.onTick)
	c.state = Recording

	applog.Infof("Capture: Recording session %s (generation %d, ceiling %s)", id, c.generation, c.ceiling)
	c.notifyState()
	c.notifyTick(c.ceiling)
	return nil
}

// WriteInput feeds raw input to the active recorder. It is a no-op unless
// recording.
func (c *Controller) WriteInput(samples []float32) {
	ref := c.live.Load()
	if ref == nil {
		return
	}
	if err := ref.r.Write(samples); err != nil {
		applog.Warnf("Capture: %v", err)
	}
}

// Stop ends recording and decodes the session in the background. Only
// valid while Recording.
func (c *Controller) Stop() error {
	if c.state != Recording {
		return fmt.Errorf("stop capture while %v: %w", c.state, errs.ErrInvalidState)
	}

	c.haltRecording()
	c.state = Processing
	c.notifyState()

	gen, session := c.generation, c.session
	go func() {
		buf, err := c.decoder.Decode(session.Path)
		c.sched.Post(func() {
			c.finishDecode(gen, session, buf, err)
		})
	}()
	return nil
}

// Reset discards any session and returns to Idle. Valid in every state;
// an in-flight decode is invalidated by the generation bump.
func (c *Controller) Reset() {
	if c.state == Recording {
		c.haltRecording()
	}
	c.generation++
	if c.session != nil {
		c.discardFile(c.session)
	}
	c.session = nil
	if c.hooks.OnReset != nil {
		c.hooks.OnReset()
	}
	c.state = Idle
	applog.Debugf("Capture: Reset (generation %d)", c.generation)
	c.notifyState()
}

func (c *Controller) onTick() {
	if c.state != Recording {
		return
	}
	elapsed := c.sched.Now().Sub(c.session.StartedAt)
	if elapsed >= c.ceiling {
		applog.Debugf("Capture: Ceiling reached after %s", elapsed)
		c.notifyTick(0)
		if err := c.Stop(); err != nil {
			applog.Errorf("Capture: auto-stop: %v", err)
		}
		return
	}
	c.notifyTick(c.ceiling - elapsed)
}

// haltRecording stops accumulation and finalizes the recorder.
func (c *Controller) haltRecording() {
	if c.cancelTick != nil {
		c.cancelTick()
		c.cancelTick = nil
	}
	c.live.Store(nil)
	if c.recorder != nil {
		if err := c.recorder.Close(); err != nil {
			applog.Warnf("Capture: %v", err)
		}
		c.recorder = nil
	}
}

func (c *Controller) finishDecode(gen uint64, session *Session, buf *audio.Float32Buffer, err error) {
	if gen != c.generation || session != c.session || c.state != Processing {
		applog.Debugf("Capture: Dropping stale decode of generation %d (current %d)", gen, c.generation)
		return
	}

	if err != nil {
		if !errors.Is(err, errs.ErrDecodeFailed) {
			err = fmt.Errorf("%w: %v", errs.ErrDecodeFailed, err)
		}
		applog.Errorf("Capture: %v", err)
		c.discardFile(session)
		c.session = nil
		c.state = Idle
		if c.hooks.OnError != nil {
			c.hooks.OnError(err)
		}
		c.notifyState()
		return
	}

	session.Buffer = buf
	c.state = Ready
	applog.Infof("Capture: Session %s ready (%d frames)", session.ID, len(buf.Data))
	c.notifyState()
}

func (c *Controller) discardFile(session *Session) {
	if c.keepFiles || session.Path == "" {
		return
	}
	if err := os.Remove(session.Path); err != nil && !os.IsNotExist(err) {
		applog.Warnf("Capture: remove %s: %v", session.Path, err)
	}
}

func (c *Controller) notifyState() {
	if c.hooks.OnState != nil {
		c.hooks.OnState(c.state, c.session)
	}
}

func (c *Controller) notifyTick(remaining time.Duration) {
	if c.hooks.OnTick != nil {
		c.hooks.OnTick(remaining)
	}
}
