// SPDX-License-Identifier: MIT

// Package playback plays a captured buffer once through the selected
// variant and restores the live route when it finishes.
package playback

import (
	"fmt"
	"sync/atomic"

	"codeclab/internal/errs"
	applog "codeclab/internal/log"
	"codeclab/internal/sched"

	"github.com/go-audio/audio"
)

// Router switches the graph between the live and the playback route.
type Router interface {
	BeginPlayback() error
	EndPlayback() error
}

// Hooks notify the owner. They run on the scheduler goroutine.
type Hooks struct {
	OnStart func()
	OnEnd   func()
}

// Controller owns the single playback session.
type Controller struct {
	sched  sched.Scheduler
	router Router
	hooks  Hooks

	active  *BufferSource
	current atomic.Pointer[BufferSource] // read by the output callback
}

// NewController creates an idle playback controller.
func NewController(s sched.Scheduler, router Router, hooks Hooks) *Controller {
	return &Controller{sched: s, router: router, hooks: hooks}
}

// Active reports whether a playback session is alive.
func (c *Controller) Active() bool { return c.active != nil }

// Play routes buf through the selected variant into the Tap and the Sink.
// buf must be a decoded capture and no session may be alive.
func (c *Controller) Play(buf *audio.Float32Buffer) error {
	if buf == nil || len(buf.Data) == 0 {
		return fmt.Errorf("play: no decoded capture: %w", errs.ErrInvalidState)
	}
	if c.active != nil {
		return fmt.Errorf("play: already playing: %w", errs.ErrInvalidState)
	}

	var src *BufferSource
	src = NewBufferSource(buf.Data, func() {
		c.sched.Post(func() { c.ended(src) })
	})

	if err := c.router.BeginPlayback(); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	c.active = src
	c.current.Store(src)

	applog.Infof("Playback: Playing %d samples", src.Len())
	if c.hooks.OnStart != nil {
		c.hooks.OnStart()
	}
	return nil
}

// Stop interrupts the session, if any, and restores the live route.
// Calling it with nothing playing is a no-op.
func (c *Controller) Stop() {
	if c.active == nil {
		return
	}
	c.active.Stop()
	c.finish()
	applog.Debugf("Playback: Interrupted")
}

// Render fills dst from the current source and reports whether a source
// was attached. It is called from the output callback.
func (c *Controller) Render(dst []float32) bool {
	src := c.current.Load()
	if src == nil {
		clear(dst)
		return false
	}
	src.Read(dst)
	return true
}

// ended runs on the scheduler when src finished naturally.
func (c *Controller) ended(src *BufferSource) {
	if src != c.active {
		// Interrupted or superseded; nothing to restore.
		return
	}
	c.finish()
	applog.Infof("Playback: Finished")
}

func (c *Controller) finish() {
	c.current.Store(nil)
	c.active = nil
	if err := c.router.EndPlayback(); err != nil {
		applog.Errorf("Playback: restore live route: %v", err)
	}
	if c.hooks.OnEnd != nil {
		c.hooks.OnEnd()
	}
}
