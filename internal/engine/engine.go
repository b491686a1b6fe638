// SPDX-License-Identifier: MIT
package engine

import (
	"context"

	applog "codeclab/internal/log"
	"codeclab/internal/sched"
	"codeclab/internal/variant"
)

// Engine runs a Core on its own scheduler loop. Its methods are safe for
// concurrent use; each command runs as one task on the loop.
type Engine struct {
	loop *sched.Loop
	core *Core
}

// New creates an engine. opts.Scheduler is ignored and replaced by the
// engine's loop.
func New(opts Options) (*Engine, error) {
	loop := sched.NewLoop(sched.DefaultQueueSize, nil)
	opts.Scheduler = loop
	core, err := NewCore(opts)
	if err != nil {
		loop.Close()
		return nil, err
	}
	return &Engine{loop: loop, core: core}, nil
}

// Run executes the loop until ctx is cancelled or Close is called.
func (e *Engine) Run(ctx context.Context) error {
	return e.loop.Run(ctx)
}

// Catalog returns the variants the engine routes.
func (e *Engine) Catalog() *variant.Catalog {
	return e.core.graph.Catalog()
}

// Initialize acquires the audio devices and wires the live route.
func (e *Engine) Initialize(ctx context.Context) error {
	return e.loop.Call(ctx, e.core.Initialize)
}

// Shutdown releases the audio devices.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.loop.Call(ctx, e.core.Shutdown)
}

// SelectVariant routes the live source through id.
func (e *Engine) SelectVariant(ctx context.Context, id variant.ID) error {
	return e.loop.Call(ctx, func() error {
		return e.core.SelectVariant(id)
	})
}

// StartCapture begins recording.
func (e *Engine) StartCapture(ctx context.Context) error {
	return e.loop.Call(ctx, e.core.StartCapture)
}

// StopCapture stops recording and decodes the capture.
func (e *Engine) StopCapture(ctx context.Context) error {
	return e.loop.Call(ctx, e.core.StopCapture)
}

// Reset discards the capture.
func (e *Engine) Reset(ctx context.Context) error {
	return e.loop.Call(ctx, e.core.Reset)
}

// Play plays the decoded capture through the selected variant.
func (e *Engine) Play(ctx context.Context) error {
	return e.loop.Call(ctx, e.core.Play)
}

// Snapshot returns a consistent view of the engine.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := e.loop.Call(ctx, func() error {
		snap = e.core.Snapshot()
		return nil
	})
	return snap, err
}

// Close shuts the engine down and stops the loop.
func (e *Engine) Close(ctx context.Context) {
	if err := e.Shutdown(ctx); err != nil {
		applog.Warnf("Engine: shutdown on close: %v", err)
	}
	e.loop.Close()
}
