// SPDX-License-Identifier: MIT

// Package audiotest provides an in-memory audio Backend. Tests push input
// buffers and pull output buffers explicitly instead of waiting on
// hardware callbacks.
package audiotest

import (
	"errors"
	"sync"

	"codeclab/internal/audio"
)

// ErrNoDevice is returned by OpenInput when the fake has no input device.
var ErrNoDevice = errors.New("no input device")

// Backend is a fake audio.Backend.
type Backend struct {
	mu sync.Mutex

	// Failure injection.
	InitErr   error
	InputErr  error
	OutputErr error

	inits, terms int
	input        *Stream
	output       *Stream
	inputCB      audio.InputCallback
	outputCB     audio.OutputCallback
	DeviceList   []audio.Device
}

var _ audio.Backend = (*Backend)(nil)

// Stream is a fake audio.Stream.
type Stream struct {
	mu      sync.Mutex
	started bool
	closed  bool
}

func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("stream closed")
	}
	s.started = true
	return nil
}

func (s *Stream) Stop() error {
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	s.started = false
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Running reports whether the stream is started and not closed.
func (s *Stream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.closed
}

// Init implements audio.Backend.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.InitErr != nil {
		return b.InitErr
	}
	b.inits++
	return nil
}

// Terminate implements audio.Backend.
func (b *Backend) Terminate() error {
	b.mu.Lock()
	b.terms++
	b.mu.Unlock()
	return nil
}

// Balanced reports whether every Init was matched by a Terminate.
func (b *Backend) Balanced() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inits == b.terms
}

// OpenInput implements audio.Backend.
func (b *Backend) OpenInput(_ audio.StreamConfig, cb audio.InputCallback) (audio.Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.InputErr != nil {
		return nil, b.InputErr
	}
	b.input = &Stream{}
	b.inputCB = cb
	return b.input, nil
}

// OpenOutput implements audio.Backend.
func (b *Backend) OpenOutput(_ audio.StreamConfig, cb audio.OutputCallback) (audio.Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OutputErr != nil {
		return nil, b.OutputErr
	}
	b.output = &Stream{}
	b.outputCB = cb
	return b.output, nil
}

// Devices implements audio.Backend.
func (b *Backend) Devices() ([]audio.Device, error) {
	return b.DeviceList, nil
}

// Input returns the last opened input stream.
func (b *Backend) Input() *Stream {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.input
}

// Output returns the last opened output stream.
func (b *Backend) Output() *Stream {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.output
}

// PushInput delivers one input buffer as the hardware would. It reports
// false when no running input stream exists.
func (b *Backend) PushInput(in []float32) bool {
	b.mu.Lock()
	s, cb := b.input, b.inputCB
	b.mu.Unlock()
	if s == nil || cb == nil || !s.Running() {
		return false
	}
	cb(in)
	return true
}

// PullOutput renders one output buffer of n frames. It returns nil when
// no running output stream exists.
func (b *Backend) PullOutput(n int) []float32 {
	b.mu.Lock()
	s, cb := b.output, b.outputCB
	b.mu.Unlock()
	if s == nil || cb == nil || !s.Running() {
		return nil
	}
	out := make([]float32, n)
	cb(out)
	return out
}
