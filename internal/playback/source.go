// SPDX-License-Identifier: MIT
package playback

import (
	"sync"
	"sync/atomic"
)

// BufferSource plays a decoded buffer exactly once. Read belongs to the
// output callback; Stop may be called from the scheduler goroutine.
type BufferSource struct {
	data    []float32
	pos     int // owned by the output callback
	stopped atomic.Bool
	ended   sync.Once
	onEnded func()
}

// NewBufferSource wraps data. onEnded runs once, from the output callback,
// when the last sample has been read. It must not block.
func NewBufferSource(data []float32, onEnded func()) *BufferSource {
	return &BufferSource{data: data, onEnded: onEnded}
}

// Read copies the next samples into dst and zero-fills the rest. It
// returns the number of samples copied.
func (s *BufferSource) Read(dst []float32) int {
	if s.stopped.Load() {
		clear(dst)
		return 0
	}
	n := copy(dst, s.data[s.pos:])
	s.pos += n
	clear(dst[n:])
	if s.pos >= len(s.data) {
		s.ended.Do(func() {
			if s.onEnded != nil {
				s.onEnded()
			}
		})
	}
	return n
}

// Stop silences the source without firing onEnded. Stopping twice, or
// stopping a finished source, is a no-op.
func (s *BufferSource) Stop() {
	s.stopped.Store(true)
}

// Stopped reports whether Stop was called.
func (s *BufferSource) Stopped() bool {
	return s.stopped.Load()
}

// Len returns the buffer length in samples.
func (s *BufferSource) Len() int {
	return len(s.data)
}
