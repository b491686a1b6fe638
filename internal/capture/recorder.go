// SPDX-License-Identifier: MIT
package capture

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder accumulates raw input for one capture session.
type Recorder interface {
	// Write appends mono samples. It is called from the input callback.
	Write(samples []float32) error
	// Close finalizes the recording. Writes after Close are dropped.
	Close() error
	// Path is where the finalized recording lives.
	Path() string
	// Duration is the amount of audio written so far.
	Duration() time.Duration
}

// RecorderFactory opens a recorder for a new session.
type RecorderFactory func(sessionID string) (Recorder, error)

// WAVRecorder encodes input chunks into a WAV file as they arrive.
type WAVRecorder struct {
	mu         sync.Mutex
	path       string
	file       *os.File
	encoder    *wav.Encoder
	sampleBuf  *audio.IntBuffer // Reusable buffer for format conversion
	scale      float64
	sampleRate int
	frames     int
	closed     bool
}

var _ Recorder = (*WAVRecorder)(nil)

// NewWAVRecorder creates dir/<name>.wav and prepares a mono encoder.
// maxChunk sizes the conversion buffer so Write does not allocate for
// chunks up to that length.
func NewWAVRecorder(dir, name string, sampleRate, bitDepth, maxChunk int) (*WAVRecorder, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	path := filepath.Join(dir, name+".wav")
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}

	return &WAVRecorder{
		path:    path,
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, bitDepth, 1, 1),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: 1,
				SampleRate:  sampleRate,
			},
			Data:           make([]int, maxChunk),
			SourceBitDepth: bitDepth,
		},
		scale:      math.Exp2(float64(bitDepth-1)) - 1,
		sampleRate: sampleRate,
	}, nil
}

// WAVRecorderFactory returns a factory writing sessions into dir.
func WAVRecorderFactory(dir string, sampleRate, bitDepth, maxChunk int) RecorderFactory {
	return func(sessionID string) (Recorder, error) {
		return NewWAVRecorder(dir, "capture-"+sessionID, sampleRate, bitDepth, maxChunk)
	}
}

// Write converts samples to PCM and encodes them.
func (r *WAVRecorder) Write(samples []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	if len(samples) > cap(r.sampleBuf.Data) {
		r.sampleBuf.Data = make([]int, len(samples))
	}
	data := r.sampleBuf.Data[:len(samples)]
	for i, s := range samples {
		v := float64(s)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = int(math.Round(v * r.scale))
	}
	r.sampleBuf.Data = data

	if err := r.encoder.Write(r.sampleBuf); err != nil {
		return fmt.Errorf("encode capture chunk: %w", err)
	}
	r.frames += len(samples)
	return nil
}

// Close finalizes the WAV header and closes the file.
func (r *WAVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.encoder.Close(); err != nil {
		r.file.Close()
		return fmt.Errorf("finalize capture: %w", err)
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("close capture file: %w", err)
	}
	return nil
}

// Path returns the WAV file path.
func (r *WAVRecorder) Path() string { return r.path }

// Duration returns the audio written so far.
func (r *WAVRecorder) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Duration(float64(r.frames) / float64(r.sampleRate) * float64(time.Second))
}
