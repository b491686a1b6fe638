// SPDX-License-Identifier: MIT
/*
Package audio connects the engine to the sound hardware.

The engine only sees the Backend and Stream interfaces; PortAudio is the
production implementation. Callbacks receive mono float32 frames in
pre-allocated buffers and must not allocate or block.
*/
package audio

import "time"

// InputCallback receives one buffer of mono input.
type InputCallback func(in []float32)

// OutputCallback fills one buffer of mono output.
type OutputCallback func(out []float32)

// StreamConfig describes a stream to open.
type StreamConfig struct {
	Device          int // device index, -1 for the system default
	Channels        int // device channels; callbacks always see mono
	SampleRate      float64
	FramesPerBuffer int
	LowLatency      bool
}

// Stream is an open audio stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Device describes an audio device.
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   time.Duration
	HighInputLatency  time.Duration
	DefaultInput      bool
	DefaultOutput     bool
}

// Kind returns "Input", "Output" or "Input/Output".
func (d Device) Kind() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	default:
		return "None"
	}
}

// Backend opens streams on some audio system.
type Backend interface {
	// Init acquires the audio system. Every successful Init is paired with
	// a Terminate.
	Init() error
	Terminate() error
	OpenInput(cfg StreamConfig, cb InputCallback) (Stream, error)
	OpenOutput(cfg StreamConfig, cb OutputCallback) (Stream, error)
	Devices() ([]Device, error)
}
