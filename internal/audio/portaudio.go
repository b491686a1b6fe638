// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"runtime"

	applog "codeclab/internal/log"

	"github.com/gordonklaus/portaudio"
)

// PortAudio is the hardware Backend.
type PortAudio struct{}

var _ Backend = PortAudio{}

// Init implements Backend.
func (PortAudio) Init() error { return Initialize() }

// Terminate implements Backend.
func (PortAudio) Terminate() error { return Terminate() }

// Devices implements Backend.
func (PortAudio) Devices() ([]Device, error) { return HostDevices() }

// paStream adapts a portaudio stream, mixing to and from mono.
type paStream struct {
	stream   *portaudio.Stream
	channels int
	mono     []float32 // pre-allocated mono frames
}

// OpenInput opens a capture stream on cfg.Device.
func (PortAudio) OpenInput(cfg StreamConfig, cb InputCallback) (Stream, error) {
	device, err := InputDevice(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("input device: %w", err)
	}
	channels := min(max(cfg.Channels, 1), device.MaxInputChannels)
	if channels <= 0 {
		return nil, fmt.Errorf("device %s has no input channels", device.Name)
	}

	latency := device.DefaultHighInputLatency
	if cfg.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	s := &paStream{channels: channels, mono: make([]float32, cfg.FramesPerBuffer)}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  latency,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		s.processInput(in, cb)
	})
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	s.stream = stream
	applog.Infof("Audio: Input stream on %q (%d ch, %.0f Hz, %d frames, latency %s)",
		device.Name, channels, cfg.SampleRate, cfg.FramesPerBuffer, latency)
	return s, nil
}

// OpenOutput opens a playback stream on cfg.Device.
func (PortAudio) OpenOutput(cfg StreamConfig, cb OutputCallback) (Stream, error) {
	device, err := OutputDevice(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("output device: %w", err)
	}
	channels := min(2, device.MaxOutputChannels)
	if channels <= 0 {
		return nil, fmt.Errorf("device %s has no output channels", device.Name)
	}

	latency := device.DefaultHighOutputLatency
	if cfg.LowLatency {
		latency = device.DefaultLowOutputLatency
	}

	s := &paStream{channels: channels, mono: make([]float32, cfg.FramesPerBuffer)}
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  latency,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, func(out []float32) {
		s.processOutput(out, cb)
	})
	if err != nil {
		return nil, fmt.Errorf("open output stream: %w", err)
	}
	s.stream = stream
	applog.Infof("Audio: Output stream on %q (%d ch, %.0f Hz, latency %s)",
		device.Name, channels, cfg.SampleRate, latency)
	return s, nil
}

// processInput downmixes interleaved input and hands it to cb.
// Performance Critical:
// - Runs on the PortAudio callback thread
// - Uses pre-allocated buffers only
func (s *paStream) processInput(in []float32, cb InputCallback) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	frames := Downmix(s.mono, in, s.channels)
	cb(s.mono[:frames])
}

// processOutput renders mono through cb and spreads it over every channel.
func (s *paStream) processOutput(out []float32, cb OutputCallback) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	frames := min(len(out)/s.channels, len(s.mono))
	mono := s.mono[:frames]
	cb(mono)
	Upmix(out, mono, s.channels)
}

func (s *paStream) Start() error { return s.stream.Start() }
func (s *paStream) Stop() error  { return s.stream.Stop() }
func (s *paStream) Close() error { return s.stream.Close() }

// Downmix averages interleaved frames of src into dst and returns the
// number of frames written.
func Downmix(dst, src []float32, channels int) int {
	if channels <= 1 {
		return copy(dst, src)
	}
	frames := min(len(src)/channels, len(dst))
	scale := 1 / float32(channels)
	for i := range frames {
		var sum float32
		for c := range channels {
			sum += src[i*channels+c]
		}
		dst[i] = sum * scale
	}
	return frames
}

// Upmix copies each mono sample to every channel of dst, zero-filling
// frames src does not cover.
func Upmix(dst, src []float32, channels int) {
	if channels <= 1 {
		n := copy(dst, src)
		clear(dst[n:])
		return
	}
	frames := len(dst) / channels
	for i := range frames {
		var v float32
		if i < len(src) {
			v = src[i]
		}
		for c := range channels {
			dst[i*channels+c] = v
		}
	}
}

// ListDevices enumerates host devices in its own PortAudio session, so it
// works whether or not a stream is open. PortAudio nests Initialize calls.
func ListDevices() ([]Device, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	defer Terminate()
	return HostDevices()
}

// DeviceLister lists devices with ListDevices.
type DeviceLister struct{}

// Devices implements the lister used by the terminal UI.
func (DeviceLister) Devices() ([]Device, error) { return ListDevices() }
