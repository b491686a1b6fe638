// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the lab engine.
const (
	// Audio device defaults
	DefaultDeviceID        = MinDeviceID // System default device
	DefaultChannels        = 1           // Mono capture
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultSampleRate      = 44100       // CD-quality audio

	// Capture defaults
	DefaultCaptureCeiling  = 5 * time.Second        // Recording auto-stops here
	DefaultCaptureTick     = 100 * time.Millisecond // Countdown resolution
	DefaultCaptureBitDepth = 16                     // WAV bit depth of capture files
	DefaultKeepCaptures    = false                  // Capture files are deleted on reset

	// Visualization defaults
	DefaultFrameInterval = 16 * time.Millisecond // ~60 frames per second
	DefaultFFTSize       = 2048                  // Analyser block size
	DefaultFFTWindow     = "Blackman"            // Analyser window
	DefaultSmoothing     = 0.8                   // Spectrum time smoothing

	// Confirmation tone defaults
	DefaultToneEnabled   = true
	DefaultToneFrequency = 400.0 // Hz
	DefaultToneDuration  = 100 * time.Millisecond
	DefaultToneGain      = 0.1

	// Presentation feed defaults
	DefaultWebSocketAddress = "127.0.0.1:8080"
	DefaultFeedInterval     = 33 * time.Millisecond // ~30 trace frames per second

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
	MaxCaptureTime  = time.Minute
)

// Default returns the built-in configuration used when no file is found.
func Default() Config {
	return Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			OutputDevice:    DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultChannels,
		},
		Capture: CaptureConfig{
			Ceiling:   DefaultCaptureCeiling,
			Tick:      DefaultCaptureTick,
			Dir:       "",
			KeepFiles: DefaultKeepCaptures,
			BitDepth:  DefaultCaptureBitDepth,
		},
		Visual: VisualConfig{
			FrameInterval: DefaultFrameInterval,
			FFTSize:       DefaultFFTSize,
			FFTWindow:     DefaultFFTWindow,
			Smoothing:     DefaultSmoothing,
		},
		Tone: ToneConfig{
			Enabled:   DefaultToneEnabled,
			Frequency: DefaultToneFrequency,
			Duration:  DefaultToneDuration,
			Gain:      DefaultToneGain,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddress: DefaultWebSocketAddress,
			FeedInterval:     DefaultFeedInterval,
		},
	}
}
