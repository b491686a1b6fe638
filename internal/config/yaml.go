// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"codeclab/pkg/bitint"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`                                                    // Enable debug mode (forces debug logging).
	LogLevel  string          `yaml:"log_level" validate:"oneof=debug info warn warning error"` // Logging level.
	LogFile   string          `yaml:"log_file,omitempty"`                                       // Rotated JSON log file, empty for console only.
	Audio     AudioConfig     `yaml:"audio"`                                                    // Audio device settings.
	Capture   CaptureConfig   `yaml:"capture"`                                                  // Bounded capture settings.
	Visual    VisualConfig    `yaml:"visual"`                                                   // Tap analyser and scope settings.
	Tone      ToneConfig      `yaml:"tone"`                                                     // Variant confirmation tone.
	Transport TransportConfig `yaml:"transport"`                                                // Presentation feed settings.
	Variants  []VariantConfig `yaml:"variants,omitempty" validate:"omitempty,dive"`             // Optional replacement variant catalog.
}

// AudioConfig holds settings related to audio input/output.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device" validate:"gte=-1"`               // PortAudio device index for input (-1 for default).
	OutputDevice    int     `yaml:"output_device" validate:"gte=-1"`              // PortAudio device index for the sink (-1 for default).
	SampleRate      float64 `yaml:"sample_rate" validate:"gte=8000,lte=192000"`   // Sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer" validate:"gte=16,lte=8192"` // Frames per callback buffer.
	LowLatency      bool    `yaml:"low_latency"`                                  // Request low latency device settings.
	InputChannels   int     `yaml:"input_channels" validate:"gte=1,lte=2"`        // Channels captured from the input device.
}

// CaptureConfig holds settings for the bounded capture lifecycle.
type CaptureConfig struct {
	Ceiling   time.Duration `yaml:"ceiling"`                          // Recording auto-stops once this much audio was captured.
	Tick      time.Duration `yaml:"tick"`                             // Countdown resolution.
	Dir       string        `yaml:"dir,omitempty"`                    // Directory for capture files (system temp dir when empty).
	KeepFiles bool          `yaml:"keep_files"`                       // Keep capture files after reset.
	BitDepth  int           `yaml:"bit_depth" validate:"oneof=16 24"` // WAV bit depth of capture files.
}

// VisualConfig holds settings for the Tap analyser and the scope.
type VisualConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`                       // Display refresh period.
	FFTSize       int           `yaml:"fft_size" validate:"gte=32,lte=32768"` // Analyser block size (power of 2).
	FFTWindow     string        `yaml:"fft_window"`                           // Window function name.
	Smoothing     float64       `yaml:"smoothing" validate:"gte=0,lt=1"`      // Spectrum smoothing time constant.
}

// ToneConfig holds settings for the confirmation tone played on selection.
type ToneConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Frequency float64       `yaml:"frequency" validate:"gt=0,lte=20000"`
	Duration  time.Duration `yaml:"duration"`
	Gain      float64       `yaml:"gain" validate:"gte=0,lte=1"`
}

// TransportConfig holds settings for the websocket presentation feed.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`                                    // Serve presentation events over websocket.
	WebSocketAddress string        `yaml:"websocket_address" validate:"omitempty,hostname_port"` // Listen address, e.g. "127.0.0.1:8080".
	FeedInterval     time.Duration `yaml:"feed_interval"`                                        // Minimum interval between trace frames.
}

// VariantConfig describes one processing variant in a custom catalog.
type VariantConfig struct {
	ID          string  `yaml:"id" validate:"required,alphanum,lowercase"`
	Filter      string  `yaml:"filter" validate:"required,oneof=lowpass highpass bandpass"`
	Frequency   float64 `yaml:"frequency" validate:"gt=0"`
	Q           float64 `yaml:"q"` // resonance in dB for lowpass/highpass, linear Q for bandpass
	Color       string  `yaml:"color" validate:"required,hexcolor"`
	Bitrate     string  `yaml:"bitrate"`
	Quality     string  `yaml:"quality"`
	Latency     string  `yaml:"latency"`
	Complexity  string  `yaml:"complexity"`
	Title       string  `yaml:"title" validate:"required"`
	Description string  `yaml:"description"`
	Tag         string  `yaml:"tag"`
}

// configCandidates are the default locations searched when no path is given.
var configCandidates = []string{
	"codeclab.yaml",
	"config.yaml",
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations. If no file is found, it uses built-in defaults.
// After loading, it applies .env and environment variable overrides and validates
// the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range configCandidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// A missing .env is the normal case.
	_ = godotenv.Load()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate checks field ranges and the invariants between fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	var errs []error
	if c.Capture.Ceiling <= 0 || c.Capture.Ceiling > MaxCaptureTime {
		errs = append(errs, fmt.Errorf("capture.ceiling must be in (0, %s], got %s", MaxCaptureTime, c.Capture.Ceiling))
	}
	if c.Capture.Tick <= 0 || c.Capture.Tick > c.Capture.Ceiling {
		errs = append(errs, fmt.Errorf("capture.tick must be in (0, capture.ceiling], got %s", c.Capture.Tick))
	}
	if c.Visual.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("visual.frame_interval must be positive, got %s", c.Visual.FrameInterval))
	}
	if !bitint.IsPowerOfTwo(c.Visual.FFTSize) {
		errs = append(errs, fmt.Errorf("visual.fft_size must be a power of 2, got %d", c.Visual.FFTSize))
	}
	if c.Tone.Enabled && c.Tone.Duration <= 0 {
		errs = append(errs, fmt.Errorf("tone.duration must be positive, got %s", c.Tone.Duration))
	}
	if c.Transport.WebSocketEnabled {
		if c.Transport.WebSocketAddress == "" {
			errs = append(errs, errors.New("transport.websocket_address must be set when the websocket feed is enabled"))
		}
		if c.Transport.FeedInterval <= 0 {
			errs = append(errs, fmt.Errorf("transport.feed_interval must be positive, got %s", c.Transport.FeedInterval))
		}
	}

	seen := make(map[string]bool, len(c.Variants))
	for _, v := range c.Variants {
		if seen[v.ID] {
			errs = append(errs, fmt.Errorf("variants: duplicate id %q", v.ID))
		}
		seen[v.ID] = true
	}

	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	// ENV_LOG_FILE
	if val, ok := os.LookupEnv("ENV_LOG_FILE"); ok {
		cfg.LogFile = val
	}

	// ENV_INPUT_DEVICE
	if val, ok := os.LookupEnv("ENV_INPUT_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Audio.InputDevice = iVal
		}
	}
	// ENV_OUTPUT_DEVICE
	if val, ok := os.LookupEnv("ENV_OUTPUT_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Audio.OutputDevice = iVal
		}
	}

	// ENV_CAPTURE_{...}
	// These are specific to the capture lifecycle.

	// ENV_CAPTURE_CEILING
	if val, ok := os.LookupEnv("ENV_CAPTURE_CEILING"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Capture.Ceiling = dur
		}
	}
	// ENV_CAPTURE_DIR
	if val, ok := os.LookupEnv("ENV_CAPTURE_DIR"); ok {
		cfg.Capture.Dir = val
	}

	// ENV_WS_{...}
	// These are specific to the presentation feed.

	// ENV_WS_ENABLED
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebSocketEnabled = bVal
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		cfg.Transport.WebSocketAddress = val
	}
}
