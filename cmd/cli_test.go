// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeclab/internal/config"
	"codeclab/internal/variant"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lab.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestParseArgsDefaultsToTUI(t *testing.T) {
	opts, err := ParseArgs(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.TUIMode || opts.Headless {
		t.Errorf("expected TUI mode, got %+v", opts)
	}
	if opts.Command != "" {
		t.Errorf("expected no command, got %q", opts.Command)
	}
	if opts.Config.Audio.InputDevice != config.DefaultDeviceID {
		t.Errorf("expected default device, got %d", opts.Config.Audio.InputDevice)
	}
}

func TestParseArgsHeadless(t *testing.T) {
	opts, err := ParseArgs([]string{"--headless"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.TUIMode || !opts.Headless {
		t.Errorf("expected headless mode, got %+v", opts)
	}
}

func TestParseArgsCommands(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"list"}, CommandList},
		{[]string{"variants"}, CommandVariants},
		{[]string{"list", "--device", "2"}, CommandList},
	}
	for _, tt := range tests {
		opts, err := ParseArgs(tt.args)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", tt.args, err)
		}
		if opts.Command != tt.want {
			t.Errorf("%v: expected command %q, got %q", tt.args, tt.want, opts.Command)
		}
		if opts.TUIMode {
			t.Errorf("%v: one-off commands must not start the UI", tt.args)
		}
	}
}

func TestParseArgsFlagOverrides(t *testing.T) {
	opts, err := ParseArgs([]string{
		"-d", "2", "--output-device", "4", "--keep", "--capture-dir", "/tmp/caps",
		"--ws", "--ws-addr", "127.0.0.1:9999", "--log-level", "warn",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := opts.Config
	if cfg.Audio.InputDevice != 2 || cfg.Audio.OutputDevice != 4 {
		t.Errorf("expected devices 2/4, got %d/%d", cfg.Audio.InputDevice, cfg.Audio.OutputDevice)
	}
	if !cfg.Capture.KeepFiles || cfg.Capture.Dir != "/tmp/caps" {
		t.Errorf("capture flags not applied: %+v", cfg.Capture)
	}
	if !cfg.Transport.WebSocketEnabled || cfg.Transport.WebSocketAddress != "127.0.0.1:9999" {
		t.Errorf("websocket flags not applied: %+v", cfg.Transport)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected log level warn, got %q", cfg.LogLevel)
	}
}

func TestParseArgsUnsetFlagsKeepFileValues(t *testing.T) {
	path := writeConfig(t, `
audio:
  input_device: 3
transport:
  websocket_enabled: true
  websocket_address: 127.0.0.1:7000
`)
	opts, err := ParseArgs([]string{"--config", path, "--output-device", "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := opts.Config
	if cfg.Audio.InputDevice != 3 {
		t.Errorf("expected file input device 3, got %d", cfg.Audio.InputDevice)
	}
	if cfg.Audio.OutputDevice != 1 {
		t.Errorf("expected flag output device 1, got %d", cfg.Audio.OutputDevice)
	}
	if !cfg.Transport.WebSocketEnabled || cfg.Transport.WebSocketAddress != "127.0.0.1:7000" {
		t.Errorf("file transport values overridden: %+v", cfg.Transport)
	}
}

func TestParseArgsVerboseForcesDebug(t *testing.T) {
	opts, err := ParseArgs([]string{"-v"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !opts.Config.Debug {
		t.Error("expected debug mode")
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := [][]string{
		{"--no-such-flag"},
		{"--device", "-5"},
		{"--log-level", "loud"},
		{"--config", "missing.yaml"},
	}
	for _, args := range tests {
		if _, err := ParseArgs(args); err == nil {
			t.Errorf("%v: expected error, got nil", args)
		}
	}
}

func TestParseArgsVersion(t *testing.T) {
	opts, err := ParseArgs([]string{"--version"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts != nil {
		t.Errorf("expected no options for --version, got %+v", opts)
	}
}

func TestWriteVariants(t *testing.T) {
	var buf bytes.Buffer
	WriteVariants(&buf, variant.Default())
	out := buf.String()
	for _, v := range variant.Default().All() {
		if !strings.Contains(out, v.ID.Label()) {
			t.Errorf("listing misses %s", v.ID.Label())
		}
	}
	if !strings.Contains(out, "Filter:") {
		t.Error("listing misses filter details")
	}
}
