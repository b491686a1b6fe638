// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"
)

func setupPortAudio(t *testing.T) {
	t.Helper()
	if err := Initialize(); err != nil {
		t.Skipf("PortAudio unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := Terminate(); err != nil {
			t.Fatalf("Failed to terminate PortAudio: %v", err)
		}
	})
}

func TestHostDevices(t *testing.T) {
	setupPortAudio(t)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices error: %v", err)
	}
	if len(devices) == 0 {
		t.Skip("No audio devices found on system")
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("Device ID mismatch: got %d, want %d", d.ID, i)
		}
		if d.Name == "" {
			t.Errorf("Device %d has empty name", i)
		}
		if d.DefaultSampleRate <= 0 {
			t.Errorf("Device %d has invalid sample rate: %f", i, d.DefaultSampleRate)
		}
	}
}

func TestHostDevices_paDevicesError(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("mock error")
	}

	_, err := HostDevices()
	if err == nil || !strings.Contains(err.Error(), "mock error") {
		t.Errorf("expected mock error, got %v", err)
	}
}

func TestInputDevice(t *testing.T) {
	orig := paDevicesFunc
	defer func() { paDevicesFunc = orig }()
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return []*portaudio.DeviceInfo{
			{Name: "mic", MaxInputChannels: 1},
			{Name: "speakers", MaxOutputChannels: 2},
		}, nil
	}

	dev, err := InputDevice(0)
	if err != nil || dev.Name != "mic" {
		t.Fatalf("InputDevice(0) = %v, %v", dev, err)
	}

	tests := []struct {
		name   string
		id     int
		substr string
	}{
		{"Negative ID", -2, "invalid device ID"},
		{"Too high ID", 12, "invalid device ID"},
		{"Non-input device", 1, "does not support input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InputDevice(tt.id)
			if err == nil {
				t.Errorf("Expected error for ID %d", tt.id)
			} else if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Error = %q, want substring %q", err.Error(), tt.substr)
			}
		})
	}

	if _, err := OutputDevice(0); err == nil || !strings.Contains(err.Error(), "does not support output") {
		t.Errorf("OutputDevice(0) error = %v, want non-output error", err)
	}
	if dev, err := OutputDevice(1); err != nil || dev.Name != "speakers" {
		t.Errorf("OutputDevice(1) = %v, %v", dev, err)
	}
}

func TestDeviceKind(t *testing.T) {
	tests := []struct {
		d    Device
		want string
	}{
		{Device{MaxInputChannels: 2, MaxOutputChannels: 2}, "Input/Output"},
		{Device{MaxInputChannels: 1}, "Input"},
		{Device{MaxOutputChannels: 2}, "Output"},
		{Device{}, "None"},
	}
	for _, tt := range tests {
		if got := tt.d.Kind(); got != tt.want {
			t.Errorf("Kind() = %q, want %q", got, tt.want)
		}
	}
}

func TestWriteDevices(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	WriteDevices(&buf, []Device{
		{ID: 0, Name: "Built-in Mic", HostAPI: "Core Audio", MaxInputChannels: 1, DefaultSampleRate: 44100, DefaultInput: true},
	})
	out := buf.String()
	for _, want := range []string{"Available Audio Devices", "[0] Built-in Mic (Input)", "default input", "Host API: Core Audio", "44100 Hz"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestDownmix(t *testing.T) {
	dst := make([]float32, 4)
	n := Downmix(dst, []float32{1, 0, 0.5, 0.5, -1, 1}, 2)
	if n != 3 {
		t.Fatalf("Downmix frames = %d, want 3", n)
	}
	want := []float32{0.5, 0.5, 0}
	for i, w := range want {
		if dst[i] != w {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], w)
		}
	}

	if n := Downmix(dst, []float32{0.25, 0.5}, 1); n != 2 || dst[1] != 0.5 {
		t.Errorf("mono Downmix = %d, %v", n, dst)
	}
}

func TestUpmix(t *testing.T) {
	dst := make([]float32, 6)
	Upmix(dst, []float32{0.1, 0.2}, 2)
	want := []float32{0.1, 0.1, 0.2, 0.2, 0, 0}
	for i, w := range want {
		if dst[i] != w {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], w)
		}
	}
}

func TestDownmixZeroAllocs(t *testing.T) {
	src := make([]float32, 1024)
	dst := make([]float32, 512)
	allocs := testing.AllocsPerRun(100, func() {
		Downmix(dst, src, 2)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Downmix, got %.1f", allocs)
	}
}
