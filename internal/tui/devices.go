// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"

	"codeclab/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// DeviceLister enumerates audio devices. audio.Backend satisfies it.
type DeviceLister interface {
	Devices() ([]audio.Device, error)
}

type devicesMsg struct {
	devices []audio.Device
}

type deviceErrMsg struct {
	err error
}

// fetchDevices gets the available audio devices.
func fetchDevices(lister DeviceLister) tea.Cmd {
	return func() tea.Msg {
		devices, err := lister.Devices()
		if err != nil {
			return deviceErrMsg{err}
		}
		return devicesMsg{devices}
	}
}

// devicePanel lists the host devices and shows details of one.
type devicePanel struct {
	devices       []audio.Device
	selectedIndex int
	detail        bool
	inputDevice   int
	outputDevice  int
	err           error

	up, down, enter, back key.Binding
}

func newDevicePanel(inputDevice, outputDevice int) devicePanel {
	return devicePanel{
		inputDevice:  inputDevice,
		outputDevice: outputDevice,
		up:           key.NewBinding(key.WithKeys("up", "k")),
		down:         key.NewBinding(key.WithKeys("down", "j")),
		enter:        key.NewBinding(key.WithKeys("enter")),
		back:         key.NewBinding(key.WithKeys("esc")),
	}
}

func (p devicePanel) update(msg tea.Msg) devicePanel {
	switch msg := msg.(type) {
	case devicesMsg:
		p.devices = msg.devices
		p.err = nil
		p.selectedIndex = min(p.selectedIndex, max(len(p.devices)-1, 0))
	case deviceErrMsg:
		p.err = msg.err
	case tea.KeyMsg:
		switch {
		case p.detail && key.Matches(msg, p.back):
			p.detail = false
		case !p.detail && key.Matches(msg, p.up):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case !p.detail && key.Matches(msg, p.down):
			if p.selectedIndex < len(p.devices)-1 {
				p.selectedIndex++
			}
		case !p.detail && key.Matches(msg, p.enter):
			p.detail = len(p.devices) > 0
		}
	}
	return p
}

func (p devicePanel) view() string {
	if p.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", p.err))
	}
	if p.detail {
		return p.renderDevice()
	}
	return p.renderDevices()
}

// renderDevices formats the device list.
func (p devicePanel) renderDevices() string {
	if len(p.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, device := range p.devices {
		marker := ""
		switch {
		case device.ID == p.inputDevice || (p.inputDevice < 0 && device.DefaultInput):
			marker = " ◀ input"
		case device.ID == p.outputDevice || (p.outputDevice < 0 && device.DefaultOutput):
			marker = " ◀ output"
		}

		info := fmt.Sprintf("[%d] %s (%s)%s\n", device.ID, device.Name, device.Kind(), marker)
		info += fmt.Sprintf("    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)

		if i == p.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
	}
	sb.WriteString(dimStyle.Render("↑/↓: Navigate • Enter: Details • d: Back to lesson"))
	return sb.String()
}

// renderDevice formats the detail screen of the selected device.
func (p devicePanel) renderDevice() string {
	device := p.devices[p.selectedIndex]

	var sb strings.Builder
	sb.WriteString(highlightStyle.Render(device.Name))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Host API:            %s\n", device.HostAPI)
	fmt.Fprintf(&sb, "Kind:                %s\n", device.Kind())
	fmt.Fprintf(&sb, "Default sample rate: %.0f Hz\n", device.DefaultSampleRate)
	fmt.Fprintf(&sb, "Input latency:       %s - %s\n", device.LowInputLatency, device.HighInputLatency)
	fmt.Fprintf(&sb, "\nSelect it with --device %d\n", device.ID)
	sb.WriteString(dimStyle.Render("Esc: Back"))
	return sb.String()
}
