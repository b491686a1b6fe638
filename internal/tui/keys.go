// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Variant  key.Binding
	Init     key.Binding
	Shutdown key.Binding
	Record   key.Binding
	Stop     key.Binding
	Play     key.Binding
	Reset    key.Binding
	Devices  key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Variant:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "codec")),
		Init:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "start lab")),
		Shutdown: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop lab")),
		Record:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record")),
		Stop:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "stop recording")),
		Play:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "play")),
		Reset:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset")),
		Devices:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "devices")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Variant, k.Init, k.Record, k.Stop, k.Play, k.Reset, k.Shutdown, k.Devices, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
