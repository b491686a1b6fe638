// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"codeclab/internal/audio"
	"codeclab/internal/bus"
	"codeclab/internal/errs"
	"codeclab/internal/variant"
	"codeclab/internal/visual"

	"github.com/ThreeDotsLabs/watermill"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommander struct {
	mu       sync.Mutex
	calls    []string
	selected []variant.ID
	err      error
}

func (f *fakeCommander) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeCommander) Initialize(context.Context) error   { return f.record("initialize") }
func (f *fakeCommander) Shutdown(context.Context) error     { return f.record("shutdown") }
func (f *fakeCommander) StartCapture(context.Context) error { return f.record("start") }
func (f *fakeCommander) StopCapture(context.Context) error  { return f.record("stop") }
func (f *fakeCommander) Reset(context.Context) error        { return f.record("reset") }
func (f *fakeCommander) Play(context.Context) error         { return f.record("play") }

func (f *fakeCommander) SelectVariant(_ context.Context, id variant.ID) error {
	f.mu.Lock()
	f.selected = append(f.selected, id)
	f.mu.Unlock()
	return f.record("select")
}

type fakeLister struct{ devices []audio.Device }

func (l fakeLister) Devices() ([]audio.Device, error) { return l.devices, nil }

func newTestModel(cmd Commander) Model {
	m := NewModel(Options{
		Commander: cmd,
		Catalog:   variant.Default(),
		Devices: fakeLister{devices: []audio.Device{
			{ID: 0, Name: "Built-in Microphone", MaxInputChannels: 1, DefaultInput: true},
			{ID: 1, Name: "Speakers", MaxOutputChannels: 2, DefaultOutput: true},
		}},
		InputDevice:  -1,
		OutputDevice: -1,
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and executes the resulting command.
func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Msg) {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(Model)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestKeysIssueCommands(t *testing.T) {
	cmd := &fakeCommander{}
	m := newTestModel(cmd)

	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{runes("i"), "initialize"},
		{runes("r"), "start"},
		{tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, "stop"},
		{runes("p"), "play"},
		{runes("x"), "reset"},
		{runes("s"), "shutdown"},
		{runes("3"), "select"},
	}
	for _, tt := range tests {
		var msg tea.Msg
		m, msg = press(t, m, tt.key)
		require.IsType(t, resultMsg{}, msg, "key %q", tt.key.String())
		cmd.mu.Lock()
		last := cmd.calls[len(cmd.calls)-1]
		cmd.mu.Unlock()
		assert.Equal(t, tt.want, last, "key %q", tt.key.String())
	}
	assert.Equal(t, []variant.ID{variant.CELP}, cmd.selected)

	// No fourth variant.
	_, msg := press(t, m, runes("4"))
	assert.Nil(t, msg)
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(&fakeCommander{})
	_, msg := press(t, m, runes("q"))
	assert.IsType(t, tea.QuitMsg{}, msg)
}

func TestCommandErrorShowsMessage(t *testing.T) {
	cmd := &fakeCommander{err: errs.ErrInvalidState}
	m := newTestModel(cmd)

	m, msg := press(t, m, runes("p"))
	updated, _ := m.Update(msg)
	m = updated.(Model)
	assert.Contains(t, m.View(), errs.Message(errs.ErrInvalidState))

	cmd.err = nil
	m, msg = press(t, m, runes("i"))
	updated, _ = m.Update(msg)
	m = updated.(Model)
	assert.NotContains(t, m.View(), errs.Message(errs.ErrInvalidState))
}

func TestBusEventsUpdateView(t *testing.T) {
	m := newTestModel(&fakeCommander{})
	assert.Contains(t, m.View(), "STOPPED")

	celp, err := variant.Default().Lookup(variant.CELP)
	require.NoError(t, err)
	updated, _ := m.Update(variantMsg(bus.NewVariantEvent(celp)))
	m = updated.(Model)
	updated, _ = m.Update(statusMsg{Variant: "celp", Phase: bus.PhaseRecording, Text: "CELP_RECORDING", Remaining: 3.2})
	m = updated.(Model)
	updated, _ = m.Update(traceMsg{Bands: map[string]float64{"mid": 1, "bass": 0.5}})
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "CELP_RECORDING")
	assert.Contains(t, view, "3.2s")
	assert.Contains(t, view, "CELP (Code-Excited Linear Prediction)")
	assert.Contains(t, view, "GSM/VoIP")
	assert.Contains(t, view, "mid")
}

func TestDevicePanel(t *testing.T) {
	m := newTestModel(&fakeCommander{})

	m, msg := press(t, m, runes("d"))
	require.IsType(t, devicesMsg{}, msg)
	updated, _ := m.Update(msg)
	m = updated.(Model)
	view := m.View()
	assert.Contains(t, view, "Built-in Microphone")
	assert.Contains(t, view, "◀ input")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.View(), "Select it with --device 1")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m, _ = press(t, m, runes("d"))
	assert.NotContains(t, m.View(), "Built-in Microphone")
}

func TestRenderBandsOrder(t *testing.T) {
	out := renderBands(map[string]float64{"treble": 0.1, "sub": 1, "mid": 0.5}, 10, "")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "sub"))
	assert.True(t, strings.HasPrefix(lines[1], "mid"))
	assert.True(t, strings.HasPrefix(lines[2], "treble"))
}

func TestScopeDrawsTrace(t *testing.T) {
	s := NewScope(16, 8)
	w, h := s.Size()
	s.Resize(w, h)
	assert.False(t, s.Rendered())

	samples := []byte{128, 255, 0, 128}
	s.Render(visual.Trace{Points: visual.Polyline(samples, w, h, nil), Color: "#3b82f6", Width: w, Height: h})
	require.True(t, s.Rendered())

	lines, color := s.Lines()
	assert.Equal(t, "#3b82f6", color)
	require.Len(t, lines, 8)
	joined := strings.Join(lines, "")
	assert.Contains(t, joined, string(dotRune))
	assert.Contains(t, joined, string(lineRune))
	for _, l := range lines {
		assert.Equal(t, 16, len([]rune(l)))
	}

	s.Clear()
	lines, _ = s.Lines()
	assert.Equal(t, strings.Repeat(" ", 16), lines[0])
}

func TestScopeAsSamplerTarget(t *testing.T) {
	s := NewScope(32, 6)
	sampler := visual.NewSampler(visual.Options{
		Source:    silentSource{},
		Surface:   s,
		Renderer:  s,
		BlockSize: 64,
	})
	sampler.Frame()
	lines, _ := s.Lines()
	require.Len(t, lines, 6)
	assert.Contains(t, lines[3], string(dotRune), "silence is drawn on the centre row")

	s.SetSize(40, 10)
	sampler.Frame()
	lines, _ = s.Lines()
	assert.Len(t, lines, 10)
}

type silentSource struct{}

func (silentSource) ByteTimeDomain(dst []byte) {
	for i := range dst {
		dst[i] = 128
	}
}

func TestListenDecodesBusEvents(t *testing.T) {
	b := bus.New(watermill.NopLogger{})
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := Listen(ctx, b)
	require.NoError(t, err)

	require.NoError(t, b.PublishStatus(bus.StatusEvent{Text: "LPC_RUNNING", Phase: bus.PhaseRunning}))
	select {
	case msg := <-events:
		require.IsType(t, statusMsg{}, msg)
		assert.Equal(t, "LPC_RUNNING", msg.(statusMsg).Text)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}

	require.NoError(t, b.Close())
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(time.Second):
		t.Fatal("events not closed")
	}

	msg := waitForEvent(events)()
	assert.IsType(t, eventsClosedMsg{}, msg)
}
