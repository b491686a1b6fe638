// SPDX-License-Identifier: MIT

// Package tui is the terminal front end of the lab: one key per engine
// command, a scope fed by the visualization sampler and a lesson panel
// fed by the presentation bus.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"codeclab/internal/bus"
	"codeclab/internal/errs"
	applog "codeclab/internal/log"
	"codeclab/internal/variant"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	commandTimeout    = 5 * time.Second
	defaultFrameEvery = 33 * time.Millisecond
)

// Commander is the engine command surface.
type Commander interface {
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	SelectVariant(ctx context.Context, id variant.ID) error
	StartCapture(ctx context.Context) error
	StopCapture(ctx context.Context) error
	Reset(ctx context.Context) error
	Play(ctx context.Context) error
}

// Options configures a Model.
type Options struct {
	Commander     Commander
	Catalog       *variant.Catalog
	Devices       DeviceLister
	Scope         *Scope
	Events        <-chan tea.Msg
	InputDevice   int
	OutputDevice  int
	FrameInterval time.Duration // scope redraw period
}

type resultMsg struct {
	action string
	err    error
}

type frameMsg time.Time

// Model is the lab UI.
type Model struct {
	cmd     Commander
	catalog *variant.Catalog
	lister  DeviceLister
	scope   *Scope
	events  <-chan tea.Msg
	every   time.Duration

	keys     keyMap
	help     help.Model
	viewport viewport.Model
	devices  devicePanel

	ready       bool
	showDevices bool
	width       int
	height      int

	status  bus.StatusEvent
	variant bus.VariantEvent
	bands   map[string]float64
	err     string
}

// NewModel creates the lab model.
func NewModel(opts Options) Model {
	every := opts.FrameInterval
	if every <= 0 {
		every = defaultFrameEvery
	}
	scope := opts.Scope
	if scope == nil {
		scope = NewScope(64, 12)
	}
	m := Model{
		cmd:     opts.Commander,
		catalog: opts.Catalog,
		lister:  opts.Devices,
		scope:   scope,
		events:  opts.Events,
		every:   every,
		keys:    defaultKeyMap(),
		help:    help.New(),
		devices: newDevicePanel(opts.InputDevice, opts.OutputDevice),
		status:  bus.StatusEvent{Phase: bus.PhaseStopped, Text: "STOPPED"},
	}
	if opts.Catalog != nil {
		m.variant = bus.NewVariantEvent(opts.Catalog.First())
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.events), m.tick()}
	if m.lister != nil {
		cmds = append(cmds, fetchDevices(m.lister))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
		if m.showDevices {
			m.devices = m.devices.update(msg)
			m.refreshPanel()
			return m, nil
		}

	case resultMsg:
		if msg.err != nil {
			applog.Warnf("TUI: %s: %v", msg.action, msg.err)
			m.err = errs.Message(msg.err)
		} else {
			m.err = ""
		}

	case statusMsg:
		m.status = bus.StatusEvent(msg)
		if m.status.Phase == bus.PhaseStopped || m.status.Phase == bus.PhaseDisabled {
			m.scope.Clear()
			m.bands = nil
		}
		cmds = append(cmds, waitForEvent(m.events))

	case variantMsg:
		m.variant = bus.VariantEvent(msg)
		m.refreshPanel()
		cmds = append(cmds, waitForEvent(m.events))

	case traceMsg:
		m.bands = msg.Bands
		if !m.showDevices {
			m.refreshPanel()
		}
		cmds = append(cmds, waitForEvent(m.events))

	case eventsClosedMsg:
		applog.Debugf("TUI: Event stream closed")

	case frameMsg:
		cmds = append(cmds, m.tick())

	case devicesMsg, deviceErrMsg:
		m.devices = m.devices.update(msg)
		m.refreshPanel()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey maps global keys to engine commands.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.Devices):
		m.showDevices = !m.showDevices
		m.refreshPanel()
		if m.showDevices && m.lister != nil {
			return fetchDevices(m.lister), true
		}
		return nil, true
	case key.Matches(msg, m.keys.Variant):
		idx := int(msg.Runes[0] - '1')
		if m.catalog == nil || idx >= m.catalog.Len() {
			return nil, true
		}
		id := m.catalog.At(idx).ID
		return m.run("select "+string(id), func(ctx context.Context) error {
			return m.cmd.SelectVariant(ctx, id)
		}), true
	case key.Matches(msg, m.keys.Init):
		return m.run("initialize", m.cmd.Initialize), true
	case key.Matches(msg, m.keys.Shutdown):
		return m.run("shutdown", m.cmd.Shutdown), true
	case key.Matches(msg, m.keys.Record):
		return m.run("start capture", m.cmd.StartCapture), true
	case key.Matches(msg, m.keys.Stop):
		return m.run("stop capture", m.cmd.StopCapture), true
	case key.Matches(msg, m.keys.Play):
		return m.run("play", m.cmd.Play), true
	case key.Matches(msg, m.keys.Reset):
		return m.run("reset", m.cmd.Reset), true
	}
	return nil, false
}

// run executes an engine command off the UI goroutine.
func (m Model) run(action string, fn func(context.Context) error) tea.Cmd {
	if m.cmd == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return resultMsg{action: action, err: fn(ctx)}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.every, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	inner := max(width-2, 10)
	scopeH := max(height/3, 6)
	lessonH := max(height-scopeH-9, 3)

	m.scope.SetSize(inner, scopeH)
	m.help.Width = width
	if !m.ready {
		m.viewport = viewport.New(inner, lessonH)
		m.viewport.Style = lipgloss.NewStyle()
		m.ready = true
	} else {
		m.viewport.Width = inner
		m.viewport.Height = lessonH
	}
	m.refreshPanel()
}

func (m *Model) refreshPanel() {
	if !m.ready {
		return
	}
	if m.showDevices {
		m.viewport.SetContent(m.devices.view())
		return
	}
	m.viewport.SetContent(m.renderLesson())
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")
	sb.WriteString(panelStyle.Render(m.scope.View()))
	sb.WriteString("\n")
	sb.WriteString(panelStyle.Render(m.viewport.View()))
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m Model) renderHeader() string {
	parts := []string{titleStyle.Render("CODEC LAB")}
	if m.catalog != nil {
		for i, v := range m.catalog.All() {
			label := fmt.Sprintf("[%d] %s", i+1, v.ID.Label())
			if string(v.ID) == m.variant.VariantID {
				label = accent(v.Meta.Color).Underline(true).Render(label)
			} else {
				label = dimStyle.Render(label)
			}
			parts = append(parts, label)
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderStatus() string {
	line := accent(m.variant.DisplayColor).Render(m.status.Text)
	if m.status.Phase == bus.PhaseRecording {
		line += infoStyle.Render(fmt.Sprintf("  %.1fs", m.status.Remaining))
	}
	msg := m.err
	if msg == "" {
		msg = m.status.Error
	}
	if msg != "" {
		line += "  " + errorStyle.Render(msg)
	}
	return line
}

func (m Model) renderLesson() string {
	v := m.variant
	width := max(m.viewport.Width, 20)

	var sb strings.Builder
	sb.WriteString(accent(v.DisplayColor).Render(v.Title))
	if v.Tag != "" {
		sb.WriteString(dimStyle.Render("  · " + v.Tag))
	}
	sb.WriteString("\n\n")
	sb.WriteString(lipgloss.NewStyle().Width(width).Render(v.Description))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Bitrate %s kbps   MOS %s   Latency %s ms   Complexity %s\n",
		v.BitrateLabel, v.QualityLabel, v.LatencyLabel, v.ComplexityLabel)

	if len(m.bands) > 0 {
		sb.WriteString("\n")
		sb.WriteString(renderBands(m.bands, min(width-10, 40), v.DisplayColor))
	}
	return sb.String()
}

// bandOrder lists the band meter names from low to high.
var bandOrder = []string{"sub", "bass", "lowMid", "mid", "highMid", "treble"}

func renderBands(levels map[string]float64, width int, color string) string {
	names := make([]string, 0, len(levels))
	seen := make(map[string]bool, len(levels))
	for _, n := range bandOrder {
		if _, ok := levels[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var extra []string
	for n := range levels {
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	width = max(width, 4)
	style := accent(color)
	var sb strings.Builder
	for _, n := range names {
		filled := int(min(max(levels[n], 0), 1) * float64(width))
		fmt.Fprintf(&sb, "%-8s %s%s\n", n,
			style.Render(strings.Repeat("█", filled)),
			dimStyle.Render(strings.Repeat("░", width-filled)))
	}
	return sb.String()
}

// Run starts the lab UI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
