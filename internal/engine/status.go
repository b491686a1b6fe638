// SPDX-License-Identifier: MIT
package engine

import (
	"strings"

	"codeclab/internal/bus"
	"codeclab/internal/capture"
	"codeclab/internal/errs"
	"codeclab/internal/graph"
	"codeclab/internal/variant"
)

// Status texts shown when no variant is running.
const (
	TextStopped  = "STOPPED"
	TextDisabled = "DISABLED"
)

// phase derives the user-visible phase from the component states.
func (c *Core) phase() string {
	switch {
	case c.disabled:
		return bus.PhaseDisabled
	case c.graph.State().Mode == graph.Uninitialized:
		return bus.PhaseStopped
	case c.playback.Active():
		return bus.PhasePlaying
	}
	switch c.capture.State() {
	case capture.Recording:
		return bus.PhaseRecording
	case capture.Processing:
		return bus.PhaseProcessing
	case capture.Ready:
		return bus.PhaseReady
	default:
		return bus.PhaseRunning
	}
}

func (c *Core) status() bus.StatusEvent {
	phase := c.phase()
	selected := c.graph.State().Selected

	ev := bus.StatusEvent{
		Variant:   string(selected),
		Phase:     phase,
		Remaining: c.remaining.Seconds(),
		Error:     errs.Message(c.lastErr),
	}
	switch phase {
	case bus.PhaseDisabled:
		ev.Text = TextDisabled
	case bus.PhaseStopped:
		ev.Text = TextStopped
	default:
		ev.Text = StatusText(selected, phase)
	}
	return ev
}

// StatusText joins a variant and a phase, e.g. "CELP_RECORDING".
func StatusText(id variant.ID, phase string) string {
	return id.Label() + "_" + strings.ToUpper(phase)
}
