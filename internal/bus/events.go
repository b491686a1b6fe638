// SPDX-License-Identifier: MIT
package bus

import "codeclab/internal/variant"

// Topics carried by the presentation bus.
const (
	TopicVariant = "lab.variant"
	TopicStatus  = "lab.status"
	TopicTrace   = "lab.trace"
)

// Status phases.
const (
	PhaseRunning    = "running"
	PhaseRecording  = "recording"
	PhaseProcessing = "processing"
	PhaseReady      = "ready"
	PhasePlaying    = "playing"
	PhaseStopped    = "stopped"
	PhaseDisabled   = "disabled"
)

// VariantEvent is published whenever a variant is selected.
type VariantEvent struct {
	VariantID       string `json:"variantId"`
	DisplayColor    string `json:"displayColor"`
	QualityLabel    string `json:"qualityLabel"`
	LatencyLabel    string `json:"latencyLabel"`
	BitrateLabel    string `json:"bitrateLabel"`
	ComplexityLabel string `json:"complexityLabel"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Tag             string `json:"tag"`
}

// NewVariantEvent builds the event published when v is selected.
func NewVariantEvent(v variant.Variant) VariantEvent {
	return VariantEvent{
		VariantID:       string(v.ID),
		DisplayColor:    v.Meta.Color,
		QualityLabel:    v.Meta.Quality,
		LatencyLabel:    v.Meta.Latency,
		BitrateLabel:    v.Meta.Bitrate,
		ComplexityLabel: v.Meta.Complexity,
		Title:           v.Meta.Title,
		Description:     v.Meta.Description,
		Tag:             v.Meta.Tag,
	}
}

// StatusEvent reports the engine phase. Text combines variant and phase,
// e.g. "CELP_RECORDING"; Remaining is the capture countdown in seconds.
type StatusEvent struct {
	Variant   string  `json:"variant"`
	Phase     string  `json:"phase"`
	Text      string  `json:"text"`
	Remaining float64 `json:"remaining"`
	Error     string  `json:"error,omitempty"`
}

// TraceEvent carries one scope frame. Samples are byte time-domain
// values, 128 being silence; Bands are spectrum band levels in 0..1.
type TraceEvent struct {
	Variant string             `json:"variant"`
	Color   string             `json:"color"`
	Samples []byte             `json:"samples"`
	Bands   map[string]float64 `json:"bands,omitempty"`
}
