// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"sync/atomic"

	"codeclab/internal/bus"
	applog "codeclab/internal/log"
)

// LoggingTransport writes status and variant events to the log. Trace
// frames are only counted.
type LoggingTransport struct {
	traces atomic.Uint64
}

var _ Transport = (*LoggingTransport)(nil)

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs env. Undecodable payloads are logged raw.
func (lt *LoggingTransport) Send(env Envelope) error {
	switch env.Topic {
	case bus.TopicStatus:
		var ev bus.StatusEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			applog.Warnf("Transport: %s: %s", env.Topic, env.Payload)
			return nil
		}
		log := applog.With("phase", ev.Phase, "remaining", ev.Remaining)
		if ev.Error != "" {
			log.Warnw(ev.Text, "error", ev.Error)
		} else {
			log.Infow(ev.Text)
		}
	case bus.TopicVariant:
		var ev bus.VariantEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			applog.Warnf("Transport: %s: %s", env.Topic, env.Payload)
			return nil
		}
		applog.Infof("Transport: Variant %s selected (%s kbps, MOS %s, %s ms)",
			ev.VariantID, ev.BitrateLabel, ev.QualityLabel, ev.LatencyLabel)
	case bus.TopicTrace:
		lt.traces.Add(1)
	default:
		applog.Debugf("Transport: %s: %s", env.Topic, env.Payload)
	}
	return nil
}

// Traces returns the number of trace frames seen.
func (lt *LoggingTransport) Traces() uint64 { return lt.traces.Load() }

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	applog.Debugf("Transport: Logging transport closed (%d trace frames)", lt.traces.Load())
	return nil
}
