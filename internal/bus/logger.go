// SPDX-License-Identifier: MIT
package bus

import (
	applog "codeclab/internal/log"

	"github.com/ThreeDotsLabs/watermill"
)

// LoggerAdapter routes watermill's logging into the application logger.
type LoggerAdapter struct {
	fields watermill.LogFields
}

var _ watermill.LoggerAdapter = LoggerAdapter{}

// NewLoggerAdapter returns an adapter with no extra fields.
func NewLoggerAdapter() LoggerAdapter {
	return LoggerAdapter{}
}

func (l LoggerAdapter) keysAndValues(fields watermill.LogFields) []interface{} {
	merged := l.fields.Add(fields)
	kv := make([]interface{}, 0, len(merged)*2+2)
	kv = append(kv, "component", "bus")
	for k, v := range merged {
		kv = append(kv, k, v)
	}
	return kv
}

func (l LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	applog.With(l.keysAndValues(fields)...).Errorw(msg, "error", err)
}

func (l LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	applog.With(l.keysAndValues(fields)...).Infow(msg)
}

func (l LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	applog.With(l.keysAndValues(fields)...).Debugw(msg)
}

// Trace is logged at debug level; the logger has no finer level.
func (l LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	applog.With(l.keysAndValues(fields)...).Debugw(msg)
}

func (l LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return LoggerAdapter{fields: l.fields.Add(fields)}
}
