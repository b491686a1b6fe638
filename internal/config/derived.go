// SPDX-License-Identifier: MIT
package config

import (
	"os"

	applog "codeclab/internal/log"
)

// Level resolves the effective log level; Debug wins over LogLevel.
func (c *Config) Level() applog.LogLevel {
	if c.Debug {
		return applog.LevelDebug
	}
	level, ok := applog.ParseLevel(c.LogLevel)
	if !ok {
		return applog.LevelInfo
	}
	return level
}

// CaptureDir returns the directory capture files are written to.
func (c *Config) CaptureDir() string {
	if c.Capture.Dir == "" {
		return os.TempDir()
	}
	return c.Capture.Dir
}

// CountdownSteps is the number of countdown ticks in a full capture.
func (c *Config) CountdownSteps() int {
	if c.Capture.Tick <= 0 {
		return 0
	}
	return int(c.Capture.Ceiling / c.Capture.Tick)
}
