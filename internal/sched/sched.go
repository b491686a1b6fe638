// SPDX-License-Identifier: MIT
/*
Package sched provides the cooperative scheduler the engine runs on.

Every mutation of engine state happens inside a task executed by a single
goroutine. Timers and asynchronous completions never touch engine state
directly; they Post a task and the loop runs it between other tasks, so a
task observes the graph either before or after another task's rewiring and
never in the middle of it.
*/
package sched

import "time"

// Cancel stops a periodic task. It is safe to call more than once.
type Cancel func()

// Scheduler is the surface engine components depend on.
type Scheduler interface {
	// Post enqueues fn to run on the scheduler goroutine. It never blocks
	// the caller, which makes it usable from audio callbacks.
	Post(fn func())

	// Every runs fn on the scheduler goroutine once per interval until the
	// returned Cancel is called. A tick that was already queued when Cancel
	// ran is dropped.
	Every(interval time.Duration, fn func()) Cancel

	// Now returns the scheduler's notion of the current time.
	Now() time.Time
}

// TimeProvider abstracts wall-clock access so the real loop can be driven
// by an injected clock.
type TimeProvider interface {
	Now() time.Time
	NewTicker(d time.Duration) *time.Ticker
}

// RealTimeProvider implements TimeProvider with the system clock.
type RealTimeProvider struct{}

// Now returns the current system time.
func (RealTimeProvider) Now() time.Time {
	return time.Now()
}

// NewTicker creates a ticker using the standard library.
func (RealTimeProvider) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}
