// SPDX-License-Identifier: MIT
package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler for tests. Tasks run only when the
// test calls Drain or Advance, and time moves only through Advance.
// Post may be called from any goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	queue  []func()
	timers []*manualTimer
	seq    int
}

type manualTimer struct {
	interval  time.Duration
	next      time.Time
	fn        func()
	cancelled bool
	seq       int
}

var _ Scheduler = (*Manual)(nil)

// NewManual returns a scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Post implements Scheduler.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.queue = append(m.queue, fn)
	m.mu.Unlock()
}

// Every implements Scheduler.
func (m *Manual) Every(interval time.Duration, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{
		interval: interval,
		next:     m.now.Add(interval),
		fn:       fn,
		seq:      m.seq,
	}
	m.timers = append(m.timers, t)

	return func() {
		m.mu.Lock()
		t.cancelled = true
		m.mu.Unlock()
	}
}

// Now implements Scheduler.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending reports the number of queued tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Drain runs queued tasks, including tasks they post, until the queue is
// empty. It returns the number of tasks executed.
func (m *Manual) Drain() int {
	ran := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return ran
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		fn()
		ran++
	}
}

// Advance moves the clock forward by d, firing due timers in time order
// and draining the queue after each firing.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.nextDue(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			m.Drain()
			return
		}
		m.now = t.next
		t.next = t.next.Add(t.interval)
		fn := t.fn
		m.mu.Unlock()

		fn()
		m.Drain()
	}
}

// WaitForTasks blocks until at least n tasks are queued or timeout
// elapses. It exists for tests whose tasks are posted by goroutines.
func (m *Manual) WaitForTasks(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if m.Pending() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// nextDue returns the earliest live timer due at or before target.
// The caller holds m.mu.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.timers = live

	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].next.Equal(m.timers[j].next) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].next.Before(m.timers[j].next)
	})

	if len(m.timers) == 0 || m.timers[0].next.After(target) {
		return nil
	}
	return m.timers[0]
}
