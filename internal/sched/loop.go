// SPDX-License-Identifier: MIT
package sched

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	applog "codeclab/internal/log"
)

// ErrClosed is returned by Call once the loop has been closed.
var ErrClosed = errors.New("scheduler closed")

// DefaultQueueSize is the task queue depth used when NewLoop gets zero.
const DefaultQueueSize = 256

// Loop is the production Scheduler: a single goroutine draining a task
// queue. Run must be called exactly once.
type Loop struct {
	tasks     chan func()
	tp        TimeProvider
	done      chan struct{}
	closeOnce sync.Once
	running   atomic.Bool
	tickers   sync.WaitGroup
}

var _ Scheduler = (*Loop)(nil)

// NewLoop creates a loop with the given queue depth. A nil provider uses
// the system clock.
func NewLoop(queueSize int, tp TimeProvider) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if tp == nil {
		tp = RealTimeProvider{}
	}
	return &Loop{
		tasks: make(chan func(), queueSize),
		tp:    tp,
		done:  make(chan struct{}),
	}
}

// Run executes tasks until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("scheduler: Run called twice")
	}
	applog.Debugf("Scheduler: loop started (queue: %d)", cap(l.tasks))
	defer applog.Debugf("Scheduler: loop stopped")

	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post enqueues fn without blocking. When the queue is full the task is
// handed to a helper goroutine, so ordering between overflowing tasks is
// not preserved.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	default:
		go func() {
			select {
			case l.tasks <- fn:
			case <-l.done:
			}
		}()
	}
}

// Call runs fn on the loop and waits for its result.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	l.Post(func() { result <- fn() })

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

// Every implements Scheduler.
func (l *Loop) Every(interval time.Duration, fn func()) Cancel {
	ticker := l.tp.NewTicker(interval)
	stop := make(chan struct{})
	var cancelled atomic.Bool
	var once sync.Once

	guarded := func() {
		if !cancelled.Load() {
			fn()
		}
	}

	l.tickers.Add(1)
	go func() {
		defer l.tickers.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(guarded)
			case <-stop:
				return
			case <-l.done:
				return
			}
		}
	}()

	return func() {
		once.Do(func() {
			cancelled.Store(true)
			close(stop)
		})
	}
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time {
	return l.tp.Now()
}

// Close stops the loop and every ticker goroutine. It is idempotent.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	l.tickers.Wait()
}
