package sched

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned when work is posted to a stopped loop.
var ErrStopped = errors.New("sched: loop stopped")

// Loop runs posted functions one at a time on a single goroutine.
type Loop struct {
	jobs     chan func()
	done     chan struct{}
	exited   chan struct{}
	startOne sync.Once
	stopOne  sync.Once
}

// NewLoop returns a stopped loop with the given queue length.
func NewLoop(queue int) *Loop {
	if queue <= 0 {
		queue = 64
	}
	return &Loop{
		jobs:   make(chan func(), queue),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

// Start launches the loop goroutine. Calling it again has no effect.
func (l *Loop) Start() {
	l.startOne.Do(func() {
		go l.run()
	})
}

func (l *Loop) run() {
	defer close(l.exited)
	for {
		select {
		case f := <-l.jobs:
			f()
		case <-l.done:
			return
		}
	}
}

// Post queues f and reports whether the loop accepted it.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.jobs <- f:
		return true
	case <-l.done:
		return false
	}
}

// TryPost queues f without blocking. It reports false when the queue is
// full or the loop is stopped.
func (l *Loop) TryPost(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.jobs <- f:
		return true
	default:
		return false
	}
}

// Do runs f on the loop and waits for it to return. It must not be called
// from the loop goroutine.
func (l *Loop) Do(ctx context.Context, f func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		f()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrStopped
	}
}

// Stop terminates the loop after the running function returns. Queued
// functions are dropped.
func (l *Loop) Stop() {
	l.stopOne.Do(func() {
		close(l.done)
	})
}

// Wait blocks until a started loop has exited.
func (l *Loop) Wait() {
	<-l.exited
}

// Clock returns a clock whose callbacks run on the loop.
func (l *Loop) Clock() Clock {
	return loopClock{l: l}
}

type loopClock struct {
	l *Loop
}

func (c loopClock) Now() time.Time { return time.Now() }

func (c loopClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() { c.l.Post(f) })
}
