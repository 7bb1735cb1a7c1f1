package sched

import (
	"sync"
	"time"
)

// State is the lifecycle of a Task.
type State int

const (
	Idle State = iota
	Scheduled
	Fired
)

func (s State) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Fired:
		return "fired"
	}
	return "idle"
}

// Task is a deferred call that can be rescheduled or cancelled. Each
// Schedule supersedes the previous one, so a burst of calls collapses into a
// single run after the last delay.
type Task struct {
	clock Clock
	fn    func()

	mu    sync.Mutex
	state State
	gen   uint64
	timer Timer
}

// NewTask returns an idle task that runs fn on clock.
func NewTask(clock Clock, fn func()) *Task {
	return &Task{clock: clock, fn: fn}
}

// Schedule cancels any pending run and runs fn after d.
func (t *Task) Schedule(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
	gen := t.gen
	t.state = Scheduled
	t.timer = t.clock.AfterFunc(d, func() { t.fire(gen) })
}

func (t *Task) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.state != Scheduled {
		t.mu.Unlock()
		return
	}
	t.state = Fired
	t.timer = nil
	t.mu.Unlock()
	t.fn()
}

// Cancel drops a pending run and reports whether one was pending.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != Scheduled {
		return false
	}
	t.stopLocked()
	t.gen++
	t.state = Idle
	return true
}

func (t *Task) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// State returns the current state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Interval calls fn every period until stopped.
type Interval struct {
	every time.Duration
	fn    func()
	task  *Task

	mu      sync.Mutex
	running bool
}

// NewInterval returns a stopped interval.
func NewInterval(clock Clock, every time.Duration, fn func()) *Interval {
	i := &Interval{every: every, fn: fn}
	i.task = NewTask(clock, i.tick)
	return i
}

func (i *Interval) tick() {
	if !i.Running() {
		return
	}
	i.fn()
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.running {
		i.task.Schedule(i.every)
	}
}

// Start begins ticking. A running interval is restarted.
func (i *Interval) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.running = true
	i.task.Schedule(i.every)
}

// Stop ends ticking and reports whether the interval was running.
func (i *Interval) Stop() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	was := i.running
	i.running = false
	i.task.Cancel()
	return was
}

// Running reports whether the interval is ticking.
func (i *Interval) Running() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}
