package core

import (
	"sync/atomic"
	"time"
)

// Periodic is a task that fires at a fixed period forever, demonstrating the
// full cycle: schedule -> sleep -> fire -> poll -> reschedule. On every poll
// (the first one at spawn, then one per elapsed deadline) it registers
// now+period with the timer using the waker it was handed, reports progress
// and stays Pending. It never reports Done.
type Periodic struct {
	name   string
	period time.Duration
	timer  *Timer

	ticks  atomic.Int64
	onTick func(n int64)
	logger Logger
}

// NewPeriodic creates a periodic task. It does nothing until spawned on an
// executor whose timer service is running.
func NewPeriodic(name string, period time.Duration, timer *Timer) *Periodic {
	return &Periodic{
		name:   name,
		period: period,
		timer:  timer,
		logger: NewNoOpLogger(),
	}
}

// NewPeriodicWithCallback creates a periodic task that additionally invokes
// onTick with the running tick count on every poll. The callback runs on the
// carrier goroutine; keep it short.
func NewPeriodicWithCallback(name string, period time.Duration, timer *Timer, onTick func(n int64)) *Periodic {
	p := NewPeriodic(name, period, timer)
	p.onTick = onTick
	return p
}

// SetLogger makes the task log a line per tick. Call before spawning.
func (p *Periodic) SetLogger(logger Logger) {
	p.logger = logger
}

// Name returns the task's display name.
func (p *Periodic) Name() string {
	return p.name
}

// Ticks returns how many times the task has been polled: once at spawn plus
// once per fired deadline.
func (p *Periodic) Ticks() int64 {
	return p.ticks.Load()
}

// Poll registers the next deadline and stays Pending.
func (p *Periodic) Poll(w *Waker) Status {
	n := p.ticks.Add(1)

	p.logger.Info("tick", F("task", p.name), F("n", n))
	if p.onTick != nil {
		p.onTick(n)
	}

	p.timer.Register(time.Now().Add(p.period), w)
	return Pending
}
