package core

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"
)

// Registration pairs an absolute deadline with the waker to fire when the
// deadline elapses. It is sent once over the registration channel; after the
// send the caller holds no reference, the worker owns it until fired.
type Registration struct {
	At   time.Time
	Wake *Waker
}

// =============================================================================
// Deadline heap (worker-owned, no locking)
// =============================================================================

type timerEntry struct {
	at    time.Time
	wake  *Waker
	index int // for heap interface
}

// timerHeap implements heap.Interface ordered by deadline.
type timerHeap []*timerEntry

func (h timerHeap) Len() int           { return len(h) }
func (h timerHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	n := len(*h)
	item := x.(*timerEntry)
	item.index = n
	*h = append(*h, item)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

func (h *timerHeap) Peek() *timerEntry {
	if len(*h) == 0 {
		return nil
	}
	return (*h)[0]
}

// =============================================================================
// Timer: handle for registering wakeups
// =============================================================================

// Timer is a handle to a timer service: a background worker goroutine that
// owns a deadline-ordered registry of pending wakeups, sleeps until the
// earliest deadline and fires the corresponding waker.
//
// All communication with the worker goes through channels; the worker's
// deadline registry is owned exclusively by the worker goroutine and needs
// no locking.
type Timer struct {
	tx      chan Registration
	queries chan chan int
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	stopOnce sync.Once
	logger   Logger
}

// NewTimer creates a timer with default configuration and starts its worker
// goroutine.
func NewTimer() *Timer {
	return NewTimerWithConfig(DefaultTimerConfig())
}

// NewTimerWithConfig creates a timer with the given configuration.
// Nil config fields fall back to the defaults.
func NewTimerWithConfig(config *TimerConfig) *Timer {
	if config == nil {
		config = DefaultTimerConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = &NilMetrics{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Timer{
		tx:      make(chan Registration),
		queries: make(chan chan int),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		logger:  logger,
	}

	w := &timerWorker{
		rx:      t.tx,
		queries: t.queries,
		ctx:     ctx,
		done:    t.done,
		seen:    make(map[time.Time]struct{}),
		logger:  logger,
		metrics: metrics,
	}
	heap.Init(&w.pending)
	go w.work()

	return t
}

// Register hands (deadline, waker) to the worker. The wake fires once the
// deadline elapses; registrations never fire early, but may fire late under
// scheduling pressure.
//
// Registering an exact duplicate of a pending deadline instant is a
// programming error: the worker panics rather than silently replacing one
// wakeup with another. Callers are responsible for scheduling distinct
// instants; deadlines derived from time.Now are effectively always distinct.
//
// Registering on a stopped timer drops the registration with a warning.
func (t *Timer) Register(at time.Time, w *Waker) {
	select {
	case t.tx <- Registration{At: at, Wake: w}:
	case <-t.ctx.Done():
		t.logger.Warn("registration on stopped timer dropped",
			F("deadline", at), F("task_id", w.TaskID()))
	}
}

// PendingCount returns the number of deadlines the worker currently holds.
// Returns 0 after Stop.
func (t *Timer) PendingCount() int {
	reply := make(chan int, 1)
	select {
	case t.queries <- reply:
		return <-reply
	case <-t.ctx.Done():
		return 0
	}
}

// Stop terminates the worker goroutine and discards pending registrations.
// Safe to call more than once. Stop returns after the worker has exited.
func (t *Timer) Stop() {
	t.stopOnce.Do(t.cancel)
	<-t.done
}

// =============================================================================
// Worker: background goroutine owning the deadline registry
// =============================================================================

type timerWorker struct {
	rx      <-chan Registration
	queries <-chan chan int
	ctx     context.Context
	done    chan struct{}

	pending timerHeap
	seen    map[time.Time]struct{}

	logger  Logger
	metrics Metrics
}

// work is the timer's main loop. Each cycle: fire every due deadline; if the
// earliest deadline lies in the future, wait for a new registration with a
// timeout of the remaining duration (a new entry may be earlier than the one
// being awaited, so re-evaluate from the top); with no pending deadlines,
// block on the registration channel without a timeout.
//
// The loop exits cleanly when the registration source disconnects (channel
// closed) or the timer is stopped.
func (w *timerWorker) work() {
	defer close(w.done)

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	defer timer.Stop()

	for {
		next := w.pending.Peek()
		if next == nil {
			select {
			case reg, ok := <-w.rx:
				if !ok {
					w.shutdown("registration channel closed")
					return
				}
				w.enroll(reg)
			case reply := <-w.queries:
				reply <- w.pending.Len()
			case <-w.ctx.Done():
				w.shutdown("timer stopped")
				return
			}
			continue
		}

		now := time.Now()
		if !next.at.After(now) {
			w.fire()
			continue
		}

		timer.Reset(next.at.Sub(now))
		select {
		case reg, ok := <-w.rx:
			stopTimer(timer)
			if !ok {
				w.shutdown("registration channel closed")
				return
			}
			w.enroll(reg)
		case reply := <-w.queries:
			stopTimer(timer)
			reply <- w.pending.Len()
		case <-w.ctx.Done():
			stopTimer(timer)
			w.shutdown("timer stopped")
			return
		case <-timer.C:
			// The earliest deadline is due now; fired on the next pass.
		}
	}
}

// enroll inserts a registration into the deadline registry.
// Two registrations for the same instant cannot both be stored: the
// registry keys on the exact deadline. Failing loudly here beats silently
// losing a wakeup; this is a documented limitation of the minimal design.
func (w *timerWorker) enroll(reg Registration) {
	if _, dup := w.seen[reg.At]; dup {
		panic(fmt.Sprintf("timer: duplicate deadline registration at %v", reg.At))
	}
	w.seen[reg.At] = struct{}{}
	heap.Push(&w.pending, &timerEntry{at: reg.At, wake: reg.Wake})

	w.metrics.RecordTimerRegister()
	w.metrics.RecordPendingTimers(w.pending.Len())
}

// fire pops the earliest deadline and invokes its waker.
func (w *timerWorker) fire() {
	entry := heap.Pop(&w.pending).(*timerEntry)
	delete(w.seen, entry.at)

	lag := time.Since(entry.at)
	entry.wake.Wake()

	w.logger.Debug("deadline fired",
		F("task_id", entry.wake.TaskID()), F("lag", lag))
	w.metrics.RecordTimerFire(lag)
	w.metrics.RecordPendingTimers(w.pending.Len())
}

func (w *timerWorker) shutdown(reason string) {
	if n := w.pending.Len(); n > 0 {
		w.logger.Info("timer worker exiting, discarding pending registrations",
			F("reason", reason), F("pending", n))
	} else {
		w.logger.Debug("timer worker exiting", F("reason", reason))
	}
}

// stopTimer stops a timer and drains its channel so a later Reset starts
// from a clean state.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
