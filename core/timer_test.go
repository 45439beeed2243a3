package core

import (
	"container/heap"
	"context"
	"strings"
	"testing"
	"time"
)

func newTestTimer() *Timer {
	return NewTimerWithConfig(&TimerConfig{Logger: NewNoOpLogger()})
}

// readyIDs snapshots the ids currently marked ready in an executor state.
func readyIDs(st *execState) []TaskID {
	st.mu.Lock()
	defer st.mu.Unlock()
	ids := make([]TaskID, 0, len(st.ready))
	for id := range st.ready {
		ids = append(ids, id)
	}
	return ids
}

// TestTimer_FiresAtDeadline verifies basic firing
// Given: A registration 100ms in the future
// When: Time passes
// Then: The wake fires after the deadline, not before
func TestTimer_FiresAtDeadline(t *testing.T) {
	timer := newTestTimer()
	defer timer.Stop()

	st := newTestState()
	timer.Register(time.Now().Add(100*time.Millisecond), &Waker{id: 1, state: st})

	time.Sleep(50 * time.Millisecond)
	if ids := readyIDs(st); len(ids) != 0 {
		t.Fatalf("wake fired %v before the deadline", ids)
	}

	waitFor(t, time.Second, func() bool { return len(readyIDs(st)) == 1 })
}

// TestTimer_EarlierDeadlineFiresFirst verifies deadline ordering
// Given: A registration at T+300ms followed by one at T+100ms
// When: The timer runs
// Then: The T+100ms wake fires first, regardless of registration order
func TestTimer_EarlierDeadlineFiresFirst(t *testing.T) {
	timer := newTestTimer()
	defer timer.Stop()

	st := newTestState()
	now := time.Now()
	timer.Register(now.Add(300*time.Millisecond), &Waker{id: 1, state: st})
	timer.Register(now.Add(100*time.Millisecond), &Waker{id: 2, state: st})

	waitFor(t, time.Second, func() bool { return len(readyIDs(st)) >= 1 })
	if ids := readyIDs(st); len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("first fired ids = %v, want [2]", ids)
	}

	waitFor(t, time.Second, func() bool { return len(readyIDs(st)) == 2 })
}

// TestTimer_NewEarlierRegistrationPreempts verifies the re-evaluation path:
// a registration arriving while the worker waits on a later deadline must be
// fired first when it is earlier.
func TestTimer_NewEarlierRegistrationPreempts(t *testing.T) {
	timer := newTestTimer()
	defer timer.Stop()

	st := newTestState()
	now := time.Now()
	timer.Register(now.Add(500*time.Millisecond), &Waker{id: 1, state: st})

	// The worker is now sleeping towards T+500ms. Interrupt it.
	time.Sleep(50 * time.Millisecond)
	timer.Register(now.Add(150*time.Millisecond), &Waker{id: 2, state: st})

	waitFor(t, time.Second, func() bool { return len(readyIDs(st)) >= 1 })
	if ids := readyIDs(st); len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("first fired ids = %v, want [2]", ids)
	}
}

// TestTimer_PendingCount verifies worker introspection
func TestTimer_PendingCount(t *testing.T) {
	timer := newTestTimer()
	defer timer.Stop()

	st := newTestState()
	base := time.Now().Add(time.Hour)
	for i := 0; i < 3; i++ {
		timer.Register(base.Add(time.Duration(i)*time.Second), &Waker{id: TaskID(i), state: st})
	}

	waitFor(t, time.Second, func() bool { return timer.PendingCount() == 3 })
}

// TestTimer_DuplicateDeadlinePanics verifies the documented limitation:
// the deadline registry keys on the exact instant, and a duplicate must fail
// loudly instead of silently dropping one of the wakeups.
func TestTimer_DuplicateDeadlinePanics(t *testing.T) {
	w := &timerWorker{
		seen:    make(map[time.Time]struct{}),
		logger:  NewNoOpLogger(),
		metrics: &NilMetrics{},
	}
	heap.Init(&w.pending)

	st := newTestState()
	at := time.Now().Add(time.Minute)
	w.enroll(Registration{At: at, Wake: &Waker{id: 1, state: st}})

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("duplicate deadline registration did not panic")
		}
		msg, ok := rec.(string)
		if !ok || !strings.Contains(msg, "duplicate deadline") {
			t.Fatalf("panic value = %v, want duplicate deadline message", rec)
		}
	}()
	w.enroll(Registration{At: at, Wake: &Waker{id: 2, state: st}})
}

// TestTimer_DistinctDeadlinesEnroll verifies that nearby but distinct
// instants are all accepted.
func TestTimer_DistinctDeadlinesEnroll(t *testing.T) {
	w := &timerWorker{
		seen:    make(map[time.Time]struct{}),
		logger:  NewNoOpLogger(),
		metrics: &NilMetrics{},
	}
	heap.Init(&w.pending)

	st := newTestState()
	base := time.Now().Add(time.Minute)
	for i := 0; i < 10; i++ {
		w.enroll(Registration{
			At:   base.Add(time.Duration(i) * time.Nanosecond),
			Wake: &Waker{id: TaskID(i), state: st},
		})
	}
	if w.pending.Len() != 10 {
		t.Fatalf("pending = %d, want 10", w.pending.Len())
	}
}

// TestTimer_ChannelDisconnection verifies clean worker termination:
// when the registration-sending side disappears, the worker exits without
// panicking instead of spinning on a dead channel.
func TestTimer_ChannelDisconnection(t *testing.T) {
	rx := make(chan Registration)
	done := make(chan struct{})
	w := &timerWorker{
		rx:      rx,
		queries: make(chan chan int),
		ctx:     context.Background(),
		done:    done,
		seen:    make(map[time.Time]struct{}),
		logger:  NewNoOpLogger(),
		metrics: &NilMetrics{},
	}
	heap.Init(&w.pending)
	go w.work()

	close(rx)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not terminate after channel disconnection")
	}
}

// TestTimer_ChannelDisconnectionWithPendingDeadline verifies the worker also
// notices disconnection while waiting towards a future deadline.
func TestTimer_ChannelDisconnectionWithPendingDeadline(t *testing.T) {
	rx := make(chan Registration)
	done := make(chan struct{})
	w := &timerWorker{
		rx:      rx,
		queries: make(chan chan int),
		ctx:     context.Background(),
		done:    done,
		seen:    make(map[time.Time]struct{}),
		logger:  NewNoOpLogger(),
		metrics: &NilMetrics{},
	}
	heap.Init(&w.pending)
	go w.work()

	st := newTestState()
	rx <- Registration{At: time.Now().Add(time.Hour), Wake: &Waker{id: 1, state: st}}
	close(rx)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not terminate after channel disconnection")
	}
}

// TestTimer_StopTerminatesWorker verifies Stop semantics
// Given: A timer with pending registrations
// When: Stop is called
// Then: Stop returns after the worker exits, repeat Stops are safe, and
// a late Register is dropped without blocking or panicking
func TestTimer_StopTerminatesWorker(t *testing.T) {
	timer := newTestTimer()

	st := newTestState()
	timer.Register(time.Now().Add(time.Hour), &Waker{id: 1, state: st})

	timer.Stop()
	timer.Stop() // idempotent

	if got := timer.PendingCount(); got != 0 {
		t.Fatalf("PendingCount after Stop = %d, want 0", got)
	}

	finished := make(chan struct{})
	go func() {
		timer.Register(time.Now().Add(time.Second), &Waker{id: 2, state: st})
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Register blocked on a stopped timer")
	}
}

// TestTimer_BurstOfDueDeadlines verifies the fire-then-recheck loop: several
// deadlines already in the past are all fired back to back.
func TestTimer_BurstOfDueDeadlines(t *testing.T) {
	timer := newTestTimer()
	defer timer.Stop()

	st := newTestState()
	base := time.Now()
	for i := 0; i < 5; i++ {
		timer.Register(base.Add(time.Duration(i+1)*10*time.Millisecond), &Waker{id: TaskID(i), state: st})
	}

	waitFor(t, time.Second, func() bool { return len(readyIDs(st)) == 5 })
	if got := timer.PendingCount(); got != 0 {
		t.Fatalf("PendingCount after all fires = %d, want 0", got)
	}
}
