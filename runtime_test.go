package pollexec_test

import (
	"sync/atomic"
	"testing"
	"time"

	pollexec "github.com/pollexec/go-poll-executor"
	"github.com/pollexec/go-poll-executor/core"
)

func newQuietRuntime() *pollexec.Runtime {
	execCfg := core.DefaultExecutorConfig()
	execCfg.Logger = core.NewNoOpLogger()
	timerCfg := core.DefaultTimerConfig()
	timerCfg.Logger = core.NewNoOpLogger()
	return pollexec.NewWithConfig(execCfg, timerCfg)
}

// TestRuntime_SpawnFunc verifies the facade end to end
// Given: A started runtime
// When: A function task is spawned
// Then: It is polled and dropped once it reports Done
func TestRuntime_SpawnFunc(t *testing.T) {
	rt := newQuietRuntime()
	rt.Start()
	defer rt.StopTimer()

	polled := make(chan struct{})
	rt.SpawnFunc(func(w *pollexec.Waker) pollexec.Status {
		close(polled)
		return pollexec.Done
	})

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("spawned function was never polled")
	}
}

// TestRuntime_SpawnPeriodic verifies the periodic convenience path
// Given: A started runtime
// When: A periodic task with a 50ms period runs for 300ms
// Then: It ticks several times and stays registered
func TestRuntime_SpawnPeriodic(t *testing.T) {
	rt := newQuietRuntime()
	rt.Start()
	defer rt.StopTimer()

	task := rt.SpawnPeriodic("beat", 50*time.Millisecond)
	time.Sleep(300 * time.Millisecond)

	if task.Ticks() < 3 {
		t.Errorf("Ticks = %d after 300ms at 50ms period, want >=3", task.Ticks())
	}
	if rt.Executor().TaskCount() != 1 {
		t.Errorf("TaskCount = %d, want 1", rt.Executor().TaskCount())
	}
}

// TestRuntime_StartIsIdempotent verifies repeated Start calls spawn only one
// carrier goroutine (a second loop would double-poll ready tasks).
func TestRuntime_StartIsIdempotent(t *testing.T) {
	rt := newQuietRuntime()
	rt.Start()
	rt.Start()
	defer rt.StopTimer()

	var polls atomic.Int32
	var captured atomic.Pointer[pollexec.Waker]
	rt.SpawnFunc(func(w *pollexec.Waker) pollexec.Status {
		polls.Add(1)
		captured.Store(w)
		return pollexec.Pending
	})

	deadline := time.Now().Add(time.Second)
	for captured.Load() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if captured.Load() == nil {
		t.Fatal("task was never polled")
	}

	captured.Load().Wake()
	time.Sleep(100 * time.Millisecond)

	if got := polls.Load(); got != 2 {
		t.Errorf("polls = %d, want 2 (one per ready transition)", got)
	}
}

// TestRuntime_TimerStateMachineTask verifies a hand-rolled multi-step task:
// a state machine that sleeps between steps by registering with the timer,
// then completes.
func TestRuntime_TimerStateMachineTask(t *testing.T) {
	rt := newQuietRuntime()
	rt.Start()
	defer rt.StopTimer()

	const steps = 3
	done := make(chan struct{})
	step := 0
	rt.SpawnFunc(func(w *pollexec.Waker) pollexec.Status {
		// Runs only on the carrier goroutine, so no locking around step.
		step++
		if step > steps {
			close(done)
			return pollexec.Done
		}
		rt.Timer().Register(time.Now().Add(30*time.Millisecond), w)
		return pollexec.Pending
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("state machine stalled at step %d", step)
	}
	if rt.Executor().TaskCount() != 0 {
		t.Errorf("TaskCount = %d after completion, want 0", rt.Executor().TaskCount())
	}
}
