// Package pollexec provides a minimal cooperative task executor with a
// timer-driven wakeup source.
//
// This library implements, from first principles, the poll-based concurrency
// model that underlies modern asynchronous runtimes: tasks that voluntarily
// yield control, an executor that tracks which tasks are ready, and a timer
// worker that wakes sleeping tasks when their deadlines elapse.
//
// # Quick Start
//
// Create a runtime, start it, and spawn tasks:
//
//	rt := pollexec.New()
//	rt.Start()
//	defer rt.StopTimer()
//
//	rt.SpawnPeriodic("heartbeat", 500*time.Millisecond)
//
//	select {} // the executor runs until process termination
//
// # Key Concepts
//
// Task: the unit of cooperative work. Poll(w) runs the task until it either
// completes (Done) or cannot make further progress (Pending). A task that
// returns Pending must arrange, via some external event source such as the
// Timer, for its Waker to eventually fire.
//
// Waker: a capability that marks one specific task ready-to-run and disturbs
// the executor's blocking wait. Safe to invoke from any goroutine, any number
// of times, including after the task completed.
//
// Executor: owns the registry of live tasks and the set of ready task ids.
// Its run loop repeatedly drains the ready set, polls each captured task,
// reinserts unfinished ones, and parks until new work arrives. Task
// execution is intentionally single-threaded: all polls happen on one
// carrier goroutine.
//
// Timer: a background worker owning a deadline-ordered registry of pending
// wakeups. It sleeps until the earliest deadline, fires the corresponding
// waker, and accepts new registrations concurrently over a channel.
//
// # Thread Safety
//
// Spawn, Wake and Register are safe from any goroutine. Poll calls never
// overlap: tasks need no internal locking for state only they touch.
//
// # Example
//
//	import (
//		"time"
//
//		pollexec "github.com/pollexec/go-poll-executor"
//	)
//
//	func main() {
//		rt := pollexec.New()
//		rt.Start()
//
//		for i := 1; i < 10; i++ {
//			rt.SpawnPeriodic("task", time.Duration(i)*500*time.Millisecond)
//		}
//
//		select {}
//	}
//
// For the engine internals see the core package.
package pollexec
