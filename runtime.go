package pollexec

import (
	"sync"
	"time"

	"github.com/pollexec/go-poll-executor/core"
)

// Runtime bundles one executor and one timer service, the pairing almost
// every consumer of this library wants. Advanced users can build the pieces
// from the core package directly.
type Runtime struct {
	exec  *core.Executor
	timer *core.Timer

	startOnce sync.Once
}

// New creates a runtime with default configuration. Nothing runs until
// Start is called.
func New() *Runtime {
	return NewWithConfig(core.DefaultExecutorConfig(), core.DefaultTimerConfig())
}

// NewWithConfig creates a runtime with explicit executor and timer
// configuration. Nil configs fall back to the defaults.
func NewWithConfig(execConfig *core.ExecutorConfig, timerConfig *core.TimerConfig) *Runtime {
	return &Runtime{
		exec:  core.NewExecutorWithConfig(execConfig),
		timer: core.NewTimerWithConfig(timerConfig),
	}
}

// Start launches the executor's run loop on a dedicated carrier goroutine.
// The timer worker is already running from construction. Safe to call more
// than once; only the first call has an effect.
//
// The run loop has no exit condition: it is designed to run until process
// termination.
func (r *Runtime) Start() {
	r.startOnce.Do(func() {
		go r.exec.Run()
	})
}

// Spawn moves a task into the executor. See core.Executor.Spawn.
func (r *Runtime) Spawn(task core.Task) core.TaskID {
	return r.exec.Spawn(task)
}

// SpawnFunc spawns a plain function as a task.
func (r *Runtime) SpawnFunc(f core.TaskFunc) core.TaskID {
	return r.exec.Spawn(f)
}

// SpawnPeriodic creates a periodic task bound to this runtime's timer and
// spawns it. The returned task exposes its tick count for progress checks.
func (r *Runtime) SpawnPeriodic(name string, period time.Duration) *core.Periodic {
	task := core.NewPeriodic(name, period, r.timer)
	r.exec.Spawn(task)
	return task
}

// Executor exposes the underlying executor.
func (r *Runtime) Executor() *core.Executor {
	return r.exec
}

// Timer exposes the underlying timer service, e.g. for tasks that register
// their own deadlines.
func (r *Runtime) Timer() *core.Timer {
	return r.timer
}

// StopTimer terminates the timer worker and discards pending registrations.
// Tasks that only wake through the timer will not run again afterwards. The
// executor itself keeps running; it has no stop operation.
func (r *Runtime) StopTimer() {
	r.timer.Stop()
}
