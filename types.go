package pollexec

import "github.com/pollexec/go-poll-executor/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the pollexec package for most use cases.

// Task is the unit of cooperative work polled by the executor
type Task = core.Task

// TaskFunc adapts a plain function to the Task interface
type TaskFunc = core.TaskFunc

// TaskID identifies a spawned task
type TaskID = core.TaskID

// Status is what a task reports when polled
type Status = core.Status

// Waker marks a specific task ready and disturbs the executor's blocking wait
type Waker = core.Waker

// Executor runs tasks cooperatively on a single carrier goroutine
type Executor = core.Executor

// Timer is a handle to the timer service for registering wakeups
type Timer = core.Timer

// Registration pairs an absolute deadline with the waker to fire
type Registration = core.Registration

// Periodic is a task that fires at a fixed period forever
type Periodic = core.Periodic

// Logger is the structured logging interface used across the library
type Logger = core.Logger

// Field is a key-value pair for structured logging
type Field = core.Field

// Metrics is the interface for collecting executor and timer metrics
type Metrics = core.Metrics

// PanicHandler handles panics recovered from task polls
type PanicHandler = core.PanicHandler

// ExecutorConfig holds configuration options for Executor
type ExecutorConfig = core.ExecutorConfig

// TimerConfig holds configuration options for Timer
type TimerConfig = core.TimerConfig

// Status constants
const (
	Pending Status = core.Pending
	Done    Status = core.Done
)

// Convenience constructors re-exported from core
var (
	NewExecutor             = core.NewExecutor
	NewExecutorWithConfig   = core.NewExecutorWithConfig
	NewTimer                = core.NewTimer
	NewTimerWithConfig      = core.NewTimerWithConfig
	NewPeriodic             = core.NewPeriodic
	NewPeriodicWithCallback = core.NewPeriodicWithCallback
	DefaultExecutorConfig   = core.DefaultExecutorConfig
	DefaultTimerConfig      = core.DefaultTimerConfig
	NewDefaultLogger        = core.NewDefaultLogger
	NewNoOpLogger           = core.NewNoOpLogger
	F                       = core.F
)
