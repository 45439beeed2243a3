package core

import (
	"fmt"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task poll panics
// =============================================================================

// PanicHandler is called on the carrier goroutine when a task's Poll panics.
// The executor recovers the panic, reports it here, drops the task and keeps
// the run loop alive.
//
// Implementations should be thread-safe; multiple executors may share one
// handler.
type PanicHandler interface {
	// HandlePanic is called with the id of the panicked task, the recovered
	// panic value and the stack trace captured at recovery time.
	HandlePanic(id TaskID, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that logs to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(id TaskID, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Task %d] Panic: %v\nStack trace:\n%s", id, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting executor and timer metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast: several of them run on the
// carrier goroutine between polls, or on the timer worker between fires.
type Metrics interface {
	// RecordSpawn records that a task was spawned.
	RecordSpawn()

	// RecordPoll records one completed poll, the status it returned and how
	// long the task ran.
	RecordPoll(status Status, duration time.Duration)

	// RecordPollPanic records that a task panicked during Poll.
	RecordPollPanic()

	// RecordWake records one Waker invocation.
	RecordWake()

	// RecordBatch records the size of one drained ready-set snapshot.
	// Size zero means a spurious unpark.
	RecordBatch(size int)

	// RecordLiveTasks records the current number of tasks in the registry.
	RecordLiveTasks(count int)

	// RecordTimerRegister records one accepted timer registration.
	RecordTimerRegister()

	// RecordTimerFire records one fired deadline and how far behind the
	// deadline the fire happened.
	RecordTimerFire(lag time.Duration)

	// RecordPendingTimers records the current number of pending deadlines.
	RecordPendingTimers(count int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordSpawn()                              {}
func (m *NilMetrics) RecordPoll(status Status, d time.Duration) {}
func (m *NilMetrics) RecordPollPanic()                          {}
func (m *NilMetrics) RecordWake()                               {}
func (m *NilMetrics) RecordBatch(size int)                      {}
func (m *NilMetrics) RecordLiveTasks(count int)                 {}
func (m *NilMetrics) RecordTimerRegister()                      {}
func (m *NilMetrics) RecordTimerFire(lag time.Duration)         {}
func (m *NilMetrics) RecordPendingTimers(count int)             {}

// =============================================================================
// ExecutorConfig / TimerConfig
// =============================================================================

// ExecutorConfig holds configuration options for Executor.
// All fields are optional; if not provided, default implementations will be used.
type ExecutorConfig struct {
	// Logger receives spawn/poll/drop events. Defaults to DefaultLogger.
	Logger Logger

	// Metrics records executor metrics. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is called when a task's Poll panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler
}

// DefaultExecutorConfig returns a config with default handlers.
func DefaultExecutorConfig() *ExecutorConfig {
	return &ExecutorConfig{
		Logger:       NewDefaultLogger(),
		Metrics:      &NilMetrics{},
		PanicHandler: &DefaultPanicHandler{},
	}
}

// TimerConfig holds configuration options for Timer.
// All fields are optional; if not provided, default implementations will be used.
type TimerConfig struct {
	// Logger receives register/fire/stop events. Defaults to DefaultLogger.
	Logger Logger

	// Metrics records timer metrics. Defaults to NilMetrics.
	Metrics Metrics
}

// DefaultTimerConfig returns a config with default handlers.
func DefaultTimerConfig() *TimerConfig {
	return &TimerConfig{
		Logger:  NewDefaultLogger(),
		Metrics: &NilMetrics{},
	}
}
