package core

// TaskID identifies a spawned task. IDs are allocated from a monotonically
// increasing counter at spawn time and are never reused for the lifetime of
// the executor.
type TaskID uint64

// =============================================================================
// Status: What a task reports when polled
// =============================================================================

type Status int

const (
	// Pending: the task has not finished. The executor keeps the task and
	// will not poll it again until its Waker fires.
	Pending Status = iota

	// Done: the task completed. The executor drops it permanently.
	Done
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// =============================================================================
// Task: The unit of cooperative work
// =============================================================================

// Task is the unit of cooperative work executed by an Executor.
//
// Poll runs the task until it either completes (Done) or cannot make further
// progress (Pending). Poll always executes on the executor's carrier
// goroutine and is never invoked concurrently with itself. The task may keep
// the Waker it is given, or hand it to another goroutine (typically via
// Timer.Register), for later use.
//
// A task that returns Pending MUST have arranged, through some external
// event source, for w.Wake to eventually be called; otherwise it is never
// polled again. This is a caller obligation the executor cannot enforce.
//
// A task that needs more than one suspension point has to be written as an
// explicit state machine: the only place a task can suspend is the top-level
// return from Poll.
type Task interface {
	Poll(w *Waker) Status
}

// TaskFunc adapts a plain function to the Task interface (Closure)
type TaskFunc func(w *Waker) Status

func (f TaskFunc) Poll(w *Waker) Status {
	return f(w)
}
