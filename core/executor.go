package core

import (
	"runtime/debug"
	"sync"
	"time"
)

// taskEntry owns exactly one task plus the waker created for it at spawn
// time. The entry is removed from the registry while the task is being
// polled, reinserted if the task is still pending, and dropped for good when
// the task reports Done.
type taskEntry struct {
	task Task
	wake *Waker
}

// execState is the shared state behind one executor: the task registry, the
// ready set, the id counter and the parking primitive for the carrier
// goroutine. A single mutex guards registry, ready set and counter. The lock
// is only ever held for the duration of a mutation, never across a Poll
// call: a task may invoke wakers (its own included) from inside Poll, and
// Wake takes the same lock.
type execState struct {
	mu     sync.Mutex
	nextID TaskID
	tasks  map[TaskID]*taskEntry
	ready  map[TaskID]struct{}
	parker *parker

	logger       Logger
	metrics      Metrics
	panicHandler PanicHandler
}

// Executor runs tasks cooperatively on a single carrier goroutine.
//
// Per-task state machine: Spawned -> Ready -> Polling -> Ready (on Pending,
// once its waker fires) or Removed (on Done). A newly spawned task is
// immediately ready; after that, only an explicit Wake makes it ready again.
//
// Task execution is intentionally single-threaded: Poll calls run
// synchronously on the goroutine that called Run, trading throughput for
// simplicity. Only Wakers need to be safe to share across goroutines.
type Executor struct {
	state *execState
}

// NewExecutor creates an executor with default configuration.
func NewExecutor() *Executor {
	return NewExecutorWithConfig(DefaultExecutorConfig())
}

// NewExecutorWithConfig creates an executor with the given configuration.
// Nil config fields fall back to the defaults.
func NewExecutorWithConfig(config *ExecutorConfig) *Executor {
	if config == nil {
		config = DefaultExecutorConfig()
	}

	st := &execState{
		tasks:        make(map[TaskID]*taskEntry),
		ready:        make(map[TaskID]struct{}),
		parker:       newParker(),
		logger:       config.Logger,
		metrics:      config.Metrics,
		panicHandler: config.PanicHandler,
	}
	if st.logger == nil {
		st.logger = NewDefaultLogger()
	}
	if st.metrics == nil {
		st.metrics = &NilMetrics{}
	}
	if st.panicHandler == nil {
		st.panicHandler = &DefaultPanicHandler{}
	}

	return &Executor{state: st}
}

// Spawn moves a task into the executor's registry, allocates its id and
// marks it ready, so the next run-loop iteration polls it at least once.
// Spawn is safe to call from any goroutine, including from inside a Poll.
func (e *Executor) Spawn(task Task) TaskID {
	st := e.state

	st.mu.Lock()
	id := st.nextID
	st.nextID++
	entry := &taskEntry{
		task: task,
		wake: &Waker{id: id, state: st},
	}
	st.tasks[id] = entry
	st.ready[id] = struct{}{}
	live := len(st.tasks)
	st.mu.Unlock()

	// A freshly spawned task counts as ready, so make a blocked run loop
	// return immediately.
	st.parker.unpark()

	st.logger.Debug("task spawned", F("task_id", id))
	st.metrics.RecordSpawn()
	st.metrics.RecordLiveTasks(live)
	return id
}

// SpawnFunc spawns a plain function as a task.
func (e *Executor) SpawnFunc(f TaskFunc) TaskID {
	return e.Spawn(f)
}

// Run executes the run loop on the calling goroutine, which becomes the
// executor's carrier goroutine. It never returns: the executor is designed
// to run until process termination, so call Run from a dedicated goroutine.
//
// Each iteration swaps the entire ready set for an empty one and drains the
// captured snapshot. Wakes that arrive during the batch land in the next
// snapshot, never in the one being drained. After the batch the carrier
// goroutine parks until any Wake (or Spawn) unparks it.
func (e *Executor) Run() {
	st := e.state

	for {
		st.mu.Lock()
		ready := st.ready
		st.ready = make(map[TaskID]struct{})
		st.mu.Unlock()

		st.metrics.RecordBatch(len(ready))

		for id := range ready {
			// Take the entry out of the registry for the duration of the
			// poll. The id may be absent: the task completed in an earlier
			// batch and something woke it afterwards. Not an error, skip.
			st.mu.Lock()
			entry, ok := st.tasks[id]
			if ok {
				delete(st.tasks, id)
			}
			st.mu.Unlock()
			if !ok {
				continue
			}

			status := e.poll(id, entry)

			if status == Pending {
				// Still running; back into the registry. It is NOT re-added
				// to the ready set, only an explicit wake does that.
				st.mu.Lock()
				st.tasks[id] = entry
				live := len(st.tasks)
				st.mu.Unlock()
				st.metrics.RecordLiveTasks(live)
			} else {
				st.mu.Lock()
				live := len(st.tasks)
				st.mu.Unlock()
				st.logger.Debug("task done", F("task_id", id))
				st.metrics.RecordLiveTasks(live)
			}
		}

		// All work acquired at the top of the iteration is handled; block
		// until more arrives. Wakes that landed after the snapshot left a
		// token behind, so this park returns immediately and the next
		// snapshot picks them up. A spurious return drains an empty set,
		// which is safe and cheap.
		st.parker.park()
	}
}

// poll invokes the task outside the state lock, converting a panic into a
// dropped task instead of a dead carrier goroutine.
func (e *Executor) poll(id TaskID, entry *taskEntry) (status Status) {
	st := e.state
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			st.panicHandler.HandlePanic(id, rec, debug.Stack())
			st.metrics.RecordPollPanic()
			status = Done
		}
	}()

	status = entry.task.Poll(entry.wake)
	st.metrics.RecordPoll(status, time.Since(start))
	return status
}

// TaskCount returns the number of tasks currently in the registry. A task
// being polled at the time of the call is not counted: it is taken out of
// the registry for the duration of its poll.
func (e *Executor) TaskCount() int {
	st := e.state
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.tasks)
}

// ReadyCount returns the number of task ids currently marked ready.
func (e *Executor) ReadyCount() int {
	st := e.state
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.ready)
}
