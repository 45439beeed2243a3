package core

// Waker is the capability to mark one specific task ready-to-run and to
// disturb the executor's blocking wait.
//
// A Waker is created by the executor at spawn time and handed to the task on
// every poll. The task registry and any timer registration may hold the same
// Waker concurrently; all of them share the same underlying executor state.
type Waker struct {
	id    TaskID
	state *execState
}

// Wake marks the task as ready and unparks the carrier goroutine.
//
// Wake is safe to call from any goroutine, any number of times. Calling it
// repeatedly before the executor drains the ready set results in exactly one
// poll on the next batch (the ready collection is a set). Calling it after
// the task has completed is a no-op: the next drain finds the id absent from
// the registry and skips it.
func (w *Waker) Wake() {
	st := w.state

	st.mu.Lock()
	st.ready[w.id] = struct{}{}
	st.mu.Unlock()

	st.metrics.RecordWake()
	st.parker.unpark()
}

// TaskID returns the id of the task this waker belongs to.
func (w *Waker) TaskID() TaskID {
	return w.id
}
