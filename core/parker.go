package core

// parker blocks the carrier goroutine between run-loop batches.
//
// Contract: park blocks until some goroutine calls unpark. Spurious returns
// are allowed; the run loop tolerates them by draining an empty ready set.
// unpark never blocks, and any number of unparks between two parks collapse
// into a single token, so the loop wakes exactly once for a burst of wakes.
type parker struct {
	token chan struct{}
}

func newParker() *parker {
	return &parker{token: make(chan struct{}, 1)}
}

func (p *parker) park() {
	<-p.token
}

func (p *parker) unpark() {
	select {
	case p.token <- struct{}{}:
	default:
		// Token already pending, the next park returns immediately.
	}
}
