package pipeline

import "sync"

// State is the position of the refresh state machine.
type State int

const (
	StateIdle State = iota
	StateRefreshInFlight
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshInFlight:
		return "refresh-in-flight"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// waiter is one request parked on a flight.
//
// release receives the refresh outcome exactly once. done is closed by the waiter when
// it has finished with the outcome, either after its retry or when it gave up.
type waiter struct {
	release chan error
	done    chan struct{}
	once    sync.Once
}

func newWaiter() *waiter {
	return &waiter{release: make(chan error, 1), done: make(chan struct{})}
}

func (w *waiter) finish() {
	w.once.Do(func() { close(w.done) })
}

// flight is one refresh episode and the waiters queued on it, oldest first.
type flight struct {
	waiters []*waiter
}

func (f *flight) enqueue() *waiter {
	w := newWaiter()
	f.waiters = append(f.waiters, w)
	return w
}

func (f *flight) pop() (*waiter, bool) {
	if len(f.waiters) == 0 {
		return nil, false
	}
	w := f.waiters[0]
	f.waiters[0] = nil
	f.waiters = f.waiters[1:]
	return w, true
}
