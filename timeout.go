package termin

import "time"

// Forever is the timeout that blocks until an event arrives or the source is woken.
const Forever time.Duration = -1

// PollTimeout tracks the remaining budget of one logical wait that may be
// made of several blocking calls. A negative timeout means no budget: the
// wait never elapses.
type PollTimeout struct {
	timeout time.Duration
	start   time.Time
}

// NewPollTimeout starts the clock for a wait bounded by timeout.
func NewPollTimeout(timeout time.Duration) PollTimeout {
	return PollTimeout{timeout: timeout, start: time.Now()}
}

// Elapsed reports whether the budget is used up. It is always false for an
// unbounded wait.
func (p PollTimeout) Elapsed() bool {
	if p.timeout < 0 {
		return false
	}
	return time.Since(p.start) >= p.timeout
}

// Leftover returns the remaining budget, never negative, or Forever for an
// unbounded wait.
func (p PollTimeout) Leftover() time.Duration {
	if p.timeout < 0 {
		return Forever
	}
	elapsed := time.Since(p.start)
	if elapsed >= p.timeout {
		return 0
	}
	return p.timeout - elapsed
}
