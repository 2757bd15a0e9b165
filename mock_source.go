package termin

import (
	"sync"
	"time"
)

// MockSource is an EventSource for testing. Events pushed to it are returned
// in order; an empty source waits for the timeout, a Push or a wake.
type MockSource struct {
	mu     sync.Mutex
	events []Event
	err    error
	woken  bool
	closed bool
	reads  int
	notify chan struct{}
}

// Ensure MockSource implements EventSource.
var _ EventSource = (*MockSource)(nil)

// NewMockSource creates a MockSource with the given events queued.
func NewMockSource(events ...Event) *MockSource {
	return &MockSource{
		events: events,
		notify: make(chan struct{}, 1),
	}
}

// Push queues more events and wakes a blocked TryRead.
func (m *MockSource) Push(events ...Event) {
	m.mu.Lock()
	m.events = append(m.events, events...)
	m.mu.Unlock()
	m.signal()
}

// SetErr makes the next TryRead return err.
func (m *MockSource) SetErr(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
	m.signal()
}

// Remaining returns the number of events yet to be returned.
func (m *MockSource) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// Reads returns how many times TryRead has been called.
func (m *MockSource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *MockSource) signal() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// TryRead returns the next queued event. With nothing queued it waits up to
// timeout for a Push, returning (nil, nil) on timeout or wake.
func (m *MockSource) TryRead(timeout time.Duration) (Event, error) {
	m.mu.Lock()
	m.reads++
	m.mu.Unlock()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		m.mu.Lock()
		switch {
		case m.closed:
			m.mu.Unlock()
			return nil, ErrClosed
		case m.err != nil:
			err := m.err
			m.err = nil
			m.mu.Unlock()
			return nil, err
		case len(m.events) > 0:
			ev := m.events[0]
			m.events = m.events[1:]
			m.mu.Unlock()
			return ev, nil
		case m.woken:
			m.woken = false
			m.mu.Unlock()
			return nil, nil
		}
		m.mu.Unlock()

		if timeout == 0 {
			return nil, nil
		}
		select {
		case <-m.notify:
		case <-deadline:
			return nil, nil
		}
	}
}

// Waker returns a Waker that interrupts a blocked TryRead.
func (m *MockSource) Waker() Waker {
	return Waker{w: mockWaker{m: m}}
}

type mockWaker struct {
	m *MockSource
}

func (w mockWaker) wake() error {
	w.m.mu.Lock()
	if !w.m.closed {
		w.m.woken = true
	}
	w.m.mu.Unlock()
	w.m.signal()
	return nil
}

// Close marks the source closed. Later reads return ErrClosed.
func (m *MockSource) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.signal()
	return nil
}
