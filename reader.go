package termin

import (
	"os"
	"sync"
	"time"
)

// Filter selects events for Reader.Poll and Reader.Read.
type Filter func(Event) bool

// AnyEvent matches every event.
func AnyEvent(Event) bool { return true }

// IsKey matches key events.
func IsKey(ev Event) bool {
	_, ok := ev.(KeyEvent)
	return ok
}

// IsMouse matches mouse events.
func IsMouse(ev Event) bool {
	_, ok := ev.(MouseEvent)
	return ok
}

// IsResize matches resize events.
func IsResize(ev Event) bool {
	_, ok := ev.(ResizeEvent)
	return ok
}

// IsPaste matches bracketed paste events.
func IsPaste(ev Event) bool {
	_, ok := ev.(PasteEvent)
	return ok
}

// IsFocus matches focus gained and focus lost events.
func IsFocus(ev Event) bool {
	switch ev.(type) {
	case FocusInEvent, FocusOutEvent:
		return true
	}
	return false
}

// IsCursorPositionReport matches replies to a cursor position request
// (CSI 6 n).
func IsCursorPositionReport(ev Event) bool {
	seq, ok := ev.(SequenceEvent)
	if !ok {
		return false
	}
	_, _, ok = seq.CursorPosition()
	return ok
}

// Reader filters events from an EventSource. Events that do not match a
// filter stay queued, in arrival order, for later calls. Calls are
// serialized; use the Waker to interrupt a blocked call from another goroutine.
type Reader struct {
	mu    sync.Mutex
	src   EventSource
	queue []Event
}

// NewReader wraps src.
func NewReader(src EventSource) *Reader {
	return &Reader{src: src}
}

// Open creates a Reader over the platform EventSource for in.
func Open(in *os.File, opts ...Option) (*Reader, error) {
	src, err := NewEventSource(in, opts...)
	if err != nil {
		return nil, err
	}
	return NewReader(src), nil
}

// Poll reports whether an event matching filter is available, waiting up to
// timeout for one to arrive. Forever waits without a limit. The matching
// event is not removed. A wake ends the wait like a timeout.
func (r *Reader) Poll(filter Filter, timeout time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.find(filter) >= 0 {
		return true, nil
	}

	pt := NewPollTimeout(timeout)
	for {
		ev, err := r.src.TryRead(pt.Leftover())
		if err != nil {
			return false, err
		}
		if ev == nil {
			return false, nil
		}
		r.queue = append(r.queue, ev)
		if filter(ev) {
			return true, nil
		}
		if pt.Elapsed() {
			return false, nil
		}
	}
}

// Read blocks until an event matching filter arrives, then removes and
// returns it. It returns ErrWoken when a Waker interrupts the wait.
func (r *Reader) Read(filter Filter) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.find(filter); i >= 0 {
		return r.take(i), nil
	}

	for {
		ev, err := r.src.TryRead(Forever)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			return nil, ErrWoken
		}
		if filter(ev) {
			return ev, nil
		}
		r.queue = append(r.queue, ev)
	}
}

// Drain discards queued events and any that are available without waiting.
func (r *Reader) Drain() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queue = nil
	for {
		ev, err := r.src.TryRead(0)
		if err != nil {
			return err
		}
		if ev == nil {
			return nil
		}
	}
}

// Waker returns the Waker of the underlying source.
func (r *Reader) Waker() Waker {
	return r.src.Waker()
}

// Close closes the underlying source.
func (r *Reader) Close() error {
	return r.src.Close()
}

func (r *Reader) find(filter Filter) int {
	for i, ev := range r.queue {
		if filter(ev) {
			return i
		}
	}
	return -1
}

func (r *Reader) take(i int) Event {
	ev := r.queue[i]
	r.queue = append(r.queue[:i], r.queue[i+1:]...)
	return ev
}
