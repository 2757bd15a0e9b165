package termin

import (
	"errors"
	"os"
	"time"

	"github.com/grindlemire/go-termin/internal/debug"
)

var (
	// ErrWoken is returned by Reader.Read when a Waker interrupts its wait.
	ErrWoken = errors.New("termin: read woken")
	// ErrClosed is returned when reading from a closed source.
	ErrClosed = errors.New("termin: event source closed")
	// ErrUnsupported is returned by NewEventSource on platforms without a
	// terminal input implementation.
	ErrUnsupported = errors.New("termin: platform not supported")
)

// EventSource reads events from the platform's terminal input.
// It is designed for polling-based event loops.
type EventSource interface {
	// TryRead returns the next event. It returns (nil, nil) when the timeout
	// passes or a Waker interrupts the wait. A timeout of 0 performs a
	// non-blocking check; Forever blocks until an event or a wake.
	TryRead(timeout time.Duration) (Event, error)

	// Waker returns a handle that interrupts a blocked TryRead from any goroutine.
	Waker() Waker

	// Close releases the resources owned by the source. It does not close
	// the input file.
	Close() error
}

// NewEventSource creates the EventSource for the current platform reading
// from in. The terminal should already be in raw mode.
func NewEventSource(in *os.File, opts ...Option) (EventSource, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newEventSource(in, cfg)
}

type waker interface {
	wake() error
}

// Waker interrupts a blocked read on the source that created it. Copies of a
// Waker refer to the same source. Waking a closed source does nothing.
type Waker struct {
	w waker
}

// Wake interrupts a blocked TryRead. When no read is blocked, the next
// blocking read returns immediately.
func (w Waker) Wake() error {
	if w.w == nil {
		return nil
	}
	return w.w.wake()
}

// decoder is the byte or record decoder behind a source.
type decoder interface {
	Next() (Event, bool)
	Ambiguous() bool
	Flush()
}

type waitResult uint8

const (
	waitTimeout waitResult = iota
	waitInput
	waitWoken
)

// pump runs the read loop shared by the platform sources: pop a decoded
// event, otherwise wait for input with the remaining budget and decode it.
// An ambiguous tail is flushed once it has been pending for escDelay,
// measured across calls.
type pump struct {
	dec      decoder
	escDelay time.Duration

	// wait blocks for up to timeout (Forever when negative) and feeds any
	// input it reads into dec.
	wait func(timeout time.Duration) (waitResult, error)

	pendingSince time.Time
}

func (p *pump) tryRead(timeout time.Duration) (Event, error) {
	pt := NewPollTimeout(timeout)
	for {
		if ev, ok := p.dec.Next(); ok {
			return ev, nil
		}

		d := pt.Leftover()
		if p.dec.Ambiguous() {
			if p.pendingSince.IsZero() {
				p.pendingSince = time.Now()
			}
			grace := p.escDelay - time.Since(p.pendingSince)
			if grace <= 0 {
				debug.Log("source: flushing ambiguous input after %v", p.escDelay)
				p.dec.Flush()
				p.pendingSince = time.Time{}
				continue
			}
			if d < 0 || grace < d {
				d = grace
			}
		} else {
			p.pendingSince = time.Time{}
		}

		res, err := p.wait(d)
		if err != nil {
			return nil, err
		}
		switch res {
		case waitWoken:
			debug.Log("source: woken")
			return nil, nil
		case waitTimeout:
			if pt.Elapsed() && !p.flushDue() {
				return nil, nil
			}
		}
	}
}

// flushDue reports whether the ambiguous tail has outlived the escape delay.
func (p *pump) flushDue() bool {
	if p.pendingSince.IsZero() || !p.dec.Ambiguous() {
		return false
	}
	return time.Since(p.pendingSince) >= p.escDelay
}
