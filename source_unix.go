//go:build unix

package termin

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/grindlemire/go-termin/internal/debug"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Tags written to the wake pipe.
const (
	tagWake   byte = 'w'
	tagResize byte = 'r'
)

// unixSource implements EventSource for a unix terminal.
type unixSource struct {
	fd     int
	buf    []byte
	parser *Parser
	pump   pump

	wakeR, wakeW int // self-pipe woken by Waker and the resize forwarder

	sizeFunc func() (WindowSize, error)
	sigCh    chan os.Signal // SIGWINCH, nil when resize events are off
	done     chan struct{}

	mu     sync.Mutex // guards closed and writes to wakeW
	closed bool
}

var _ EventSource = (*unixSource)(nil)

func newEventSource(in *os.File, cfg *config) (EventSource, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return nil, fmt.Errorf("creating wake pipe: %w", err)
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(p[0])
			unix.Close(p[1])
			return nil, fmt.Errorf("configuring wake pipe: %w", err)
		}
	}

	s := &unixSource{
		fd:       int(in.Fd()),
		buf:      make([]byte, 1024),
		parser:   NewParser(),
		wakeR:    p[0],
		wakeW:    p[1],
		sizeFunc: cfg.sizeFunc,
		done:     make(chan struct{}),
	}
	s.pump = pump{dec: s.parser, escDelay: cfg.escapeDelay, wait: s.wait}
	if s.sizeFunc == nil {
		s.sizeFunc = func() (WindowSize, error) { return windowSize(s.fd) }
	}

	if cfg.resizeEvents && term.IsTerminal(s.fd) {
		s.sigCh = make(chan os.Signal, 1)
		signal.Notify(s.sigCh, unix.SIGWINCH)
		go s.forwardResize()
	}
	return s, nil
}

// windowSize returns the terminal dimensions of fd.
func windowSize(fd int) (WindowSize, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return WindowSize{}, fmt.Errorf("querying window size: %w", err)
	}
	return WindowSize{
		Rows:        ws.Row,
		Cols:        ws.Col,
		PixelWidth:  ws.Xpixel,
		PixelHeight: ws.Ypixel,
	}, nil
}

// forwardResize turns SIGWINCH into a tag on the wake pipe so a blocked
// select returns. Decoding stays on the reading goroutine.
func (s *unixSource) forwardResize() {
	for {
		select {
		case <-s.done:
			return
		case <-s.sigCh:
			if err := s.signal(tagResize); err != nil {
				debug.Log("source: forwarding resize: %v", err)
			}
		}
	}
}

func (s *unixSource) signal(tag byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	_, err := unix.Write(s.wakeW, []byte{tag})
	if errors.Is(err, unix.EAGAIN) {
		// The pipe is full, so a wake is already pending.
		return nil
	}
	return err
}

func (s *unixSource) TryRead(timeout time.Duration) (Event, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return s.pump.tryRead(timeout)
}

func (s *unixSource) wait(timeout time.Duration) (waitResult, error) {
	ready, interrupted, err := selectWithTimeoutAndInterrupt(s.fd, s.wakeR, timeout)
	if err != nil {
		return waitTimeout, fmt.Errorf("waiting for input: %w", err)
	}
	if interrupted {
		woken, err := s.drainWakePipe()
		if err != nil {
			return waitTimeout, err
		}
		if woken {
			return waitWoken, nil
		}
		return waitInput, nil
	}
	if !ready {
		return waitTimeout, nil
	}

	n, err := unix.Read(s.fd, s.buf)
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return waitTimeout, nil
		}
		return waitTimeout, fmt.Errorf("reading input: %w", err)
	}
	if n == 0 {
		return waitTimeout, io.EOF
	}
	s.parser.Feed(s.buf[:n])
	return waitInput, nil
}

// drainWakePipe consumes all pending tags. A resize tag queues a ResizeEvent.
// It reports whether a wake tag was seen.
func (s *unixSource) drainWakePipe() (woken bool, err error) {
	var tags [64]byte
	resized := false
	for {
		n, err := unix.Read(s.wakeR, tags[:])
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				break
			}
			return false, fmt.Errorf("reading wake pipe: %w", err)
		}
		if n == 0 {
			break
		}
		for _, tag := range tags[:n] {
			switch tag {
			case tagWake:
				woken = true
			case tagResize:
				resized = true
			}
		}
	}

	if resized {
		size, err := s.sizeFunc()
		if err != nil {
			debug.Log("source: dropped resize: %v", err)
		} else {
			s.parser.Push(ResizeEvent{Size: size})
		}
	}
	return woken, nil
}

func (s *unixSource) Waker() Waker {
	return Waker{w: unixWaker{s: s}}
}

type unixWaker struct {
	s *unixSource
}

func (w unixWaker) wake() error {
	if err := w.s.signal(tagWake); err != nil {
		return fmt.Errorf("waking source: %w", err)
	}
	return nil
}

// Close releases the wake pipe and stops resize forwarding.
func (s *unixSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	if s.sigCh != nil {
		signal.Stop(s.sigCh)
	}
	return errors.Join(unix.Close(s.wakeR), unix.Close(s.wakeW))
}

// selectWithTimeoutAndInterrupt performs a select() call on fd and an interrupt fd.
// Returns (ready, interrupted, err) where:
// - ready=true if the main fd is ready for reading
// - interrupted=true if the interrupt fd was triggered
// - err is non-nil on error
//
// select is used instead of poll because poll does not work on ttys on macOS.
func selectWithTimeoutAndInterrupt(fd, interruptFd int, timeout time.Duration) (ready, interrupted bool, err error) {
	var readFds unix.FdSet
	readFds.Zero()
	readFds.Set(fd)
	readFds.Set(interruptFd)
	maxFd := max(fd, interruptFd)

	var tv *unix.Timeval
	if timeout >= 0 {
		tvVal := unix.NsecToTimeval(timeout.Nanoseconds())
		tv = &tvVal
	}
	// If timeout < 0, tv is nil which means block indefinitely

	n, err := unix.Select(maxFd+1, &readFds, nil, nil, tv)
	if err != nil {
		// EINTR is expected when signals arrive
		if err == unix.EINTR {
			return false, false, nil
		}
		return false, false, err
	}

	if n == 0 {
		return false, false, nil // Timeout
	}

	return readFds.IsSet(fd), readFds.IsSet(interruptFd), nil
}
