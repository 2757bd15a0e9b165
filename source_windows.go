//go:build windows

package termin

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/erikgeiser/coninput"
	"github.com/grindlemire/go-termin/internal/debug"
	"golang.org/x/sys/windows"
)

// windowsSource implements EventSource for a Windows console.
type windowsSource struct {
	handle  windows.Handle
	wake    windows.Handle // auto-reset event signalled by Waker
	decoder *ConsoleDecoder
	pump    pump

	mu     sync.Mutex // guards closed and wake
	closed bool
}

var _ EventSource = (*windowsSource)(nil)

func newEventSource(in *os.File, cfg *config) (EventSource, error) {
	wake, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("creating wake event: %w", err)
	}

	layout := cfg.layout
	if layout == nil {
		layout = foregroundLayout{}
	}
	screen := cfg.screen
	if screen == nil {
		screen = conoutBuffer{}
	}

	s := &windowsSource{
		handle:  windows.Handle(in.Fd()),
		wake:    wake,
		decoder: NewConsoleDecoder(cfg.consoleMode, layout, screen),
	}
	s.pump = pump{dec: s.decoder, escDelay: cfg.escapeDelay, wait: s.wait}
	return s, nil
}

func (s *windowsSource) TryRead(timeout time.Duration) (Event, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	return s.pump.tryRead(timeout)
}

func (s *windowsSource) wait(timeout time.Duration) (waitResult, error) {
	handles := []windows.Handle{s.handle, s.wake}
	event, err := windows.WaitForMultipleObjects(handles, false, waitMillis(timeout))
	switch event {
	case windows.WAIT_OBJECT_0:
		return s.readRecords()
	case windows.WAIT_OBJECT_0 + 1:
		return waitWoken, nil
	case uint32(windows.WAIT_TIMEOUT):
		return waitTimeout, nil
	}
	if err == nil {
		err = fmt.Errorf("unexpected wait result %#x", event)
	}
	return waitTimeout, fmt.Errorf("waiting for console input: %w", err)
}

func (s *windowsSource) readRecords() (waitResult, error) {
	var n uint32
	if err := windows.GetNumberOfConsoleInputEvents(s.handle, &n); err != nil {
		return waitTimeout, fmt.Errorf("counting console input: %w", err)
	}
	if n == 0 {
		return waitTimeout, nil
	}
	records, err := coninput.ReadNConsoleInputs(s.handle, n)
	if err != nil {
		return waitTimeout, fmt.Errorf("reading console input: %w", err)
	}
	for _, rec := range records {
		if cr, ok := convertRecord(rec); ok {
			s.decoder.Decode(cr)
		}
	}
	return waitInput, nil
}

// waitMillis converts a timeout to milliseconds for the wait APIs, rounding up
// so short timeouts do not become non-blocking checks.
func waitMillis(d time.Duration) uint32 {
	if d < 0 {
		return windows.INFINITE
	}
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms >= windows.INFINITE {
		return windows.INFINITE - 1
	}
	return uint32(ms)
}

func (s *windowsSource) Waker() Waker {
	return Waker{w: windowsWaker{s: s}}
}

type windowsWaker struct {
	s *windowsSource
}

func (w windowsWaker) wake() error {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	if w.s.closed {
		return nil
	}
	if err := windows.SetEvent(w.s.wake); err != nil {
		return fmt.Errorf("waking source: %w", err)
	}
	return nil
}

// Close releases the wake event. The console input handle stays open.
func (s *windowsSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := windows.CloseHandle(s.wake); err != nil {
		return errors.Join(ErrClosed, err)
	}
	return nil
}

// convertRecord maps a console input record onto the neutral record types.
func convertRecord(rec coninput.InputRecord) (ConsoleRecord, bool) {
	switch e := rec.Unwrap().(type) {
	case coninput.KeyEventRecord:
		return KeyRecord{
			KeyDown:         e.KeyDown,
			RepeatCount:     e.RepeatCount,
			VirtualKeyCode:  uint16(e.VirtualKeyCode),
			VirtualScanCode: uint16(e.VirtualScanCode),
			Char:            uint16(e.Char),
			ControlKeyState: uint32(e.ControlKeyState),
		}, true
	case coninput.MouseEventRecord:
		m := MouseRecord{
			X:               int16(e.MousePositon.X),
			Y:               int16(e.MousePositon.Y),
			ButtonState:     uint32(e.ButtonState),
			ControlKeyState: uint32(e.ControlKeyState),
			EventFlags:      uint32(e.EventFlags),
		}
		if m.EventFlags&(MouseWheeledFlag|MouseHWheeledFlag) != 0 {
			m.ButtonState = uint32(int32(e.WheelDirection) << 16)
		}
		return m, true
	case coninput.WindowBufferSizeEventRecord:
		return ResizeRecord{Cols: uint16(e.Size.X), Rows: uint16(e.Size.Y)}, true
	case coninput.FocusEventRecord:
		return FocusRecord{Focused: e.SetFocus}, true
	}
	debug.Log("source: ignored console record type %v", rec.EventType)
	return nil, false
}
