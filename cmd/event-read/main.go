// Command event-read prints terminal input events as they arrive.
//
// Usage:
//
//	event-read [--windows-legacy] [--escape-delay 50ms] [--debug-log path]
//
// Press "c" to query the cursor position and Esc to quit.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	termin "github.com/grindlemire/go-termin"
	"github.com/grindlemire/go-termin/internal/debug"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const help = `Blocking read()
 - Keyboard, mouse, focus and terminal resize events enabled
 - Hit "c" to print current cursor position
 - Use Esc to quit
`

// Terminal modes enabled for the session.
var decModes = []int{
	1004, // focus tracking
	2004, // bracketed paste
	1000, // mouse tracking
	1002, // button event mouse
	1003, // any event mouse
	1015, // rxvt mouse
	1006, // SGR mouse
}

const (
	// kitty keyboard protocol: disambiguate escape codes | report alternate keys
	pushKeyboardFlags = "\x1b[>5u"
	popKeyboardFlags  = "\x1b[<1u"
	requestCursor     = "\x1b[6n"

	cursorTimeout = 50 * time.Millisecond
	resizeTimeout = 50 * time.Millisecond
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		legacy   bool
		escDelay time.Duration
		debugLog string
	)

	cmd := &cobra.Command{
		Use:           "event-read",
		Short:         "Print terminal input events as they arrive",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debugLog != "" {
				if err := debug.Init(debugLog); err != nil {
					return err
				}
				defer debug.Close()
			}
			return run(cmd.OutOrStdout(), legacy && runtime.GOOS == "windows", escDelay)
		},
	}

	cmd.Flags().BoolVar(&legacy, "windows-legacy", false, "Decode structured Windows console records instead of VT input")
	cmd.Flags().DurationVar(&escDelay, "escape-delay", termin.DefaultEscapeDelay, "How long a lone Esc waits for the rest of a sequence")
	cmd.Flags().StringVar(&debugLog, "debug-log", "", "Append decoder debug messages to this file")
	return cmd
}

func run(out io.Writer, legacy bool, escDelay time.Duration) error {
	restore, err := enterRawMode(os.Stdin, legacy)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer restore()

	mode := termin.ConsoleVT
	if legacy {
		mode = termin.ConsoleLegacy
	}
	r, err := termin.Open(os.Stdin, termin.WithEscapeDelay(escDelay), termin.WithConsoleMode(mode))
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer r.Close()

	// The kitty protocol reports wrong keys for some combinations when
	// combined with the legacy console API.
	fmt.Fprint(os.Stdout, setModes(!legacy))
	defer fmt.Fprint(os.Stdout, resetModes(!legacy))

	s := &session{out: out, tty: os.Stdout, r: r, legacy: legacy, size: currentSize()}
	return s.loop()
}

// session prints events from r until Esc is pressed. Queries for the
// terminal are written to tty.
type session struct {
	out    io.Writer
	tty    io.Writer
	r      *termin.Reader
	legacy bool
	size   termin.WindowSize
}

func (s *session) loop() error {
	fmt.Fprint(s.out, strings.ReplaceAll(help, "\n", "\r\n"))
	for {
		// Unsolicited replies, such as a cursor report that arrived after
		// its query timed out, are read and dropped so they cannot pile up.
		ev, err := s.r.Read(termin.AnyEvent)
		if err != nil {
			return err
		}
		if seq, ok := ev.(termin.SequenceEvent); ok {
			debug.Log("event-read: dropped reply %q", seq.Raw)
			continue
		}
		fmt.Fprintf(s.out, "Event: %#v\r\n", ev)

		switch ev := ev.(type) {
		case termin.KeyEvent:
			if ev.Is(termin.KeyEscape) {
				return nil
			}
			if ev.IsRune() && ev.Rune == 'c' {
				s.printCursorPosition()
			}
		case termin.ResizeEvent:
			size := flushResizeEvents(s.r, ev.Size)
			fmt.Fprintf(s.out, "Resize from %+v to %+v\r\n", s.size, size)
			s.size = size
		}
	}
}

func setModes(kitty bool) string {
	var b strings.Builder
	if kitty {
		b.WriteString(pushKeyboardFlags)
	}
	for _, m := range decModes {
		fmt.Fprintf(&b, "\x1b[?%dh", m)
	}
	return b.String()
}

func resetModes(kitty bool) string {
	var b strings.Builder
	if kitty {
		b.WriteString(popKeyboardFlags)
	}
	for _, m := range decModes {
		fmt.Fprintf(&b, "\x1b[?%dl", m)
	}
	return b.String()
}

func currentSize() termin.WindowSize {
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return termin.WindowSize{}
	}
	return termin.WindowSize{Rows: uint16(rows), Cols: uint16(cols)}
}

func (s *session) printCursorPosition() {
	if s.legacy {
		row, col, err := legacyCursorPosition()
		if err != nil {
			fmt.Fprintf(s.out, "Failed to read the cursor position: %v\r\n", err)
			return
		}
		fmt.Fprintf(s.out, "Cursor position: (%d, %d)\r\n", row, col)
		return
	}

	fmt.Fprint(s.tty, requestCursor)
	ok, err := s.r.Poll(termin.IsCursorPositionReport, cursorTimeout)
	if err != nil || !ok {
		fmt.Fprintf(s.out, "Failed to read the cursor position within %v\r\n", cursorTimeout)
		return
	}
	ev, err := s.r.Read(termin.IsCursorPositionReport)
	if err != nil {
		fmt.Fprintf(s.out, "Failed to read the cursor position: %v\r\n", err)
		return
	}
	row, col, _ := ev.(termin.SequenceEvent).CursorPosition()
	fmt.Fprintf(s.out, "Cursor position: (%d, %d)\r\n", row, col)
}

// flushResizeEvents collapses a burst of resize events into the last size.
func flushResizeEvents(r *termin.Reader, size termin.WindowSize) termin.WindowSize {
	for {
		ok, err := r.Poll(termin.IsResize, resizeTimeout)
		if err != nil || !ok {
			return size
		}
		ev, err := r.Read(termin.IsResize)
		if err != nil {
			return size
		}
		size = ev.(termin.ResizeEvent).Size
	}
}
