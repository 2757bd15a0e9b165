package termin

import (
	"unicode"
	"unicode/utf8"

	"github.com/grindlemire/go-termin/internal/debug"
)

const esc = 0x1b

// maxSequenceLen bounds a CSI or string sequence. The rest of a longer one is
// discarded up to its terminator.
const maxSequenceLen = 4096

// Parser decodes ANSI/VT terminal input into events.
// Handles:
//   - Printable characters (including multi-byte UTF-8) -> KeyEvent{Code: KeyRune}
//   - Control characters (0x00-0x1F, 0x7F) -> named keys or Ctrl+letter
//   - CSI sequences (ESC [ ...) -> keys, mouse, focus, paste, replies
//   - SS3 sequences (ESC O ...) -> arrows, Home/End, F1-F4
//   - OSC/DCS/APC strings -> SequenceEvent
//   - Alt+key: ESC + key -> key with ModAlt
//
// Bytes of an incomplete sequence are kept until more input arrives or Flush
// resolves them. A Parser is not safe for concurrent use.
type Parser struct {
	buf    []byte
	events []Event

	// skip is set while the tail of an oversized sequence is discarded.
	skip skipMode
}

type skipMode uint8

const (
	skipNone skipMode = iota
	skipCSI
	skipString
)

// oversized is returned by the unit parsers for a sequence longer than
// maxSequenceLen. The Parser discards the rest of it up to its terminator.
type oversized struct {
	mode skipMode
}

func (oversized) isEvent() {}

// NewParser returns an empty Parser.
func NewParser() *Parser {
	return &Parser{buf: make([]byte, 0, 256)}
}

// Feed appends input and decodes every complete unit. Trailing bytes that may
// be the start of a longer sequence are retained.
func (p *Parser) Feed(data []byte) {
	p.buf = append(p.buf, data...)
	p.process(true)
}

// Flush decodes retained bytes as if no more input will follow: a lone ESC
// becomes the Escape key, and an unterminated sequence becomes Alt plus its
// introducer followed by literal text. An unfinished bracketed paste is kept.
func (p *Parser) Flush() {
	p.process(false)
}

// Next pops the oldest decoded event.
func (p *Parser) Next() (Event, bool) {
	if len(p.events) == 0 {
		return nil, false
	}
	ev := p.events[0]
	p.events[0] = nil
	p.events = p.events[1:]
	if len(p.events) == 0 {
		p.events = nil
	}
	return ev, true
}

// Push queues an event produced outside the byte stream, such as a resize.
func (p *Parser) Push(ev Event) {
	p.events = append(p.events, ev)
}

// Buffered returns the number of retained, not yet decoded bytes.
func (p *Parser) Buffered() int {
	return len(p.buf)
}

// Ambiguous reports whether the retained bytes would decode differently if
// no more input arrived, i.e. whether Flush would make progress.
func (p *Parser) Ambiguous() bool {
	if len(p.buf) == 0 {
		return false
	}
	if p.skip != skipNone {
		// Only an ESC that may start ST is retained while skipping.
		return true
	}
	_, n := parseEvent(p.buf, false)
	return n > 0
}

func (p *Parser) process(more bool) {
	start := 0
	for start < len(p.buf) {
		if p.skip != skipNone {
			n, done := skipRest(p.buf[start:], p.skip, more)
			start += n
			if !done {
				break
			}
			p.skip = skipNone
			continue
		}

		ev, n := parseEvent(p.buf[start:], more)
		if n == 0 {
			break
		}
		switch ev := ev.(type) {
		case nil:
			if debug.Enabled() {
				debug.Log("parser: skipped %q", p.buf[start:start+n])
			}
		case oversized:
			debug.Log("parser: discarding sequence longer than %d bytes", maxSequenceLen)
			p.skip = ev.mode
		default:
			p.events = append(p.events, ev)
		}
		start += n
	}

	if start > 0 {
		rest := copy(p.buf, p.buf[start:])
		p.buf = p.buf[:rest]
	}
}

// parseEvent decodes one unit from the front of buf. It returns the number of
// bytes consumed; zero means buf holds an incomplete unit and more input is
// needed. A nil event with a nonzero count means the bytes were skipped.
func parseEvent(buf []byte, more bool) (Event, int) {
	switch b := buf[0]; {
	case b == esc:
		return parseEscape(buf, more)
	case b == '\r' || b == '\n':
		return NewKeyEvent(KeyEnter, ModNone), 1
	case b == '\t':
		return NewKeyEvent(KeyTab, ModNone), 1
	case b == 0x7f || b == 0x08:
		return NewKeyEvent(KeyBackspace, ModNone), 1
	case b == 0x00: // Ctrl+Space or Ctrl+@
		return NewRuneEvent(' ', ModCtrl), 1
	case b >= 0x01 && b <= 0x1a: // Ctrl+A through Ctrl+Z
		return NewRuneEvent(rune('a'+b-1), ModCtrl), 1
	case b >= 0x1c && b <= 0x1f: // Ctrl+4 through Ctrl+7
		return NewRuneEvent(rune('4'+b-0x1c), ModCtrl), 1
	}
	return parseUTF8(buf, more)
}

func parseUTF8(buf []byte, more bool) (Event, int) {
	if !utf8.FullRune(buf) {
		if more {
			return nil, 0
		}
		return nil, 1
	}
	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError && size <= 1 {
		// Invalid UTF-8, skip byte
		return nil, 1
	}
	mods := ModNone
	if unicode.IsUpper(r) {
		mods = ModShift
	}
	return NewRuneEvent(r, mods), size
}

// parseEscape decodes a unit that starts with ESC.
func parseEscape(buf []byte, more bool) (Event, int) {
	if len(buf) == 1 {
		if more {
			return nil, 0
		}
		return NewKeyEvent(KeyEscape, ModNone), 1
	}

	switch buf[1] {
	case '[':
		return parseCSI(buf, more)
	case 'O':
		return parseSS3(buf, more)
	case ']':
		return parseString(buf, SequenceOSC, more)
	case 'P':
		return parseString(buf, SequenceDCS, more)
	case '_':
		return parseString(buf, SequenceAPC, more)
	case esc:
		// ESC ESC [ and ESC ESC O are Alt plus a sequence.
		if len(buf) == 2 {
			if more {
				return nil, 0
			}
			return NewKeyEvent(KeyEscape, ModAlt), 2
		}
		if buf[2] == '[' || buf[2] == 'O' {
			return parseAlt(buf, more)
		}
		return NewKeyEvent(KeyEscape, ModAlt), 2
	}
	return parseAlt(buf, more)
}

// parseAlt treats the ESC at buf[0] as an Alt prefix for the unit after it.
// Units other than keys are returned unchanged.
func parseAlt(buf []byte, more bool) (Event, int) {
	ev, n := parseEvent(buf[1:], more)
	if n == 0 {
		return nil, 0
	}
	if ke, ok := ev.(KeyEvent); ok {
		ke.Modifiers |= ModAlt
		return ke, n + 1
	}
	return ev, n + 1
}

// parseSS3 decodes ESC O <final>.
func parseSS3(buf []byte, more bool) (Event, int) {
	if len(buf) == 2 {
		if more {
			return nil, 0
		}
		return parseAlt(buf, more)
	}

	ev := KeyEvent{}
	switch buf[2] {
	case 'A':
		ev.Code = KeyUp
	case 'B':
		ev.Code = KeyDown
	case 'C':
		ev.Code = KeyRight
	case 'D':
		ev.Code = KeyLeft
	case 'H':
		ev.Code = KeyHome
	case 'F':
		ev.Code = KeyEnd
	case 'P':
		ev.Code = KeyF1
	case 'Q':
		ev.Code = KeyF2
	case 'R':
		ev.Code = KeyF3
	case 'S':
		ev.Code = KeyF4
	case 'M': // keypad Enter in application mode
		ev.Code = KeyEnter
		ev.State = StateKeypad
	default:
		return nil, 3
	}
	return ev, 3
}

// parseString decodes an OSC, DCS or APC string terminated by BEL or ST.
func parseString(buf []byte, kind SequenceKind, more bool) (Event, int) {
	for i := 2; i < len(buf); i++ {
		switch buf[i] {
		case 0x07:
			return SequenceEvent{Kind: kind, Raw: string(buf[:i+1])}, i + 1
		case esc:
			if i+1 >= len(buf) {
				return incompleteString(buf, more)
			}
			if buf[i+1] == '\\' {
				return SequenceEvent{Kind: kind, Raw: string(buf[:i+2])}, i + 2
			}
			// An ESC that does not start ST cancels the string.
			return nil, i
		}
		if i >= maxSequenceLen {
			return oversized{mode: skipString}, i
		}
	}
	return incompleteString(buf, more)
}

// skipRest discards the tail of an oversized sequence. It reports how many
// bytes were consumed and whether the sequence has ended. A string ends with
// BEL or ST; an ESC that does not start ST ends it without being consumed.
// A CSI ends with its final byte, or before any byte that cannot be part of it.
func skipRest(buf []byte, mode skipMode, more bool) (int, bool) {
	for i, b := range buf {
		switch mode {
		case skipCSI:
			switch {
			case b >= 0x40 && b <= 0x7e:
				return i + 1, true
			case b < 0x20 || b > 0x3f:
				return i, true
			}
		case skipString:
			switch b {
			case 0x07:
				return i + 1, true
			case esc:
				if i+1 >= len(buf) {
					return i, !more
				}
				if buf[i+1] == '\\' {
					return i + 2, true
				}
				return i, true
			}
		}
	}
	return len(buf), false
}

func incompleteString(buf []byte, more bool) (Event, int) {
	if more {
		return nil, 0
	}
	return parseAlt(buf, more)
}
