package termin

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/grindlemire/go-termin/internal/debug"
)

// ConsoleMode selects how a ConsoleDecoder interprets key records.
type ConsoleMode uint8

const (
	// ConsoleVT treats key records as a stream of VT input characters and
	// decodes them with a Parser. The console must have virtual terminal
	// input enabled.
	ConsoleVT ConsoleMode = iota
	// ConsoleLegacy translates structured key and mouse records directly.
	ConsoleLegacy
)

func (m ConsoleMode) String() string {
	switch m {
	case ConsoleVT:
		return "vt"
	case ConsoleLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// ConsoleRecord is one console input record. The concrete types mirror the
// Win32 INPUT_RECORD variants without depending on the Windows API.
type ConsoleRecord interface {
	isConsoleRecord()
}

// KeyRecord mirrors KEY_EVENT_RECORD. Char is a single UTF-16 code unit.
type KeyRecord struct {
	KeyDown         bool
	RepeatCount     uint16
	VirtualKeyCode  uint16
	VirtualScanCode uint16
	Char            uint16
	ControlKeyState uint32
}

// MouseRecord mirrors MOUSE_EVENT_RECORD. Y is relative to the screen
// buffer, not the visible window. For wheel events the high word of
// ButtonState carries the signed wheel delta.
type MouseRecord struct {
	X, Y            int16
	ButtonState     uint32
	ControlKeyState uint32
	EventFlags      uint32
}

// ResizeRecord mirrors WINDOW_BUFFER_SIZE_RECORD. Both values are one-based.
type ResizeRecord struct {
	Cols uint16
	Rows uint16
}

// FocusRecord mirrors FOCUS_EVENT_RECORD.
type FocusRecord struct {
	Focused bool
}

func (KeyRecord) isConsoleRecord()    {}
func (MouseRecord) isConsoleRecord()  {}
func (ResizeRecord) isConsoleRecord() {}
func (FocusRecord) isConsoleRecord()  {}

// Control key state flags.
const (
	RightAltPressed  uint32 = 0x0001
	LeftAltPressed   uint32 = 0x0002
	RightCtrlPressed uint32 = 0x0004
	LeftCtrlPressed  uint32 = 0x0008
	ShiftPressed     uint32 = 0x0010
	NumLockOn        uint32 = 0x0020
	ScrollLockOn     uint32 = 0x0040
	CapsLockOn       uint32 = 0x0080
	EnhancedKey      uint32 = 0x0100
)

// Mouse button state flags.
const (
	FromLeft1stButtonPressed uint32 = 0x0001
	RightmostButtonPressed   uint32 = 0x0002
	FromLeft2ndButtonPressed uint32 = 0x0004
	FromLeft3rdButtonPressed uint32 = 0x0008
	FromLeft4thButtonPressed uint32 = 0x0010
)

// Mouse event flags.
const (
	MouseMovedFlag    uint32 = 0x0001
	DoubleClickFlag   uint32 = 0x0002
	MouseWheeledFlag  uint32 = 0x0004
	MouseHWheeledFlag uint32 = 0x0008
)

// ScreenInfo is the part of the console screen buffer state the decoder
// needs. All values are zero-based cells in screen buffer coordinates.
type ScreenInfo struct {
	CursorColumn int16
	CursorRow    int16
	WindowTop    int16
}

// ScreenBuffer queries the console screen buffer. Mouse rows are reported
// relative to the buffer and are translated using WindowTop.
type ScreenBuffer interface {
	Info() (ScreenInfo, error)
}

// KeyboardLayout translates a key into the UTF-16 text it produces with no
// modifiers held on the active keyboard layout. It returns false for dead
// keys and keys that produce nothing.
type KeyboardLayout interface {
	Translate(virtualKey, scanCode uint16) ([]uint16, bool)
}

type mouseButtons struct {
	left, right, middle bool
}

// ConsoleDecoder turns console input records into events. In ConsoleVT mode
// key characters are decoded with a Parser; in ConsoleLegacy mode records are
// translated directly. Events from both paths share one queue in record
// order. A ConsoleDecoder is not safe for concurrent use.
type ConsoleDecoder struct {
	mode   ConsoleMode
	parser *Parser
	layout KeyboardLayout
	screen ScreenBuffer

	surrogate uint16
	buttons   mouseButtons
	scratch   [utf8.UTFMax]byte
}

// NewConsoleDecoder returns a decoder for the given mode. layout and screen
// may be nil; keys that need a layout lookup then produce no event and mouse
// records are dropped.
func NewConsoleDecoder(mode ConsoleMode, layout KeyboardLayout, screen ScreenBuffer) *ConsoleDecoder {
	return &ConsoleDecoder{
		mode:   mode,
		parser: NewParser(),
		layout: layout,
		screen: screen,
	}
}

// Mode returns the decoder's mode.
func (d *ConsoleDecoder) Mode() ConsoleMode {
	return d.mode
}

// Decode processes a batch of records.
func (d *ConsoleDecoder) Decode(records ...ConsoleRecord) {
	for _, rec := range records {
		d.decode(rec)
	}
}

func (d *ConsoleDecoder) decode(rec ConsoleRecord) {
	switch r := rec.(type) {
	case KeyRecord:
		if d.mode == ConsoleVT {
			d.decodeVTKey(r)
			return
		}
		if ev, ok := d.legacyKey(r); ok {
			d.parser.Push(ev)
		}
	case ResizeRecord:
		rows, rok := NewOneBased(r.Rows)
		cols, cok := NewOneBased(r.Cols)
		if !rok || !cok {
			debug.Log("console: discarded resize %dx%d", r.Cols, r.Rows)
			return
		}
		d.push(ResizeEvent{Size: WindowSize{Rows: rows.ZeroBased(), Cols: cols.ZeroBased()}})
	case FocusRecord:
		if r.Focused {
			d.push(FocusInEvent{})
		} else {
			d.push(FocusOutEvent{})
		}
	case MouseRecord:
		if d.mode != ConsoleLegacy {
			return
		}
		ev, ok := d.legacyMouse(r)
		d.buttons = mouseButtons{
			left:   leftButton(r.ButtonState),
			right:  rightButton(r.ButtonState),
			middle: middleButton(r.ButtonState),
		}
		if ok {
			d.parser.Push(ev)
		}
	}
}

// push queues an event that does not come from key characters. In VT mode
// bytes already received are decoded first so the queue stays in record order.
func (d *ConsoleDecoder) push(ev Event) {
	if d.mode == ConsoleVT && d.parser.Buffered() > 0 {
		d.parser.Flush()
	}
	d.parser.Push(ev)
}

func (d *ConsoleDecoder) decodeVTKey(r KeyRecord) {
	// Key-up records repeat the character of the key-down record.
	if !r.KeyDown || r.Char == 0 {
		return
	}
	ch, ok := d.combine(r.Char)
	if !ok {
		return
	}
	n := utf8.EncodeRune(d.scratch[:], ch)
	d.parser.Feed(d.scratch[:n])
}

// combine reassembles UTF-16 surrogate pairs. A high surrogate is held until
// its low half arrives; a low surrogate without a high one is discarded.
func (d *ConsoleDecoder) combine(unit uint16) (rune, bool) {
	switch {
	case unit >= 0xD800 && unit < 0xDC00:
		if d.surrogate != 0 {
			debug.Log("console: replaced unpaired surrogate %#x", d.surrogate)
		}
		d.surrogate = unit
		return 0, false
	case unit >= 0xDC00 && unit <= 0xDFFF:
		if d.surrogate == 0 {
			debug.Log("console: discarded low surrogate %#x", unit)
			return 0, false
		}
		r := utf16.DecodeRune(rune(d.surrogate), rune(unit))
		d.surrogate = 0
		return r, r != utf8.RuneError
	}
	d.surrogate = 0
	return rune(unit), true
}

// Next pops the oldest decoded event.
func (d *ConsoleDecoder) Next() (Event, bool) {
	return d.parser.Next()
}

// Ambiguous reports whether retained VT bytes await more input.
func (d *ConsoleDecoder) Ambiguous() bool {
	return d.parser.Ambiguous()
}

// Flush resolves retained VT bytes as if no more input will follow.
func (d *ConsoleDecoder) Flush() {
	d.parser.Flush()
}

func leftButton(state uint32) bool {
	return state&FromLeft1stButtonPressed != 0
}

func rightButton(state uint32) bool {
	return state&(RightmostButtonPressed|FromLeft3rdButtonPressed|FromLeft4thButtonPressed) != 0
}

func middleButton(state uint32) bool {
	return state&FromLeft2ndButtonPressed != 0
}

// legacyMouse translates a mouse record against the previously seen button
// state. Rows are made relative to the visible window.
func (d *ConsoleDecoder) legacyMouse(r MouseRecord) (MouseEvent, bool) {
	if d.screen == nil {
		return MouseEvent{}, false
	}
	info, err := d.screen.Info()
	if err != nil {
		debug.Log("console: screen buffer query failed: %v", err)
		return MouseEvent{}, false
	}
	row := int(r.Y) - int(info.WindowTop)
	if row < 0 || r.X < 0 {
		return MouseEvent{}, false
	}

	state := r.ButtonState
	wheel := int32(state)
	ev := MouseEvent{
		Column:    uint16(r.X),
		Row:       uint16(row),
		Modifiers: controlKeyModifiers(r.ControlKeyState),
	}

	switch r.EventFlags {
	case 0, DoubleClickFlag:
		prev := d.buttons
		switch {
		case leftButton(state) && !prev.left:
			ev.Kind, ev.Button = MouseDown, MouseLeft
		case !leftButton(state) && prev.left:
			ev.Kind, ev.Button = MouseUp, MouseLeft
		case rightButton(state) && !prev.right:
			ev.Kind, ev.Button = MouseDown, MouseRight
		case !rightButton(state) && prev.right:
			ev.Kind, ev.Button = MouseUp, MouseRight
		case middleButton(state) && !prev.middle:
			ev.Kind, ev.Button = MouseDown, MouseMiddle
		case !middleButton(state) && prev.middle:
			ev.Kind, ev.Button = MouseUp, MouseMiddle
		default:
			return MouseEvent{}, false
		}
	case MouseMovedFlag:
		switch {
		case state == 0:
			ev.Kind = MouseMoved
		case rightButton(state):
			ev.Kind, ev.Button = MouseDrag, MouseRight
		case middleButton(state):
			ev.Kind, ev.Button = MouseDrag, MouseMiddle
		default:
			ev.Kind, ev.Button = MouseDrag, MouseLeft
		}
	case MouseWheeledFlag:
		switch {
		case wheel < 0:
			ev.Kind = MouseScrollDown
		case wheel > 0:
			ev.Kind = MouseScrollUp
		default:
			return MouseEvent{}, false
		}
	case MouseHWheeledFlag:
		switch {
		case wheel < 0:
			ev.Kind = MouseScrollLeft
		case wheel > 0:
			ev.Kind = MouseScrollRight
		default:
			return MouseEvent{}, false
		}
	default:
		return MouseEvent{}, false
	}
	return ev, true
}

func controlKeyModifiers(state uint32) Modifiers {
	var mods Modifiers
	if state&ShiftPressed != 0 {
		mods |= ModShift
	}
	if state&(LeftCtrlPressed|RightCtrlPressed) != 0 {
		mods |= ModCtrl
	}
	if state&(LeftAltPressed|RightAltPressed) != 0 {
		mods |= ModAlt
	}
	return mods
}
