package termin

import (
	"errors"
	"testing"
	"unicode/utf16"

	"github.com/google/go-cmp/cmp"
)

type fakeScreen struct {
	info ScreenInfo
	err  error
}

func (f *fakeScreen) Info() (ScreenInfo, error) {
	return f.info, f.err
}

// fakeLayout maps virtual key codes to the text they produce.
type fakeLayout map[uint16]string

func (f fakeLayout) Translate(virtualKey, scanCode uint16) ([]uint16, bool) {
	s, ok := f[virtualKey]
	if !ok {
		return nil, false
	}
	return utf16.Encode([]rune(s)), true
}

var testLayout = fakeLayout{
	0x41: "a",
	0x42: "b",
	0xDC: "ß",
	0xBA: "ab",
}

func decodeRecords(d *ConsoleDecoder, records ...ConsoleRecord) []Event {
	d.Decode(records...)
	var events []Event
	for {
		ev, ok := d.Next()
		if !ok {
			return events
		}
		events = append(events, ev)
	}
}

func wheelState(delta int32) uint32 {
	return uint32(delta << 16)
}

func keyDown(vk uint16, ch uint16, state uint32) KeyRecord {
	return KeyRecord{KeyDown: true, RepeatCount: 1, VirtualKeyCode: vk, Char: ch, ControlKeyState: state}
}

func TestConsoleDecoder_MouseButtonDiff(t *testing.T) {
	d := NewConsoleDecoder(ConsoleLegacy, nil, &fakeScreen{})

	got := decodeRecords(d,
		MouseRecord{X: 3, Y: 4, ButtonState: FromLeft1stButtonPressed},
		MouseRecord{X: 3, Y: 4, ButtonState: 0},
		MouseRecord{X: 3, Y: 4, ButtonState: RightmostButtonPressed},
	)

	want := []Event{
		MouseEvent{Kind: MouseDown, Button: MouseLeft, Column: 3, Row: 4},
		MouseEvent{Kind: MouseUp, Button: MouseLeft, Column: 3, Row: 4},
		MouseEvent{Kind: MouseDown, Button: MouseRight, Column: 3, Row: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mouse events mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleDecoder_MouseRecords(t *testing.T) {
	type tc struct {
		records  []ConsoleRecord
		expected []Event
	}

	tests := map[string]tc{
		"middle press and release": {
			records: []ConsoleRecord{
				MouseRecord{ButtonState: FromLeft2ndButtonPressed},
				MouseRecord{ButtonState: 0},
			},
			expected: []Event{
				MouseEvent{Kind: MouseDown, Button: MouseMiddle},
				MouseEvent{Kind: MouseUp, Button: MouseMiddle},
			},
		},
		"third button counts as right": {
			records: []ConsoleRecord{
				MouseRecord{ButtonState: FromLeft3rdButtonPressed},
			},
			expected: []Event{
				MouseEvent{Kind: MouseDown, Button: MouseRight},
			},
		},
		"double click reports press": {
			records: []ConsoleRecord{
				MouseRecord{ButtonState: FromLeft1stButtonPressed, EventFlags: DoubleClickFlag},
			},
			expected: []Event{
				MouseEvent{Kind: MouseDown, Button: MouseLeft},
			},
		},
		"held button produces nothing": {
			records: []ConsoleRecord{
				MouseRecord{ButtonState: FromLeft1stButtonPressed},
				MouseRecord{ButtonState: FromLeft1stButtonPressed},
			},
			expected: []Event{
				MouseEvent{Kind: MouseDown, Button: MouseLeft},
			},
		},
		"move without buttons": {
			records: []ConsoleRecord{
				MouseRecord{X: 7, Y: 2, EventFlags: MouseMovedFlag},
			},
			expected: []Event{
				MouseEvent{Kind: MouseMoved, Column: 7, Row: 2},
			},
		},
		"drag prefers right": {
			records: []ConsoleRecord{
				MouseRecord{ButtonState: FromLeft1stButtonPressed | RightmostButtonPressed | FromLeft2ndButtonPressed, EventFlags: MouseMovedFlag},
			},
			expected: []Event{
				MouseEvent{Kind: MouseDrag, Button: MouseRight},
			},
		},
		"drag prefers middle over left": {
			records: []ConsoleRecord{
				MouseRecord{ButtonState: FromLeft1stButtonPressed | FromLeft2ndButtonPressed, EventFlags: MouseMovedFlag},
			},
			expected: []Event{
				MouseEvent{Kind: MouseDrag, Button: MouseMiddle},
			},
		},
		"left drag": {
			records: []ConsoleRecord{
				MouseRecord{ButtonState: FromLeft1stButtonPressed, EventFlags: MouseMovedFlag},
			},
			expected: []Event{
				MouseEvent{Kind: MouseDrag, Button: MouseLeft},
			},
		},
		"wheel": {
			records: []ConsoleRecord{
				MouseRecord{ButtonState: wheelState(120), EventFlags: MouseWheeledFlag},
				MouseRecord{ButtonState: wheelState(-120), EventFlags: MouseWheeledFlag},
				MouseRecord{ButtonState: wheelState(-120), EventFlags: MouseHWheeledFlag},
				MouseRecord{ButtonState: wheelState(120), EventFlags: MouseHWheeledFlag},
				MouseRecord{ButtonState: 0, EventFlags: MouseWheeledFlag},
			},
			expected: []Event{
				MouseEvent{Kind: MouseScrollUp},
				MouseEvent{Kind: MouseScrollDown},
				MouseEvent{Kind: MouseScrollLeft},
				MouseEvent{Kind: MouseScrollRight},
			},
		},
		"modifiers": {
			records: []ConsoleRecord{
				MouseRecord{ButtonState: FromLeft1stButtonPressed, ControlKeyState: LeftCtrlPressed | ShiftPressed | RightAltPressed},
			},
			expected: []Event{
				MouseEvent{Kind: MouseDown, Button: MouseLeft, Modifiers: ModCtrl | ModShift | ModAlt},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := NewConsoleDecoder(ConsoleLegacy, nil, &fakeScreen{})
			got := decodeRecords(d, tt.records...)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("mouse events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConsoleDecoder_MouseRowRelativeToWindow(t *testing.T) {
	screen := &fakeScreen{info: ScreenInfo{WindowTop: 100}}
	d := NewConsoleDecoder(ConsoleLegacy, nil, screen)

	got := decodeRecords(d,
		MouseRecord{X: 2, Y: 105, EventFlags: MouseMovedFlag},
		MouseRecord{X: 2, Y: 99, EventFlags: MouseMovedFlag},
	)
	want := []Event{MouseEvent{Kind: MouseMoved, Column: 2, Row: 5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mouse events mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleDecoder_MouseStateKeptWhenQueryFails(t *testing.T) {
	screen := &fakeScreen{err: errors.New("no console")}
	d := NewConsoleDecoder(ConsoleLegacy, nil, screen)

	if got := decodeRecords(d, MouseRecord{ButtonState: FromLeft1stButtonPressed}); len(got) != 0 {
		t.Fatalf("press with failing screen query = %v, want no events", got)
	}

	screen.err = nil
	got := decodeRecords(d, MouseRecord{ButtonState: 0})
	want := []Event{MouseEvent{Kind: MouseUp, Button: MouseLeft}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("release mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleDecoder_MouseIgnoredInVTMode(t *testing.T) {
	d := NewConsoleDecoder(ConsoleVT, nil, &fakeScreen{})
	if got := decodeRecords(d, MouseRecord{ButtonState: FromLeft1stButtonPressed}); len(got) != 0 {
		t.Errorf("VT mode mouse record produced %v, want no events", got)
	}
}

func TestConsoleDecoder_LegacyKeys(t *testing.T) {
	type tc struct {
		records  []ConsoleRecord
		expected []Event
	}

	tests := map[string]tc{
		"letter": {
			records:  []ConsoleRecord{keyDown(0x41, 'a', 0)},
			expected: []Event{char('a', ModNone)},
		},
		"letter release": {
			records:  []ConsoleRecord{KeyRecord{VirtualKeyCode: 0x41, Char: 'a'}},
			expected: []Event{KeyEvent{Code: KeyRune, Rune: 'a', Kind: KeyRelease}},
		},
		"enter": {
			records:  []ConsoleRecord{keyDown(VKReturn, '\r', 0)},
			expected: []Event{key(KeyEnter, ModNone)},
		},
		"escape": {
			records:  []ConsoleRecord{keyDown(VKEscape, 0x1b, 0)},
			expected: []Event{key(KeyEscape, ModNone)},
		},
		"backspace": {
			records:  []ConsoleRecord{keyDown(VKBack, 0x08, 0)},
			expected: []Event{key(KeyBackspace, ModNone)},
		},
		"tab": {
			records:  []ConsoleRecord{keyDown(VKTab, '\t', 0)},
			expected: []Event{key(KeyTab, ModNone)},
		},
		"shift+tab": {
			records:  []ConsoleRecord{keyDown(VKTab, '\t', ShiftPressed)},
			expected: []Event{key(KeyBackTab, ModShift)},
		},
		"arrows and navigation": {
			records: []ConsoleRecord{
				keyDown(VKUp, 0, EnhancedKey),
				keyDown(VKDown, 0, EnhancedKey),
				keyDown(VKLeft, 0, EnhancedKey),
				keyDown(VKRight, 0, EnhancedKey),
				keyDown(VKPrior, 0, 0),
				keyDown(VKNext, 0, 0),
				keyDown(VKHome, 0, 0),
				keyDown(VKEnd, 0, 0),
				keyDown(VKInsert, 0, 0),
				keyDown(VKDelete, 0, 0),
			},
			expected: []Event{
				key(KeyUp, ModNone),
				key(KeyDown, ModNone),
				key(KeyLeft, ModNone),
				key(KeyRight, ModNone),
				key(KeyPageUp, ModNone),
				key(KeyPageDown, ModNone),
				key(KeyHome, ModNone),
				key(KeyEnd, ModNone),
				key(KeyInsert, ModNone),
				key(KeyDelete, ModNone),
			},
		},
		"function keys": {
			records:  []ConsoleRecord{keyDown(VKF1, 0, 0), keyDown(0x7B, 0, 0), keyDown(VKF24, 0, 0)},
			expected: []Event{key(KeyF1, ModNone), key(KeyF12, ModNone), key(KeyF24, ModNone)},
		},
		"modifier keys alone": {
			records: []ConsoleRecord{
				keyDown(VKShift, 0, ShiftPressed),
				keyDown(VKControl, 0, LeftCtrlPressed),
				keyDown(VKMenu, 0, LeftAltPressed),
			},
			expected: nil,
		},
		"alt code release": {
			records: []ConsoleRecord{
				keyDown(VKMenu, 0, LeftAltPressed),
				keyDown(VKNumpad0+2, 0, LeftAltPressed|NumLockOn),
				keyDown(VKNumpad0+3, 0, LeftAltPressed|NumLockOn),
				KeyRecord{VirtualKeyCode: VKMenu, Char: 0xE9, ControlKeyState: NumLockOn},
			},
			expected: []Event{KeyEvent{Code: KeyRune, Rune: 'é', Kind: KeyRelease}},
		},
		"numpad with ctrl and alt": {
			records:  []ConsoleRecord{keyDown(VKNumpad0+1, '1', LeftAltPressed|LeftCtrlPressed)},
			expected: []Event{char('1', ModAlt|ModCtrl)},
		},
		"ctrl+letter uses layout": {
			records:  []ConsoleRecord{keyDown(0x41, 0x01, LeftCtrlPressed)},
			expected: []Event{char('a', ModCtrl)},
		},
		"ctrl+shift+letter is uppercase": {
			records:  []ConsoleRecord{keyDown(0x42, 0x02, RightCtrlPressed|ShiftPressed)},
			expected: []Event{char('B', ModCtrl|ModShift)},
		},
		"caps lock uppercases": {
			records:  []ConsoleRecord{keyDown(0x41, 0x01, LeftCtrlPressed|CapsLockOn)},
			expected: []Event{char('A', ModCtrl)},
		},
		"shift with caps lock lowercases": {
			records:  []ConsoleRecord{keyDown(0x41, 0x01, LeftCtrlPressed|CapsLockOn|ShiftPressed)},
			expected: []Event{char('a', ModCtrl|ModShift)},
		},
		"uppercase without single rune keeps original": {
			records:  []ConsoleRecord{keyDown(0xDC, 0x1c, LeftCtrlPressed|ShiftPressed)},
			expected: []Event{char('ß', ModCtrl|ModShift)},
		},
		"layout with several characters": {
			records:  []ConsoleRecord{keyDown(0xBA, 0x00, LeftCtrlPressed)},
			expected: nil,
		},
		"dead or unknown key": {
			records:  []ConsoleRecord{keyDown(0x51, 0x00, LeftCtrlPressed)},
			expected: nil,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := NewConsoleDecoder(ConsoleLegacy, testLayout, &fakeScreen{})
			got := decodeRecords(d, tt.records...)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("key events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConsoleDecoder_NoLayout(t *testing.T) {
	d := NewConsoleDecoder(ConsoleLegacy, nil, nil)
	if got := decodeRecords(d, keyDown(0x41, 0x01, LeftCtrlPressed)); len(got) != 0 {
		t.Errorf("control character without layout produced %v, want no events", got)
	}
}

func TestConsoleDecoder_Surrogates(t *testing.T) {
	type tc struct {
		records  []ConsoleRecord
		expected []Event
	}

	tests := map[string]tc{
		"pair": {
			records:  []ConsoleRecord{keyDown(0, 0xD83D, 0), keyDown(0, 0xDE00, 0)},
			expected: []Event{char('😀', ModNone)},
		},
		"stale high surrogate": {
			records:  []ConsoleRecord{keyDown(0, 0xD83D, 0), keyDown(0x42, 'b', 0), keyDown(0, 0xDE00, 0)},
			expected: []Event{char('b', ModNone)},
		},
		"lone low surrogate": {
			records:  []ConsoleRecord{keyDown(0, 0xDE00, 0)},
			expected: nil,
		},
		"modifier between halves": {
			records:  []ConsoleRecord{keyDown(0, 0xD83D, 0), keyDown(VKShift, 0, ShiftPressed), keyDown(0, 0xDE00, 0)},
			expected: []Event{char('😀', ModNone)},
		},
		"second high replaces first": {
			records:  []ConsoleRecord{keyDown(0, 0xD83C, 0), keyDown(0, 0xD83D, 0), keyDown(0, 0xDE00, 0)},
			expected: []Event{char('😀', ModNone)},
		},
	}

	for _, mode := range []ConsoleMode{ConsoleLegacy, ConsoleVT} {
		for name, tt := range tests {
			t.Run(mode.String()+"/"+name, func(t *testing.T) {
				d := NewConsoleDecoder(mode, testLayout, &fakeScreen{})
				d.Decode(tt.records...)
				d.Flush()
				got := decodeRecords(d)
				if diff := cmp.Diff(tt.expected, got); diff != "" {
					t.Errorf("key events mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestConsoleDecoder_VTKeys(t *testing.T) {
	type tc struct {
		records  []ConsoleRecord
		expected []Event
	}

	chars := func(s string) []ConsoleRecord {
		var records []ConsoleRecord
		for _, u := range utf16.Encode([]rune(s)) {
			records = append(records, keyDown(0, u, 0), KeyRecord{Char: u})
		}
		return records
	}

	tests := map[string]tc{
		"plain text": {
			records:  chars("hi"),
			expected: []Event{char('h', ModNone), char('i', ModNone)},
		},
		"arrow sequence": {
			records:  chars("\x1b[A"),
			expected: []Event{key(KeyUp, ModNone)},
		},
		"sgr mouse": {
			records:  chars("\x1b[<0;2;3M"),
			expected: []Event{MouseEvent{Kind: MouseDown, Button: MouseLeft, Column: 1, Row: 2}},
		},
		"zero chars skipped": {
			records:  []ConsoleRecord{keyDown(VKShift, 0, ShiftPressed), keyDown(0x41, 'A', ShiftPressed)},
			expected: []Event{char('A', ModShift)},
		},
		"non ascii": {
			records:  chars("ü😀"),
			expected: []Event{char('ü', ModNone), char('😀', ModNone)},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := NewConsoleDecoder(ConsoleVT, nil, nil)
			got := decodeRecords(d, tt.records...)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConsoleDecoder_VTPendingEscape(t *testing.T) {
	d := NewConsoleDecoder(ConsoleVT, nil, nil)
	if got := decodeRecords(d, keyDown(VKEscape, 0x1b, 0)); len(got) != 0 {
		t.Fatalf("lone ESC produced %v before flush, want none", got)
	}
	if !d.Ambiguous() {
		t.Fatal("Ambiguous() = false after lone ESC, want true")
	}

	// A non-key record decodes pending bytes first to keep record order.
	got := decodeRecords(d, FocusRecord{Focused: true})
	want := []Event{key(KeyEscape, ModNone), FocusInEvent{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleDecoder_Resize(t *testing.T) {
	type tc struct {
		record   ResizeRecord
		expected []Event
	}

	tests := map[string]tc{
		"one by one": {
			record:   ResizeRecord{Cols: 1, Rows: 1},
			expected: []Event{ResizeEvent{Size: WindowSize{Rows: 0, Cols: 0}}},
		},
		"standard": {
			record:   ResizeRecord{Cols: 80, Rows: 24},
			expected: []Event{ResizeEvent{Size: WindowSize{Rows: 23, Cols: 79}}},
		},
		"zero rows": {
			record:   ResizeRecord{Cols: 80, Rows: 0},
			expected: nil,
		},
		"zero cols": {
			record:   ResizeRecord{Cols: 0, Rows: 24},
			expected: nil,
		},
	}

	for _, mode := range []ConsoleMode{ConsoleLegacy, ConsoleVT} {
		for name, tt := range tests {
			t.Run(mode.String()+"/"+name, func(t *testing.T) {
				d := NewConsoleDecoder(mode, nil, nil)
				got := decodeRecords(d, tt.record)
				if diff := cmp.Diff(tt.expected, got); diff != "" {
					t.Errorf("resize mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestConsoleDecoder_Focus(t *testing.T) {
	for _, mode := range []ConsoleMode{ConsoleLegacy, ConsoleVT} {
		t.Run(mode.String(), func(t *testing.T) {
			d := NewConsoleDecoder(mode, nil, nil)
			got := decodeRecords(d, FocusRecord{Focused: true}, FocusRecord{Focused: false})
			want := []Event{FocusInEvent{}, FocusOutEvent{}}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("focus mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEnsureCase(t *testing.T) {
	type tc struct {
		in       rune
		upper    bool
		expected rune
	}

	tests := map[string]tc{
		"lower to upper":     {in: 'q', upper: true, expected: 'Q'},
		"upper to lower":     {in: 'Q', upper: false, expected: 'q'},
		"already upper":      {in: 'Q', upper: true, expected: 'Q'},
		"digit unchanged":    {in: '7', upper: true, expected: '7'},
		"non ascii":          {in: 'ü', upper: true, expected: 'Ü'},
		"multi rune upper":   {in: 'ß', upper: true, expected: 'ß'},
		"cyrillic lowercase": {in: 'Ж', upper: false, expected: 'ж'},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ensureCase(tt.in, tt.upper); got != tt.expected {
				t.Errorf("ensureCase(%q, %v) = %q, want %q", tt.in, tt.upper, got, tt.expected)
			}
		})
	}
}
