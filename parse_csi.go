package termin

import (
	"bytes"
	"unicode/utf8"
)

var (
	pasteStart = []byte("\x1b[200~")
	pasteEnd   = []byte("\x1b[201~")
)

type scanResult uint8

const (
	scanComplete scanResult = iota
	scanIncomplete
	scanMalformed
	scanOversized
)

// scanCSI finds the end of the CSI sequence starting at buf[0]. For a
// complete sequence it returns the index one past the final byte. For a
// malformed one it returns the index of the offending byte, and for an
// oversized one the number of bytes scanned so far.
func scanCSI(buf []byte) (int, scanResult) {
	for i := 2; i < len(buf); i++ {
		b := buf[i]
		switch {
		case b >= 0x20 && b <= 0x3f:
			// parameter and intermediate bytes
		case b >= 0x40 && b <= 0x7e:
			return i + 1, scanComplete
		default:
			return i, scanMalformed
		}
		if i >= maxSequenceLen {
			return i + 1, scanOversized
		}
	}
	return len(buf), scanIncomplete
}

// parseCSI decodes a unit that starts with ESC [.
func parseCSI(buf []byte, more bool) (Event, int) {
	if len(buf) == 2 {
		if more {
			return nil, 0
		}
		return parseAlt(buf, more)
	}

	switch buf[2] {
	case '[':
		// Linux console function keys: ESC [ [ A..E
		if len(buf) == 3 {
			if more {
				return nil, 0
			}
			return parseAlt(buf, more)
		}
		if buf[3] >= 'A' && buf[3] <= 'E' {
			return NewKeyEvent(KeyF1+Key(buf[3]-'A'), ModNone), 4
		}
		return nil, 4
	case 'M':
		return parseX10Mouse(buf, more)
	}

	end, res := scanCSI(buf)
	switch res {
	case scanIncomplete:
		if more {
			return nil, 0
		}
		return parseAlt(buf, more)
	case scanMalformed:
		return nil, end
	case scanOversized:
		return oversized{mode: skipCSI}, end
	}

	if bytes.HasPrefix(buf, pasteStart) && end == len(pasteStart) {
		return parsePaste(buf, end)
	}
	return decodeCSI(buf[:end]), end
}

// parsePaste collects bracketed paste text up to ESC [ 201 ~. It always waits
// for the terminator, even when flushing.
func parsePaste(buf []byte, start int) (Event, int) {
	i := bytes.Index(buf[start:], pasteEnd)
	if i < 0 {
		return nil, 0
	}
	text := buf[start : start+i]
	return PasteEvent{Text: string(text)}, start + i + len(pasteEnd)
}

// parseX10Mouse decodes ESC [ M Cb Cx Cy where each byte carries an offset of 32.
func parseX10Mouse(buf []byte, more bool) (Event, int) {
	if len(buf) < 6 {
		if more {
			return nil, 0
		}
		return parseAlt(buf, more)
	}
	cb := int(buf[3]) - 32
	x := int(buf[4]) - 32
	y := int(buf[5]) - 32
	if cb < 0 {
		return nil, 6
	}
	return mouseEvent(cb, x, y, false), 6
}

// mouseEvent builds a MouseEvent from a decoded button byte and one-based
// coordinates. It returns nil for coordinates that are not valid one-based values.
func mouseEvent(cb, x, y int, release bool) Event {
	kind, button, mods, ok := mouseFromCb(cb)
	if !ok {
		return nil
	}
	col, cok := NewOneBased(clampUint16(x))
	row, rok := NewOneBased(clampUint16(y))
	if !cok || !rok {
		return nil
	}
	if release && kind == MouseDown {
		kind = MouseUp
	}
	return MouseEvent{
		Kind:      kind,
		Button:    button,
		Column:    col.ZeroBased(),
		Row:       row.ZeroBased(),
		Modifiers: mods,
	}
}

// decodeCSI interprets a complete CSI sequence. Sequences that do not describe
// keyboard, mouse or focus input are returned as a SequenceEvent. A nil result
// means the sequence is skipped.
func decodeCSI(seq []byte) Event {
	body := seq[2 : len(seq)-1]
	final := seq[len(seq)-1]
	raw := SequenceEvent{Kind: SequenceCSI, Raw: string(seq)}

	if len(body) > 0 && body[0] == '<' && (final == 'M' || final == 'm') {
		return decodeSGRMouse(body[1:], final == 'm')
	}
	if len(body) > 0 && body[0] >= '<' && body[0] <= '?' {
		return raw
	}
	if bytes.IndexFunc(body, func(r rune) bool { return r >= 0x20 && r <= 0x2f }) >= 0 {
		return raw
	}

	params, ok := splitParams(body)
	if !ok {
		return raw
	}

	switch final {
	case 'A', 'B', 'C', 'D', 'H', 'F', 'E', 'P', 'Q', 'S', 'Z':
		ev := KeyEvent{Code: letterKeys[final]}
		if len(params) > 1 {
			ev.Modifiers, ev.Kind, ev.State = decodeModifier(params[1])
		}
		if final == 'Z' {
			ev.Modifiers |= ModShift
		}
		return ev
	case 'R':
		// CSI R is F3 on some terminals; with parameters it is a cursor report.
		if len(params) == 0 {
			return NewKeyEvent(KeyF3, ModNone)
		}
		return raw
	case 'I':
		if len(params) == 0 {
			return FocusInEvent{}
		}
	case 'O':
		if len(params) == 0 {
			return FocusOutEvent{}
		}
	case '~':
		return decodeTilde(params, raw)
	case 'u':
		return decodeKitty(params)
	case 'M':
		// rxvt mouse: CSI Cb ; Cx ; Cy M
		if len(params) == 3 {
			return mouseEvent(first(params[0])-32, first(params[1]), first(params[2]), false)
		}
	}
	return raw
}

var letterKeys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
	'E': KeyKeypadBegin,
	'P': KeyF1,
	'Q': KeyF2,
	'S': KeyF4,
	'Z': KeyBackTab,
}

// decodeSGRMouse decodes the parameters of CSI < Cb ; Cx ; Cy M/m.
func decodeSGRMouse(body []byte, release bool) Event {
	params, ok := splitParams(body)
	if !ok || len(params) != 3 {
		return nil
	}
	return mouseEvent(first(params[0]), first(params[1]), first(params[2]), release)
}

var tildeKeys = map[int]Key{
	1:  KeyHome,
	2:  KeyInsert,
	3:  KeyDelete,
	4:  KeyEnd,
	5:  KeyPageUp,
	6:  KeyPageDown,
	7:  KeyHome,
	8:  KeyEnd,
	11: KeyF1,
	12: KeyF2,
	13: KeyF3,
	14: KeyF4,
	15: KeyF5,
	17: KeyF6,
	18: KeyF7,
	19: KeyF8,
	20: KeyF9,
	21: KeyF10,
	23: KeyF11,
	24: KeyF12,
	25: KeyF13,
	26: KeyF14,
	28: KeyF15,
	29: KeyF16,
	31: KeyF17,
	32: KeyF18,
	33: KeyF19,
	34: KeyF20,
}

// decodeTilde decodes CSI n ; m ~ key sequences.
func decodeTilde(params [][]int, raw SequenceEvent) Event {
	if len(params) == 0 {
		return raw
	}
	n := first(params[0])
	if n == 201 {
		// paste end without a start
		return nil
	}
	key, ok := tildeKeys[n]
	if !ok {
		return raw
	}
	ev := KeyEvent{Code: key}
	if len(params) > 1 {
		ev.Modifiers, ev.Kind, ev.State = decodeModifier(params[1])
	}
	return ev
}

// decodeModifier decodes an xterm/kitty modifier parameter: the first value
// is 1 plus a bitmask of held modifiers, the optional second value is the
// kitty event type (1 press, 2 repeat, 3 release).
func decodeModifier(p []int) (Modifiers, KeyEventKind, KeyState) {
	var (
		mods  Modifiers
		state KeyState
		kind  = KeyPress
	)
	if len(p) > 0 && p[0] > 1 {
		bits := p[0] - 1
		if bits&1 != 0 {
			mods |= ModShift
		}
		if bits&2 != 0 {
			mods |= ModAlt
		}
		if bits&4 != 0 {
			mods |= ModCtrl
		}
		if bits&8 != 0 {
			mods |= ModSuper
		}
		if bits&16 != 0 {
			mods |= ModHyper
		}
		if bits&32 != 0 {
			mods |= ModMeta
		}
		if bits&64 != 0 {
			state |= StateCapsLock
		}
		if bits&128 != 0 {
			state |= StateNumLock
		}
	}
	if len(p) > 1 {
		switch p[1] {
		case 2:
			kind = KeyRepeat
		case 3:
			kind = KeyRelease
		}
	}
	return mods, kind, state
}

// decodeKitty decodes the kitty keyboard protocol form
// CSI code[:shifted[:base]] ; modifiers[:event] [; text] u.
func decodeKitty(params [][]int) Event {
	if len(params) == 0 || len(params[0]) == 0 {
		return nil
	}
	key, r, state, ok := kittyKey(params[0][0])
	if !ok {
		return nil
	}

	ev := KeyEvent{Code: key, Rune: r, State: state}
	if len(params) > 1 {
		var extra KeyState
		ev.Modifiers, ev.Kind, extra = decodeModifier(params[1])
		ev.State |= extra
	}

	if ev.Modifiers.Has(ModShift) {
		switch {
		case key == KeyRune && len(params[0]) > 1 && params[0][1] > 0 && utf8.ValidRune(rune(params[0][1])):
			ev.Rune = rune(params[0][1])
		case key == KeyTab:
			ev.Code = KeyBackTab
		}
	}
	return ev
}

var kittyKeypad = map[int]KeyEvent{
	57409: {Code: KeyRune, Rune: '.'},
	57410: {Code: KeyRune, Rune: '/'},
	57411: {Code: KeyRune, Rune: '*'},
	57412: {Code: KeyRune, Rune: '-'},
	57413: {Code: KeyRune, Rune: '+'},
	57414: {Code: KeyEnter},
	57415: {Code: KeyRune, Rune: '='},
	57416: {Code: KeyRune, Rune: ','},
	57417: {Code: KeyLeft},
	57418: {Code: KeyRight},
	57419: {Code: KeyUp},
	57420: {Code: KeyDown},
	57421: {Code: KeyPageUp},
	57422: {Code: KeyPageDown},
	57423: {Code: KeyHome},
	57424: {Code: KeyEnd},
	57425: {Code: KeyInsert},
	57426: {Code: KeyDelete},
	57427: {Code: KeyKeypadBegin},
}

// kittyKey maps a kitty key code to a key, its rune and any implied state.
func kittyKey(code int) (Key, rune, KeyState, bool) {
	switch {
	case code == 9:
		return KeyTab, 0, StateNone, true
	case code == 13:
		return KeyEnter, 0, StateNone, true
	case code == 27:
		return KeyEscape, 0, StateNone, true
	case code == 127 || code == 8:
		return KeyBackspace, 0, StateNone, true
	case code == 57358:
		return KeyCapsLock, 0, StateNone, true
	case code == 57359:
		return KeyScrollLock, 0, StateNone, true
	case code == 57360:
		return KeyNumLock, 0, StateNone, true
	case code == 57361:
		return KeyPrintScreen, 0, StateNone, true
	case code == 57362:
		return KeyPause, 0, StateNone, true
	case code == 57363:
		return KeyMenu, 0, StateNone, true
	case code >= 57376 && code <= 57398:
		return FunctionKey(13 + code - 57376), 0, StateNone, true
	case code >= 57399 && code <= 57408:
		return KeyRune, rune('0' + code - 57399), StateKeypad, true
	case code >= 57409 && code <= 57427:
		k := kittyKeypad[code]
		return k.Code, k.Rune, StateKeypad, true
	case code >= 57428 && code <= 57440:
		return KeyMediaPlay + Key(code-57428), 0, StateNone, true
	case code >= 57441 && code <= 57454:
		return KeyLeftShift + Key(code-57441), 0, StateNone, true
	case code >= 0x20 && utf8.ValidRune(rune(code)):
		return KeyRune, rune(code), StateNone, true
	}
	return KeyNone, 0, StateNone, false
}

// splitParams splits CSI parameter bytes on ';' and each field on ':'. Empty
// values decode as zero. It fails on bytes other than digits and separators.
func splitParams(body []byte) ([][]int, bool) {
	if len(body) == 0 {
		return nil, true
	}
	var params [][]int
	for _, field := range bytes.Split(body, []byte{';'}) {
		var sub []int
		for _, part := range bytes.Split(field, []byte{':'}) {
			for _, c := range part {
				if c < '0' || c > '9' {
					return nil, false
				}
			}
			sub = append(sub, atoiClamped(string(part)))
		}
		params = append(params, sub)
	}
	return params, true
}

func first(p []int) int {
	if len(p) == 0 {
		return 0
	}
	return p[0]
}
