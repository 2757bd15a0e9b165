package termin

import (
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Virtual key codes used by the legacy key translation.
const (
	VKBack    uint16 = 0x08
	VKTab     uint16 = 0x09
	VKReturn  uint16 = 0x0D
	VKShift   uint16 = 0x10
	VKControl uint16 = 0x11
	VKMenu    uint16 = 0x12
	VKEscape  uint16 = 0x1B
	VKPrior   uint16 = 0x21
	VKNext    uint16 = 0x22
	VKEnd     uint16 = 0x23
	VKHome    uint16 = 0x24
	VKLeft    uint16 = 0x25
	VKUp      uint16 = 0x26
	VKRight   uint16 = 0x27
	VKDown    uint16 = 0x28
	VKInsert  uint16 = 0x2D
	VKDelete  uint16 = 0x2E
	VKNumpad0 uint16 = 0x60
	VKNumpad9 uint16 = 0x69
	VKF1      uint16 = 0x70
	VKF24     uint16 = 0x87
)

var vkKeys = map[uint16]Key{
	VKBack:   KeyBackspace,
	VKEscape: KeyEscape,
	VKReturn: KeyEnter,
	VKLeft:   KeyLeft,
	VKUp:     KeyUp,
	VKRight:  KeyRight,
	VKDown:   KeyDown,
	VKPrior:  KeyPageUp,
	VKNext:   KeyPageDown,
	VKHome:   KeyHome,
	VKEnd:    KeyEnd,
	VKDelete: KeyDelete,
	VKInsert: KeyInsert,
}

// legacyKey translates a key record in legacy mode. Key releases are
// reported with KeyRelease, except that plain releases of modifiers produce
// nothing.
func (d *ConsoleDecoder) legacyKey(r KeyRecord) (KeyEvent, bool) {
	mods := controlKeyModifiers(r.ControlKeyState)
	kind := KeyPress
	if !r.KeyDown {
		kind = KeyRelease
	}

	// An Alt release carrying a character is the result of an Alt code.
	if r.VirtualKeyCode == VKMenu && !r.KeyDown && r.Char != 0 {
		return d.legacyChar(r.Char, mods, kind)
	}

	// Numpad digits typed with only Alt held are building an Alt code.
	onlyAlt := mods.Has(ModAlt) && mods&(ModShift|ModCtrl) == 0
	if onlyAlt && r.VirtualKeyCode >= VKNumpad0 && r.VirtualKeyCode <= VKNumpad9 {
		return KeyEvent{}, false
	}

	var code Key
	switch vk := r.VirtualKeyCode; {
	case vk == VKShift || vk == VKControl || vk == VKMenu:
		return KeyEvent{}, false
	case vk >= VKF1 && vk <= VKF24:
		code = FunctionKey(int(vk-VKF1) + 1)
	case vk == VKTab:
		code = KeyTab
		if mods.Has(ModShift) {
			code = KeyBackTab
		}
	default:
		if k, ok := vkKeys[vk]; ok {
			code = k
			break
		}
		if r.Char <= 0x1f {
			ch, ok := d.layoutChar(r)
			if !ok {
				return KeyEvent{}, false
			}
			d.surrogate = 0
			return KeyEvent{Code: KeyRune, Rune: ch, Kind: kind, Modifiers: mods}, true
		}
		return d.legacyChar(r.Char, mods, kind)
	}

	d.surrogate = 0
	return KeyEvent{Code: code, Kind: kind, Modifiers: mods}, true
}

// legacyChar builds a character event from one UTF-16 unit, combining
// surrogate pairs across records.
func (d *ConsoleDecoder) legacyChar(unit uint16, mods Modifiers, kind KeyEventKind) (KeyEvent, bool) {
	ch, ok := d.combine(unit)
	if !ok {
		return KeyEvent{}, false
	}
	if unit >= 0xDC00 && unit <= 0xDFFF {
		// Completed surrogate pairs are always reported as presses.
		kind = KeyPress
	}
	return KeyEvent{Code: KeyRune, Rune: ch, Kind: kind, Modifiers: mods}, true
}

// layoutChar asks the keyboard layout which character the key produces and
// applies the case implied by Shift and CapsLock.
func (d *ConsoleDecoder) layoutChar(r KeyRecord) (rune, bool) {
	if d.layout == nil {
		return 0, false
	}
	units, ok := d.layout.Translate(r.VirtualKeyCode, r.VirtualScanCode)
	if !ok || len(units) == 0 {
		return 0, false
	}
	runes := utf16.Decode(units)
	if len(runes) != 1 || runes[0] == utf8.RuneError {
		return 0, false
	}

	shift := r.ControlKeyState&ShiftPressed != 0
	capsLock := r.ControlKeyState&CapsLockOn != 0
	return ensureCase(runes[0], shift != capsLock), true
}

// ensureCase converts ch to the requested case when the conversion yields
// exactly one rune, and returns ch unchanged otherwise.
func ensureCase(ch rune, upper bool) rune {
	var s string
	switch {
	case upper && unicode.IsLower(ch):
		s = cases.Upper(language.Und).String(string(ch))
	case !upper && unicode.IsUpper(ch):
		s = cases.Lower(language.Und).String(string(ch))
	default:
		return ch
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return ch
	}
	return r
}
