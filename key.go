package termin

import (
	"fmt"
	"strings"
)

// Key represents a keyboard key.
type Key uint16

const (
	// KeyNone represents no key (zero value).
	KeyNone Key = iota

	// KeyRune represents a printable character. Check KeyEvent.Rune for the character.
	KeyRune

	// Special keys
	KeyEnter
	KeyBackspace
	KeyTab
	KeyBackTab
	KeyEscape
	KeyInsert
	KeyDelete

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Navigation keys
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Lock and system keys
	KeyKeypadBegin
	KeyCapsLock
	KeyScrollLock
	KeyNumLock
	KeyPrintScreen
	KeyPause
	KeyMenu

	// Function keys. KeyF1 through KeyF35 are contiguous.
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeyF21
	KeyF22
	KeyF23
	KeyF24
	KeyF25
	KeyF26
	KeyF27
	KeyF28
	KeyF29
	KeyF30
	KeyF31
	KeyF32
	KeyF33
	KeyF34
	KeyF35

	// Modifier keys reported on their own (kitty keyboard protocol)
	KeyLeftShift
	KeyLeftControl
	KeyLeftAlt
	KeyLeftSuper
	KeyLeftHyper
	KeyLeftMeta
	KeyRightShift
	KeyRightControl
	KeyRightAlt
	KeyRightSuper
	KeyRightHyper
	KeyRightMeta
	KeyIsoLevel3Shift
	KeyIsoLevel5Shift

	// Media keys
	KeyMediaPlay
	KeyMediaPause
	KeyMediaPlayPause
	KeyMediaReverse
	KeyMediaStop
	KeyMediaFastForward
	KeyMediaRewind
	KeyMediaTrackNext
	KeyMediaTrackPrevious
	KeyMediaRecord
	KeyMediaLowerVolume
	KeyMediaRaiseVolume
	KeyMediaMuteVolume
)

// FunctionKey returns the key for function key n (1-35), or KeyNone when n is
// out of range.
func FunctionKey(n int) Key {
	if n < 1 || n > 35 {
		return KeyNone
	}
	return KeyF1 + Key(n-1)
}

// IsFunction reports whether k is one of KeyF1..KeyF35.
func (k Key) IsFunction() bool {
	return k >= KeyF1 && k <= KeyF35
}

var keyNames = map[Key]string{
	KeyNone:               "None",
	KeyRune:               "Rune",
	KeyEnter:              "Enter",
	KeyBackspace:          "Backspace",
	KeyTab:                "Tab",
	KeyBackTab:            "BackTab",
	KeyEscape:             "Escape",
	KeyInsert:             "Insert",
	KeyDelete:             "Delete",
	KeyUp:                 "Up",
	KeyDown:               "Down",
	KeyLeft:               "Left",
	KeyRight:              "Right",
	KeyHome:               "Home",
	KeyEnd:                "End",
	KeyPageUp:             "PageUp",
	KeyPageDown:           "PageDown",
	KeyKeypadBegin:        "KeypadBegin",
	KeyCapsLock:           "CapsLock",
	KeyScrollLock:         "ScrollLock",
	KeyNumLock:            "NumLock",
	KeyPrintScreen:        "PrintScreen",
	KeyPause:              "Pause",
	KeyMenu:               "Menu",
	KeyLeftShift:          "LeftShift",
	KeyLeftControl:        "LeftControl",
	KeyLeftAlt:            "LeftAlt",
	KeyLeftSuper:          "LeftSuper",
	KeyLeftHyper:          "LeftHyper",
	KeyLeftMeta:           "LeftMeta",
	KeyRightShift:         "RightShift",
	KeyRightControl:       "RightControl",
	KeyRightAlt:           "RightAlt",
	KeyRightSuper:         "RightSuper",
	KeyRightHyper:         "RightHyper",
	KeyRightMeta:          "RightMeta",
	KeyIsoLevel3Shift:     "IsoLevel3Shift",
	KeyIsoLevel5Shift:     "IsoLevel5Shift",
	KeyMediaPlay:          "MediaPlay",
	KeyMediaPause:         "MediaPause",
	KeyMediaPlayPause:     "MediaPlayPause",
	KeyMediaReverse:       "MediaReverse",
	KeyMediaStop:          "MediaStop",
	KeyMediaFastForward:   "MediaFastForward",
	KeyMediaRewind:        "MediaRewind",
	KeyMediaTrackNext:     "MediaTrackNext",
	KeyMediaTrackPrevious: "MediaTrackPrevious",
	KeyMediaRecord:        "MediaRecord",
	KeyMediaLowerVolume:   "MediaLowerVolume",
	KeyMediaRaiseVolume:   "MediaRaiseVolume",
	KeyMediaMuteVolume:    "MediaMuteVolume",
}

// String returns a human-readable representation of the key.
func (k Key) String() string {
	if k.IsFunction() {
		return fmt.Sprintf("F%d", int(k-KeyF1)+1)
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "Unknown"
}

// KeyEventKind distinguishes key presses from repeats and releases.
type KeyEventKind uint8

const (
	KeyPress KeyEventKind = iota
	KeyRepeat
	KeyRelease
)

func (k KeyEventKind) String() string {
	switch k {
	case KeyPress:
		return "Press"
	case KeyRepeat:
		return "Repeat"
	case KeyRelease:
		return "Release"
	default:
		return "Unknown"
	}
}

// Modifiers represents keyboard modifier flags.
type Modifiers uint8

const (
	// ModNone represents no modifiers.
	ModNone  Modifiers = 0
	ModShift Modifiers = 1 << (iota - 1)
	ModAlt
	ModCtrl
	ModSuper
	ModHyper
	ModMeta
)

// Has checks if the modifier set includes all of the given modifiers.
func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod == mod
}

// String returns a human-readable representation of the modifiers.
func (m Modifiers) String() string {
	if m == ModNone {
		return "None"
	}

	var parts []string
	for _, n := range []struct {
		mod  Modifiers
		name string
	}{
		{ModCtrl, "Ctrl"},
		{ModAlt, "Alt"},
		{ModShift, "Shift"},
		{ModSuper, "Super"},
		{ModHyper, "Hyper"},
		{ModMeta, "Meta"},
	} {
		if m.Has(n.mod) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "+")
}

// KeyState carries keypad and lock-key flags reported alongside a key.
type KeyState uint8

const (
	StateNone     KeyState = 0
	StateKeypad   KeyState = 1 << (iota - 1)
	StateCapsLock
	StateNumLock
)

// Has checks if the state includes all of the given flags.
func (s KeyState) Has(flag KeyState) bool {
	return s&flag == flag
}
