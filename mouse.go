package termin

// MouseEventKind is the action a MouseEvent reports.
type MouseEventKind uint8

const (
	// MouseDown is a button press. MouseEvent.Button holds the button.
	MouseDown MouseEventKind = iota
	// MouseUp is a button release. MouseEvent.Button holds the button.
	MouseUp
	// MouseDrag is motion with a button held. MouseEvent.Button holds the button.
	MouseDrag
	// MouseMoved is motion with no button held.
	MouseMoved
	MouseScrollDown
	MouseScrollUp
	MouseScrollLeft
	MouseScrollRight
)

func (k MouseEventKind) String() string {
	switch k {
	case MouseDown:
		return "Down"
	case MouseUp:
		return "Up"
	case MouseDrag:
		return "Drag"
	case MouseMoved:
		return "Moved"
	case MouseScrollDown:
		return "ScrollDown"
	case MouseScrollUp:
		return "ScrollUp"
	case MouseScrollLeft:
		return "ScrollLeft"
	case MouseScrollRight:
		return "ScrollRight"
	default:
		return "Unknown"
	}
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

func (b MouseButton) String() string {
	switch b {
	case MouseLeft:
		return "Left"
	case MouseRight:
		return "Right"
	case MouseMiddle:
		return "Middle"
	default:
		return "Unknown"
	}
}

// mouseFromCb decodes the xterm button byte shared by the X10, rxvt and SGR
// encodings. The caller has already removed any encoding offset.
//
//	bits 0-1: button (0=left, 1=middle, 2=right, 3=release)
//	bit 2: shift
//	bit 3: alt
//	bit 4: ctrl
//	bit 5: motion
//	bit 6: wheel
func mouseFromCb(cb int) (MouseEventKind, MouseButton, Modifiers, bool) {
	var mods Modifiers
	if cb&4 != 0 {
		mods |= ModShift
	}
	if cb&8 != 0 {
		mods |= ModAlt
	}
	if cb&16 != 0 {
		mods |= ModCtrl
	}

	dragging := cb&32 != 0
	switch cb & 0b1100_0011 {
	case 0:
		if dragging {
			return MouseDrag, MouseLeft, mods, true
		}
		return MouseDown, MouseLeft, mods, true
	case 1:
		if dragging {
			return MouseDrag, MouseMiddle, mods, true
		}
		return MouseDown, MouseMiddle, mods, true
	case 2:
		if dragging {
			return MouseDrag, MouseRight, mods, true
		}
		return MouseDown, MouseRight, mods, true
	case 3:
		// Legacy encodings do not say which button was released.
		if dragging {
			return MouseMoved, MouseLeft, mods, true
		}
		return MouseUp, MouseLeft, mods, true
	case 64:
		return MouseScrollUp, MouseLeft, mods, true
	case 65:
		return MouseScrollDown, MouseLeft, mods, true
	case 66:
		return MouseScrollLeft, MouseLeft, mods, true
	case 67:
		return MouseScrollRight, MouseLeft, mods, true
	}
	return 0, 0, 0, false
}
