package termin

// Event is the base interface for all terminal input events.
// Use a type switch to handle specific event types.
type Event interface {
	// isEvent is a marker method to prevent external implementations.
	isEvent()
}

// KeyEvent represents a keyboard input event.
type KeyEvent struct {
	// Code is the key pressed. For printable characters, this is KeyRune.
	Code Key

	// Rune is the character for KeyRune events. Zero for named keys.
	Rune rune

	// Kind distinguishes press, repeat and release. Terminals without an
	// enhanced keyboard protocol only ever report presses.
	Kind KeyEventKind

	// Modifiers contains the modifier keys held with the key.
	Modifiers Modifiers

	// State carries keypad and lock-key flags when the terminal reports them.
	State KeyState
}

func (KeyEvent) isEvent() {}

// NewKeyEvent returns a press of the given key with the given modifiers.
func NewKeyEvent(code Key, mods Modifiers) KeyEvent {
	return KeyEvent{Code: code, Modifiers: mods}
}

// NewRuneEvent returns a press of a printable character.
func NewRuneEvent(r rune, mods Modifiers) KeyEvent {
	return KeyEvent{Code: KeyRune, Rune: r, Modifiers: mods}
}

// IsRune returns true if this is a printable character event.
func (e KeyEvent) IsRune() bool {
	return e.Code == KeyRune
}

// Is checks if the event matches a specific key with optional modifiers.
// Example: event.Is(KeyEnter) or event.Is(KeyUp, ModCtrl)
func (e KeyEvent) Is(key Key, mods ...Modifiers) bool {
	if e.Code != key {
		return false
	}
	if len(mods) == 0 {
		return true
	}
	var combined Modifiers
	for _, m := range mods {
		combined |= m
	}
	return e.Modifiers == combined
}

// MouseEvent represents a mouse action. Column and Row are zero-based.
type MouseEvent struct {
	Kind MouseEventKind

	// Button is set for MouseDown, MouseUp and MouseDrag.
	Button MouseButton

	Column uint16
	Row    uint16

	Modifiers Modifiers
}

func (MouseEvent) isEvent() {}

// FocusInEvent is delivered when the terminal gains focus.
type FocusInEvent struct{}

func (FocusInEvent) isEvent() {}

// FocusOutEvent is delivered when the terminal loses focus.
type FocusOutEvent struct{}

func (FocusOutEvent) isEvent() {}

// WindowSize describes the terminal dimensions in cells. PixelWidth and
// PixelHeight are zero when the platform does not report them.
type WindowSize struct {
	Rows        uint16
	Cols        uint16
	PixelWidth  uint16
	PixelHeight uint16
}

// ResizeEvent is delivered when the terminal window changes size.
type ResizeEvent struct {
	Size WindowSize
}

func (ResizeEvent) isEvent() {}

// PasteEvent carries text delivered through bracketed paste.
type PasteEvent struct {
	Text string
}

func (PasteEvent) isEvent() {}

// OneBased is a coordinate or extent counted from one. The zero value is not
// a valid OneBased; construct values with NewOneBased or OneBasedFromZero.
type OneBased uint16

// NewOneBased wraps a one-based value. It returns false for zero, which has
// no meaning in a one-based convention.
func NewOneBased(n uint16) (OneBased, bool) {
	if n == 0 {
		return 0, false
	}
	return OneBased(n), true
}

// OneBasedFromZero converts a zero-based value. The result saturates at the
// largest representable value instead of wrapping to zero.
func OneBasedFromZero(n uint16) OneBased {
	if n == ^uint16(0) {
		return OneBased(n)
	}
	return OneBased(n + 1)
}

// Get returns the one-based value.
func (o OneBased) Get() uint16 {
	return uint16(o)
}

// ZeroBased returns the equivalent zero-based value.
func (o OneBased) ZeroBased() uint16 {
	if o == 0 {
		return 0
	}
	return uint16(o) - 1
}
