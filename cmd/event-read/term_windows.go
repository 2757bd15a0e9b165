//go:build windows

package main

import (
	"os"

	termin "github.com/grindlemire/go-termin"
	"golang.org/x/sys/windows"
)

// enterRawMode puts the Windows console into raw-ish mode. VT mode asks the
// console for VT input sequences; legacy mode asks for mouse records instead.
func enterRawMode(in *os.File, legacy bool) (func() error, error) {
	h := windows.Handle(in.Fd())

	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return nil, err
	}

	raw := mode
	raw &^= windows.ENABLE_ECHO_INPUT | windows.ENABLE_LINE_INPUT | windows.ENABLE_PROCESSED_INPUT
	raw |= windows.ENABLE_EXTENDED_FLAGS | windows.ENABLE_WINDOW_INPUT
	if legacy {
		raw &^= windows.ENABLE_QUICK_EDIT_MODE | windows.ENABLE_VIRTUAL_TERMINAL_INPUT
		raw |= windows.ENABLE_MOUSE_INPUT
	} else {
		raw |= windows.ENABLE_VIRTUAL_TERMINAL_INPUT
	}

	if err := windows.SetConsoleMode(h, raw); err != nil {
		return nil, err
	}
	return func() error { return windows.SetConsoleMode(h, mode) }, nil
}

func legacyCursorPosition() (row, col uint16, err error) {
	return termin.ConsoleCursorPosition()
}
