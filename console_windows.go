//go:build windows

package termin

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procGetKeyboardLayout = user32.NewProc("GetKeyboardLayout")
	procToUnicodeEx       = user32.NewProc("ToUnicodeEx")
)

// conoutBuffer queries the active console screen buffer through CONOUT$,
// which works even when stdout is redirected.
type conoutBuffer struct{}

func (conoutBuffer) Info() (ScreenInfo, error) {
	name, err := windows.UTF16PtrFromString("CONOUT$")
	if err != nil {
		return ScreenInfo{}, err
	}
	h, err := windows.CreateFile(
		name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return ScreenInfo{}, fmt.Errorf("opening CONOUT$: %w", err)
	}
	defer windows.CloseHandle(h)

	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(h, &info); err != nil {
		return ScreenInfo{}, fmt.Errorf("querying screen buffer: %w", err)
	}
	return ScreenInfo{
		CursorColumn: info.CursorPosition.X,
		CursorRow:    info.CursorPosition.Y,
		WindowTop:    info.Window.Top,
	}, nil
}

// ConsoleCursorPosition returns the zero-based cursor position relative to
// the visible console window.
func ConsoleCursorPosition() (row, col uint16, err error) {
	info, err := conoutBuffer{}.Info()
	if err != nil {
		return 0, 0, err
	}
	return clampUint16(int(info.CursorRow) - int(info.WindowTop)), clampUint16(int(info.CursorColumn)), nil
}

// foregroundLayout translates keys with the keyboard layout of the
// foreground window's thread. When that cannot be determined, ToUnicodeEx
// falls back to the layout of the calling thread.
type foregroundLayout struct{}

// toUnicodeNoKernelState keeps ToUnicodeEx from changing the kernel keyboard state.
const toUnicodeNoKernelState = 0x4

func (foregroundLayout) Translate(virtualKey, scanCode uint16) ([]uint16, bool) {
	fg := windows.GetForegroundWindow()
	tid, _ := windows.GetWindowThreadProcessId(fg, nil)
	hkl, _, _ := procGetKeyboardLayout.Call(uintptr(tid))

	var keyState [256]byte
	var buf [16]uint16
	ret, _, _ := procToUnicodeEx.Call(
		uintptr(virtualKey),
		uintptr(scanCode),
		uintptr(unsafe.Pointer(&keyState[0])),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		toUnicodeNoKernelState,
		hkl,
	)
	// -1 is a dead key, 0 means no character.
	n := int32(ret)
	if n < 1 {
		return nil, false
	}
	return append([]uint16(nil), buf[:n]...), true
}
