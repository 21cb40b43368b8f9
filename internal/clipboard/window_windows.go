//go:build windows

package clipboard

import (
	"fmt"
	"syscall"
)

// WindowHandle identifies a top-level window for focus restoration.
type WindowHandle uintptr

var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

// ActiveWindow returns the currently focused top-level window.
func ActiveWindow() (WindowHandle, error) {
	h, _, _ := procGetForegroundWindow.Call()
	if h == 0 {
		return 0, fmt.Errorf("no foreground window")
	}
	return WindowHandle(h), nil
}

// FocusWindow brings a previously captured window back to the
// foreground, so injected text lands where the user was typing.
func FocusWindow(h WindowHandle) bool {
	r, _, _ := procSetForegroundWindow.Call(uintptr(h))
	return r != 0
}
