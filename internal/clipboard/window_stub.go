//go:build !windows

package clipboard

import "fmt"

// WindowHandle identifies a top-level window for focus restoration.
type WindowHandle uintptr

// ActiveWindow is not supported on non-Windows builds.
func ActiveWindow() (WindowHandle, error) {
	return 0, fmt.Errorf("window tracking not supported on this platform")
}

// FocusWindow is not supported on non-Windows builds.
func FocusWindow(h WindowHandle) bool {
	return false
}
