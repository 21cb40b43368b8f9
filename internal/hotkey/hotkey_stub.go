//go:build !windows

package hotkey

import "fmt"

// Binding ties a key spec like "alt+q" to an action id delivered to the
// handler.
type Binding struct {
	ID   int
	Spec string
}

// Register is not supported on non-Windows builds.
func Register(bindings []Binding, hook bool, handler func(id int), debug bool) error {
	return fmt.Errorf("hotkey not supported on this platform")
}
