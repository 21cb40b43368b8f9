//go:build !windows

package clipboard

import "fmt"

// PasteText is unavailable off Windows. The pipelines still run; the
// transcript simply cannot be injected.
func PasteText(text string) error {
	return fmt.Errorf("clipboard paste not supported on this platform")
}
