//go:build windows

package clipboard

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// PasteText injects text into the focused application: the clipboard is
// backed up, replaced with text, a Ctrl+V keystroke is synthesized and
// the original clipboard content restored. The foreground window is
// captured first and refocused before the keystroke, in case a
// notification stole focus between transcription and paste.
func PasteText(text string) error {
	target, targetErr := ActiveWindow()

	orig, _ := clipboard.ReadAll()
	_ = clipboard.WriteAll(text)
	time.Sleep(80 * time.Millisecond)

	if targetErr == nil {
		FocusWindow(target)
	}

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.HasCTRL(true)
	kb.SetKeys(keybd_event.VK_V)
	if err := kb.Launching(); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	_ = clipboard.WriteAll(orig)
	return nil
}
