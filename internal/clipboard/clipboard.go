// Package clipboard copies text to the system clipboard.
package clipboard

import (
	"errors"

	atotto "github.com/atotto/clipboard"
)

// ErrClipboardUnavailable is returned when no clipboard backend is present.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// disabled turns the clipboard off; tests set it to exercise fallbacks.
var disabled bool

// IsAvailable reports whether a clipboard backend was found.
func IsAvailable() bool {
	return !disabled && !atotto.Unsupported
}

// Copy places text on the system clipboard.
func Copy(text string) error {
	if !IsAvailable() {
		return ErrClipboardUnavailable
	}
	return atotto.WriteAll(text)
}
