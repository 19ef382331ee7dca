//go:build windows

package app

import "os"

// Windows has no SIGCONT. A nil channel never fires in the loop select.
func resumeSignals() chan os.Signal {
	return nil
}
