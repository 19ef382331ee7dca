//go:build !windows

package app

import (
	"os"
	"os/signal"
	"syscall"
)

// resumeSignals returns a channel that fires when the process resumes
// after a stop, so the loop can re-engage the screen. The caller owns
// the subscription and must signal.Stop it.
func resumeSignals() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGCONT)
	return ch
}
