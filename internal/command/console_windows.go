//go:build windows

package command

import (
	"os"

	"golang.org/x/sys/windows"
)

// consoleFiles returns the std handles. Windows has no /dev/tty; the
// console handles the child inherits are the right ones already. The
// cleanup drains whatever the child left queued in the console input
// buffer so it does not replay into the UI.
func consoleFiles() (stdin, stdout, stderr *os.File, cleanup func()) {
	return os.Stdin, os.Stdout, os.Stderr, func() { _ = flushConsoleInput() }
}

func flushConsoleInput() error {
	handle, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE)
	if err != nil {
		return err
	}
	return windows.FlushConsoleInputBuffer(handle)
}
