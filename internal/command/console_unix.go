//go:build !windows

package command

import "os"

// consoleFiles returns the file handles an interactive child should
// own. The controlling terminal is preferred so the child works even
// when stdin or stdout were redirected; the std handles are the
// fallback.
func consoleFiles() (stdin, stdout, stderr *os.File, cleanup func()) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return os.Stdin, os.Stdout, os.Stderr, func() {}
	}
	return tty, tty, tty, func() { _ = tty.Close() }
}
