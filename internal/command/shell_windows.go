//go:build windows

package command

import "os"

// Shell wraps a command line in the command interpreter. Requests
// built this way are assumed to mutate the filesystem, so they carry
// the rescan flag.
func Shell(line, dir string, mode CaptureMode) Request {
	comspec := os.Getenv("COMSPEC")
	if comspec == "" {
		comspec = "cmd.exe"
	}
	return Request{
		Program: comspec,
		Args:    []string{"/c", line},
		Dir:     dir,
		Mode:    mode,
		Rescan:  true,
	}
}
