//go:build !windows

package command

import "os"

// Shell wraps a command line in the user's shell. Requests built this
// way are assumed to mutate the filesystem, so they carry the rescan
// flag.
func Shell(line, dir string, mode CaptureMode) Request {
	sh := os.Getenv("SHELL")
	if sh == "" {
		sh = "/bin/sh"
	}
	return Request{
		Program: sh,
		Args:    []string{"-c", line},
		Dir:     dir,
		Mode:    mode,
		Rescan:  true,
	}
}
