package command

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
)

// CaptureMode says how a spawned command relates to the UI.
type CaptureMode uint8

const (
	// RunInteractive suspends the screen and hands the terminal to the
	// child until it exits.
	RunInteractive CaptureMode = iota
	// RunBackground detaches the child from the terminal and reports
	// only its completion.
	RunBackground
	// RunCaptured runs the child silently and keeps its combined
	// output for the status line.
	RunCaptured
)

func (m CaptureMode) String() string {
	switch m {
	case RunBackground:
		return "background"
	case RunCaptured:
		return "captured"
	default:
		return "interactive"
	}
}

// Request is a fully resolved external command invocation: program and
// argument vector, no shell interpretation unless the program is a
// shell. Rescan marks invocations expected to mutate the working
// directory, so its listing is refreshed when the command finishes.
type Request struct {
	Program string
	Args    []string
	Dir     string
	Mode    CaptureMode
	Rescan  bool
}

// Result reports a finished command back to the main loop.
type Result struct {
	Program  string
	ExitCode int
	Err      error
	Output   string // RunCaptured only, trimmed
	Rescan   bool
}

// Failed reports whether the command ended abnormally.
func (r Result) Failed() bool {
	return r.Err != nil || r.ExitCode != 0
}

// YankPaths puts the newline-joined paths on the system clipboard.
func YankPaths(paths []string) error {
	if len(paths) == 0 {
		return errors.New("nothing to yank")
	}
	return clipboard.WriteAll(strings.Join(paths, "\n"))
}
