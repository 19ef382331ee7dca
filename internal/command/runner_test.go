package command

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test relies on sh")
	}
}

func TestRunCapturedCollectsOutputAndExitCode(t *testing.T) {
	requireShell(t)

	results := make(chan Result, 1)
	r := NewRunner(RunnerConfig{Deliver: func(res Result) { results <- res }})

	out := r.Dispatch(Request{
		Program: "sh",
		Args:    []string{"-c", "echo out; echo err >&2; exit 3"},
		Mode:    RunCaptured,
		Rescan:  true,
	})
	if out != nil {
		t.Fatalf("captured requests must deliver asynchronously")
	}

	select {
	case res := <-results:
		if res.ExitCode != 3 {
			t.Fatalf("expected exit code 3, got %d (err=%v)", res.ExitCode, res.Err)
		}
		if !strings.Contains(res.Output, "out") || !strings.Contains(res.Output, "err") {
			t.Fatalf("expected combined output, got %q", res.Output)
		}
		if !res.Rescan {
			t.Fatalf("rescan flag must be carried through")
		}
		if !res.Failed() {
			t.Fatalf("non-zero exit must count as failed")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no result delivered")
	}
}

func TestRunBackgroundReportsCompletion(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	results := make(chan Result, 1)
	r := NewRunner(RunnerConfig{Deliver: func(res Result) { results <- res }})

	r.Dispatch(Request{
		Program: "sh",
		Args:    []string{"-c", "touch " + marker},
		Dir:     dir,
		Mode:    RunBackground,
	})

	select {
	case res := <-results:
		if res.Failed() {
			t.Fatalf("expected success, got %+v", res)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no result delivered")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("command did not run in %s: %v", dir, err)
	}
}

func TestRunWaitMissingProgram(t *testing.T) {
	suspended, resumed := false, false
	r := NewRunner(RunnerConfig{
		Suspend: func() error { suspended = true; return nil },
		Resume:  func() error { resumed = true; return nil },
	})

	res := r.Dispatch(Request{
		Program: "definitely-not-a-real-program-9182",
		Mode:    RunInteractive,
	})
	if res == nil {
		t.Fatalf("interactive requests must return inline")
	}
	if !res.Failed() || res.Err == nil {
		t.Fatalf("expected failure for missing program, got %+v", res)
	}
	if !suspended || !resumed {
		t.Fatalf("screen must be suspended and resumed around interactive runs")
	}
}

func TestRunWaitUsesWorkingDirectory(t *testing.T) {
	requireShell(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "present"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := NewRunner(RunnerConfig{})
	res := r.Dispatch(Request{
		Program: "sh",
		Args:    []string{"-c", "test -e present"},
		Dir:     dir,
		Mode:    RunInteractive,
	})
	if res == nil || res.Failed() {
		t.Fatalf("expected success in working directory, got %+v", res)
	}
}
