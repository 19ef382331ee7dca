package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStartDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := startDirectory(dir)
	if err != nil {
		t.Fatalf("startDirectory(%q): %v", dir, err)
	}
	if got != dir {
		t.Fatalf("startDirectory(%q) = %q, want %q", dir, got, dir)
	}

	if _, err := startDirectory(file); err == nil {
		t.Fatal("expected error for non-directory argument")
	}
	if _, err := startDirectory(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	got, err = startDirectory("")
	if err != nil {
		t.Fatalf("startDirectory(\"\"): %v", err)
	}
	if got != wd {
		t.Fatalf("startDirectory(\"\") = %q, want %q", got, wd)
	}
}

func TestWriteSelection(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "result.txt")

	if err := writeSelection(out, []string{"/a", "/b"}); err != nil {
		t.Fatalf("writeSelection: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if got, want := string(data), "/a\n/b\n"; got != want {
		t.Fatalf("result file = %q, want %q", got, want)
	}

	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat result: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("result file mode = %o, want 600", perm)
	}

	// Empty exports write nothing.
	empty := filepath.Join(dir, "empty.txt")
	if err := writeSelection(empty, nil); err != nil {
		t.Fatalf("writeSelection(empty): %v", err)
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Fatalf("empty export should not create a file, stat err = %v", err)
	}
}
