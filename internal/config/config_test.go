package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skiff-term/skiff/internal/fs"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "skiff.ini")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	opts, err := Load(filepath.Join(t.TempDir(), "absent.ini"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if opts.ShowHidden || !opts.DirsFirst || opts.SortKey != "name" {
		t.Fatalf("defaults wrong: %+v", opts)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	opts, err := Load("")
	if err != nil {
		t.Fatalf("empty path must not error: %v", err)
	}
	want := Defaults()
	if opts.CacheSize != want.CacheSize || opts.WatchInterval != want.WatchInterval {
		t.Fatalf("defaults wrong: %+v", opts)
	}
}

func TestLoadParsesSections(t *testing.T) {
	path := writeConfig(t, `
[general]
show_hidden = true
dirs_first = false
log_file = /tmp/skiff.log
scan_workers = 4
preview_workers = 3
cache_size = 16
watch_interval = 5s

[sorting]
key = size
reverse = true

[preview]
max_bytes = 1024
max_lines = 40

[keys]
gh = home
X = "!chmod +x %f"
`)

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !opts.ShowHidden || opts.DirsFirst {
		t.Fatalf("general flags wrong: %+v", opts)
	}
	if opts.LogFile != "/tmp/skiff.log" {
		t.Fatalf("log_file = %q", opts.LogFile)
	}
	if opts.ScanWorkers != 4 || opts.PreviewWorkers != 3 || opts.CacheSize != 16 {
		t.Fatalf("pool sizes wrong: %+v", opts)
	}
	if opts.WatchInterval != 5*time.Second {
		t.Fatalf("watch_interval = %v", opts.WatchInterval)
	}
	if opts.SortKey != "size" || !opts.SortReverse {
		t.Fatalf("sorting wrong: %+v", opts)
	}
	if opts.PreviewMaxBytes != 1024 || opts.PreviewMaxLines != 40 {
		t.Fatalf("preview limits wrong: %+v", opts)
	}
	if opts.Keys["gh"] != "home" {
		t.Fatalf("keys section = %v", opts.Keys)
	}
	if opts.Keys["X"] != "!chmod +x %f" {
		t.Fatalf("quoted key binding = %q", opts.Keys["X"])
	}
}

func TestLoadClampsBadValues(t *testing.T) {
	path := writeConfig(t, `
[general]
scan_workers = 0
preview_workers = -2
cache_size = -1
watch_interval = 0s

[preview]
max_bytes = 0
max_lines = -5
`)

	opts, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Defaults()
	if opts.ScanWorkers != want.ScanWorkers || opts.PreviewWorkers != want.PreviewWorkers {
		t.Fatalf("worker clamp failed: %+v", opts)
	}
	if opts.CacheSize != want.CacheSize || opts.WatchInterval != want.WatchInterval {
		t.Fatalf("cache/watch clamp failed: %+v", opts)
	}
	if opts.PreviewMaxBytes != want.PreviewMaxBytes || opts.PreviewMaxLines != want.PreviewMaxLines {
		t.Fatalf("preview clamp failed: %+v", opts)
	}
}

func TestLoadMalformedFallsBackToDefaults(t *testing.T) {
	path := writeConfig(t, "[general\nshow_hidden = true\n")
	opts, err := Load(path)
	if err == nil {
		t.Fatalf("malformed config must report an error")
	}
	if opts.ShowHidden {
		t.Fatalf("malformed config leaked values: %+v", opts)
	}
}

func TestSortPolicyConversion(t *testing.T) {
	opts := Defaults()
	opts.SortKey = "mtime"
	opts.SortReverse = true
	opts.DirsFirst = false

	policy := opts.SortPolicy()
	if policy.Key != fs.SortByModified || !policy.Reverse || policy.DirsFirst {
		t.Fatalf("policy = %+v", policy)
	}
}

func TestDefaultPathHonorsEnv(t *testing.T) {
	t.Setenv("SKIFF_CONFIG", "/etc/custom.ini")
	if got := DefaultPath(); got != "/etc/custom.ini" {
		t.Fatalf("DefaultPath() = %q", got)
	}
}
