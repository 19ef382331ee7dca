// Package config reads the ini file that tunes the browser. Every
// option has a default; a missing file is the normal case and loads
// silently, while a malformed one falls back to defaults with an error
// the caller can surface without dying.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"

	"github.com/skiff-term/skiff/internal/fs"
	"github.com/skiff-term/skiff/internal/nav"
	"github.com/skiff-term/skiff/internal/preview"
	"github.com/skiff-term/skiff/internal/scan"
	"github.com/skiff-term/skiff/internal/watch"
)

// Options is the merged configuration: defaults overlaid by whatever
// the ini file sets.
type Options struct {
	ShowHidden bool
	DirsFirst  bool
	LogFile    string

	ScanWorkers    int
	PreviewWorkers int
	CacheSize      int
	WatchInterval  time.Duration

	SortKey     string
	SortReverse bool

	PreviewMaxBytes int64
	PreviewMaxLines int

	// Keys holds raw sequence→action overrides from the [keys]
	// section; dispatch.Compile validates them.
	Keys map[string]string
}

// Defaults returns the configuration used when no file exists.
func Defaults() Options {
	return Options{
		ShowHidden:      false,
		DirsFirst:       true,
		ScanWorkers:     scan.DefaultWorkers,
		PreviewWorkers:  preview.DefaultWorkers,
		CacheSize:       nav.DefaultCacheCapacity,
		WatchInterval:   watch.DefaultInterval,
		SortKey:         "name",
		PreviewMaxBytes: preview.DefaultMaxBytes,
		PreviewMaxLines: preview.DefaultMaxLines,
		Keys:            map[string]string{},
	}
}

// DefaultPath is where Load looks when the caller gives no explicit
// path: $SKIFF_CONFIG, else skiff/skiff.ini under the platform config
// directory.
func DefaultPath() string {
	if p := os.Getenv("SKIFF_CONFIG"); p != "" {
		return p
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "skiff", "skiff.ini")
}

// Load reads path and merges it over the defaults. A missing file
// returns plain defaults with no error. A file that cannot be parsed
// returns defaults plus the error, so startup can warn and continue.
func Load(path string) (Options, error) {
	opts := Defaults()
	if path == "" {
		return opts, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return opts, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return Defaults(), fmt.Errorf("load config %s: %w", path, err)
	}

	general := file.Section("general")
	opts.ShowHidden = general.Key("show_hidden").MustBool(opts.ShowHidden)
	opts.DirsFirst = general.Key("dirs_first").MustBool(opts.DirsFirst)
	opts.LogFile = general.Key("log_file").MustString(opts.LogFile)
	opts.ScanWorkers = general.Key("scan_workers").MustInt(opts.ScanWorkers)
	opts.PreviewWorkers = general.Key("preview_workers").MustInt(opts.PreviewWorkers)
	opts.CacheSize = general.Key("cache_size").MustInt(opts.CacheSize)
	opts.WatchInterval = general.Key("watch_interval").MustDuration(opts.WatchInterval)

	sorting := file.Section("sorting")
	opts.SortKey = sorting.Key("key").MustString(opts.SortKey)
	opts.SortReverse = sorting.Key("reverse").MustBool(opts.SortReverse)

	pv := file.Section("preview")
	opts.PreviewMaxBytes = pv.Key("max_bytes").MustInt64(opts.PreviewMaxBytes)
	opts.PreviewMaxLines = pv.Key("max_lines").MustInt(opts.PreviewMaxLines)

	opts.Keys = file.Section("keys").KeysHash()
	if opts.Keys == nil {
		opts.Keys = map[string]string{}
	}

	opts.clamp()
	return opts, nil
}

// clamp pulls nonsense values back into working range rather than
// erroring; a bad number in the config should not break startup.
func (o *Options) clamp() {
	if o.ScanWorkers < 1 {
		o.ScanWorkers = scan.DefaultWorkers
	}
	if o.PreviewWorkers < 1 {
		o.PreviewWorkers = preview.DefaultWorkers
	}
	if o.CacheSize < 1 {
		o.CacheSize = nav.DefaultCacheCapacity
	}
	if o.WatchInterval <= 0 {
		o.WatchInterval = watch.DefaultInterval
	}
	if o.PreviewMaxBytes < 1 {
		o.PreviewMaxBytes = preview.DefaultMaxBytes
	}
	if o.PreviewMaxLines < 1 {
		o.PreviewMaxLines = preview.DefaultMaxLines
	}
}

// SortPolicy converts the sorting options to the form listings use.
func (o Options) SortPolicy() fs.SortPolicy {
	return fs.SortPolicy{
		Key:       fs.ParseSortKey(o.SortKey),
		DirsFirst: o.DirsFirst,
		Reverse:   o.SortReverse,
	}
}

// PreviewLimits converts the preview options to the builder's budget.
func (o Options) PreviewLimits() preview.Limits {
	return preview.Limits{MaxBytes: o.PreviewMaxBytes, MaxLines: o.PreviewMaxLines}
}
