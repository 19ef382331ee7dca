package scan

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/unicode/norm"

	"github.com/skiff-term/skiff/internal/fs"
	"github.com/skiff-term/skiff/internal/nav"
)

// DefaultWorkers is the size of the scan pool. Two keeps a slow
// directory (network mount, cold disk) from blocking the next one.
const DefaultWorkers = 2

// staleProbeStride is how many entries are read between staleness
// probes during a long enumeration.
const staleProbeStride = 128

// errScanAbandoned aborts an enumeration nobody is interested in
// anymore. It never leaves the package.
var errScanAbandoned = errors.New("scan abandoned")

// Request asks for one directory enumeration, stamped with the
// generation current at issue time.
type Request struct {
	Path   string
	Gen    uint64
	Policy fs.SortPolicy
}

// Result carries a finished scan back to the main loop. Err is set and
// Listing nil when the directory itself could not be read; per-entry
// failures live inside the listing instead.
type Result struct {
	Path    string
	Gen     uint64
	Listing *nav.Listing
	Err     error
}

// Config wires a Scanner to its owner. Stale reports whether a
// generation is no longer current; Deliver hands finished results to
// the main loop and must not block forever.
type Config struct {
	Workers int
	Stale   func(uint64) bool
	Deliver func(Result)
	Logger  *zap.Logger
}

// Scanner enumerates directories on a bounded worker pool. Identical
// concurrent requests for one path share a single enumeration; each
// requester still gets a result stamped with its own generation.
type Scanner struct {
	workers int
	stale   func(uint64) bool
	deliver func(Result)
	log     *zap.Logger

	group    singleflight.Group
	requests chan Request
	done     chan struct{}
	wg       sync.WaitGroup

	mu     sync.Mutex
	newest map[string]uint64 // most recent requested gen per path
}

// New builds a Scanner; call Start before issuing requests.
func New(cfg Config) *Scanner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{
		workers:  workers,
		stale:    cfg.Stale,
		deliver:  cfg.Deliver,
		log:      log,
		requests: make(chan Request, 32),
		done:     make(chan struct{}),
		newest:   make(map[string]uint64),
	}
}

// Start launches the worker pool.
func (s *Scanner) Start() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.run()
	}
}

// Close stops accepting work and waits for in-flight scans to finish.
func (s *Scanner) Close() {
	close(s.done)
	s.wg.Wait()
}

// Request enqueues a scan without blocking the caller. When the queue
// is full the hand-off moves to a goroutine so the main loop keeps
// servicing keys.
func (s *Scanner) Request(path string, gen uint64, policy fs.SortPolicy) {
	req := Request{Path: path, Gen: gen, Policy: policy}
	s.noteNewest(path, gen)
	select {
	case s.requests <- req:
	case <-s.done:
	default:
		go func() {
			select {
			case s.requests <- req:
			case <-s.done:
			}
		}()
	}
}

func (s *Scanner) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case req := <-s.requests:
			s.serve(req)
		}
	}
}

func (s *Scanner) serve(req Request) {
	if s.isStale(req.Gen) {
		s.forgetNewest(req.Path, req.Gen)
		s.log.Debug("scan skipped, generation superseded before start",
			zap.String("path", req.Path), zap.Uint64("gen", req.Gen))
		return
	}

	start := time.Now()
	v, err, shared := s.group.Do(req.Path, func() (interface{}, error) {
		return readEntries(req.Path, func() bool { return s.newestAbandoned(req.Path) })
	})
	s.forgetNewest(req.Path, req.Gen)

	if err != nil {
		if errors.Is(err, errScanAbandoned) {
			s.log.Debug("scan abandoned mid-read",
				zap.String("path", req.Path), zap.Uint64("gen", req.Gen))
			return
		}
		s.deliver(Result{Path: req.Path, Gen: req.Gen, Err: err})
		return
	}
	if s.isStale(req.Gen) {
		s.log.Debug("scan finished for a superseded generation, dropping",
			zap.String("path", req.Path), zap.Uint64("gen", req.Gen))
		return
	}

	// The enumeration may be shared between requests, so sort a copy
	// under this request's policy instead of touching the shared slice.
	raw := v.([]fs.Entry)
	entries := make([]fs.Entry, len(raw))
	copy(entries, raw)
	fs.SortEntries(entries, req.Policy)

	s.deliver(Result{
		Path: req.Path,
		Gen:  req.Gen,
		Listing: &nav.Listing{
			Path:      req.Path,
			Gen:       req.Gen,
			Entries:   entries,
			ScanStart: start,
			Complete:  true,
		},
	})
	s.log.Debug("scan delivered",
		zap.String("path", req.Path),
		zap.Uint64("gen", req.Gen),
		zap.Int("entries", len(entries)),
		zap.Bool("shared", shared),
		zap.Duration("elapsed", time.Since(start)))
}

func (s *Scanner) isStale(gen uint64) bool {
	return s.stale != nil && s.stale(gen)
}

func (s *Scanner) noteNewest(path string, gen uint64) {
	s.mu.Lock()
	if gen > s.newest[path] {
		s.newest[path] = gen
	}
	s.mu.Unlock()
}

func (s *Scanner) forgetNewest(path string, gen uint64) {
	s.mu.Lock()
	if s.newest[path] <= gen {
		delete(s.newest, path)
	}
	s.mu.Unlock()
}

// newestAbandoned reports whether even the most recently requested
// generation for path has gone stale, meaning no requester is left.
func (s *Scanner) newestAbandoned(path string) bool {
	s.mu.Lock()
	gen := s.newest[path]
	s.mu.Unlock()
	return s.isStale(gen)
}

// ReadDirectory scans a directory synchronously, bypassing the pool.
// Startup uses it for the initial listing, where an unreadable
// directory is fatal rather than a status-line event.
func ReadDirectory(path string, gen uint64, policy fs.SortPolicy) (*nav.Listing, error) {
	start := time.Now()
	entries, err := readEntries(path, nil)
	if err != nil {
		return nil, err
	}
	fs.SortEntries(entries, policy)
	return &nav.Listing{
		Path:      path,
		Gen:       gen,
		Entries:   entries,
		ScanStart: start,
		Complete:  true,
	}, nil
}

// readEntries enumerates one directory. Unreadable entries are listed
// with an error kind instead of being dropped; only a failure to read
// the directory itself aborts the scan.
func readEntries(path string, abandoned func() bool) ([]fs.Entry, error) {
	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]fs.Entry, 0, len(dirents))
	for i, d := range dirents {
		if abandoned != nil && i > 0 && i%staleProbeStride == 0 && abandoned() {
			return nil, errScanAbandoned
		}

		rawName := d.Name()
		fullPath := filepath.Join(path, rawName)
		name := norm.NFC.String(rawName)
		if fs.ShouldHideFromListing(fullPath, name) {
			continue
		}

		entry := fs.Entry{Name: name, FullPath: fullPath}
		switch {
		case d.Type()&os.ModeSymlink != 0:
			entry.Kind = fs.KindSymlink
		case d.IsDir():
			entry.Kind = fs.KindDir
		case d.Type().IsRegular():
			entry.Kind = fs.KindFile
		default:
			entry.Kind = fs.KindOther
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			entry.Err = fs.ClassifyError(infoErr)
			entries = append(entries, entry)
			continue
		}
		entry.Size = info.Size()
		entry.Modified = info.ModTime()
		entry.Mode = info.Mode()

		if entry.Kind == fs.KindSymlink {
			if target, linkErr := os.Readlink(fullPath); linkErr == nil {
				entry.LinkTarget = target
			}
			targetInfo, statErr := os.Stat(fullPath)
			switch {
			case statErr != nil:
				entry.Err = fs.ClassifyError(statErr)
			case targetInfo.IsDir():
				entry.TargetsDir = true
			}
		}

		entries = append(entries, entry)
	}
	return entries, nil
}
