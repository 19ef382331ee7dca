// Package watch polls the current directory's mtime and reports
// changes made behind the program's back. Polling a single stat per
// tick is deliberate: it works on every filesystem, needs no
// platform-specific watch APIs, and the cost is one syscall every
// couple of seconds.
package watch

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the poll period when the config does not set one.
const DefaultInterval = 2 * time.Second

// Event reports that the watched directory's mtime moved. Path is the
// directory that was being watched when the change was seen; receivers
// must check it still matters before acting.
type Event struct {
	Path string
	At   time.Time
}

// Config wires a Watcher to its owner.
type Config struct {
	// Interval between stat probes. DefaultInterval when zero.
	Interval time.Duration
	// Deliver is called from the poll goroutine for each change.
	Deliver func(Event)
	Logger  *zap.Logger
}

// Watcher stats one directory on a timer. SetPath switches the target;
// the first stat after a switch only primes the baseline, so arriving
// in a directory never fires a spurious change event.
type Watcher struct {
	interval time.Duration
	deliver  func(Event)
	logger   *zap.Logger

	mu      sync.Mutex
	path    string
	mtime   time.Time
	primed  bool
	statErr bool

	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

func New(cfg Config) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Watcher{
		interval: cfg.Interval,
		deliver:  cfg.Deliver,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}
}

// Start launches the poll goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Close stops polling and waits for the goroutine to exit. No Deliver
// call happens after Close returns.
func (w *Watcher) Close() {
	w.stopped.Do(func() { close(w.done) })
	w.wg.Wait()
}

// SetPath switches the watched directory. It never touches the
// filesystem itself; the next poll tick primes the new baseline. An
// empty path suspends polling.
func (w *Watcher) SetPath(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if path == w.path {
		return
	}
	w.path = path
	w.primed = false
	w.statErr = false
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) check() {
	w.mu.Lock()
	path := w.path
	w.mu.Unlock()
	if path == "" {
		return
	}

	info, err := os.Stat(path)

	w.mu.Lock()
	if path != w.path {
		// Target switched while we were in the stat.
		w.mu.Unlock()
		return
	}
	if err != nil {
		if !w.statErr {
			w.logger.Debug("watch stat failed", zap.String("path", path), zap.Error(err))
		}
		w.statErr = true
		w.primed = false
		w.mu.Unlock()
		return
	}
	if w.statErr {
		w.logger.Debug("watch stat recovered", zap.String("path", path))
		w.statErr = false
	}

	mtime := info.ModTime()
	if !w.primed {
		w.mtime = mtime
		w.primed = true
		w.mu.Unlock()
		return
	}
	if mtime.Equal(w.mtime) {
		w.mu.Unlock()
		return
	}
	w.mtime = mtime
	deliver := w.deliver
	w.mu.Unlock()

	w.logger.Debug("directory changed", zap.String("path", path))
	if deliver != nil {
		deliver(Event{Path: path, At: mtime})
	}
}
