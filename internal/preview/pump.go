package preview

import (
	"sync"

	"go.uber.org/zap"

	"github.com/skiff-term/skiff/internal/fs"
)

const (
	// DefaultWorkers bounds concurrent preview builds.
	DefaultWorkers = 2

	// DefaultMaxBytes and DefaultMaxLines bound how much of a file a
	// preview will ever read or keep.
	DefaultMaxBytes = 64 * 1024
	DefaultMaxLines = 200
)

// Limits caps the work done per preview.
type Limits struct {
	MaxBytes int64
	MaxLines int
}

// DefaultLimits returns the standard preview budget.
func DefaultLimits() Limits {
	return Limits{MaxBytes: DefaultMaxBytes, MaxLines: DefaultMaxLines}
}

// Request names one entry to preview, stamped with the generation and
// a per-request token so the owner can tell results apart.
type Request struct {
	Entry fs.Entry
	Gen   uint64
	Token uint64
}

// Config wires a Pump to its owner.
type Config struct {
	Workers int
	Limits  Limits
	Stale   func(uint64) bool
	Deliver func(Result)
	Logger  *zap.Logger
}

// Pump builds previews on a bounded worker pool. Only the most recent
// request is ever pending: a cursor that moved on supersedes the queued
// request outright, before any work is spent on it.
type Pump struct {
	workers int
	limits  Limits
	stale   func(uint64) bool
	deliver func(Result)
	log     *zap.Logger

	mu      sync.Mutex
	pending *Request

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// New builds a Pump; call Start before issuing requests.
func New(cfg Config) *Pump {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	limits := cfg.Limits
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = DefaultMaxBytes
	}
	if limits.MaxLines <= 0 {
		limits.MaxLines = DefaultMaxLines
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Pump{
		workers: workers,
		limits:  limits,
		stale:   cfg.Stale,
		deliver: cfg.Deliver,
		log:     log,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start launches the worker pool.
func (p *Pump) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// Close stops the pool and waits for in-flight builds.
func (p *Pump) Close() {
	close(p.done)
	p.wg.Wait()
}

// Request replaces whatever preview is still queued with this one and
// returns immediately.
func (p *Pump) Request(entry fs.Entry, gen, token uint64) {
	p.mu.Lock()
	if p.pending != nil {
		p.log.Debug("preview request superseded unserved",
			zap.String("path", p.pending.Entry.FullPath),
			zap.Uint64("token", p.pending.Token))
	}
	p.pending = &Request{Entry: entry, Gen: gen, Token: token}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Pump) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case <-p.wake:
		}
		p.drain()
	}
}

func (p *Pump) drain() {
	for {
		p.mu.Lock()
		req := p.pending
		p.pending = nil
		p.mu.Unlock()
		if req == nil {
			return
		}

		if p.isStale(req.Gen) {
			p.log.Debug("preview skipped, generation superseded",
				zap.String("path", req.Entry.FullPath), zap.Uint64("gen", req.Gen))
			continue
		}

		payload := Build(req.Entry, p.limits)

		if p.isStale(req.Gen) {
			p.log.Debug("preview finished for a superseded generation, dropping",
				zap.String("path", req.Entry.FullPath), zap.Uint64("gen", req.Gen))
			continue
		}
		p.deliver(Result{
			Path:    req.Entry.FullPath,
			Gen:     req.Gen,
			Token:   req.Token,
			Payload: payload,
		})
	}
}

func (p *Pump) isStale(gen uint64) bool {
	return p.stale != nil && p.stale(gen)
}
