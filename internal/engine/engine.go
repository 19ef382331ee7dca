// Package engine ties navigation state, the key dispatcher, the
// listing cache and the async workers into the single-threaded core of
// the browser. Every method on Engine must be called from one
// goroutine, the main loop; workers talk back exclusively through the
// completion channel.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/skiff-term/skiff/internal/command"
	"github.com/skiff-term/skiff/internal/dispatch"
	"github.com/skiff-term/skiff/internal/fs"
	"github.com/skiff-term/skiff/internal/nav"
	"github.com/skiff-term/skiff/internal/preview"
	"github.com/skiff-term/skiff/internal/scan"
	"github.com/skiff-term/skiff/internal/watch"
)

// defaultPageRows is the page-move stride until the first resize
// reports the real viewport height.
const defaultPageRows = 20

// openTemplate is what entering a regular file runs.
var openTemplate = dispatch.Template{Line: "${EDITOR:-vi} %f", Mode: command.RunInteractive}

// Config assembles an Engine. Zero values fall back to each
// component's own defaults.
type Config struct {
	StartDir   string
	Policy     fs.SortPolicy
	ShowHidden bool

	CacheSize      int
	ScanWorkers    int
	PreviewWorkers int
	PreviewLimits  preview.Limits
	WatchInterval  time.Duration

	// Bindings overlays the default keymap; see dispatch.Compile.
	Bindings map[string]string

	// Suspend and Resume bracket interactive child processes. The app
	// wires them to the screen; nil is fine when there is none.
	Suspend func() error
	Resume  func() error

	Logger *zap.Logger
}

type navKind uint8

const (
	navEnter navKind = iota
	navBack
	navForward
	navReplace
)

// pendingNav identifies the one navigation whose scan result is
// allowed to move the user. Any other result that arrives may refresh
// the cache, but never changes where we are.
type pendingNav struct {
	kind       navKind
	path       string
	gen        uint64
	selectName string
}

// Engine owns the mutable core. Not safe for concurrent use.
type Engine struct {
	log *zap.Logger

	state *nav.State
	cache *nav.Cache
	disp  *dispatch.Dispatcher

	scanner *scan.Scanner
	pump    *preview.Pump
	watcher *watch.Watcher
	runner  *command.Runner

	completions chan Completion
	done        chan struct{}
	closeOnce   sync.Once

	// curGen mirrors state.Gen() for the worker-side Stale probes.
	// nav.State itself is main-loop only.
	curGen atomic.Uint64

	pending  *pendingNav
	scanning bool

	previewToken uint64
	previewPath  string
	previewCur   *preview.Payload
	previewBusy  bool

	filterSaved string
	renameFrom  string

	viewRows int

	status    string
	statusErr bool

	cmdBusy    int
	quitting   bool
	emitOnQuit bool
}

// New wires the full core. Call Start to launch the workers and
// Bootstrap to load the starting directory.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	km, kmErrs := dispatch.Compile(cfg.Bindings)
	for _, err := range kmErrs {
		log.Warn("keymap entry skipped", zap.Error(err))
	}

	e := &Engine{
		log:         log,
		state:       nav.NewState(cfg.StartDir, cfg.Policy, cfg.ShowHidden),
		cache:       nav.NewCache(cfg.CacheSize),
		disp:        dispatch.New(km),
		completions: make(chan Completion, 64),
		done:        make(chan struct{}),
		viewRows:    defaultPageRows,
	}
	e.curGen.Store(e.state.Gen())

	stale := func(gen uint64) bool { return gen < e.curGen.Load() }

	e.scanner = scan.New(scan.Config{
		Workers: cfg.ScanWorkers,
		Stale:   stale,
		Deliver: func(res scan.Result) { e.deliver(Completion{Scan: &res}) },
		Logger:  log.Named("scan"),
	})
	e.pump = preview.New(preview.Config{
		Workers: cfg.PreviewWorkers,
		Limits:  cfg.PreviewLimits,
		Stale:   stale,
		Deliver: func(res preview.Result) { e.deliver(Completion{Preview: &res}) },
		Logger:  log.Named("preview"),
	})
	e.watcher = watch.New(watch.Config{
		Interval: cfg.WatchInterval,
		Deliver:  func(ev watch.Event) { e.deliver(Completion{Watch: &ev}) },
		Logger:   log.Named("watch"),
	})
	e.runner = command.NewRunner(command.RunnerConfig{
		Deliver: func(res command.Result) { e.deliver(Completion{Command: &res}) },
		Suspend: cfg.Suspend,
		Resume:  cfg.Resume,
		Logger:  log.Named("exec"),
	})

	if n := len(kmErrs); n > 0 {
		e.setStatus(fmt.Sprintf("%d keymap entries ignored, see log", n), true)
	}
	return e
}

// deliver hands a completion to the main loop, giving up silently when
// the engine is shutting down.
func (e *Engine) deliver(c Completion) {
	select {
	case e.completions <- c:
	case <-e.done:
	}
}

// Start launches the worker pools and the directory watcher.
func (e *Engine) Start() {
	e.scanner.Start()
	e.pump.Start()
	e.watcher.Start()
}

// Close releases every worker. Safe to call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.done)
		e.watcher.Close()
		e.pump.Close()
		e.scanner.Close()
	})
}

// Completions exposes the channel workers deliver into. The main loop
// selects on it next to terminal events.
func (e *Engine) Completions() <-chan Completion { return e.completions }

// Bootstrap loads the starting directory synchronously. Failure here
// is fatal to the program: there is nothing to show.
func (e *Engine) Bootstrap() error {
	path := e.state.CurrentPath()
	listing, err := scan.ReadDirectory(path, e.state.Gen(), e.state.SortPolicy())
	if err != nil {
		return fmt.Errorf("read start directory %s: %w", path, err)
	}
	e.state.CommitReplace(listing)
	e.cache.Put(listing)
	e.watcher.SetPath(path)
	e.refreshPreview(true)
	return nil
}

// HandleKey feeds one key token through the dispatcher and applies
// whatever it resolves to.
func (e *Engine) HandleKey(token string) {
	ev := e.disp.HandleKey(token)
	if ev.Kind == dispatch.EventNone {
		return
	}
	e.clearStatus()
	switch ev.Kind {
	case dispatch.EventBuiltin:
		e.applyBuiltin(ev.Builtin, ev.Count)
	case dispatch.EventExternal:
		e.runTemplate(ev.Template)
	case dispatch.EventInputChanged:
		if ev.Prompt == dispatch.PromptFilter {
			e.state.SetFilter(ev.Text)
			e.refreshPreview(false)
		}
	case dispatch.EventInputConfirmed:
		e.confirmInput(ev.Prompt, ev.Text)
	case dispatch.EventInputCanceled:
		e.cancelInput(ev.Prompt)
	}
}

func (e *Engine) applyBuiltin(b dispatch.Builtin, count int) {
	n := count
	if n < 1 {
		n = 1
	}
	switch b {
	case dispatch.BuiltinCursorDown:
		e.state.MoveCursor(n)
		e.refreshPreview(false)
	case dispatch.BuiltinCursorUp:
		e.state.MoveCursor(-n)
		e.refreshPreview(false)
	case dispatch.BuiltinPageDown:
		e.state.MoveCursor(n * e.viewRows)
		e.refreshPreview(false)
	case dispatch.BuiltinPageUp:
		e.state.MoveCursor(-n * e.viewRows)
		e.refreshPreview(false)
	case dispatch.BuiltinTop:
		e.state.CursorToTop()
		e.refreshPreview(false)
	case dispatch.BuiltinBottom:
		e.state.CursorToBottom()
		e.refreshPreview(false)
	case dispatch.BuiltinEnter:
		e.enter()
	case dispatch.BuiltinParent:
		e.parent()
	case dispatch.BuiltinBack:
		e.back()
	case dispatch.BuiltinForward:
		e.forward()
	case dispatch.BuiltinHome:
		e.home()
	case dispatch.BuiltinToggleSelect:
		e.toggleSelect(n)
	case dispatch.BuiltinClearSelection:
		e.state.ClearSelection()
	case dispatch.BuiltinSortName:
		e.setSortKey(fs.SortByName)
	case dispatch.BuiltinSortSize:
		e.setSortKey(fs.SortBySize)
	case dispatch.BuiltinSortTime:
		e.setSortKey(fs.SortByModified)
	case dispatch.BuiltinSortReverse:
		e.toggleSortReverse()
	case dispatch.BuiltinToggleHidden:
		e.state.ToggleHidden()
		e.refreshPreview(false)
	case dispatch.BuiltinRescan:
		e.rescanCurrent()
	case dispatch.BuiltinYank:
		e.yank()
	case dispatch.BuiltinFilter:
		e.filterSaved = e.state.Filter()
		e.disp.BeginInput(dispatch.PromptFilter, e.state.Filter())
	case dispatch.BuiltinRename:
		e.beginRename()
	case dispatch.BuiltinCommand:
		e.disp.BeginInput(dispatch.PromptCommand, "")
	case dispatch.BuiltinQuit:
		e.quitting = true
	case dispatch.BuiltinQuitEmit:
		e.quitting = true
		e.emitOnQuit = true
	}
}

func (e *Engine) enter() {
	entry, ok := e.state.CursorEntry()
	if !ok {
		return
	}
	if entry.IsDir() {
		e.navigateTo(navEnter, entry.FullPath, "")
		return
	}
	if entry.Kind == fs.KindOther {
		e.setStatus("not a regular file: "+entry.Name, true)
		return
	}
	e.runTemplate(openTemplate)
}

// parent enters the parent directory with the cursor on the child we
// came from.
func (e *Engine) parent() {
	cur := e.state.CurrentPath()
	up := filepath.Dir(cur)
	if up == cur {
		return
	}
	e.navigateTo(navEnter, up, filepath.Base(cur))
}

func (e *Engine) back() {
	target, ok := e.state.BackTarget()
	if !ok {
		return
	}
	e.navigateTo(navBack, target, "")
}

func (e *Engine) forward() {
	target, ok := e.state.ForwardTarget()
	if !ok {
		return
	}
	e.navigateTo(navForward, target, "")
}

func (e *Engine) home() {
	home, err := os.UserHomeDir()
	if err != nil {
		e.setStatus("home directory unknown", true)
		return
	}
	if home == e.state.CurrentPath() {
		return
	}
	e.navigateTo(navEnter, home, "")
}

// navigateTo resolves one navigation. A clean cache hit commits
// immediately with no generation bump; otherwise the generation
// advances and a scan goes out, and only the result matching the
// recorded pendingNav may complete the move.
func (e *Engine) navigateTo(kind navKind, path, selectName string) {
	if listing, ok := e.cache.Get(path); ok {
		e.pending = nil
		e.scanning = false
		e.commit(kind, listing, selectName)
		return
	}
	gen := e.nextGen()
	e.pending = &pendingNav{kind: kind, path: path, gen: gen, selectName: selectName}
	e.scanning = true
	e.scanner.Request(path, gen, e.state.SortPolicy())
	e.log.Debug("navigation scan issued",
		zap.String("path", path), zap.Uint64("gen", gen))
}

func (e *Engine) commit(kind navKind, listing *nav.Listing, selectName string) {
	switch kind {
	case navEnter:
		e.state.CommitEnter(listing, selectName)
	case navBack:
		e.state.CommitBack(listing)
	case navForward:
		e.state.CommitForward(listing)
	case navReplace:
		e.state.CommitReplace(listing)
	}
	// The listing may have been built under an older sort policy: a
	// cache hit, or the policy changed while the scan ran. Reorder so
	// the screen always reflects the active policy.
	if resorted := e.state.Resort(); resorted != nil {
		e.cache.Put(resorted)
	}
	e.watcher.SetPath(e.state.CurrentPath())
	e.refreshPreview(kind == navReplace)
}

// rescanCurrent forces a fresh scan of the current directory. The
// cursor stays on its entry by name when the new listing still has it.
func (e *Engine) rescanCurrent() {
	path := e.state.CurrentPath()
	e.cache.MarkDirty(path)
	gen := e.nextGen()
	e.pending = &pendingNav{kind: navReplace, path: path, gen: gen}
	e.scanning = true
	e.scanner.Request(path, gen, e.state.SortPolicy())
}

// Apply merges one completion into the core state. Stale results are
// dropped here even when a worker missed them; merge-time filtering is
// what the correctness of the whole scheme rests on.
func (e *Engine) Apply(c Completion) {
	switch {
	case c.Scan != nil:
		e.applyScan(c.Scan)
	case c.Preview != nil:
		e.applyPreview(c.Preview)
	case c.Watch != nil:
		e.applyWatch(c.Watch)
	case c.Command != nil:
		e.applyCommand(c.Command)
	}
}

func (e *Engine) applyScan(res *scan.Result) {
	if res.Gen < e.state.Gen() {
		e.log.Debug("scan result superseded, dropped",
			zap.String("path", res.Path), zap.Uint64("gen", res.Gen))
		return
	}

	if res.Err != nil {
		e.cache.MarkDirty(res.Path)
		if p := e.pending; p != nil && p.path == res.Path && p.gen == res.Gen {
			// The navigation is abandoned; the user stays put.
			e.pending = nil
			e.scanning = false
			e.setStatus(fmt.Sprintf("cannot read %s: %s",
				res.Path, fs.ClassifyError(res.Err)), true)
		} else {
			e.log.Debug("scan failed for a directory we no longer want",
				zap.String("path", res.Path), zap.Error(res.Err))
		}
		return
	}

	e.cache.Put(res.Listing)

	if p := e.pending; p != nil && p.path == res.Path && p.gen == res.Gen {
		e.pending = nil
		e.scanning = false
		e.commit(p.kind, res.Listing, p.selectName)
		return
	}
	if res.Path == e.state.CurrentPath() {
		// A fresh listing for where we already are; merge in place.
		e.state.CommitReplace(res.Listing)
		e.refreshPreview(true)
	}
}

func (e *Engine) applyPreview(res *preview.Result) {
	if res.Gen < e.state.Gen() {
		e.log.Debug("preview result superseded, dropped",
			zap.String("path", res.Path), zap.Uint64("gen", res.Gen))
		return
	}
	if res.Token != e.previewToken || res.Path != e.previewPath {
		e.log.Debug("preview result for an older token, dropped",
			zap.String("path", res.Path), zap.Uint64("token", res.Token))
		return
	}
	payload := res.Payload
	e.previewCur = &payload
	e.previewBusy = false
}

func (e *Engine) applyWatch(ev *watch.Event) {
	e.cache.MarkDirty(ev.Path)
	if ev.Path != e.state.CurrentPath() {
		return
	}
	if e.pending != nil {
		// A navigation is already in flight; the dirty mark covers it.
		return
	}
	e.log.Debug("current directory changed on disk, rescanning",
		zap.String("path", ev.Path))
	e.rescanCurrent()
}

func (e *Engine) applyCommand(res *command.Result) {
	if e.cmdBusy > 0 {
		e.cmdBusy--
	}
	switch {
	case res.Failed():
		msg := firstLine(res.Output)
		if msg == "" {
			if res.Err != nil {
				msg = res.Err.Error()
			} else {
				msg = fmt.Sprintf("%s exited %d", res.Program, res.ExitCode)
			}
		}
		e.setStatus(msg, true)
	case res.Output != "":
		e.setStatus(firstLine(res.Output), false)
	}
	if res.Rescan {
		e.rescanCurrent()
	}
}

// refreshPreview keeps the preview pane tracking the cursor. Each
// issued request gets a fresh token; only the payload for the newest
// token ever lands.
func (e *Engine) refreshPreview(force bool) {
	entry, ok := e.state.CursorEntry()
	if !ok {
		e.previewPath = ""
		e.previewCur = nil
		e.previewBusy = false
		return
	}
	if !force && entry.FullPath == e.previewPath {
		return
	}
	e.previewPath = entry.FullPath
	e.previewCur = nil
	e.previewBusy = true
	e.previewToken++
	e.pump.Request(entry, e.state.Gen(), e.previewToken)
}

func (e *Engine) toggleSelect(n int) {
	for i := 0; i < n; i++ {
		entry, ok := e.state.CursorEntry()
		if !ok {
			break
		}
		e.state.ToggleSelect(entry.FullPath)
		before := e.state.CursorIndex()
		e.state.MoveCursor(1)
		if e.state.CursorIndex() == before {
			break
		}
	}
	e.refreshPreview(false)
}

func (e *Engine) setSortKey(key fs.SortKey) {
	p := e.state.SortPolicy()
	p.Key = key
	e.applySortPolicy(p)
}

func (e *Engine) toggleSortReverse() {
	p := e.state.SortPolicy()
	p.Reverse = !p.Reverse
	e.applySortPolicy(p)
}

func (e *Engine) applySortPolicy(p fs.SortPolicy) {
	if !e.state.SetSortPolicy(p) {
		return
	}
	if resorted := e.state.Resort(); resorted != nil {
		e.cache.Put(resorted)
	}
	rev := ""
	if p.Reverse {
		rev = " reversed"
	}
	e.setStatus("sort: "+p.Key.String()+rev, false)
}

func (e *Engine) yank() {
	paths := e.state.Selection()
	if len(paths) == 0 {
		if entry, ok := e.state.CursorEntry(); ok {
			paths = []string{entry.FullPath}
		}
	}
	if len(paths) == 0 {
		e.setStatus("nothing to yank", true)
		return
	}
	if err := command.YankPaths(paths); err != nil {
		e.setStatus(fmt.Sprintf("yank failed: %v", err), true)
		return
	}
	if len(paths) == 1 {
		e.setStatus("yanked "+paths[0], false)
	} else {
		e.setStatus(fmt.Sprintf("yanked %d paths", len(paths)), false)
	}
}

func (e *Engine) beginRename() {
	entry, ok := e.state.CursorEntry()
	if !ok {
		e.setStatus("nothing to rename", true)
		return
	}
	e.renameFrom = entry.FullPath
	e.disp.BeginInput(dispatch.PromptRename, entry.Name)
}

func (e *Engine) confirmInput(kind dispatch.PromptKind, text string) {
	switch kind {
	case dispatch.PromptFilter:
		// Applied live while typing; confirming leaves it in place.
		e.filterSaved = ""
	case dispatch.PromptRename:
		e.confirmRename(text)
	case dispatch.PromptCommand:
		if t, ok := dispatch.ParseCommandLine(text); ok {
			e.runTemplate(t)
		}
	}
}

func (e *Engine) cancelInput(kind dispatch.PromptKind) {
	switch kind {
	case dispatch.PromptFilter:
		e.state.SetFilter(e.filterSaved)
		e.filterSaved = ""
		e.refreshPreview(false)
	case dispatch.PromptRename:
		e.renameFrom = ""
	}
}

func (e *Engine) confirmRename(text string) {
	from := e.renameFrom
	e.renameFrom = ""
	name := strings.TrimSpace(text)
	if from == "" || name == "" {
		return
	}
	if strings.ContainsRune(name, os.PathSeparator) {
		e.setStatus("rename: name cannot contain a path separator", true)
		return
	}
	to := filepath.Join(filepath.Dir(from), name)
	if to == from {
		return
	}
	e.dispatchCommand(command.Request{
		Program: "mv",
		Args:    []string{"--", from, to},
		Dir:     e.state.CurrentPath(),
		Mode:    command.RunCaptured,
		Rescan:  true,
	})
}

func (e *Engine) runTemplate(t dispatch.Template) {
	ctx := dispatch.ExpandContext{
		Dir:       e.state.CurrentPath(),
		Selection: e.state.Selection(),
	}
	if entry, ok := e.state.CursorEntry(); ok {
		ctx.CursorPath = entry.FullPath
	}
	e.dispatchCommand(t.Expand(ctx))
}

func (e *Engine) dispatchCommand(req command.Request) {
	if res := e.runner.Dispatch(req); res != nil {
		e.applyCommand(res)
		return
	}
	e.cmdBusy++
}

func (e *Engine) nextGen() uint64 {
	gen := e.state.NextGen()
	e.curGen.Store(gen)
	return gen
}

func (e *Engine) setStatus(msg string, isErr bool) {
	e.status = msg
	e.statusErr = isErr
}

func (e *Engine) clearStatus() {
	e.status = ""
	e.statusErr = false
}

// SetViewportRows tells the engine how tall the list pane is; page
// moves step by this much.
func (e *Engine) SetViewportRows(rows int) {
	if rows > 0 {
		e.viewRows = rows
	}
}

// Quitting reports whether a quit action has fired.
func (e *Engine) Quitting() bool { return e.quitting }

// EmitOnQuit reports whether quitting should export the selection.
func (e *Engine) EmitOnQuit() bool { return e.emitOnQuit }

// CurrentPath returns the directory the user is in.
func (e *Engine) CurrentPath() string { return e.state.CurrentPath() }

// SelectionOut is what quit-and-emit exports: the selection when one
// exists, else the cursor entry, else the current directory.
func (e *Engine) SelectionOut() []string {
	if paths := e.state.Selection(); len(paths) > 0 {
		return paths
	}
	if entry, ok := e.state.CursorEntry(); ok {
		return []string{entry.FullPath}
	}
	return []string{e.state.CurrentPath()}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
