package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skiff-term/skiff/internal/dispatch"
	"github.com/skiff-term/skiff/internal/fs"
	"github.com/skiff-term/skiff/internal/nav"
	"github.com/skiff-term/skiff/internal/preview"
	"github.com/skiff-term/skiff/internal/scan"
	"github.com/skiff-term/skiff/internal/watch"
)

// navLayout builds root/{alpha,beta}/ plus c.txt (4 bytes) and d.txt
// (1 byte). Under the default policy the visible order is alpha, beta,
// c.txt, d.txt.
func navLayout(t *testing.T) (root, alpha, beta string) {
	t.Helper()
	root = t.TempDir()
	alpha = filepath.Join(root, "alpha")
	beta = filepath.Join(root, "beta")
	for _, dir := range []string{alpha, beta} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "inner.txt"), []byte("x\n"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "c.txt"), []byte("aaaa"), 0o644); err != nil {
		t.Fatalf("write c.txt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "d.txt"), []byte("b"), 0o644); err != nil {
		t.Fatalf("write d.txt: %v", err)
	}
	return root, alpha, beta
}

func newTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e := New(Config{StartDir: dir, Policy: fs.DefaultSortPolicy()})
	if err := e.Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func mustListing(t *testing.T, path string, gen uint64) *nav.Listing {
	t.Helper()
	l, err := scan.ReadDirectory(path, gen, fs.DefaultSortPolicy())
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return l
}

func visibleNames(rs RenderState) []string {
	names := make([]string, len(rs.Entries))
	for i, e := range rs.Entries {
		names[i] = e.Name
	}
	return names
}

func TestBootstrapFailsOnUnreadableDir(t *testing.T) {
	e := New(Config{
		StartDir: filepath.Join(t.TempDir(), "gone"),
		Policy:   fs.DefaultSortPolicy(),
	})
	defer e.Close()
	if err := e.Bootstrap(); err == nil {
		t.Fatalf("bootstrap of a missing directory must fail")
	}
}

func TestCacheHitNavigatesWithoutGenBump(t *testing.T) {
	root, alpha, _ := navLayout(t)
	e := newTestEngine(t, root)
	e.cache.Put(mustListing(t, alpha, e.state.Gen()))

	genBefore := e.state.Gen()
	e.HandleKey("l") // cursor starts on alpha
	if got := e.CurrentPath(); got != alpha {
		t.Fatalf("CurrentPath = %q, want %q", got, alpha)
	}
	if e.state.Gen() != genBefore {
		t.Fatalf("cache hit bumped generation: %d -> %d", genBefore, e.state.Gen())
	}
	if e.pending != nil || e.scanning {
		t.Fatalf("cache hit left a scan pending")
	}
}

func TestCacheMissIssuesScanAndStaysPut(t *testing.T) {
	root, _, beta := navLayout(t)
	e := newTestEngine(t, root)

	genBefore := e.state.Gen()
	e.HandleKey("j") // beta
	e.HandleKey("l")
	if e.CurrentPath() != root {
		t.Fatalf("moved before the scan landed")
	}
	if e.state.Gen() != genBefore+1 {
		t.Fatalf("generation = %d, want %d", e.state.Gen(), genBefore+1)
	}
	if e.pending == nil || e.pending.path != beta || !e.scanning {
		t.Fatalf("pending = %+v scanning = %v", e.pending, e.scanning)
	}
}

func TestStaleScanResultDropped(t *testing.T) {
	root, _, beta := navLayout(t)
	e := newTestEngine(t, root)

	oldGen := e.state.Gen()
	e.HandleKey("j")
	e.HandleKey("l") // pending scan of beta at oldGen+1

	stale := scan.Result{Path: beta, Gen: oldGen, Listing: mustListing(t, beta, oldGen)}
	e.Apply(Completion{Scan: &stale})
	if e.CurrentPath() != root {
		t.Fatalf("stale result moved the user")
	}
	if e.pending == nil {
		t.Fatalf("stale result consumed the pending navigation")
	}

	fresh := scan.Result{Path: beta, Gen: e.pending.gen, Listing: mustListing(t, beta, e.pending.gen)}
	e.Apply(Completion{Scan: &fresh})
	if e.CurrentPath() != beta {
		t.Fatalf("fresh result did not commit, still in %q", e.CurrentPath())
	}
	if e.pending != nil || e.scanning {
		t.Fatalf("commit left pending state behind")
	}
}

func TestLateScanForAbandonedNavigationOnlyWarmsCache(t *testing.T) {
	root, alpha, beta := navLayout(t)
	e := newTestEngine(t, root)
	e.cache.Put(mustListing(t, alpha, e.state.Gen()))

	e.HandleKey("j")
	e.HandleKey("l") // beta: cache miss, scan pending
	gen := e.pending.gen

	e.HandleKey("k")
	e.HandleKey("l") // alpha: cache hit commits, abandons the beta navigation
	if e.CurrentPath() != alpha {
		t.Fatalf("cache-hit navigation did not commit")
	}

	// The beta result arrives with a still-current generation. It must
	// not move the user, only warm the cache.
	late := scan.Result{Path: beta, Gen: gen, Listing: mustListing(t, beta, gen)}
	e.Apply(Completion{Scan: &late})
	if e.CurrentPath() != alpha {
		t.Fatalf("late result moved the user to %q", e.CurrentPath())
	}
	if _, ok := e.cache.Get(beta); !ok {
		t.Fatalf("late result was not cached")
	}
}

func TestScanErrorAbandonsNavigation(t *testing.T) {
	root, _, beta := navLayout(t)
	e := newTestEngine(t, root)

	e.HandleKey("j")
	e.HandleKey("l")
	failed := scan.Result{Path: beta, Gen: e.pending.gen, Err: os.ErrPermission}
	e.Apply(Completion{Scan: &failed})

	if e.CurrentPath() != root {
		t.Fatalf("failed scan moved the user")
	}
	if e.pending != nil || e.scanning {
		t.Fatalf("failed scan left pending state")
	}
	rs := e.Snapshot()
	if rs.Status == "" || !rs.StatusError {
		t.Fatalf("scan failure not surfaced: %+v", rs.Status)
	}
}

func TestPreviewOnlyNewestTokenMerges(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 12; i++ {
		name := filepath.Join(root, string(rune('a'+i))+".txt")
		if err := os.WriteFile(name, []byte("hello\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	e := newTestEngine(t, root)

	for i := 0; i < 10; i++ {
		e.HandleKey("j")
	}
	wantToken := e.previewToken
	if wantToken != 11 {
		t.Fatalf("previewToken = %d, want 11 (bootstrap + 10 moves)", wantToken)
	}

	payload := preview.Payload{Kind: preview.PayloadText, Lines: []string{"hello"}}
	midway := preview.Result{Path: e.previewPath, Gen: e.state.Gen(), Token: 5, Payload: payload}
	e.Apply(Completion{Preview: &midway})
	if e.previewCur != nil {
		t.Fatalf("superseded preview token merged")
	}

	newest := preview.Result{Path: e.previewPath, Gen: e.state.Gen(), Token: wantToken, Payload: payload}
	e.Apply(Completion{Preview: &newest})
	if e.previewCur == nil || e.previewBusy {
		t.Fatalf("newest preview did not merge")
	}
	if rs := e.Snapshot(); rs.Preview == nil || rs.Preview.Kind != preview.PayloadText {
		t.Fatalf("snapshot preview = %+v", rs.Preview)
	}
}

func TestPreviewStaleGenerationDropped(t *testing.T) {
	root, _, _ := navLayout(t)
	e := newTestEngine(t, root)
	oldGen := e.state.Gen()
	token := e.previewToken
	path := e.previewPath

	e.HandleKey("j")
	e.HandleKey("l") // cache miss bumps the generation

	res := preview.Result{Path: path, Gen: oldGen, Token: token,
		Payload: preview.Payload{Kind: preview.PayloadText}}
	e.Apply(Completion{Preview: &res})
	if e.previewCur != nil {
		t.Fatalf("stale-generation preview merged")
	}
}

func TestPreviewErrorPayloadReachesSnapshot(t *testing.T) {
	root, _, _ := navLayout(t)
	e := newTestEngine(t, root)

	res := preview.Result{
		Path:    e.previewPath,
		Gen:     e.state.Gen(),
		Token:   e.previewToken,
		Payload: preview.Payload{Kind: preview.PayloadError, ErrKind: fs.ErrPermissionDenied},
	}
	e.Apply(Completion{Preview: &res})
	rs := e.Snapshot()
	if rs.Preview == nil || rs.Preview.Kind != preview.PayloadError {
		t.Fatalf("error payload lost: %+v", rs.Preview)
	}
	if rs.Preview.ErrKind != fs.ErrPermissionDenied {
		t.Fatalf("ErrKind = %v", rs.Preview.ErrKind)
	}
}

func TestSelectionSurvivesNavigationAndResort(t *testing.T) {
	root, alpha, _ := navLayout(t)
	e := newTestEngine(t, root)
	e.cache.Put(mustListing(t, alpha, e.state.Gen()))

	e.HandleKey("<space>") // select alpha, cursor to beta
	e.HandleKey("<space>") // select beta, cursor to c.txt
	if n := e.state.SelectionCount(); n != 2 {
		t.Fatalf("selection count = %d, want 2", n)
	}

	e.HandleKey("g")
	e.HandleKey("g")
	e.HandleKey("l") // into alpha (cache hit)
	if e.CurrentPath() != alpha {
		t.Fatalf("did not enter alpha")
	}
	if n := e.state.SelectionCount(); n != 2 {
		t.Fatalf("selection lost on enter: %d", n)
	}

	e.HandleKey("[") // back to root (cache hit)
	if e.CurrentPath() != root {
		t.Fatalf("did not navigate back")
	}

	e.HandleKey("s")
	e.HandleKey("s") // resort by size
	selected := 0
	for _, entry := range e.Snapshot().Entries {
		if entry.Selected {
			selected++
		}
	}
	if selected != 2 {
		t.Fatalf("selection flags after resort = %d, want 2", selected)
	}
}

func TestSortChangeAndIdempotence(t *testing.T) {
	root, _, _ := navLayout(t)
	e := newTestEngine(t, root)

	before := visibleNames(e.Snapshot())

	// Applying the already-active key is a no-op.
	e.HandleKey("s")
	e.HandleKey("n")
	after := visibleNames(e.Snapshot())
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("idempotent sort reordered: %v -> %v", before, after)
		}
	}

	// Size ascending puts d.txt (1 byte) before c.txt (4 bytes).
	e.HandleKey("s")
	e.HandleKey("s")
	bySize := visibleNames(e.Snapshot())
	posC, posD := -1, -1
	for i, name := range bySize {
		switch name {
		case "c.txt":
			posC = i
		case "d.txt":
			posD = i
		}
	}
	if posD < 0 || posC < 0 || posD > posC {
		t.Fatalf("size order wrong: %v", bySize)
	}

	e.HandleKey("s")
	e.HandleKey("s")
	again := visibleNames(e.Snapshot())
	for i := range bySize {
		if bySize[i] != again[i] {
			t.Fatalf("repeated sort churned: %v -> %v", bySize, again)
		}
	}
}

func TestCursorStaysOnEntryAcrossResort(t *testing.T) {
	root, _, _ := navLayout(t)
	e := newTestEngine(t, root)

	e.HandleKey("G") // bottom: d.txt
	entry, _ := e.state.CursorEntry()
	e.HandleKey("s")
	e.HandleKey("s")
	moved, _ := e.state.CursorEntry()
	if entry.Name != moved.Name {
		t.Fatalf("cursor entry changed across resort: %q -> %q", entry.Name, moved.Name)
	}
}

func TestToggleHiddenRevealsDotfiles(t *testing.T) {
	root, _, _ := navLayout(t)
	if err := os.WriteFile(filepath.Join(root, ".secret"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	e := newTestEngine(t, root)

	rs := e.Snapshot()
	if len(rs.Entries) != 4 || rs.Total != 5 {
		t.Fatalf("hidden entry visible by default: %d/%d", len(rs.Entries), rs.Total)
	}

	e.HandleKey(".")
	rs = e.Snapshot()
	if len(rs.Entries) != 5 {
		t.Fatalf("toggle-hidden did not reveal: %v", visibleNames(rs))
	}
}

func TestWatchEventRescansCurrentPreservingCursor(t *testing.T) {
	root, alpha, _ := navLayout(t)
	e := newTestEngine(t, root)
	e.HandleKey("j") // cursor on beta

	genBefore := e.state.Gen()
	ev := watch.Event{Path: root, At: time.Now()}
	e.Apply(Completion{Watch: &ev})
	if e.pending == nil || e.pending.kind != navReplace || !e.scanning {
		t.Fatalf("watch event did not start a rescan: %+v", e.pending)
	}
	if e.state.Gen() != genBefore+1 {
		t.Fatalf("rescan did not bump generation")
	}

	res := scan.Result{Path: root, Gen: e.pending.gen, Listing: mustListing(t, root, e.pending.gen)}
	e.Apply(Completion{Scan: &res})
	if e.scanning {
		t.Fatalf("rescan did not settle")
	}
	if entry, _ := e.state.CursorEntry(); entry.Name != "beta" {
		t.Fatalf("cursor not preserved by name, on %q", entry.Name)
	}

	// An event for somewhere else only dirties the cache.
	e.cache.Put(mustListing(t, alpha, e.state.Gen()))
	other := watch.Event{Path: alpha, At: time.Now()}
	genBefore = e.state.Gen()
	e.Apply(Completion{Watch: &other})
	if e.state.Gen() != genBefore {
		t.Fatalf("foreign watch event bumped generation")
	}
	if _, ok := e.cache.Get(alpha); ok {
		t.Fatalf("foreign watch event did not dirty the cache")
	}
}

func TestWatchDuringPendingNavigationOnlyMarksDirty(t *testing.T) {
	root, _, _ := navLayout(t)
	e := newTestEngine(t, root)

	e.HandleKey("j")
	e.HandleKey("l") // pending scan of beta
	pendingBefore := e.pending
	genBefore := e.state.Gen()

	ev := watch.Event{Path: root, At: time.Now()}
	e.Apply(Completion{Watch: &ev})
	if e.pending != pendingBefore || e.state.Gen() != genBefore {
		t.Fatalf("watch event clobbered an in-flight navigation")
	}
	if _, ok := e.cache.Get(root); ok {
		t.Fatalf("current directory not marked dirty")
	}
}

func TestParentSelectsChild(t *testing.T) {
	root, alpha, _ := navLayout(t)
	e := newTestEngine(t, alpha)

	e.HandleKey("h")
	if e.pending == nil || e.pending.path != root || e.pending.selectName != "alpha" {
		t.Fatalf("parent navigation pending = %+v", e.pending)
	}
	res := scan.Result{Path: root, Gen: e.pending.gen, Listing: mustListing(t, root, e.pending.gen)}
	e.Apply(Completion{Scan: &res})

	if e.CurrentPath() != root {
		t.Fatalf("did not reach parent")
	}
	if entry, _ := e.state.CursorEntry(); entry.Name != "alpha" {
		t.Fatalf("cursor on %q, want the child we came from", entry.Name)
	}
}

func TestFilterLiveCancelAndConfirm(t *testing.T) {
	root, _, _ := navLayout(t)
	e := newTestEngine(t, root)

	e.HandleKey("/")
	e.HandleKey("c")
	rs := e.Snapshot()
	if len(rs.Entries) != 1 || rs.Entries[0].Name != "c.txt" {
		t.Fatalf("live filter = %v", visibleNames(rs))
	}
	if rs.Prompt.Kind != dispatch.PromptFilter || rs.Prompt.Text != "c" {
		t.Fatalf("prompt in snapshot = %+v", rs.Prompt)
	}

	e.HandleKey("<esc>")
	rs = e.Snapshot()
	if len(rs.Entries) != 4 || rs.Filter != "" {
		t.Fatalf("cancel did not restore: %v filter=%q", visibleNames(rs), rs.Filter)
	}

	e.HandleKey("/")
	e.HandleKey("b")
	e.HandleKey("<enter>")
	rs = e.Snapshot()
	if rs.Filter != "b" || len(rs.Entries) != 1 || rs.Entries[0].Name != "beta" {
		t.Fatalf("confirmed filter = %q entries = %v", rs.Filter, visibleNames(rs))
	}
}

func TestFilterClearsOnDirectoryChange(t *testing.T) {
	root, alpha, _ := navLayout(t)
	e := newTestEngine(t, root)
	e.cache.Put(mustListing(t, alpha, e.state.Gen()))

	e.HandleKey("/")
	e.HandleKey("a") // matches alpha only
	e.HandleKey("<enter>")
	e.HandleKey("l") // enter alpha
	if e.CurrentPath() != alpha {
		t.Fatalf("did not enter alpha")
	}
	if got := e.state.Filter(); got != "" {
		t.Fatalf("filter survived directory change: %q", got)
	}
}

func TestQuitVariants(t *testing.T) {
	root, _, _ := navLayout(t)

	e := newTestEngine(t, root)
	e.HandleKey("q")
	if !e.Quitting() || e.EmitOnQuit() {
		t.Fatalf("plain quit: quitting=%v emit=%v", e.Quitting(), e.EmitOnQuit())
	}

	e2 := newTestEngine(t, root)
	e2.HandleKey("Q")
	if !e2.Quitting() || !e2.EmitOnQuit() {
		t.Fatalf("quit-emit: quitting=%v emit=%v", e2.Quitting(), e2.EmitOnQuit())
	}

	e3 := newTestEngine(t, root)
	e3.HandleKey("<c-c>")
	if !e3.Quitting() {
		t.Fatalf("ctrl-c did not quit")
	}
}

func TestSelectionOutFallbacks(t *testing.T) {
	root, alpha, beta := navLayout(t)
	e := newTestEngine(t, root)

	// No selection: cursor entry.
	if got := e.SelectionOut(); len(got) != 1 || got[0] != alpha {
		t.Fatalf("cursor fallback = %v", got)
	}

	e.HandleKey("<space>")
	e.HandleKey("<space>")
	got := e.SelectionOut()
	if len(got) != 2 || got[0] != alpha || got[1] != beta {
		t.Fatalf("selection export = %v", got)
	}

	// Empty directory: the directory itself.
	empty := t.TempDir()
	e2 := newTestEngine(t, empty)
	if got := e2.SelectionOut(); len(got) != 1 || got[0] != empty {
		t.Fatalf("empty-dir fallback = %v", got)
	}
}

func TestKeymapOverrideRemovesBinding(t *testing.T) {
	root, _, _ := navLayout(t)
	e := New(Config{
		StartDir: root,
		Policy:   fs.DefaultSortPolicy(),
		Bindings: map[string]string{"q": ""},
	})
	defer e.Close()
	if err := e.Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	e.HandleKey("q")
	if e.Quitting() {
		t.Fatalf("removed binding still quit")
	}
}

func TestBadKeymapEntrySurfacesStatus(t *testing.T) {
	root, _, _ := navLayout(t)
	e := New(Config{
		StartDir: root,
		Policy:   fs.DefaultSortPolicy(),
		Bindings: map[string]string{"Z": "frobnicate"},
	})
	defer e.Close()
	rs := e.Snapshot()
	if rs.Status == "" || !rs.StatusError {
		t.Fatalf("bad keymap entry not surfaced: %+v", rs)
	}
}

func TestYankNothingSetsError(t *testing.T) {
	empty := t.TempDir()
	e := newTestEngine(t, empty)
	e.HandleKey("y")
	rs := e.Snapshot()
	if rs.Status != "nothing to yank" || !rs.StatusError {
		t.Fatalf("status = %q err=%v", rs.Status, rs.StatusError)
	}
}

func TestRenameRunsMoveAndRescans(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "old.txt"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	e := newTestEngine(t, root)

	e.HandleKey("a") // rename prompt, prefilled "old.txt"
	for range "old.txt" {
		e.HandleKey("<backspace>")
	}
	for _, r := range "new.txt" {
		e.HandleKey(string(r))
	}
	e.HandleKey("<enter>")

	var res Completion
	select {
	case res = <-e.Completions():
	case <-time.After(3 * time.Second):
		t.Fatalf("rename command never completed")
	}
	if res.Command == nil {
		t.Fatalf("unexpected completion %+v", res)
	}
	e.Apply(res)

	if _, err := os.Stat(filepath.Join(root, "new.txt")); err != nil {
		t.Fatalf("file not renamed: %v", err)
	}
	if e.pending == nil || e.pending.kind != navReplace {
		t.Fatalf("rename did not trigger a rescan")
	}
	relist := scan.Result{Path: root, Gen: e.pending.gen, Listing: mustListing(t, root, e.pending.gen)}
	e.Apply(Completion{Scan: &relist})
	names := visibleNames(e.Snapshot())
	if len(names) != 1 || names[0] != "new.txt" {
		t.Fatalf("listing after rename = %v", names)
	}
}

func TestCapturedCommandReportsOutput(t *testing.T) {
	t.Setenv("SHELL", "/bin/sh")
	root, _, _ := navLayout(t)
	e := New(Config{
		StartDir: root,
		Policy:   fs.DefaultSortPolicy(),
		Bindings: map[string]string{"T": "%echo skiff:%d"},
	})
	defer e.Close()
	if err := e.Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	e.HandleKey("T")
	if !e.Snapshot().CommandBusy {
		t.Fatalf("captured command not marked busy")
	}

	var res Completion
	select {
	case res = <-e.Completions():
	case <-time.After(3 * time.Second):
		t.Fatalf("captured command never completed")
	}
	e.Apply(res)

	rs := e.Snapshot()
	if rs.Status != "skiff:"+root {
		t.Fatalf("status = %q, want %q", rs.Status, "skiff:"+root)
	}
	if rs.StatusError {
		t.Fatalf("successful command flagged as error")
	}
	if rs.CommandBusy {
		t.Fatalf("busy flag not cleared")
	}
}

func TestFailedCommandSetsErrorStatus(t *testing.T) {
	t.Setenv("SHELL", "/bin/sh")
	root, _, _ := navLayout(t)
	e := New(Config{
		StartDir: root,
		Policy:   fs.DefaultSortPolicy(),
		Bindings: map[string]string{"F": "%exit 3"},
	})
	defer e.Close()
	if err := e.Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	e.HandleKey("F")
	var res Completion
	select {
	case res = <-e.Completions():
	case <-time.After(3 * time.Second):
		t.Fatalf("command never completed")
	}
	e.Apply(res)

	rs := e.Snapshot()
	if rs.Status == "" || !rs.StatusError {
		t.Fatalf("failure not surfaced: %q err=%v", rs.Status, rs.StatusError)
	}
}

func TestCountPrefixMovesCursor(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 30; i++ {
		name := filepath.Join(root, string(rune('a'+i%26))+string(rune('0'+i/26))+".txt")
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	e := newTestEngine(t, root)

	e.HandleKey("1")
	e.HandleKey("2")
	e.HandleKey("j")
	if got := e.state.CursorIndex(); got != 12 {
		t.Fatalf("cursor = %d, want 12", got)
	}
}

func TestStartCloseLifecycle(t *testing.T) {
	root, _, _ := navLayout(t)
	e := New(Config{StartDir: root, Policy: fs.DefaultSortPolicy()})
	e.Start()
	if err := e.Bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	e.Close()
	e.Close() // idempotent
}
