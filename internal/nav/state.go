package nav

import (
	"sort"
	"strings"

	"github.com/skiff-term/skiff/internal/fs"
)

// State is the single source of truth for where the user is and what
// they see: the history stack, the installed listing, cursor, filter,
// sort policy and the selection set. It is owned by the main loop and
// never touched by worker goroutines.
type State struct {
	stack []string // visited directories, oldest first
	pos   int      // index of the current directory in stack

	gen uint64 // bumped whenever previously issued async results become stale

	listing *Listing // listing for stack[pos]; nil until the first scan lands
	visible []int    // indices into listing.Entries that pass filter and hidden rules
	cursor  int      // index into visible

	cursorMemo map[string]int      // per-directory remembered cursor display index
	selected   map[string]struct{} // absolute paths, survives navigation and resort

	sortPolicy fs.SortPolicy
	filter     string
	showHidden bool
}

// NewState starts history at startDir with nothing listed yet.
func NewState(startDir string, policy fs.SortPolicy, showHidden bool) *State {
	return &State{
		stack:      []string{startDir},
		gen:        1,
		cursorMemo: make(map[string]int),
		selected:   make(map[string]struct{}),
		sortPolicy: policy,
		showHidden: showHidden,
	}
}

// Gen returns the current staleness generation.
func (s *State) Gen() uint64 { return s.gen }

// NextGen advances the generation, invalidating every async result
// issued before this call.
func (s *State) NextGen() uint64 {
	s.gen++
	return s.gen
}

// CurrentPath returns the directory the user is in.
func (s *State) CurrentPath() string { return s.stack[s.pos] }

// Listing returns the installed listing, nil before the first scan.
func (s *State) Listing() *Listing { return s.listing }

// History exposes the stack and position for rendering breadcrumbs.
func (s *State) History() ([]string, int) { return s.stack, s.pos }

func (s *State) CanBack() bool    { return s.pos > 0 }
func (s *State) CanForward() bool { return s.pos+1 < len(s.stack) }

// BackTarget names the directory a back navigation would land in.
func (s *State) BackTarget() (string, bool) {
	if !s.CanBack() {
		return "", false
	}
	return s.stack[s.pos-1], true
}

// ForwardTarget names the directory a forward navigation would land in.
func (s *State) ForwardTarget() (string, bool) {
	if !s.CanForward() {
		return "", false
	}
	return s.stack[s.pos+1], true
}

// CommitEnter makes listing's directory current, pushing it onto the
// history stack. Entering the directory the forward slot already names
// reuses that slot instead of truncating; anything else discards the
// forward branch. selectName, when non-empty, positions the cursor on
// that entry (used when entering the parent to land on the child we
// came from).
func (s *State) CommitEnter(listing *Listing, selectName string) {
	if listing == nil {
		return
	}
	if listing.Path == s.CurrentPath() {
		s.CommitReplace(listing)
		return
	}
	s.rememberCursor()
	if s.CanForward() && s.stack[s.pos+1] == listing.Path {
		s.pos++
	} else {
		s.stack = append(s.stack[:s.pos+1], listing.Path)
		s.pos = len(s.stack) - 1
	}
	s.install(listing)
	if selectName != "" && s.cursorToName(selectName) {
		return
	}
	s.restoreCursor()
}

// CommitBack moves one step back in history and installs the listing
// for that directory.
func (s *State) CommitBack(listing *Listing) {
	if !s.CanBack() || listing == nil || listing.Path != s.stack[s.pos-1] {
		return
	}
	s.rememberCursor()
	s.pos--
	s.install(listing)
	s.restoreCursor()
}

// CommitForward moves one step forward in history.
func (s *State) CommitForward(listing *Listing) {
	if !s.CanForward() || listing == nil || listing.Path != s.stack[s.pos+1] {
		return
	}
	s.rememberCursor()
	s.pos++
	s.install(listing)
	s.restoreCursor()
}

// CommitReplace swaps in a fresh listing for the current directory,
// keeping the cursor on the same entry when it still exists and
// clamping otherwise. Filter and selection are untouched.
func (s *State) CommitReplace(listing *Listing) {
	if listing == nil || listing.Path != s.CurrentPath() {
		return
	}
	keep := ""
	if e, ok := s.CursorEntry(); ok {
		keep = e.Name
	}
	prev := s.cursor
	s.listing = listing
	s.recomputeVisible()
	if keep != "" && s.cursorToName(keep) {
		return
	}
	s.setCursor(prev)
}

// install replaces the listing for a directory change: the filter
// resets, hidden preference and selection persist.
func (s *State) install(listing *Listing) {
	s.listing = listing
	s.filter = ""
	s.recomputeVisible()
	s.cursor = 0
}

func (s *State) rememberCursor() {
	if s.listing != nil {
		s.cursorMemo[s.CurrentPath()] = s.cursor
	}
}

func (s *State) restoreCursor() {
	if memo, ok := s.cursorMemo[s.CurrentPath()]; ok {
		s.setCursor(memo)
	}
}

// recomputeVisible rebuilds the display order from the installed
// listing under the current filter and hidden-file preference.
func (s *State) recomputeVisible() {
	s.visible = s.visible[:0]
	if s.listing == nil {
		s.cursor = 0
		return
	}
	needle := strings.ToLower(s.filter)
	for i := range s.listing.Entries {
		e := &s.listing.Entries[i]
		if !s.showHidden && e.IsHidden() {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(e.Name), needle) {
			continue
		}
		s.visible = append(s.visible, i)
	}
	s.setCursor(s.cursor)
}

// VisibleCount returns how many entries pass the current filter.
func (s *State) VisibleCount() int { return len(s.visible) }

// EntryAt returns the visible entry at display index i.
func (s *State) EntryAt(i int) (fs.Entry, bool) {
	if s.listing == nil || i < 0 || i >= len(s.visible) {
		return fs.Entry{}, false
	}
	return s.listing.Entries[s.visible[i]], true
}

// CursorIndex returns the display index of the cursor.
func (s *State) CursorIndex() int { return s.cursor }

// CursorEntry returns the entry under the cursor, if any.
func (s *State) CursorEntry() (fs.Entry, bool) {
	return s.EntryAt(s.cursor)
}

// MoveCursor shifts the cursor by delta display rows, clamping at both
// ends. Moving in an empty listing is a no-op.
func (s *State) MoveCursor(delta int) {
	s.setCursor(s.cursor + delta)
}

// SetCursor clamps and sets the cursor display index.
func (s *State) SetCursor(i int) { s.setCursor(i) }

func (s *State) setCursor(i int) {
	if len(s.visible) == 0 {
		s.cursor = 0
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(s.visible) {
		i = len(s.visible) - 1
	}
	s.cursor = i
}

// CursorToTop and CursorToBottom jump to the listing edges.
func (s *State) CursorToTop()    { s.setCursor(0) }
func (s *State) CursorToBottom() { s.setCursor(len(s.visible) - 1) }

// CursorToName puts the cursor on the visible entry with the given
// name. Returns false when no visible entry matches.
func (s *State) CursorToName(name string) bool { return s.cursorToName(name) }

func (s *State) cursorToName(name string) bool {
	for display, idx := range s.visible {
		if s.listing.Entries[idx].Name == name {
			s.cursor = display
			return true
		}
	}
	return false
}

// ToggleSelect flips membership of path in the selection set.
func (s *State) ToggleSelect(path string) {
	if path == "" {
		return
	}
	if _, ok := s.selected[path]; ok {
		delete(s.selected, path)
	} else {
		s.selected[path] = struct{}{}
	}
}

// IsSelected reports whether path is in the selection set.
func (s *State) IsSelected(path string) bool {
	_, ok := s.selected[path]
	return ok
}

// Selection returns the selected paths in deterministic order.
func (s *State) Selection() []string {
	paths := make([]string, 0, len(s.selected))
	for p := range s.selected {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// SelectionCount returns the size of the selection set.
func (s *State) SelectionCount() int { return len(s.selected) }

// ClearSelection empties the selection set.
func (s *State) ClearSelection() {
	if len(s.selected) > 0 {
		s.selected = make(map[string]struct{})
	}
}

// SortPolicy returns the active ordering.
func (s *State) SortPolicy() fs.SortPolicy { return s.sortPolicy }

// SetSortPolicy records a new ordering, reporting whether it differs
// from the active one. Applying the current policy again is a no-op.
func (s *State) SetSortPolicy(p fs.SortPolicy) bool {
	if p == s.sortPolicy {
		return false
	}
	s.sortPolicy = p
	return true
}

// Resort builds a re-ordered copy of the installed listing under the
// active sort policy and installs it, keeping the cursor on the same
// entry. No rescan happens; the data is the data we already have. The
// new listing is returned so the caller can refresh its cache.
func (s *State) Resort() *Listing {
	if s.listing == nil {
		return nil
	}
	entries := make([]fs.Entry, len(s.listing.Entries))
	copy(entries, s.listing.Entries)
	fs.SortEntries(entries, s.sortPolicy)

	resorted := &Listing{
		Path:      s.listing.Path,
		Gen:       s.listing.Gen,
		Entries:   entries,
		ScanStart: s.listing.ScanStart,
		Complete:  s.listing.Complete,
	}
	s.CommitReplace(resorted)
	return resorted
}

// Filter returns the active filter text.
func (s *State) Filter() string { return s.filter }

// SetFilter narrows the visible entries to names containing text,
// case-insensitively. The cursor stays on its entry when that entry
// remains visible, otherwise it clamps.
func (s *State) SetFilter(text string) {
	if s.filter == text {
		return
	}
	keep := ""
	if e, ok := s.CursorEntry(); ok {
		keep = e.Name
	}
	prev := s.cursor
	s.filter = text
	s.recomputeVisible()
	if keep != "" && s.cursorToName(keep) {
		return
	}
	s.setCursor(prev)
}

// ShowHidden reports whether dotfiles are visible.
func (s *State) ShowHidden() bool { return s.showHidden }

// ToggleHidden flips dotfile visibility and returns the new value.
func (s *State) ToggleHidden() bool {
	keep := ""
	if e, ok := s.CursorEntry(); ok {
		keep = e.Name
	}
	s.showHidden = !s.showHidden
	s.recomputeVisible()
	if keep != "" {
		s.cursorToName(keep)
	}
	return s.showHidden
}
