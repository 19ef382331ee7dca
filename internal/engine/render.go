package engine

import (
	"time"

	"github.com/skiff-term/skiff/internal/dispatch"
	"github.com/skiff-term/skiff/internal/fs"
	"github.com/skiff-term/skiff/internal/preview"
)

// EntryView is one row of the list pane.
type EntryView struct {
	Name       string
	Kind       fs.Kind
	IsDir      bool
	LinkTarget string
	Size       int64
	Modified   time.Time
	Selected   bool
	Errored    bool
}

// PromptView describes the active input line. Kind is PromptNone when
// no prompt is open.
type PromptView struct {
	Kind dispatch.PromptKind
	Text string
}

// RenderState is the complete snapshot the renderer draws from.
// Building one is the only way state leaves the engine; the renderer
// never reaches back in.
type RenderState struct {
	Path    string
	Entries []EntryView
	Cursor  int
	Total   int // listing size before filter and hidden rules

	Filter     string
	ShowHidden bool
	Sort       fs.SortPolicy

	Scanning       bool
	Preview        *preview.Payload
	PreviewLoading bool

	SelectionCount int
	CanBack        bool
	CanForward     bool

	Status      string
	StatusError bool

	Prompt      PromptView
	PendingKeys string

	CommandBusy bool
}

// Busy reports whether anything asynchronous is outstanding, for the
// animation tick.
func (rs RenderState) Busy() bool {
	return rs.Scanning || rs.PreviewLoading || rs.CommandBusy
}

// Snapshot builds the render state for one frame.
func (e *Engine) Snapshot() RenderState {
	rs := RenderState{
		Path:           e.state.CurrentPath(),
		Cursor:         e.state.CursorIndex(),
		Filter:         e.state.Filter(),
		ShowHidden:     e.state.ShowHidden(),
		Sort:           e.state.SortPolicy(),
		Scanning:       e.scanning,
		Preview:        e.previewCur,
		PreviewLoading: e.previewBusy,
		SelectionCount: e.state.SelectionCount(),
		CanBack:        e.state.CanBack(),
		CanForward:     e.state.CanForward(),
		Status:         e.status,
		StatusError:    e.statusErr,
		PendingKeys:    e.disp.Pending(),
		CommandBusy:    e.cmdBusy > 0,
	}
	if l := e.state.Listing(); l != nil {
		rs.Total = len(l.Entries)
	}
	if kind := e.disp.Prompt(); kind != dispatch.PromptNone {
		rs.Prompt = PromptView{Kind: kind, Text: e.disp.InputText()}
	}

	n := e.state.VisibleCount()
	rs.Entries = make([]EntryView, 0, n)
	for i := 0; i < n; i++ {
		entry, ok := e.state.EntryAt(i)
		if !ok {
			break
		}
		rs.Entries = append(rs.Entries, EntryView{
			Name:       entry.Name,
			Kind:       entry.Kind,
			IsDir:      entry.IsDir(),
			LinkTarget: entry.LinkTarget,
			Size:       entry.Size,
			Modified:   entry.Modified,
			Selected:   e.state.IsSelected(entry.FullPath),
			Errored:    entry.Err != fs.ErrNone,
		})
	}
	return rs
}
