// Package render draws engine.RenderState snapshots onto a tcell
// screen. It owns presentation-only state (scroll offset, spinner
// phase) and never reaches back into the engine.
package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/skiff-term/skiff/internal/dispatch"
	"github.com/skiff-term/skiff/internal/engine"
	"github.com/skiff-term/skiff/internal/fs"
	"github.com/skiff-term/skiff/internal/preview"
	"github.com/skiff-term/skiff/internal/textutil"
)

const (
	// minPreviewTerminalWidth is the narrowest terminal that still
	// gets a preview pane.
	minPreviewTerminalWidth = 80
	previewWidthRatio       = 0.4
	minListWidth            = 24
)

var spinnerFrames = []rune{'|', '/', '-', '\\'}

// Renderer handles all UI drawing. Main-loop only.
type Renderer struct {
	screen tcell.Screen
	theme  ColorTheme

	asciiWidth [128]int
	wideWidth  map[rune]int

	scroll   int
	lastPath string
	spinner  int
}

// NewRenderer creates a renderer for screen.
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{
		screen:    screen,
		theme:     GetColorTheme(),
		wideWidth: make(map[rune]int),
	}
}

// ListRows reports how many entry rows fit at terminal height h. The
// engine's page stride follows it.
func ListRows(h int) int {
	rows := h - 2 // header and status line
	if rows < 1 {
		rows = 1
	}
	return rows
}

// Render draws one complete frame.
func (r *Renderer) Render(rs engine.RenderState) {
	r.screen.Clear()
	w, h := r.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}
	if rs.Busy() {
		r.spinner++
	}

	r.drawHeader(rs, w)

	listWidth := w
	previewX, previewWidth := 0, 0
	if w >= minPreviewTerminalWidth {
		previewWidth = int(float64(w) * previewWidthRatio)
		if w-previewWidth-1 < minListWidth {
			previewWidth = w - minListWidth - 1
		}
		listWidth = w - previewWidth - 1
		previewX = listWidth + 1
	}
	rows := ListRows(h)

	r.drawList(rs, 0, 1, listWidth, rows)
	if previewWidth > 0 {
		for y := 1; y < 1+rows; y++ {
			r.screen.SetContent(listWidth, y, ' ', nil, tcell.StyleDefault)
		}
		r.drawPreview(rs, previewX, 1, previewWidth, rows)
	}
	r.drawStatusLine(rs, w, h)

	r.screen.Show()
}

// drawHeader renders the top bar: program name plus the current path as
// a breadcrumb with the last segment highlighted.
func (r *Renderer) drawHeader(rs engine.RenderState, w int) {
	style := tcell.StyleDefault.Background(r.theme.HeaderBg).Foreground(r.theme.HeaderFg)

	x := r.drawTextLine(0, 0, w, "skiff ", style)

	segments := breadcrumbSegments(rs.Path)
	if len(segments) > 0 && x < w {
		last := len(segments) - 1
		if last > 0 {
			prefix := strings.Join(segments[:last], " › ") + " › "
			prefix = r.fitBreadcrumb(textutil.SanitizeTerminalText(prefix), w-x)
			x = r.drawTextLine(x, 0, w-x, prefix, style)
		}
		if x < w {
			name := r.fitBreadcrumb(textutil.SanitizeTerminalText(segments[last]), w-x)
			x = r.drawTextLine(x, 0, w-x, name, style.Bold(true))
		}
	}
	r.fillLine(x, w, 0, style)
}

// breadcrumbSegments splits a cleaned absolute path into its display
// segments, the root as "/".
func breadcrumbSegments(path string) []string {
	if path == "" {
		return []string{"/"}
	}
	slashed := filepath.ToSlash(filepath.Clean(path))
	if slashed == "/" || slashed == "." {
		return []string{"/"}
	}

	var segments []string
	if strings.HasPrefix(slashed, "/") {
		segments = append(segments, "/")
		slashed = strings.TrimPrefix(slashed, "/")
	}
	for _, part := range strings.Split(slashed, "/") {
		if part != "" {
			segments = append(segments, part)
		}
	}
	if len(segments) == 0 {
		return []string{path}
	}
	return segments
}

// fitBreadcrumb trims text to width columns, keeping the tail, which
// for paths is the useful end.
func (r *Renderer) fitBreadcrumb(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if r.textWidth(text) <= width {
		return text
	}

	ellipsisWidth := r.cachedRuneWidth('…')
	if ellipsisWidth <= 0 {
		ellipsisWidth = 1
	}
	if width <= ellipsisWidth {
		return "…"
	}
	available := width - ellipsisWidth

	runes := []rune(text)
	kept := make([]rune, 0, len(runes))
	total := 0
	for i := len(runes) - 1; i >= 0; i-- {
		w := r.cachedRuneWidth(runes[i])
		if total+w > available {
			break
		}
		kept = append(kept, runes[i])
		total += w
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return "…" + string(kept)
}

// drawList renders the entry pane. The scroll offset follows the
// cursor and resets when the directory changes.
func (r *Renderer) drawList(rs engine.RenderState, startX, startY, width, rows int) {
	base := tcell.StyleDefault.Background(r.theme.ListBg).Foreground(r.theme.ListFg)

	if rs.Path != r.lastPath {
		r.scroll = 0
		r.lastPath = rs.Path
	}
	r.followCursor(rs.Cursor, len(rs.Entries), rows)

	if len(rs.Entries) == 0 {
		msg := " (empty)"
		switch {
		case rs.Scanning:
			msg = " loading…"
		case rs.Filter != "":
			msg = " no matches"
		}
		x := r.drawTextLine(startX, startY, width, msg, base.Foreground(r.theme.DimFg))
		r.fillLine(x, startX+width, startY, base)
		for y := startY + 1; y < startY+rows; y++ {
			r.fillLine(startX, startX+width, y, base)
		}
		return
	}

	y := startY
	end := r.scroll + rows
	if end > len(rs.Entries) {
		end = len(rs.Entries)
	}
	for i := r.scroll; i < end; i++ {
		entry := rs.Entries[i]
		onCursor := i == rs.Cursor

		rowStyle := base
		switch {
		case onCursor:
			rowStyle = tcell.StyleDefault.Background(r.theme.CursorBg).Foreground(r.theme.CursorFg)
		case entry.Errored:
			rowStyle = base.Foreground(r.theme.ErrorFg)
		case entry.Kind == fs.KindSymlink:
			rowStyle = base.Foreground(r.theme.SymlinkFg)
		case entry.IsDir:
			rowStyle = base.Foreground(r.theme.DirectoryFg)
		default:
			rowStyle = base.Foreground(r.theme.FileFg)
		}
		if !onCursor && !entry.Errored && strings.HasPrefix(entry.Name, ".") {
			rowStyle = rowStyle.Foreground(r.theme.HiddenFg)
		}

		mark := ' '
		markStyle := rowStyle
		if entry.Selected {
			mark = '+'
			if !onCursor {
				markStyle = rowStyle.Foreground(r.theme.SelectedFg).Bold(true)
			}
		}
		icon := ' '
		switch {
		case entry.Kind == fs.KindSymlink:
			icon = '@'
		case entry.IsDir:
			icon = '/'
		}

		maxX := startX + width
		x := r.drawStyledRune(startX, y, maxX, mark, markStyle)
		x = r.drawStyledRune(x, y, maxX, icon, rowStyle)
		x = r.drawStyledRune(x, y, maxX, ' ', rowStyle)

		name := textutil.SanitizeTerminalText(entry.Name)
		if avail := maxX - x; avail > 0 {
			name = r.truncateToWidth(name, avail)
			x = r.drawTextLine(x, y, avail, name, rowStyle)
		}
		r.fillLine(x, maxX, y, rowStyle)
		y++
	}
	for ; y < startY+rows; y++ {
		r.fillLine(startX, startX+width, y, base)
	}
}

// followCursor keeps the cursor row inside the viewport.
func (r *Renderer) followCursor(cursor, total, rows int) {
	if total <= rows {
		r.scroll = 0
		return
	}
	if r.scroll > total-rows {
		r.scroll = total - rows
	}
	if cursor < r.scroll {
		r.scroll = cursor
	}
	if cursor >= r.scroll+rows {
		r.scroll = cursor - rows + 1
	}
	if r.scroll < 0 {
		r.scroll = 0
	}
}

// drawPreview renders the right pane from the current preview payload.
func (r *Renderer) drawPreview(rs engine.RenderState, startX, startY, width, rows int) {
	base := tcell.StyleDefault.Foreground(r.theme.PreviewFg)
	dim := base.Foreground(r.theme.DimFg)

	// One column of inner padding.
	contentX := startX + 1
	contentWidth := width - 1
	if contentWidth <= 0 {
		return
	}
	maxX := contentX + contentWidth

	clear := func(fromY int) {
		for y := fromY; y < startY+rows; y++ {
			r.fillLine(startX, startX+width, y, base)
		}
	}

	if rs.Preview == nil {
		if rs.PreviewLoading {
			x := r.drawTextLine(contentX, startY, contentWidth, "loading…", dim)
			r.fillLine(x, maxX, startY, base)
			clear(startY + 1)
			return
		}
		clear(startY)
		return
	}

	p := rs.Preview
	switch p.Kind {
	case preview.PayloadText:
		y := startY
		limit := startY + rows
		for _, line := range p.Lines {
			if y >= limit {
				break
			}
			if p.Truncated && y == limit-1 {
				break
			}
			clipped := r.truncateToWidth(line, contentWidth)
			x := r.drawTextLine(contentX, y, contentWidth, clipped, base)
			r.fillLine(x, maxX, y, base)
			y++
		}
		if p.Truncated && y < limit {
			x := r.drawTextLine(contentX, y, contentWidth, "… (truncated)", dim)
			r.fillLine(x, maxX, y, base)
			y++
		}
		clear(y)

	case preview.PayloadDirectory:
		y := startY
		limit := startY + rows
		summary := fmt.Sprintf("%d dirs, %d files", p.Dir.Dirs, p.Dir.Files)
		x := r.drawTextLine(contentX, y, contentWidth, summary, dim)
		r.fillLine(x, maxX, y, base)
		y++
		if y < limit {
			r.fillLine(startX, startX+width, y, base)
			y++
		}
		shown := 0
		for _, name := range p.Dir.Names {
			if y >= limit {
				break
			}
			clipped := r.truncateToWidth(textutil.SanitizeTerminalText(name), contentWidth)
			x := r.drawTextLine(contentX, y, contentWidth, clipped, base)
			r.fillLine(x, maxX, y, base)
			y++
			shown++
		}
		if rest := p.Dir.Dirs + p.Dir.Files - shown; rest > 0 && y < limit {
			x := r.drawTextLine(contentX, y, contentWidth,
				fmt.Sprintf("… and %d more", rest), dim)
			r.fillLine(x, maxX, y, base)
			y++
		}
		clear(y)

	case preview.PayloadUnsupported:
		x := r.drawTextLine(contentX, startY, contentWidth, p.Reason, dim)
		r.fillLine(x, maxX, startY, base)
		clear(startY + 1)

	case preview.PayloadError:
		msg := "cannot preview: " + p.ErrKind.String()
		x := r.drawTextLine(contentX, startY, contentWidth, msg, base.Foreground(r.theme.ErrorFg))
		r.fillLine(x, maxX, startY, base)
		clear(startY + 1)
	}
}

// drawStatusLine renders the bottom line: an active prompt wins, then a
// status message, then the regular cursor/flags summary.
func (r *Renderer) drawStatusLine(rs engine.RenderState, w, h int) {
	style := tcell.StyleDefault.Background(r.theme.StatusBg).Foreground(r.theme.StatusFg)
	y := h - 1

	if rs.Prompt.Kind != dispatch.PromptNone {
		r.drawPrompt(rs.Prompt, w, y, style)
		return
	}

	if rs.Status != "" {
		msgStyle := style
		if rs.StatusError {
			msgStyle = style.Foreground(r.theme.ErrorFg)
		}
		text := textutil.SanitizeTerminalText(rs.Status)
		x := r.drawTextLine(0, y, w, text, msgStyle)
		r.fillLine(x, w, y, style)
		return
	}

	left := r.statusLeft(rs)
	right := r.statusRight(rs)

	x := r.drawTextLine(0, y, w, textutil.SanitizeTerminalText(left), style)
	rightWidth := r.textWidth(right)
	rightX := w - rightWidth
	if rightX < x+1 {
		rightX = x + 1
	}
	r.fillLine(x, rightX, y, style)
	r.drawTextLine(rightX, y, w-rightX, right, style.Foreground(r.theme.DimFg))
}

func (r *Renderer) drawPrompt(p engine.PromptView, w, y int, style tcell.Style) {
	var prefix string
	switch p.Kind {
	case dispatch.PromptFilter:
		prefix = "/"
	case dispatch.PromptRename:
		prefix = "rename: "
	case dispatch.PromptCommand:
		prefix = ":"
	}
	x := r.drawTextLine(0, y, w, prefix+textutil.SanitizeTerminalText(p.Text), style)
	cursorStyle := style.Background(r.theme.CursorBg).Foreground(r.theme.CursorFg)
	x = r.drawStyledRune(x, y, w, '█', cursorStyle)
	r.fillLine(x, w, y, style)
}

// statusLeft describes the cursor entry: position, size, mtime, link
// target.
func (r *Renderer) statusLeft(rs engine.RenderState) string {
	if len(rs.Entries) == 0 {
		return fmt.Sprintf("0/%d", rs.Total)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d", rs.Cursor+1, len(rs.Entries))
	if len(rs.Entries) != rs.Total {
		fmt.Fprintf(&b, " of %d", rs.Total)
	}

	if rs.Cursor >= 0 && rs.Cursor < len(rs.Entries) {
		entry := rs.Entries[rs.Cursor]
		if !entry.IsDir && entry.Kind != fs.KindOther {
			b.WriteString("  ")
			b.WriteString(humanSize(entry.Size))
		}
		if !entry.Modified.IsZero() {
			b.WriteString("  ")
			b.WriteString(entry.Modified.Format("Jan _2 15:04"))
		}
		if entry.LinkTarget != "" {
			b.WriteString("  → ")
			b.WriteString(entry.LinkTarget)
		}
	}
	return b.String()
}

// statusRight collects mode flags: pending keys, selection count,
// filter, sort order, history arrows, busy spinner.
func (r *Renderer) statusRight(rs engine.RenderState) string {
	var parts []string
	if rs.PendingKeys != "" {
		parts = append(parts, rs.PendingKeys)
	}
	if rs.SelectionCount > 0 {
		parts = append(parts, fmt.Sprintf("%d sel", rs.SelectionCount))
	}
	if rs.Filter != "" {
		parts = append(parts, "/"+rs.Filter)
	}
	sort := rs.Sort.Key.String()
	if rs.Sort.Reverse {
		sort += "↓"
	}
	parts = append(parts, sort)
	if rs.CanBack || rs.CanForward {
		arrows := ""
		if rs.CanBack {
			arrows += "‹"
		}
		if rs.CanForward {
			arrows += "›"
		}
		parts = append(parts, arrows)
	}
	if rs.Busy() {
		parts = append(parts, string(spinnerFrames[r.spinner%len(spinnerFrames)]))
	}
	return strings.Join(parts, "  ") + " "
}

// humanSize formats a byte count the way the status line shows it.
func humanSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/(1024*1024*1024))
	}
}
