package preview

import (
	"os"
	"strings"

	"github.com/skiff-term/skiff/internal/fs"
	"github.com/skiff-term/skiff/internal/textutil"
)

// dirSummaryNames is how many leading entry names a directory preview
// shows.
const dirSummaryNames = 8

// Build produces the preview payload for one entry, reading at most the
// configured byte budget. It never returns an error: failures become
// PayloadError so the cursor can sit on anything.
func Build(entry fs.Entry, limits Limits) Payload {
	if entry.Err != fs.ErrNone {
		return Payload{Kind: PayloadError, ErrKind: entry.Err}
	}

	switch {
	case entry.IsDir():
		return buildDirectory(entry.FullPath)
	case entry.Kind == fs.KindOther:
		return Payload{Kind: PayloadUnsupported, Reason: "special file"}
	default:
		// Regular files, and symlinks to regular files: Open follows
		// the link.
		return buildFile(entry.FullPath, limits)
	}
}

func buildDirectory(path string) Payload {
	dirents, err := os.ReadDir(path)
	if err != nil {
		return Payload{Kind: PayloadError, ErrKind: fs.ClassifyError(err)}
	}

	summary := DirSummary{}
	for _, d := range dirents {
		if d.IsDir() {
			summary.Dirs++
		} else {
			summary.Files++
		}
	}
	limit := len(dirents)
	if limit > dirSummaryNames {
		limit = dirSummaryNames
	}
	summary.Names = make([]string, 0, limit)
	for _, d := range dirents[:limit] {
		name := textutil.SanitizeTerminalText(d.Name())
		if d.IsDir() {
			name += "/"
		}
		summary.Names = append(summary.Names, name)
	}
	return Payload{Kind: PayloadDirectory, Dir: summary}
}

func buildFile(path string, limits Limits) Payload {
	if fs.LooksBinaryName(path) {
		return Payload{Kind: PayloadUnsupported, Reason: "binary file"}
	}

	// One byte past the budget tells us whether the file was cut.
	head, err := fs.ReadFileHead(path, limits.MaxBytes+1)
	if err != nil {
		return Payload{Kind: PayloadError, ErrKind: fs.ClassifyError(err)}
	}
	truncated := false
	if int64(len(head)) > limits.MaxBytes {
		head = head[:limits.MaxBytes]
		truncated = true
	}

	if !fs.IsTextData(head) {
		return Payload{Kind: PayloadUnsupported, Reason: "binary data"}
	}

	text := fs.NormalizeTextContent(head)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	// A trailing newline is a line terminator, not an extra blank row.
	if !truncated && len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > limits.MaxLines {
		lines = lines[:limits.MaxLines]
		truncated = true
	}

	for i, line := range lines {
		lines[i] = textutil.ExpandTabs(textutil.SanitizeTerminalText(line), textutil.DefaultTabWidth)
	}
	return Payload{Kind: PayloadText, Lines: lines, Truncated: truncated}
}
