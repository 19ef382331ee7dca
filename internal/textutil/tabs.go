package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const DefaultTabWidth = 4

// ExpandTabs replaces tabs with spaces up to the next tab stop,
// measuring columns in display width so wide runes keep alignment.
func ExpandTabs(text string, tabWidth int) string {
	if tabWidth <= 0 {
		return text
	}
	segments := strings.Split(text, "\t")
	if len(segments) == 1 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + tabWidth*(len(segments)-1))
	col := 0
	for i, seg := range segments {
		if i > 0 {
			pad := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
		}
		b.WriteString(seg)
		col += runewidth.StringWidth(seg)
	}
	return b.String()
}
