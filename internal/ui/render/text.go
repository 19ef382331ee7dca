package render

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// cachedRuneWidth memoizes runewidth lookups. The renderer runs on the
// main loop only, so the caches need no locking.
func (r *Renderer) cachedRuneWidth(ru rune) int {
	if ru >= 0 && ru < 128 {
		if w := r.asciiWidth[ru]; w != 0 {
			return w - 1
		}
		w := runewidth.RuneWidth(ru)
		if w < 0 {
			w = 0
		}
		r.asciiWidth[ru] = w + 1
		return w
	}

	if w, ok := r.wideWidth[ru]; ok {
		return w
	}
	w := runewidth.RuneWidth(ru)
	if w < 0 {
		w = 0
	}
	r.wideWidth[ru] = w
	return w
}

func (r *Renderer) textWidth(text string) int {
	width := 0
	for _, ru := range text {
		width += r.cachedRuneWidth(ru)
	}
	return width
}

// truncateToWidth cuts text to maxWidth columns, ending with an
// ellipsis when anything was dropped.
func (r *Renderer) truncateToWidth(text string, maxWidth int) string {
	if maxWidth <= 0 || text == "" {
		return ""
	}
	if r.textWidth(text) <= maxWidth {
		return text
	}

	const ellipsis = '…'
	ellipsisWidth := r.cachedRuneWidth(ellipsis)
	if ellipsisWidth <= 0 {
		ellipsisWidth = 1
	}
	if maxWidth <= ellipsisWidth {
		return string(ellipsis)
	}

	available := maxWidth - ellipsisWidth
	var builder strings.Builder
	width := 0
	for _, ru := range text {
		w := r.cachedRuneWidth(ru)
		if width+w > available {
			break
		}
		builder.WriteRune(ru)
		width += w
	}
	builder.WriteRune(ellipsis)
	return builder.String()
}

// drawTextLine draws text at (startX, y) clipped to maxWidth columns,
// attaching zero-width runes to the preceding cell as combining
// characters. Returns the x after the last drawn cell.
func (r *Renderer) drawTextLine(startX, y, maxWidth int, text string, style tcell.Style) int {
	x := startX
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		if x-startX >= maxWidth {
			break
		}
		mainc := runes[i]
		i++
		var combc []rune
		for i < len(runes) && r.cachedRuneWidth(runes[i]) == 0 {
			combc = append(combc, runes[i])
			i++
		}
		r.screen.SetContent(x, y, mainc, combc, style)
		x += r.cachedRuneWidth(mainc)
	}
	return x
}

// drawStyledRune draws one rune and pads any extra columns a wide rune
// occupies. Returns the x after it.
func (r *Renderer) drawStyledRune(x, y, maxX int, ru rune, style tcell.Style) int {
	if x >= maxX {
		return x
	}
	width := r.cachedRuneWidth(ru)
	if width <= 0 {
		width = 1
	}
	r.screen.SetContent(x, y, ru, nil, style)
	for w := 1; w < width && x+w < maxX; w++ {
		r.screen.SetContent(x+w, y, ' ', nil, style)
	}
	return x + width
}

// fillLine pads [x, maxX) on row y with spaces.
func (r *Renderer) fillLine(x, maxX, y int, style tcell.Style) {
	for ; x < maxX; x++ {
		r.screen.SetContent(x, y, ' ', nil, style)
	}
}
