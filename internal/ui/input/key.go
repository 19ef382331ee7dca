// Package input converts tcell key events into the token strings
// keymaps are written in.
package input

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// KeyToken renders a key event in binding notation: plain runes as
// themselves, everything else bracketed like "<enter>" or "<c-r>".
// The empty string means the event has no binding representation.
//
// tcell overlays several named keys on the ctrl range: Enter is
// Ctrl-M, Tab is Ctrl-I, Backspace is Ctrl-H. The named forms win, so
// those chords are not bindable as ctrl letters.
func KeyToken(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyRune:
		r := ev.Rune()
		if ev.Modifiers()&tcell.ModAlt != 0 {
			return fmt.Sprintf("<a-%c>", r)
		}
		switch r {
		case ' ':
			return "<space>"
		case '<':
			return "<lt>"
		case '>':
			return "<gt>"
		}
		return string(r)
	case tcell.KeyEnter:
		return "<enter>"
	case tcell.KeyTab:
		return "<tab>"
	case tcell.KeyEscape:
		return "<esc>"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "<backspace>"
	case tcell.KeyDelete:
		return "<delete>"
	case tcell.KeyUp:
		return "<up>"
	case tcell.KeyDown:
		return "<down>"
	case tcell.KeyLeft:
		return "<left>"
	case tcell.KeyRight:
		return "<right>"
	case tcell.KeyPgUp:
		return "<pgup>"
	case tcell.KeyPgDn:
		return "<pgdn>"
	case tcell.KeyHome:
		return "<home>"
	case tcell.KeyEnd:
		return "<end>"
	case tcell.KeyInsert:
		return "<insert>"
	}

	k := ev.Key()
	if k >= tcell.KeyF1 && k <= tcell.KeyF64 {
		return fmt.Sprintf("<f%d>", int(k-tcell.KeyF1)+1)
	}
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return fmt.Sprintf("<c-%c>", 'a'+rune(k-tcell.KeyCtrlA))
	}
	return ""
}
