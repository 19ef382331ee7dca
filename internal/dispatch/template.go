package dispatch

import (
	"strings"

	"github.com/skiff-term/skiff/internal/command"
)

// Template is an external command binding: a shell line with
// placeholders, plus the capture mode its prefix selected. Templates
// are parsed once at keymap compile time and expanded against the
// navigation state at the moment the binding fires.
//
// Placeholders: %f is the cursor entry's path, %s the selection (or
// the cursor entry when nothing is selected), %d the current
// directory, %% a literal percent sign. Paths are single-quoted for
// the shell.
type Template struct {
	Line string
	Mode command.CaptureMode
}

// ParseTemplate recognizes an external binding by its prefix: "!" runs
// the command interactively on the terminal, "&" detached in the
// background, "%" silently with output captured for the status line.
// Anything without one of those prefixes is not a template.
func ParseTemplate(value string) (Template, bool) {
	if len(value) < 2 {
		return Template{}, false
	}
	var mode command.CaptureMode
	switch value[0] {
	case '!':
		mode = command.RunInteractive
	case '&':
		mode = command.RunBackground
	case '%':
		mode = command.RunCaptured
	default:
		return Template{}, false
	}
	line := strings.TrimSpace(value[1:])
	if line == "" {
		return Template{}, false
	}
	return Template{Line: line, Mode: mode}, true
}

// ParseCommandLine is ParseTemplate for prompt input, where the prefix
// is optional and the default is an interactive run.
func ParseCommandLine(line string) (Template, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Template{}, false
	}
	if t, ok := ParseTemplate(line); ok {
		return t, true
	}
	return Template{Line: line, Mode: command.RunInteractive}, true
}

// ExpandContext carries the navigation values placeholders refer to.
type ExpandContext struct {
	CursorPath string
	Selection  []string
	Dir        string
}

// paths returns what %s stands for: the selection, or the cursor entry
// when the selection is empty.
func (ctx ExpandContext) paths() []string {
	if len(ctx.Selection) > 0 {
		return ctx.Selection
	}
	if ctx.CursorPath != "" {
		return []string{ctx.CursorPath}
	}
	return nil
}

// Expand substitutes the placeholders and wraps the result in a shell
// invocation for the external runner. The dispatcher never executes
// anything itself.
func (t Template) Expand(ctx ExpandContext) command.Request {
	return command.Shell(expandLine(t.Line, ctx), ctx.Dir, t.Mode)
}

func expandLine(line string, ctx ExpandContext) string {
	var b strings.Builder
	b.Grow(len(line) + 32)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '%' || i+1 >= len(line) {
			b.WriteByte(c)
			continue
		}
		i++
		switch line[i] {
		case 'f':
			b.WriteString(shellQuote(ctx.CursorPath))
		case 's':
			paths := ctx.paths()
			for j, p := range paths {
				if j > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(shellQuote(p))
			}
		case 'd':
			b.WriteString(shellQuote(ctx.Dir))
		case '%':
			b.WriteByte('%')
		default:
			// Unknown placeholder passes through untouched.
			b.WriteByte('%')
			b.WriteByte(line[i])
		}
	}
	return b.String()
}

// shellQuote single-quotes s so the shell treats it as one literal
// word. Embedded single quotes close, escape and reopen.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
