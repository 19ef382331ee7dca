// Package dispatch turns key tokens into actions. It holds the only
// keyboard state in the program: a pending multi-key sequence, an
// optional numeric count, or the text of an active prompt. It never
// touches navigation or the screen; callers receive an Event and do
// the work.
package dispatch

import (
	"strconv"
	"strings"
)

// maxCount bounds numeric prefixes so a held-down digit key cannot
// push the count into overflow territory.
const maxCount = 99999

// EventKind says which Event fields are meaningful.
type EventKind uint8

const (
	// EventNone means the key was absorbed: it extended a sequence or
	// count, was swallowed by a prompt, or matched nothing.
	EventNone EventKind = iota
	// EventBuiltin resolved to a named internal action.
	EventBuiltin
	// EventExternal resolved to a command template.
	EventExternal
	// EventInputChanged reports edited prompt text, for live filtering.
	EventInputChanged
	// EventInputConfirmed reports prompt text accepted with enter.
	EventInputConfirmed
	// EventInputCanceled reports a prompt dismissed with escape.
	EventInputCanceled
)

// Event is the outcome of one key. Count is 0 when no numeric prefix
// was typed; callers that repeat treat that as 1.
type Event struct {
	Kind     EventKind
	Builtin  Builtin
	Template Template
	Count    int
	Prompt   PromptKind
	Text     string
}

// Dispatcher resolves key tokens against a compiled keymap. It is not
// safe for concurrent use; the main loop owns it.
type Dispatcher struct {
	keymap *Keymap

	node  *trieNode // non-nil while a sequence is in progress
	seq   []string
	count int

	prompt PromptKind
	input  []rune
}

func New(keymap *Keymap) *Dispatcher {
	return &Dispatcher{keymap: keymap}
}

// HandleKey consumes one key token and reports what, if anything, it
// resolved to. Unmatched sequences reset silently: a stray key must
// never wedge the dispatcher.
func (d *Dispatcher) HandleKey(key string) Event {
	if key == "" {
		return Event{}
	}
	if d.prompt != PromptNone {
		return d.handlePromptKey(key)
	}
	if key == "<esc>" {
		d.reset()
		return Event{}
	}
	if d.node == nil && isDigitKey(key) && !(key == "0" && d.count == 0) {
		d.count = d.count*10 + int(key[0]-'0')
		if d.count > maxCount {
			d.count = maxCount
		}
		return Event{}
	}

	node := d.node
	if node == nil {
		node = d.keymap.root
	}
	child, ok := node.children[key]
	if !ok {
		d.reset()
		return Event{}
	}
	if child.binding != nil {
		return d.fire(child.binding)
	}
	d.node = child
	d.seq = append(d.seq, key)
	return Event{}
}

func (d *Dispatcher) fire(b *binding) Event {
	count := d.count
	d.reset()
	if b.template != nil {
		return Event{Kind: EventExternal, Template: *b.template, Count: count}
	}
	return Event{Kind: EventBuiltin, Builtin: b.builtin, Count: count}
}

// BeginInput opens a prompt. Any pending sequence or count is dropped;
// keys now edit text until enter or escape ends the prompt.
func (d *Dispatcher) BeginInput(kind PromptKind, initial string) {
	d.reset()
	d.prompt = kind
	d.input = []rune(initial)
}

func (d *Dispatcher) handlePromptKey(key string) Event {
	kind := d.prompt
	switch key {
	case "<enter>":
		text := string(d.input)
		d.endInput()
		return Event{Kind: EventInputConfirmed, Prompt: kind, Text: text}
	case "<esc>":
		d.endInput()
		return Event{Kind: EventInputCanceled, Prompt: kind}
	case "<backspace>":
		if len(d.input) == 0 {
			return Event{}
		}
		d.input = d.input[:len(d.input)-1]
		return Event{Kind: EventInputChanged, Prompt: kind, Text: string(d.input)}
	case "<space>":
		d.input = append(d.input, ' ')
		return Event{Kind: EventInputChanged, Prompt: kind, Text: string(d.input)}
	case "<lt>":
		d.input = append(d.input, '<')
		return Event{Kind: EventInputChanged, Prompt: kind, Text: string(d.input)}
	case "<gt>":
		d.input = append(d.input, '>')
		return Event{Kind: EventInputChanged, Prompt: kind, Text: string(d.input)}
	}
	runes := []rune(key)
	if len(runes) != 1 {
		// Unhandled special key; prompts ignore it.
		return Event{}
	}
	d.input = append(d.input, runes[0])
	return Event{Kind: EventInputChanged, Prompt: kind, Text: string(d.input)}
}

// Prompt reports the active prompt kind, PromptNone when idle.
func (d *Dispatcher) Prompt() PromptKind { return d.prompt }

// InputText is the current prompt text.
func (d *Dispatcher) InputText() string { return string(d.input) }

// Pending renders the in-progress count and sequence for the status
// line, "12g" style. Empty when nothing is pending.
func (d *Dispatcher) Pending() string {
	if d.count == 0 && len(d.seq) == 0 {
		return ""
	}
	var sb strings.Builder
	if d.count > 0 {
		sb.WriteString(strconv.Itoa(d.count))
	}
	for _, tok := range d.seq {
		sb.WriteString(tok)
	}
	return sb.String()
}

func (d *Dispatcher) reset() {
	d.node = nil
	d.seq = d.seq[:0]
	d.count = 0
}

func (d *Dispatcher) endInput() {
	d.prompt = PromptNone
	d.input = nil
}

func isDigitKey(key string) bool {
	return len(key) == 1 && key[0] >= '0' && key[0] <= '9'
}
