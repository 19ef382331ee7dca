package dispatch

// Builtin identifies one action from the closed set the engine applies
// directly to navigation state. Built-ins are synchronous and cannot
// fail; anything that needs a subprocess goes through a Template
// instead.
type Builtin uint8

const (
	BuiltinNone Builtin = iota
	BuiltinCursorUp
	BuiltinCursorDown
	BuiltinPageUp
	BuiltinPageDown
	BuiltinTop
	BuiltinBottom
	BuiltinEnter
	BuiltinParent
	BuiltinBack
	BuiltinForward
	BuiltinHome
	BuiltinToggleSelect
	BuiltinClearSelection
	BuiltinSortName
	BuiltinSortSize
	BuiltinSortTime
	BuiltinSortReverse
	BuiltinToggleHidden
	BuiltinRescan
	BuiltinYank
	BuiltinFilter
	BuiltinRename
	BuiltinCommand
	BuiltinQuit
	BuiltinQuitEmit
)

// builtinNames maps the action names keymaps use to their Builtin.
// The keymap side is strings so external config stays decoupled from
// this enum; the mapping happens once at compile time.
var builtinNames = map[string]Builtin{
	"up":              BuiltinCursorUp,
	"down":            BuiltinCursorDown,
	"page-up":         BuiltinPageUp,
	"page-down":       BuiltinPageDown,
	"top":             BuiltinTop,
	"bottom":          BuiltinBottom,
	"enter":           BuiltinEnter,
	"parent":          BuiltinParent,
	"back":            BuiltinBack,
	"forward":         BuiltinForward,
	"home":            BuiltinHome,
	"select":          BuiltinToggleSelect,
	"clear-selection": BuiltinClearSelection,
	"sort-name":       BuiltinSortName,
	"sort-size":       BuiltinSortSize,
	"sort-time":       BuiltinSortTime,
	"sort-reverse":    BuiltinSortReverse,
	"toggle-hidden":   BuiltinToggleHidden,
	"rescan":          BuiltinRescan,
	"yank":            BuiltinYank,
	"filter":          BuiltinFilter,
	"rename":          BuiltinRename,
	"command":         BuiltinCommand,
	"quit":            BuiltinQuit,
	"quit-emit":       BuiltinQuitEmit,
}

// ParseBuiltin resolves an action name from a keymap.
func ParseBuiltin(name string) (Builtin, bool) {
	b, ok := builtinNames[name]
	return b, ok
}

func (b Builtin) String() string {
	for name, v := range builtinNames {
		if v == b {
			return name
		}
	}
	return "none"
}

// PromptKind names the free-text inputs a built-in can open.
type PromptKind uint8

const (
	PromptNone PromptKind = iota
	PromptFilter
	PromptRename
	PromptCommand
)

func (k PromptKind) String() string {
	switch k {
	case PromptFilter:
		return "filter"
	case PromptRename:
		return "rename"
	case PromptCommand:
		return "command"
	default:
		return "none"
	}
}
