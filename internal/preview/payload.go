package preview

import "github.com/skiff-term/skiff/internal/fs"

// PayloadKind discriminates what a preview carries.
type PayloadKind uint8

const (
	PayloadText PayloadKind = iota
	PayloadDirectory
	PayloadUnsupported
	PayloadError
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadText:
		return "text"
	case PayloadDirectory:
		return "directory"
	case PayloadUnsupported:
		return "unsupported"
	default:
		return "error"
	}
}

// DirSummary is the shallow preview of a directory: totals plus the
// first few entry names. No recursion.
type DirSummary struct {
	Dirs  int
	Files int
	Names []string
}

// Payload is one rendered preview. Exactly the fields for its Kind are
// meaningful.
type Payload struct {
	Kind      PayloadKind
	Lines     []string // PayloadText: sanitized, tab-expanded
	Truncated bool     // PayloadText: cut at the byte or line budget
	Dir       DirSummary
	Reason    string       // PayloadUnsupported
	ErrKind   fs.ErrorKind // PayloadError
}

// Result carries a finished preview back to the main loop. Token
// identifies the exact request; the loop renders a result only when
// both the generation and the token are still current.
type Result struct {
	Path    string
	Gen     uint64
	Token   uint64
	Payload Payload
}
