package nav

import (
	"time"

	"github.com/skiff-term/skiff/internal/fs"
)

// Listing is one scanned snapshot of a directory. Listings are
// immutable once published: a rescan or resort produces a new instance
// instead of mutating one a reader may still hold.
type Listing struct {
	Path      string
	Gen       uint64
	Entries   []fs.Entry
	ScanStart time.Time
	Complete  bool
}
