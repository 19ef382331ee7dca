package engine

import (
	"github.com/skiff-term/skiff/internal/command"
	"github.com/skiff-term/skiff/internal/preview"
	"github.com/skiff-term/skiff/internal/scan"
	"github.com/skiff-term/skiff/internal/watch"
)

// Completion is one finished piece of asynchronous work arriving at
// the main loop. Exactly one field is non-nil. Everything the workers
// produce funnels through this type and one channel, so the loop has a
// single ordered stream to merge.
type Completion struct {
	Scan    *scan.Result
	Preview *preview.Result
	Watch   *watch.Event
	Command *command.Result
}
