package app

import (
	"errors"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/skiff-term/skiff/internal/ui/input"
	"github.com/skiff-term/skiff/internal/ui/render"
)

// animationInterval is the redraw cadence while a scan, preview or
// command is outstanding.
const animationInterval = 50 * time.Millisecond

// Run drives the main loop until a quit action fires. It owns the
// screen and the engine for the whole session.
func (a *Application) Run() error {
	defer a.screen.Fini()

	a.engine.Start()
	defer a.engine.Close()

	if err := a.engine.Bootstrap(); err != nil {
		return err
	}
	_, h := a.screen.Size()
	a.engine.SetViewportRows(render.ListRows(h))

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	sigCont := resumeSignals()
	if sigCont != nil {
		defer signal.Stop(sigCont)
	}

	var animTimer *time.Timer
	var animCh <-chan time.Time

	startAnimation := func() {
		if animTimer == nil {
			animTimer = time.NewTimer(animationInterval)
		} else {
			if !animTimer.Stop() {
				select {
				case <-animTimer.C:
				default:
				}
			}
			animTimer.Reset(animationInterval)
		}
		animCh = animTimer.C
	}
	stopAnimation := func() {
		if animTimer == nil {
			return
		}
		if !animTimer.Stop() {
			select {
			case <-animTimer.C:
			default:
			}
		}
		animCh = nil
	}
	defer stopAnimation()

	rs := a.engine.Snapshot()
	a.renderer.Render(rs)

	for !a.engine.Quitting() {
		if rs.Busy() {
			startAnimation()
		} else {
			stopAnimation()
		}

		redraw := false
		select {
		case ev := <-events:
			redraw = a.handleEvent(ev)
		case c, ok := <-a.engine.Completions():
			if !ok {
				return errors.New("completion channel closed while running")
			}
			a.engine.Apply(c)
			redraw = true
		case <-animCh:
			redraw = true
		case <-sigCont:
			a.resumeAfterStop()
			redraw = true
		}

		// Merge whatever else already arrived before drawing the frame.
		if a.drainCompletions() {
			redraw = true
		}

		if redraw {
			rs = a.engine.Snapshot()
			a.renderer.Render(rs)
		}
	}
	return nil
}

// drainCompletions applies queued completions without blocking. A
// closed channel is left for the main select to report.
func (a *Application) drainCompletions() bool {
	merged := false
	for {
		select {
		case c, ok := <-a.engine.Completions():
			if !ok {
				return merged
			}
			a.engine.Apply(c)
			merged = true
		default:
			return merged
		}
	}
}

func (a *Application) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		token := input.KeyToken(ev)
		if token == "" {
			return false
		}
		a.engine.HandleKey(token)
		return true
	case *tcell.EventResize:
		_, h := ev.Size()
		a.engine.SetViewportRows(render.ListRows(h))
		a.screen.Sync()
		return true
	case *tcell.EventMouse:
		// Parsed so click sequences don't leak as keys; not bound.
		return false
	case *tcell.EventInterrupt:
		return true
	}
	return false
}

// resumeAfterStop re-engages the screen after a SIGCONT, picking up any
// size change that happened while stopped.
func (a *Application) resumeAfterStop() {
	if err := a.screen.Resume(); err != nil {
		a.log.Warn("resume after stop failed", zap.Error(err))
		return
	}
	a.screen.EnableMouse()
	a.screen.Sync()
	_, h := a.screen.Size()
	a.engine.SetViewportRows(render.ListRows(h))
}
