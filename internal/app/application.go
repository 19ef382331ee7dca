// Package app owns the terminal session: screen setup, the select loop
// over input events and worker completions, and quit plumbing.
package app

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/skiff-term/skiff/internal/config"
	"github.com/skiff-term/skiff/internal/engine"
	"github.com/skiff-term/skiff/internal/ui/render"
)

// Config assembles an Application.
type Config struct {
	StartDir string
	Options  config.Options
	Logger   *zap.Logger
}

// Application represents the running program.
type Application struct {
	screen   tcell.Screen
	engine   *engine.Engine
	renderer *render.Renderer
	log      *zap.Logger
}

// New sets up the terminal screen and wires the engine to it.
func New(cfg Config) (*Application, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	// Parse mouse sequences so modified clicks don't leak as key events.
	screen.EnableMouse()

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Application{
		screen:   screen,
		engine:   newEngine(screen, cfg.StartDir, cfg.Options, log),
		renderer: render.NewRenderer(screen),
		log:      log,
	}, nil
}

// newEngine maps the loaded options onto an engine wired to suspend and
// resume this screen around interactive children.
func newEngine(screen tcell.Screen, startDir string, opts config.Options, log *zap.Logger) *engine.Engine {
	return engine.New(engine.Config{
		StartDir:       startDir,
		Policy:         opts.SortPolicy(),
		ShowHidden:     opts.ShowHidden,
		CacheSize:      opts.CacheSize,
		ScanWorkers:    opts.ScanWorkers,
		PreviewWorkers: opts.PreviewWorkers,
		PreviewLimits:  opts.PreviewLimits(),
		WatchInterval:  opts.WatchInterval,
		Bindings:       opts.Keys,
		Suspend:        screen.Suspend,
		Resume: func() error {
			if err := screen.Resume(); err != nil {
				return err
			}
			screen.EnableMouse()
			screen.Sync()
			return nil
		},
		Logger: log,
	})
}

// EmitOnQuit reports whether the user quit with the export action.
func (a *Application) EmitOnQuit() bool { return a.engine.EmitOnQuit() }

// SelectionOut returns the paths to export after an emitting quit.
func (a *Application) SelectionOut() []string { return a.engine.SelectionOut() }

// CurrentPath returns the directory the session ended in.
func (a *Application) CurrentPath() string { return a.engine.CurrentPath() }
