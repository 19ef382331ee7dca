package command

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// RunnerConfig wires a Runner to the UI it must not scribble over.
// Suspend and Resume bracket interactive children; either may be nil
// when there is no screen to protect. Deliver receives results of
// asynchronous runs.
type RunnerConfig struct {
	Deliver func(Result)
	Suspend func() error
	Resume  func() error
	Logger  *zap.Logger
}

// Runner executes external command requests. Interactive requests run
// synchronously on the caller; background and captured requests run on
// their own goroutine and deliver a Result when done.
type Runner struct {
	deliver func(Result)
	suspend func() error
	resume  func() error
	log     *zap.Logger
}

func NewRunner(cfg RunnerConfig) *Runner {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		deliver: cfg.Deliver,
		suspend: cfg.Suspend,
		resume:  cfg.Resume,
		log:     log,
	}
}

// Dispatch routes a request by capture mode. For interactive requests
// the result is returned inline; for the others it arrives through the
// deliver callback and nil is returned.
func (r *Runner) Dispatch(req Request) *Result {
	switch req.Mode {
	case RunInteractive:
		res := r.runWait(req)
		return &res
	case RunCaptured:
		go r.runCaptured(req)
		return nil
	default:
		go r.runBackground(req)
		return nil
	}
}

func (r *Runner) runWait(req Request) Result {
	r.log.Info("running interactive command",
		zap.String("program", req.Program), zap.Strings("args", req.Args))

	if r.suspend != nil {
		if err := r.suspend(); err != nil {
			return Result{
				Program: req.Program,
				Err:     fmt.Errorf("failed to suspend screen: %w", err),
			}
		}
	}

	cmd := exec.Command(req.Program, req.Args...)
	cmd.Dir = req.Dir

	stdin, stdout, stderr, cleanup := consoleFiles()
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()
	cleanup()

	if r.resume != nil {
		if err := r.resume(); err != nil {
			r.log.Error("failed to resume screen", zap.Error(err))
		}
	}

	return r.finish(req, runErr, "")
}

func (r *Runner) runCaptured(req Request) {
	r.log.Info("running captured command",
		zap.String("program", req.Program), zap.Strings("args", req.Args))

	var buf bytes.Buffer
	cmd := exec.Command(req.Program, req.Args...)
	cmd.Dir = req.Dir
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	runErr := cmd.Run()
	r.deliver(r.finish(req, runErr, strings.TrimSpace(buf.String())))
}

func (r *Runner) runBackground(req Request) {
	r.log.Info("running background command",
		zap.String("program", req.Program), zap.Strings("args", req.Args))

	cmd := exec.Command(req.Program, req.Args...)
	cmd.Dir = req.Dir
	// Stdin/out/err stay nil: the child reads from and writes to the
	// null device instead of fighting the UI for the terminal.

	runErr := cmd.Run()
	r.deliver(r.finish(req, runErr, ""))
}

func (r *Runner) finish(req Request, runErr error, output string) Result {
	res := Result{
		Program: req.Program,
		Output:  output,
		Rescan:  req.Rescan,
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			res.Err = runErr
		}
	}
	if res.Failed() {
		r.log.Warn("command failed",
			zap.String("program", req.Program),
			zap.Int("exit", res.ExitCode),
			zap.Error(res.Err))
	}
	return res
}
