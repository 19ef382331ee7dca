package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/skiff-term/skiff/internal/app"
	"github.com/skiff-term/skiff/internal/config"
	"github.com/skiff-term/skiff/internal/logging"
	"github.com/skiff-term/skiff/internal/shellsetup"
)

func usage() {
	fmt.Fprint(flag.CommandLine.Output(), `skiff - terminal file navigator

usage:
  skiff [flags] [dir]

Quit with q to stay put, or Q to export the selection and let the
shell wrapper cd into the last directory. Run "skiff -setup" and eval
the output from your shell rc file to install the wrapper.

flags:
`)
	flag.PrintDefaults()
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("skiff", flag.ExitOnError)
	flags.Usage = usage
	var (
		configPath    = flags.String("config", "", "config file (default $SKIFF_CONFIG, else the platform config dir)")
		logPath       = flags.String("log", "", "append debug logs to this file")
		selectionPath = flags.String("selection-path", "", "write exported paths here instead of $TMPDIR/skiff_result_<pid>.txt")
		setup         = flags.Bool("setup", false, "print the shell integration snippet and exit")
		shell         = flags.String("shell", "", "force the shell dialect for -setup")
	)
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *setup {
		shellsetup.PrintSetup(*shell, shellsetup.Config{DetectParent: shellsetup.DetectParentShell})
		return 0
	}

	// Terminals with misdeclared encodings still get readable non-ASCII
	// names this way.
	tcell.SetEncodingFallback(tcell.EncodingFallbackUTF8)

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	opts, cfgErr := config.Load(path)
	if cfgErr != nil {
		fmt.Fprintf(os.Stderr, "skiff: %v (using defaults)\n", cfgErr)
	}

	if *logPath != "" {
		opts.LogFile = *logPath
	}
	logger, err := logging.New(opts.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skiff: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	if cfgErr != nil {
		logger.Warn("config load failed, using defaults", zap.Error(cfgErr))
	}

	startDir, err := startDirectory(flags.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "skiff: %v\n", err)
		return 1
	}

	a, err := app.New(app.Config{StartDir: startDir, Options: opts, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "skiff: %v\n", err)
		return 1
	}
	if err := a.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "skiff: %v\n", err)
		return 1
	}

	if a.EmitOnQuit() {
		if err := writeSelection(*selectionPath, a.SelectionOut()); err != nil {
			fmt.Fprintf(os.Stderr, "skiff: write selection: %v\n", err)
			return 1
		}
	}
	return 0
}

// startDirectory resolves the optional positional argument, defaulting
// to the working directory. The argument must name a directory; the
// engine reports later failures (unreadable, vanished) itself.
func startDirectory(arg string) (string, error) {
	if arg == "" {
		return os.Getwd()
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("start directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("start directory %s is not a directory", abs)
	}
	return abs, nil
}

// writeSelection writes the exported paths where the shell wrapper
// expects them, one per line. The PID suffix keeps concurrent sessions
// from clobbering each other; 0600 because the file names directories
// the user was browsing.
func writeSelection(path string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if path == "" {
		path = filepath.Join(os.TempDir(), fmt.Sprintf("skiff_result_%d.txt", os.Getpid()))
	}
	data := strings.Join(paths, "\n") + "\n"
	return os.WriteFile(path, []byte(data), 0o600)
}
