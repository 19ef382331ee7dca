// Package shellsetup emits the shell glue that makes cd-on-quit work.
// A child process cannot change its parent shell's directory, so the
// user evals a wrapper function that runs the binary, reads the result
// file it leaves behind, and cd's into the directory named there.
package shellsetup

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"
)

// ParentShellFunc reports the shell that launched this process, as a
// bare name or an executable path. Only the Windows build has a real
// implementation.
type ParentShellFunc func() string

type Config struct {
	DetectParent ParentShellFunc
}

// PrintSetup writes the wrapper for the requested shell to stdout,
// detecting one when shellOverride is empty. The output is meant to be
// evaled from an rc file.
func PrintSetup(shellOverride string, cfg Config) {
	parent := cfg.DetectParent
	if parent == nil {
		parent = DetectParentShell
	}

	shell := normalizeShellName(shellOverride)
	if shell == "" {
		shell = detectShellInternal(runtime.GOOS, os.Getenv, parent)
	}

	binpath, err := os.Executable()
	if err != nil {
		binpath = "skiff"
	}

	switch canonicalShellName(shell) {
	case "fish":
		fmt.Print(fishWrapper(binpath))
	case "pwsh":
		fmt.Print(pwshWrapper(binpath))
	case "tcsh", "csh":
		fmt.Print(cshWrapper(binpath))
	case "cmd":
		fmt.Print(cmdWrapper(binpath))
	default:
		// bash, zsh, sh, ksh and anything unrecognized speak POSIX.
		fmt.Print(posixWrapper(binpath))
	}
}

// The POSIX and fish wrappers launch the binary in the background to
// learn its PID, which names the result file the process writes on
// quit-and-emit. ${TMPDIR:-/tmp} mirrors what os.TempDir picks on the
// other side.
func posixWrapper(binpath string) string {
	bin := shQuote(binpath)
	return fmt.Sprintf(`skiff() {
    if [ "$#" -gt 0 ]; then
        command %s "$@"
        return $?
    fi

    command %s &
    skiff_pid=$!
    wait $skiff_pid

    result_file="${TMPDIR:-/tmp}/skiff_result_$skiff_pid.txt"
    if [ -f "$result_file" ] && [ ! -L "$result_file" ] && [ -O "$result_file" ]; then
        dest=$(cat "$result_file" 2>/dev/null)
        rm -f "$result_file"
        if [ -d "$dest" ]; then
            cd "$dest"
        fi
    else
        rm -f "$result_file" 2>/dev/null
    fi
}
`, bin, bin)
}

func fishWrapper(binpath string) string {
	bin := fishQuote(binpath)
	return fmt.Sprintf(`function skiff
    if test (count $argv) -gt 0
        command %s $argv
        return $status
    end

    command %s &
    set skiff_pid $last_pid
    wait $skiff_pid

    set -l tmp /tmp
    set -q TMPDIR; and set tmp $TMPDIR
    set result_file "$tmp/skiff_result_$skiff_pid.txt"
    if test -f "$result_file" -a ! -L "$result_file" -a -O "$result_file"
        set dest (cat "$result_file" 2>/dev/null)
        if test -d "$dest"
            builtin cd "$dest"
        end
    end
    rm -f "$result_file" 2>/dev/null
end
`, bin, bin)
}

func pwshWrapper(binpath string) string {
	bin := pwshQuote(binpath)
	return fmt.Sprintf(`function skiff {
    param([Parameter(ValueFromRemainingArguments=$true)][string[]]$Args)
    if ($Args.Count -gt 0) {
        & %s @Args
        return
    }

    $process = Start-Process -FilePath %s -NoNewWindow -PassThru
    $process.WaitForExit()

    $resultFile = Join-Path ([System.IO.Path]::GetTempPath()) "skiff_result_$($process.Id).txt"
    try {
        if (Test-Path $resultFile -PathType Leaf) {
            $raw = Get-Content $resultFile -Raw -ErrorAction SilentlyContinue
            if ($raw) {
                $dest = $raw.Trim()
                if ($dest -and (Test-Path $dest -PathType Container)) {
                    Set-Location $dest
                }
            }
        }
    } finally {
        Remove-Item $resultFile -ErrorAction SilentlyContinue
    }
}
`, bin, bin)
}

// csh aliases cannot learn a child PID, so the alias passes an explicit
// result path keyed by the shell's own $$ instead of relying on the
// default PID-derived name. \!* keeps invocation args with the binary
// rather than letting csh glue them onto the trailing rm.
func cshWrapper(binpath string) string {
	result := `"/tmp/skiff_result_$$.txt"`
	return fmt.Sprintf("alias skiff '\"%s\" -selection-path %s \\!* ; if ( -f %s ) cd \"`cat /tmp/skiff_result_$$.txt`\" ; rm -f %s'\n",
		binpath, result, result, result)
}

// cmd has the same PID problem as csh; the batch file hands the binary
// an explicit result path instead.
func cmdWrapper(binpath string) string {
	return fmt.Sprintf(`:: Save as skiff.cmd somewhere on PATH and run it as "skiff".
@echo off
if not "%%~1"=="" (
    "%s" %%*
    exit /b %%errorlevel%%
)
set "SKIFF_RESULT=%%TEMP%%\skiff_result_%%RANDOM%%%%RANDOM%%.txt"
"%s" -selection-path "%%SKIFF_RESULT%%"
if exist "%%SKIFF_RESULT%%" (
    for /f "usebackq delims=" %%%%d in ("%%SKIFF_RESULT%%") do (
        if exist "%%%%d\*" cd /d "%%%%d"
    )
    del /q "%%SKIFF_RESULT%%" >nul 2>&1
)
exit /b 0
`, binpath, binpath)
}

// shQuote single-quotes a path for POSIX shells, escaping embedded
// single quotes.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// fishQuote single-quotes a path for fish, where backslash and single
// quote are the only characters needing escapes inside single quotes.
func fishQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return "'" + s + "'"
}

// pwshQuote single-quotes a path for PowerShell, doubling embedded
// single quotes.
func pwshQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func detectShellInternal(goos string, getenv func(string) string, parent ParentShellFunc) string {
	sources := []func() string{
		func() string { return getenv("SHELL") },
		parent,
	}
	for _, source := range sources {
		if source == nil {
			continue
		}
		if shell := canonicalShellName(normalizeShellName(source())); shell != "" {
			return shell
		}
	}

	if strings.EqualFold(goos, "windows") {
		switch canonicalShellName(normalizeShellName(getenv("COMSPEC"))) {
		case "cmd":
			return "cmd"
		case "pwsh":
			return "pwsh"
		}
		return "pwsh"
	}
	return "bash"
}

func canonicalShellName(name string) string {
	if name == "powershell" {
		return "pwsh"
	}
	return name
}

// normalizeShellName reduces a command line like `"C:\Program
// Files\PowerShell\7\pwsh.exe" -NoLogo` or `/bin/zsh` to a bare
// lowercase shell name.
func normalizeShellName(value string) string {
	exe := extractExecutable(value)
	if exe == "" {
		return ""
	}

	exe = strings.Trim(exe, `"'`)
	exe = path.Base(strings.ReplaceAll(exe, "\\", "/"))
	exe = strings.TrimSuffix(strings.ToLower(exe), ".exe")
	return strings.TrimSpace(exe)
}

// extractExecutable returns the first token of a command line, honoring
// a leading quoted segment.
func extractExecutable(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if q := value[0]; q == '"' || q == '\'' {
		rest := value[1:]
		if end := strings.IndexByte(rest, q); end >= 0 {
			return rest[:end]
		}
		return rest
	}

	if end := strings.IndexAny(value, " \t"); end >= 0 {
		return value[:end]
	}
	return value
}
