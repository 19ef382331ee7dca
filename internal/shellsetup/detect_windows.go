//go:build windows

package shellsetup

import (
	"os"

	"golang.org/x/sys/windows"
)

// DetectParentShell returns the executable path of the parent process.
// SHELL is rarely set on Windows, so the parent image is the best hint
// for which wrapper dialect to print. The caller normalizes the path to
// a bare shell name.
func DetectParentShell() string {
	ppid := os.Getppid()
	if ppid <= 0 {
		return ""
	}

	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(ppid))
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(handle)

	// QueryFullProcessImageName wants a preallocated buffer; retry
	// bigger while it reports ERROR_INSUFFICIENT_BUFFER. 32K is the
	// Windows long-path ceiling.
	for bufLen := uint32(260); bufLen <= 1<<15; bufLen *= 2 {
		buf := make([]uint16, bufLen)
		size := bufLen
		err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size)
		if err == nil {
			return windows.UTF16ToString(buf[:size])
		}
		if err != windows.ERROR_INSUFFICIENT_BUFFER {
			break
		}
	}
	return ""
}
