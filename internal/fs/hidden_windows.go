//go:build windows

package fs

import "golang.org/x/sys/windows"

// fileAttributes reads the attribute bits for an entry, trying the full
// path first and the bare name as a fallback for callers holding a
// stale directory path.
func fileAttributes(fullPath, name string) (uint32, error) {
	lookup := func(target string) (uint32, error) {
		ptr, err := windows.UTF16PtrFromString(target)
		if err != nil {
			return 0, err
		}
		return windows.GetFileAttributes(ptr)
	}

	target := fullPath
	if target == "" {
		target = name
	}
	if target == "" {
		return 0, windows.ERROR_FILE_NOT_FOUND
	}

	attrs, err := lookup(target)
	if err == nil {
		return attrs, nil
	}
	if name != "" && name != target {
		if attrs, nerr := lookup(name); nerr == nil {
			return attrs, nil
		}
	}
	return 0, err
}

// IsHidden reports whether the entry carries the hidden attribute. When
// attributes cannot be read the Unix dot convention decides.
func IsHidden(fullPath string, name string) bool {
	attrs, err := fileAttributes(fullPath, name)
	if err != nil {
		return len(name) > 0 && name[0] == '.'
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0
}

// ShouldHideFromListing reports whether an entry must never appear in
// listings regardless of the hidden toggle. On Windows that is the
// system+reparse combination marking compatibility junctions such as
// "Documents and Settings".
func ShouldHideFromListing(fullPath, name string) bool {
	attrs, err := fileAttributes(fullPath, name)
	if err != nil {
		return false
	}
	mask := uint32(windows.FILE_ATTRIBUTE_SYSTEM | windows.FILE_ATTRIBUTE_REPARSE_POINT)
	return attrs&mask == mask
}
