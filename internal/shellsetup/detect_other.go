//go:build !windows

package shellsetup

// DetectParentShell is a no-op on Unix. SHELL is reliable there, and
// detectShellInternal already prefers it.
func DetectParentShell() string {
	return ""
}
