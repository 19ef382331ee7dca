//go:build !windows

package fs

// IsHidden reports whether name is hidden by platform convention. On
// Unix that is the dot prefix.
func IsHidden(_ string, name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// ShouldHideFromListing reports whether an entry must never appear in
// listings regardless of the hidden toggle. Nothing qualifies on Unix.
func ShouldHideFromListing(_, _ string) bool {
	return false
}
