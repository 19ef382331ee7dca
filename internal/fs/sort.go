package fs

import (
	"sort"
	"strings"
)

// SortKey selects the primary ordering of a directory listing.
type SortKey uint8

const (
	SortByName SortKey = iota
	SortBySize
	SortByModified
)

func (k SortKey) String() string {
	switch k {
	case SortBySize:
		return "size"
	case SortByModified:
		return "mtime"
	default:
		return "name"
	}
}

// ParseSortKey maps a config value to a SortKey. Unknown values fall
// back to name ordering.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "size":
		return SortBySize
	case "mtime", "modified", "time":
		return SortByModified
	default:
		return SortByName
	}
}

// SortPolicy is the complete ordering applied to a listing. DirsFirst
// groups directories (and symlinks to directories) ahead of files.
// Reverse flips the primary key only; the lexicographic name tie-break
// stays ascending so equal-key runs remain stable to the eye.
type SortPolicy struct {
	Key       SortKey
	DirsFirst bool
	Reverse   bool
}

// DefaultSortPolicy is name-ascending with directories grouped first.
func DefaultSortPolicy() SortPolicy {
	return SortPolicy{Key: SortByName, DirsFirst: true}
}

// Less reports whether a orders before b under the policy.
func (p SortPolicy) Less(a, b Entry) bool {
	if p.DirsFirst {
		ad, bd := a.IsDir(), b.IsDir()
		if ad != bd {
			return ad
		}
	}
	switch p.Key {
	case SortBySize:
		if a.Size != b.Size {
			if p.Reverse {
				return a.Size > b.Size
			}
			return a.Size < b.Size
		}
	case SortByModified:
		if !a.Modified.Equal(b.Modified) {
			if p.Reverse {
				return a.Modified.After(b.Modified)
			}
			return a.Modified.Before(b.Modified)
		}
	default:
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			if p.Reverse {
				return an > bn
			}
			return an < bn
		}
	}
	return a.Name < b.Name
}

// SortEntries orders entries in place according to the policy.
func SortEntries(entries []Entry, policy SortPolicy) {
	sort.SliceStable(entries, func(i, j int) bool {
		return policy.Less(entries[i], entries[j])
	})
}
