package fs

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// Kind classifies an entry by what it is on disk, after an lstat.
// Symlinks keep their own kind; TargetsDir records what they point at.
type Kind uint8

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
	KindOther // devices, sockets, fifos
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// ErrorKind is the coarse classification attached to entries and
// previews when an operation on a path fails.
type ErrorKind uint8

const (
	ErrNone ErrorKind = iota
	ErrNotFound
	ErrPermissionDenied
	ErrIO
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "ok"
	case ErrNotFound:
		return "not found"
	case ErrPermissionDenied:
		return "permission denied"
	default:
		return "I/O error"
	}
}

// ClassifyError maps an os-level error to an ErrorKind. Anything that
// is not a missing path or a permission failure counts as I/O.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ErrNone
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	default:
		return ErrIO
	}
}

// Entry represents a single directory entry. Metadata comes from lstat,
// so a symlink's Size and Modified describe the link itself. Entries
// whose metadata could not be read are still listed, with Err set and
// zero-valued metadata.
type Entry struct {
	Name       string
	FullPath   string
	Kind       Kind
	TargetsDir bool   // symlink resolves to a directory
	LinkTarget string // raw readlink result, empty for non-symlinks
	Size       int64
	Modified   time.Time
	Mode       os.FileMode
	Err        ErrorKind
}

// IsDir reports whether the entry behaves as a directory for
// navigation purposes, following symlinks.
func (e Entry) IsDir() bool {
	return e.Kind == KindDir || (e.Kind == KindSymlink && e.TargetsDir)
}

// IsHidden reports whether the entry should be treated as hidden.
func (e Entry) IsHidden() bool {
	return IsHidden(e.FullPath, e.Name)
}
