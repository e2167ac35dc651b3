// Package fs provides a read-only view of a directory tree. All paths are
// slash separated and relative to the root of the filesystem. Paths that would
// leave the root are rejected.
package fs

import (
	"errors"
	"io"
	"io/fs"
	"time"
)

// ErrPathForbidden is returned for paths that resolve outside of the root.
var ErrPathForbidden = errors.New("path is outside of the root directory")

// ErrNotExist is returned for paths that don't exist.
var ErrNotExist = fs.ErrNotExist

// FileInfo describes a file and is returned by Stat and Lstat.
type FileInfo interface {
	// Name returns the base name of the file.
	Name() string

	// Size returns the size of the file in bytes.
	Size() int64

	// Mode returns the file mode bits.
	Mode() fs.FileMode

	// ModTime returns the time of the last modification.
	ModTime() time.Time

	// IsLink returns whether the file is a symbolic link. The target is
	// returned if it can be read.
	IsLink() (string, bool)

	// IsDir returns whether the file is a directory.
	IsDir() bool
}

// File provides access to the contents of a regular file.
type File interface {
	io.ReadSeekCloser

	// Name returns the path of the file relative to the root.
	Name() string

	// Stat returns the FileInfo of the opened file.
	Stat() (FileInfo, error)
}

// Filesystem is a read-only filesystem below a root directory. Only the path
// itself is confined to the root. Symbolic links inside the root are followed
// even if they point outside of it, like a static file server does.
type Filesystem interface {
	// Root returns the absolute path of the root directory.
	Root() string

	// Resolve returns the absolute path on the disk for the given path or
	// ErrPathForbidden if it would leave the root.
	Resolve(path string) (string, error)

	// Stat returns the FileInfo for the path. Symbolic links are followed.
	Stat(path string) (FileInfo, error)

	// Lstat returns the FileInfo for the path. Symbolic links are not followed.
	Lstat(path string) (FileInfo, error)

	// ReadDir returns the entries of the directory at path in the order
	// the operating system provides them.
	ReadDir(path string) ([]fs.DirEntry, error)

	// Open opens the file at path for reading.
	Open(path string) (File, error)
}
