package fs

import (
	"io"
	"os"
)

// File is an open, seekable handle returned by a FileSystem.
type File interface {
	io.ReadSeekCloser
	Stat() (os.FileInfo, error)
}

// FileSystem defines the read-only operations the listing and download
// services need. Paths are absolute and slash separated for every backend.
type FileSystem interface {
	// Name identifies the backend in logs ("local", "sftp").
	Name() string

	// Canonicalize returns the absolute form of path with every symbolic
	// link resolved. A missing component yields an error matching fs.ErrNotExist.
	Canonicalize(path string) (string, error)

	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)

	// ReadDir returns the entries of a directory without following links.
	// Entries that vanish while the directory is being read are left out.
	ReadDir(path string) ([]os.FileInfo, error)

	Open(path string) (File, error)

	Close() error
}
