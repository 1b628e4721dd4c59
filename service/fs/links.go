package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path"
	"strings"
)

// maxLinkHops bounds symlink resolution, matching the usual SYMLOOP_MAX.
const maxLinkHops = 40

// ErrTooManyLinks is returned by Canonicalize for symlink loops and chains
// longer than maxLinkHops.
var ErrTooManyLinks = errors.New("too many levels of symbolic links")

// walkLinks resolves p one component at a time, replacing every symbolic
// link by its target.
func walkLinks(p string, lstat func(string) (os.FileInfo, error), readlink func(string) (string, error)) (string, error) {
	resolved := "/"
	rest := strings.Split(path.Clean(p), "/")
	hops := 0

	for len(rest) > 0 {
		part := rest[0]
		rest = rest[1:]

		switch part {
		case "", ".":
			continue
		case "..":
			resolved = path.Dir(resolved)
			continue
		}

		next := path.Join(resolved, part)
		info, err := lstat(next)
		if err != nil {
			return "", &iofs.PathError{Op: "lstat", Path: next, Err: err}
		}
		if info.Mode()&os.ModeSymlink == 0 {
			resolved = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", &iofs.PathError{Op: "readlink", Path: p, Err: ErrTooManyLinks}
		}
		target, err := readlink(next)
		if err != nil {
			return "", &iofs.PathError{Op: "readlink", Path: next, Err: err}
		}
		if path.IsAbs(target) {
			resolved = "/"
		}
		rest = append(strings.Split(target, "/"), rest...)
	}

	return resolved, nil
}
