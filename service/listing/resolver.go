package listing

import (
	"fmt"
	"os"
	"path"
	"strings"

	"dirserve/service/fs"
)

// EntryKind tells files and directories apart.
type EntryKind int

const (
	File EntryKind = iota
	Directory
)

func (k EntryKind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

// MarshalText implements encoding.TextMarshaler.
func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EntryKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "file":
		*k = File
	case "directory":
		*k = Directory
	default:
		return fmt.Errorf("unknown entry kind %q", b)
	}
	return nil
}

// Options configures a Resolver.
type Options struct {
	Root   string
	Ignore []string
}

// Resolved is a canonical path inside the root that existed, with the
// requested kind, when it was resolved.
type Resolved struct {
	// Path is the absolute, canonical, slash separated path.
	Path string
	// Rel is Path relative to the root, "" for the root itself.
	Rel  string
	Kind EntryKind
	Info os.FileInfo
}

// IsRoot reports whether r is the listing root.
func (r *Resolved) IsRoot() bool {
	return r.Rel == ""
}

// Resolver validates untrusted request paths against a fixed root and lists
// directories below it. It holds no mutable state and is safe for
// concurrent use.
type Resolver struct {
	fs     fs.FileSystem
	root   string
	ignore map[string]struct{}
}

// NewResolver canonicalizes opts.Root on fsys and checks that it is a directory.
func NewResolver(fsys fs.FileSystem, opts Options) (*Resolver, error) {
	root := opts.Root
	if root == "" {
		root = "."
	}
	canonical, err := fsys.Canonicalize(strings.ReplaceAll(root, "\\", "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	info, err := fsys.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to stat root %s: %w", canonical, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", canonical)
	}

	ignore := make(map[string]struct{}, len(opts.Ignore))
	for _, name := range opts.Ignore {
		if name = strings.TrimSpace(name); name != "" {
			ignore[name] = struct{}{}
		}
	}

	return &Resolver{
		fs:     fsys,
		root:   canonical,
		ignore: ignore,
	}, nil
}

// Root returns the canonical root directory.
func (r *Resolver) Root() string {
	return r.root
}

// FileSystem returns the backend the resolver reads from.
func (r *Resolver) FileSystem() fs.FileSystem {
	return r.fs
}

// Visible reports whether an entry called name may be listed or served:
// it is neither hidden nor in the ignore set.
func (r *Resolver) Visible(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	_, ignored := r.ignore[name]
	return !ignored
}

// Resolve maps rel, a path relative to the root supplied by a client, to a
// canonical path of the given kind. A leading slash is read as the root.
//
// Failures are ErrInvalid (malformed input), ErrForbidden (escapes the root,
// names a hidden or ignored entry) or ErrNotFound (missing, or of the
// other kind).
func (r *Resolver) Resolve(rel string, kind EntryKind) (*Resolved, error) {
	if strings.IndexByte(rel, 0) >= 0 {
		return nil, fmt.Errorf("%w: path contains a NUL byte", ErrInvalid)
	}
	rel = strings.ReplaceAll(rel, "\\", "/")

	if !r.visiblePath(rel) {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, rel)
	}

	joined := path.Join(r.root, rel)
	if !within(r.root, joined) {
		return nil, fmt.Errorf("%w: %s escapes the root", ErrForbidden, rel)
	}

	canonical, err := r.fs.Canonicalize(joined)
	if err != nil {
		return nil, kindOf(err, rel)
	}
	if !within(r.root, canonical) {
		return nil, fmt.Errorf("%w: %s links outside the root", ErrForbidden, rel)
	}
	if !r.visiblePath(r.relative(canonical)) {
		return nil, fmt.Errorf("%w: %s links to a hidden entry", ErrForbidden, rel)
	}

	info, err := r.fs.Stat(canonical)
	if err != nil {
		return nil, kindOf(err, rel)
	}
	switch kind {
	case Directory:
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, display(rel))
		}
	case File:
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%w: %s is not a regular file", ErrNotFound, display(rel))
		}
	}

	return &Resolved{
		Path: canonical,
		Rel:  r.relative(canonical),
		Kind: kind,
		Info: info,
	}, nil
}

// visiblePath applies Visible to every segment of rel.
func (r *Resolver) visiblePath(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		if !r.Visible(segment) {
			return false
		}
	}
	return true
}

func (r *Resolver) relative(p string) string {
	if p == r.root {
		return ""
	}
	return strings.TrimPrefix(p, rootPrefix(r.root))
}

// within compares whole path components, so "/srv/data-old" is not inside "/srv/data".
func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, rootPrefix(root))
}

func rootPrefix(root string) string {
	if strings.HasSuffix(root, "/") {
		return root
	}
	return root + "/"
}
