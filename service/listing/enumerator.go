package listing

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"net/url"
	"os"
	"path"
	"slices"
	"strings"
	"syscall"
	"time"

	"dirserve/service/fs"
)

// TimeLayout is the format of Entry.Modified.
const TimeLayout = "2006-01-02T15:04:05-07:00"

// View carries the language context of a listing.
type View struct {
	// Lang prefixes directory links ("/en?dir=...").
	Lang string
	// ParentLabel is the display name of the parent pseudo-entry.
	ParentLabel string
}

// Entry is one row of a directory listing.
type Entry struct {
	Kind     EntryKind `json:"kind"`
	Name     string    `json:"name"`
	Icon     Icon      `json:"icon"`
	Link     string    `json:"link"`
	Size     string    `json:"size,omitempty"`
	Bytes    int64     `json:"bytes,omitempty"`
	Modified string    `json:"modified,omitempty"`
	// Parent marks the "one level up" row. It is always the first entry.
	Parent bool `json:"parent,omitempty"`
}

// Enumerate lists the visible children of dir, sorted by name in byte
// order, preceded by a parent entry unless dir is the root. It returns
// either the complete listing or an error.
func (r *Resolver) Enumerate(dir *Resolved, view View) ([]Entry, error) {
	if dir == nil || dir.Info == nil || !dir.Info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory", ErrNotFound)
	}

	infos, err := r.fs.ReadDir(dir.Path)
	if err != nil {
		return nil, kindOf(err, dir.Rel)
	}

	children := make([]Entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if !r.Visible(name) {
			continue
		}

		rel := path.Join(dir.Rel, name)
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := r.follow(path.Join(dir.Path, name), rel)
			if err != nil {
				return nil, err
			}
			if target == nil {
				continue
			}
			info = target
		}

		switch {
		case info.IsDir():
			children = append(children, Entry{
				Kind: Directory,
				Name: name,
				Icon: IconFolder,
				Link: ListLink(view.Lang, rel),
			})
		case info.Mode().IsRegular():
			children = append(children, Entry{
				Kind:     File,
				Name:     name,
				Icon:     Classify(name),
				Link:     FileLink(rel),
				Size:     FormatSize(info.Size()),
				Bytes:    info.Size(),
				Modified: formatTime(info.ModTime()),
			})
		}
	}

	slices.SortFunc(children, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})

	if dir.IsRoot() {
		return children, nil
	}

	label := view.ParentLabel
	if label == "" {
		label = ".."
	}
	parent := Entry{
		Kind:   Directory,
		Name:   label,
		Icon:   IconParent,
		Link:   ListLink(view.Lang, parentRel(dir.Rel)),
		Parent: true,
	}
	return append([]Entry{parent}, children...), nil
}

// follow returns the target of the link at p. It returns nil and no error
// when the link dangles, loops, leaves the root or points at a hidden entry;
// any other failure aborts the listing.
func (r *Resolver) follow(p, rel string) (os.FileInfo, error) {
	canonical, err := r.fs.Canonicalize(p)
	if err != nil {
		if skippable(err) {
			return nil, nil
		}
		return nil, kindOf(err, rel)
	}
	if !within(r.root, canonical) || !r.visiblePath(r.relative(canonical)) {
		return nil, nil
	}
	info, err := r.fs.Stat(canonical)
	if err != nil {
		if skippable(err) {
			return nil, nil
		}
		return nil, kindOf(err, rel)
	}
	return info, nil
}

// skippable reports whether err means the link target is gone rather than
// unreadable.
func skippable(err error) bool {
	return errors.Is(err, iofs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) || errors.Is(err, fs.ErrTooManyLinks)
}

func parentRel(rel string) string {
	parent := path.Dir(rel)
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

// ListLink returns the URL listing directory rel in language lang.
func ListLink(lang, rel string) string {
	base := "/" + url.PathEscape(lang)
	if rel == "" {
		return base
	}
	return base + "?dir=" + url.QueryEscape(rel)
}

// FileLink returns the URL downloading the file at rel.
func FileLink(rel string) string {
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(segments, "/")
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimeLayout)
}
