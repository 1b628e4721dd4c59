package listing

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirserve/service/fs"
)

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func TestEnumerateRoot(t *testing.T) {
	r := newTestResolver(t, newTree(t))

	root, err := r.Resolve("", Directory)
	require.NoError(t, err)

	entries, err := r.Enumerate(root, View{Lang: "en", ParentLabel: "Parent Directory"})
	require.NoError(t, err)

	// hidden, ignored, escaping and dangling entries are left out; byte order puts "A" before "b"
	assert.Equal(t, []string{"A.md", "b.txt", "docs", "link-to-docs"}, names(entries))

	t.Run("file entry", func(t *testing.T) {
		e := entries[1]
		assert.Equal(t, File, e.Kind)
		assert.Equal(t, IconText, e.Icon)
		assert.Equal(t, "/b.txt", e.Link)
		assert.Equal(t, "5.00B", e.Size)
		assert.Equal(t, int64(5), e.Bytes)
		assert.Equal(t, "2024-01-02T03:04:05+00:00", e.Modified)
		assert.False(t, e.Parent)
	})

	t.Run("directory entry", func(t *testing.T) {
		e := entries[2]
		assert.Equal(t, Directory, e.Kind)
		assert.Equal(t, IconFolder, e.Icon)
		assert.Equal(t, "/en?dir=docs", e.Link)
		assert.Empty(t, e.Size)
		assert.Empty(t, e.Modified)
	})

	t.Run("link to directory", func(t *testing.T) {
		e := entries[3]
		assert.Equal(t, Directory, e.Kind)
		assert.Equal(t, "/en?dir=link-to-docs", e.Link)
	})
}

func TestEnumerateSubdirectory(t *testing.T) {
	r := newTestResolver(t, newTree(t))

	t.Run("parent of first level is root", func(t *testing.T) {
		dir, err := r.Resolve("docs", Directory)
		require.NoError(t, err)

		entries, err := r.Enumerate(dir, View{Lang: "fa", ParentLabel: "پوشه بالاتر"})
		require.NoError(t, err)
		require.Len(t, entries, 3)

		parent := entries[0]
		assert.True(t, parent.Parent)
		assert.Equal(t, "پوشه بالاتر", parent.Name)
		assert.Equal(t, IconParent, parent.Icon)
		assert.Equal(t, "/fa", parent.Link)
		assert.Equal(t, []string{"a.txt", "sub"}, names(entries[1:]))
		assert.Equal(t, "/docs/a.txt", entries[1].Link)
		assert.Equal(t, "/fa?dir=docs%2Fsub", entries[2].Link)
	})

	t.Run("empty directory has only the parent", func(t *testing.T) {
		dir, err := r.Resolve("docs/sub", Directory)
		require.NoError(t, err)

		entries, err := r.Enumerate(dir, View{Lang: "en"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "..", entries[0].Name)
		assert.Equal(t, "/en?dir=docs", entries[0].Link)
	})

	t.Run("not a directory", func(t *testing.T) {
		file, err := r.Resolve("b.txt", File)
		require.NoError(t, err)

		_, err = r.Enumerate(file, View{Lang: "en"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestEnumerateVanishedDirectory(t *testing.T) {
	root := newTree(t)
	r := newTestResolver(t, root)

	dir, err := r.Resolve("docs/sub", Directory)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(root, "docs", "sub")))

	_, err = r.Enumerate(dir, View{Lang: "en"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnumeratePermissionDenied(t *testing.T) {
	mockFS := new(mockFileSystem)
	dirInfo := mockFileInfo{name: "srv", mode: os.ModeDir | 0o755}
	mockFS.On("Canonicalize", "/srv").Return("/srv", nil)
	mockFS.On("Stat", "/srv").Return(dirInfo, nil)
	mockFS.On("ReadDir", "/srv").Return(nil, &iofs.PathError{Op: "open", Path: "/srv", Err: iofs.ErrPermission})

	r, err := NewResolver(mockFS, Options{Root: "/srv"})
	require.NoError(t, err)

	root, err := r.Resolve("", Directory)
	require.NoError(t, err)

	entries, err := r.Enumerate(root, View{Lang: "en"})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, entries)
	mockFS.AssertExpectations(t)
}

func TestEnumerateConcurrent(t *testing.T) {
	r := newTestResolver(t, newTree(t))
	root, err := r.Resolve("", Directory)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries, err := r.Enumerate(root, View{Lang: "en"})
			assert.NoError(t, err)
			assert.Len(t, entries, 4)
		}()
	}
	wg.Wait()
}

func TestLinks(t *testing.T) {
	assert.Equal(t, "/en", ListLink("en", ""))
	assert.Equal(t, "/en?dir=a+b%2Fc", ListLink("en", "a b/c"))
	assert.Equal(t, "/a%20b/c%23d.txt", FileLink("a b/c#d.txt"))
	assert.Equal(t, "/%3Fq", FileLink("?q"))
}

func TestEnumerateMinimalTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("0123456789"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644))
	r := newTestResolver(t, root)

	dir, err := r.Resolve("", Directory)
	require.NoError(t, err)

	first, err := r.Enumerate(dir, View{Lang: "en"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "a.txt", first[0].Name)
	assert.Equal(t, File, first[0].Kind)
	assert.Equal(t, "10.00B", first[0].Size)
	assert.Equal(t, "sub", first[1].Name)
	assert.Equal(t, Directory, first[1].Kind)

	second, err := r.Enumerate(dir, View{Lang: "en"})
	require.NoError(t, err)
	assert.Equal(t, names(first), names(second))

	_, err = r.Resolve("../../etc/passwd", File)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestEnumerateLinkFailures(t *testing.T) {
	dirInfo := mockFileInfo{name: "srv", mode: os.ModeDir | 0o755}
	fileInfo := mockFileInfo{name: "a.txt", size: 3, mode: 0o644, modTime: fixedTime}
	linkInfo := mockFileInfo{name: "link", mode: os.ModeSymlink | 0o777}

	testCases := []struct {
		name    string
		err     error
		skipped bool
		kind    error
	}{
		{name: "dangling", err: &iofs.PathError{Op: "lstat", Path: "/srv/gone", Err: iofs.ErrNotExist}, skipped: true},
		{name: "loop", err: &iofs.PathError{Op: "readlink", Path: "/srv/link", Err: fs.ErrTooManyLinks}, skipped: true},
		{name: "permission denied", err: &iofs.PathError{Op: "lstat", Path: "/srv/locked", Err: iofs.ErrPermission}, kind: ErrForbidden},
		{name: "connection lost", err: errors.New("connection lost")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockFS := new(mockFileSystem)
			mockFS.On("Canonicalize", "/srv").Return("/srv", nil)
			mockFS.On("Stat", "/srv").Return(dirInfo, nil)
			mockFS.On("ReadDir", "/srv").Return([]os.FileInfo{fileInfo, linkInfo}, nil)
			mockFS.On("Canonicalize", "/srv/link").Return("", tc.err)

			r, err := NewResolver(mockFS, Options{Root: "/srv"})
			require.NoError(t, err)
			root, err := r.Resolve("", Directory)
			require.NoError(t, err)

			entries, err := r.Enumerate(root, View{Lang: "en"})
			if tc.skipped {
				require.NoError(t, err)
				assert.Equal(t, []string{"a.txt"}, names(entries))
				return
			}
			assert.Error(t, err)
			assert.Nil(t, entries)
			if tc.kind != nil {
				assert.ErrorIs(t, err, tc.kind)
			} else {
				assert.NotErrorIs(t, err, ErrNotFound)
				assert.NotErrorIs(t, err, ErrForbidden)
			}
			mockFS.AssertExpectations(t)
		})
	}
}

func TestEnumerateLinkTargetStatFails(t *testing.T) {
	mockFS := new(mockFileSystem)
	mockFS.On("Canonicalize", "/srv").Return("/srv", nil)
	mockFS.On("Stat", "/srv").Return(mockFileInfo{name: "srv", mode: os.ModeDir | 0o755}, nil)
	mockFS.On("ReadDir", "/srv").Return([]os.FileInfo{mockFileInfo{name: "link", mode: os.ModeSymlink}}, nil)
	mockFS.On("Canonicalize", "/srv/link").Return("/srv/target", nil)
	mockFS.On("Stat", "/srv/target").Return(nil, errors.New("connection lost"))

	r, err := NewResolver(mockFS, Options{Root: "/srv"})
	require.NoError(t, err)
	root, err := r.Resolve("", Directory)
	require.NoError(t, err)

	entries, err := r.Enumerate(root, View{Lang: "en"})
	assert.Error(t, err)
	assert.Nil(t, entries)
	mockFS.AssertExpectations(t)
}
