package fsentry

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memTree(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/root/sub", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/root/a.txt", []byte("hello"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/root/sub/b.bin", make([]byte, 300), 0o600))
	return fsys
}

func TestCapabilities(t *testing.T) {
	fsys := memTree(t)
	dir := New(fsys, "/root")
	file := New(fsys, "/root/a.txt")

	assert.True(t, dir.Supports(entry.Children))
	assert.True(t, dir.Supports(entry.Create))
	assert.False(t, dir.Supports(entry.View))
	assert.True(t, dir.Supports(entry.Delete))

	assert.False(t, file.Supports(entry.Children))
	assert.False(t, file.Supports(entry.Create))
	assert.True(t, file.Supports(entry.View))
	assert.True(t, file.Supports(entry.Edit))
	assert.True(t, file.Supports(entry.Copy))

	assert.Equal(t, entry.SortContainer, dir.Sort())
	assert.Equal(t, entry.SortLeaf, file.Sort())
}

func TestItems(t *testing.T) {
	fsys := memTree(t)
	items, err := New(fsys, "/root").Items()
	require.NoError(t, err)

	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name())
	}
	assert.ElementsMatch(t, []string{"a.txt", "sub"}, names)

	_, err = New(fsys, "/missing").Items()
	assert.Error(t, err)
}

func TestMetadata(t *testing.T) {
	fsys := memTree(t)

	size, ok := New(fsys, "/root/sub/b.bin").Size()
	require.True(t, ok)
	assert.Equal(t, int64(300), size)

	_, ok = New(fsys, "/root/sub").Size()
	assert.False(t, ok, "directories have no size")

	perm, ok := New(fsys, "/root/sub/b.bin").Permissions()
	require.True(t, ok)
	assert.Equal(t, os.FileMode(0o600), perm)

	_, ok = New(fsys, "/root/nope").ModTime()
	assert.False(t, ok)
}

func TestPathNavigation(t *testing.T) {
	fsys := memTree(t)
	e := New(fsys, "/root/sub/../sub/b.bin")

	assert.Equal(t, "/root/sub/b.bin", e.Path())
	assert.Equal(t, "b.bin", e.Name())
	require.NotNil(t, e.Parent())
	assert.Equal(t, "/root/sub", e.Parent().Path())
	assert.Nil(t, New(fsys, "/").Parent())

	child := New(fsys, "/root").Append("a.txt")
	assert.True(t, child.Equal(New(fsys, "/root/a.txt")))
	assert.False(t, child.Equal(New(afero.NewMemMapFs(), "/root/a.txt")))
	assert.False(t, child.Equal(nil))
}

func TestCreateDeleteAndStreams(t *testing.T) {
	fsys := memTree(t)

	dir := New(fsys, "/root/new")
	require.NoError(t, dir.Create(true))
	assert.True(t, dir.Exists())
	assert.Error(t, New(fsys, "/root/a.txt").Create(false), "create must fail on an existing file")

	file := dir.Append("out.txt")
	w, err := file.OpenWriter(0)
	require.NoError(t, err)
	_, err = io.WriteString(w, "payload")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := file.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "payload", string(data))

	stamp := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, file.SetModTime(stamp))
	got, ok := file.ModTime()
	require.True(t, ok)
	assert.True(t, stamp.Equal(got))

	require.NoError(t, file.Delete())
	assert.False(t, file.Exists())
	require.NoError(t, dir.Delete())
	assert.False(t, dir.Exists())
}

func TestSymlinksOnDisk(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target")
	require.NoError(t, os.Mkdir(target, 0o755))

	local, err := Local(root)
	require.NoError(t, err)

	link := local.Append("link").(*Entry)
	require.NoError(t, Symlink(local.Fs(), target, link.Path()))

	assert.True(t, link.IsSymlink())
	assert.False(t, link.Supports(entry.Children), "linked directories are leaves")
	assert.True(t, link.Exists())

	require.NoError(t, os.Remove(target))
	assert.True(t, link.Exists(), "dangling links still exist")
}

func TestSymlinkUnsupported(t *testing.T) {
	// Embedding hides every optional afero interface.
	bare := struct{ afero.Fs }{afero.NewMemMapFs()}
	err := Symlink(bare, "/a", "/b")
	assert.ErrorIs(t, err, ErrLinksUnsupported)
}
