// Package fsentry implements entry.Entry on top of an afero filesystem.
// Local disk access uses afero.OsFs; tests run the same code against
// afero.MemMapFs or wrappers that inject failures.
package fsentry

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/spf13/afero"
)

// Default modes for entries created through Create and OpenWriter.
const (
	DefaultDirMode  fs.FileMode = 0o775
	DefaultFileMode fs.FileMode = 0o664
)

// host is shared by every Local entry so entries on disk compare equal.
var host afero.Fs = afero.NewOsFs()

// Entry is a path inside an afero filesystem.
type Entry struct {
	fs   afero.Fs
	path string
}

// New returns the entry for path inside fsys. The path is cleaned but not
// made absolute.
func New(fsys afero.Fs, path string) *Entry {
	return &Entry{fs: fsys, path: filepath.Clean(path)}
}

// Local returns an entry on the host filesystem for path, resolved to an
// absolute path.
func Local(path string) (*Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", path, err)
	}
	return New(host, abs), nil
}

// Fs returns the filesystem backing the entry.
func (e *Entry) Fs() afero.Fs {
	return e.fs
}

// Supports reports capabilities the way a local filesystem does: only
// real directories list children, and symlinked directories stay leaves so
// walks never follow links.
func (e *Entry) Supports(c entry.Capability) bool {
	switch c {
	case entry.View, entry.Edit:
		return !e.isDir()
	case entry.Create:
		return e.isDir()
	case entry.Children:
		return e.isDir() && !e.IsSymlink()
	case entry.Delete, entry.Copy, entry.Rename:
		return true
	}
	return false
}

// IsSymlink reports whether the entry itself is a symbolic link. Stores
// without lstat support never report links.
func (e *Entry) IsSymlink() bool {
	info, err := e.lstat()
	if err != nil {
		return false
	}
	return info.Mode()&fs.ModeSymlink != 0
}

// Items lists the directory. Children that vanish between the listing and
// the lstat are left out.
func (e *Entry) Items() ([]entry.Entry, error) {
	infos, err := afero.ReadDir(e.fs, e.path)
	if err != nil {
		return nil, err
	}

	items := make([]entry.Entry, 0, len(infos))
	for _, info := range infos {
		child := e.child(info.Name())
		if _, err := child.lstat(); err != nil {
			continue
		}
		items = append(items, child)
	}
	return items, nil
}

// Size returns the byte size of files and links. Directories have no size.
func (e *Entry) Size() (int64, bool) {
	if e.isDir() && !e.IsSymlink() {
		return 0, false
	}
	info, err := e.lstat()
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

// ModTime returns the modification time of the entry (of the link itself
// for symlinks).
func (e *Entry) ModTime() (time.Time, bool) {
	info, err := e.lstat()
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Permissions returns the permission bits of the entry.
func (e *Entry) Permissions() (fs.FileMode, bool) {
	info, err := e.lstat()
	if err != nil {
		return 0, false
	}
	return info.Mode().Perm(), true
}

// Name returns the last path element.
func (e *Entry) Name() string {
	return filepath.Base(e.path)
}

// Path returns the cleaned path.
func (e *Entry) Path() string {
	return e.path
}

// Parent returns the containing directory, or nil at the filesystem root.
func (e *Entry) Parent() entry.Entry {
	dir := filepath.Dir(e.path)
	if dir == e.path {
		return nil
	}
	return &Entry{fs: e.fs, path: dir}
}

// Exists reports whether anything, including a dangling link, is at the path.
func (e *Entry) Exists() bool {
	_, err := e.lstat()
	return err == nil
}

// Equal compares paths. Entries on a different afero filesystem are only
// equal by path when the other side is not an *Entry.
func (e *Entry) Equal(other entry.Entry) bool {
	if other == nil {
		return false
	}
	if o, ok := other.(*Entry); ok {
		return o.fs == e.fs && o.path == e.path
	}
	return other.Path() == e.path
}

// Delete removes a file, link, or empty directory.
func (e *Entry) Delete() error {
	return e.fs.Remove(e.path)
}

// Create makes an empty directory or file. It fails if the path exists.
func (e *Entry) Create(container bool) error {
	if container {
		return e.fs.Mkdir(e.path, DefaultDirMode)
	}
	f, err := e.fs.OpenFile(e.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, DefaultFileMode)
	if err != nil {
		return err
	}
	return f.Close()
}

// Append returns the child entry called name.
func (e *Entry) Append(name string) entry.Entry {
	return e.child(name)
}

// SetModTime sets both access and modification time.
func (e *Entry) SetModTime(t time.Time) error {
	return e.fs.Chtimes(e.path, t, t)
}

// Open returns a reader over the file content.
func (e *Entry) Open() (io.ReadCloser, error) {
	f, err := e.fs.Open(e.path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// OpenWriter creates or truncates the file.
func (e *Entry) OpenWriter(perm fs.FileMode) (io.WriteCloser, error) {
	if perm == 0 {
		perm = DefaultFileMode
	}
	f, err := e.fs.OpenFile(e.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Sort lists directories before files.
func (e *Entry) Sort() int {
	if e.isDir() {
		return entry.SortContainer
	}
	return entry.SortLeaf
}

// String returns the path.
func (e *Entry) String() string {
	return e.path
}

func (e *Entry) child(name string) *Entry {
	return &Entry{fs: e.fs, path: filepath.Join(e.path, name)}
}

func (e *Entry) isDir() bool {
	info, err := e.fs.Stat(e.path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// lstat falls back to stat on filesystems that cannot report links.
func (e *Entry) lstat() (fs.FileInfo, error) {
	if l, ok := e.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(e.path)
		return info, err
	}
	return e.fs.Stat(e.path)
}

// Symlink creates a link at linkPath pointing to target, when the
// filesystem supports links.
func Symlink(fsys afero.Fs, target, linkPath string) error {
	l, ok := fsys.(afero.Linker)
	if !ok {
		return ErrLinksUnsupported
	}
	return l.SymlinkIfPossible(target, linkPath)
}

// ErrLinksUnsupported is returned by Symlink on filesystems without links.
var ErrLinksUnsupported = errors.New("filesystem does not support symlinks")

var _ entry.Entry = (*Entry)(nil)
