package operation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// faultFs wraps an in-memory filesystem with failure injection and call
// recording. Hooks must be set after the tree is written.
type faultFs struct {
	afero.Fs

	mu        sync.Mutex
	removeErr map[string]error
	openErr   map[string]error
	removed   []string
	closed    []string

	onRemove func(name string)
	onWrite  func(name string)
}

func newFaultFs() *faultFs {
	return &faultFs{
		Fs:        afero.NewMemMapFs(),
		removeErr: make(map[string]error),
		openErr:   make(map[string]error),
	}
}

func (f *faultFs) Remove(name string) error {
	f.mu.Lock()
	err := f.removeErr[name]
	f.removed = append(f.removed, name)
	hook := f.onRemove
	f.mu.Unlock()

	if err != nil {
		return &os.PathError{Op: "remove", Path: name, Err: err}
	}
	if hook != nil {
		hook(name)
	}
	return f.Fs.Remove(name)
}

func (f *faultFs) Open(name string) (afero.File, error) {
	f.mu.Lock()
	err := f.openErr[name]
	f.mu.Unlock()
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}
	return f.Fs.Open(name)
}

func (f *faultFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	f.mu.Lock()
	openErr := f.openErr[name]
	f.mu.Unlock()
	if openErr != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: openErr}
	}

	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil || flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return file, err
	}
	return &trackedFile{File: file, fs: f, name: name}, nil
}

func (f *faultFs) removals() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *faultFs) closes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.closed...)
}

type trackedFile struct {
	afero.File
	fs   *faultFs
	name string
}

func (t *trackedFile) Write(p []byte) (int, error) {
	t.fs.mu.Lock()
	hook := t.fs.onWrite
	t.fs.mu.Unlock()
	if hook != nil {
		hook(t.name)
	}
	return t.File.Write(p)
}

func (t *trackedFile) Close() error {
	t.fs.mu.Lock()
	t.fs.closed = append(t.fs.closed, t.name)
	t.fs.mu.Unlock()
	return t.File.Close()
}

// writeTree creates the given files; names ending in "/" are directories.
func writeTree(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if strings.HasSuffix(name, "/") {
			require.NoError(t, fsys.MkdirAll(name, 0o755))
			continue
		}
		require.NoError(t, fsys.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
}

func readFile(t *testing.T, fsys afero.Fs, name string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, name)
	require.NoError(t, err, name)
	return string(data)
}

// scriptResolver answers with a fixed script, then with fallback, and
// records every issue.
type scriptResolver struct {
	mu       sync.Mutex
	script   []Decision
	fallback Decision
	issues   []Issue
}

func (r *scriptResolver) Resolve(_ context.Context, issue Issue) (Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issues = append(r.issues, issue)
	if len(r.script) > 0 {
		d := r.script[0]
		r.script = r.script[1:]
		return d, nil
	}
	return r.fallback, nil
}

func (r *scriptResolver) count(cat Category) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, is := range r.issues {
		if is.Category == cat {
			n++
		}
	}
	return n
}

func wait[T any](t *testing.T, f *Future[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	v, err := f.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "operation did not finish")
	return v, err
}
