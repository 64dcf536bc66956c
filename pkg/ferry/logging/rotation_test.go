package logging

import (
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 1, 20, 15, 4, 5, 0, time.UTC)

func listDir(t *testing.T, fsys afero.Fs, dir string) []string {
	t.Helper()
	infos, err := afero.ReadDir(fsys, dir)
	require.NoError(t, err)
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names
}

func read(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(data)
}

func TestRotationBySize(t *testing.T) {
	fsys := afero.NewMemMapFs()
	clock := clockwork.NewFakeClockAt(start)
	w, err := NewRotatingWriter(fsys, "/logs/ferry.log", RotationConfig{MaxSize: 10, Clock: clock})
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("12345678\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abc\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"ferry.2026-01-20-150405.log", "ferry.log"}, listDir(t, fsys, "/logs"))
	assert.Equal(t, "12345678\n", read(t, fsys, "/logs/ferry.2026-01-20-150405.log"))
	assert.Equal(t, "abc\n", read(t, fsys, "/logs/ferry.log"))
}

func TestOversizedRecordLandsInEmptyFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w, err := NewRotatingWriter(fsys, "/ferry.log", RotationConfig{MaxSize: 4, Clock: clockwork.NewFakeClockAt(start)})
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("much longer than four\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ferry.log"}, listDir(t, fsys, "/"))
}

func TestRotationNameCollision(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w, err := NewRotatingWriter(fsys, "/l/app.log", RotationConfig{MaxSize: 2, Clock: clockwork.NewFakeClockAt(start)})
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 3; i++ {
		_, err := w.Write([]byte("xx"))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"app.2026-01-20-150405-1.log",
		"app.2026-01-20-150405.log",
		"app.log",
	}, listDir(t, fsys, "/l"))
}

func TestDailyRotation(t *testing.T) {
	fsys := afero.NewMemMapFs()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 20, 23, 59, 0, 0, time.UTC))
	w, err := NewRotatingWriter(fsys, "/ferry.log", RotationConfig{Daily: true, Clock: clock})
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("late\n"))
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	_, err = w.Write([]byte("still today\n"))
	require.NoError(t, err)
	assert.Len(t, listDir(t, fsys, "/"), 1)

	clock.Advance(time.Minute)
	_, err = w.Write([]byte("tomorrow\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ferry.2026-01-21-000030.log", "ferry.log"}, listDir(t, fsys, "/"))
	assert.Equal(t, "tomorrow\n", read(t, fsys, "/ferry.log"))
}

func TestPruneOnOpen(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/logs", 0o755))

	// Five rotated files, one per day before start, plus an unrelated file.
	for day := 1; day <= 5; day++ {
		name := fmt.Sprintf("/logs/ferry.2026-01-%02d-000000.log", 20-day)
		require.NoError(t, afero.WriteFile(fsys, name, []byte("old"), 0o644))
		ts := start.AddDate(0, 0, -day)
		require.NoError(t, fsys.Chtimes(name, ts, ts))
	}
	require.NoError(t, afero.WriteFile(fsys, "/logs/other.txt", nil, 0o644))

	w, err := NewRotatingWriter(fsys, "/logs/ferry.log", RotationConfig{
		MaxBackups: 3,
		MaxAge:     2,
		Clock:      clockwork.NewFakeClockAt(start),
	})
	require.NoError(t, err)
	defer w.Close()

	// MaxBackups keeps days 1-3, MaxAge then drops day 3.
	assert.Equal(t, []string{
		"ferry.2026-01-18-000000.log",
		"ferry.2026-01-19-000000.log",
		"ferry.log",
		"other.txt",
	}, listDir(t, fsys, "/logs"))
}

func TestWriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(afero.NewMemMapFs(), "/ferry.log", RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestAppendsToExistingFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/ferry.log", []byte("before\n"), 0o644))

	w, err := NewRotatingWriter(fsys, "/ferry.log", RotationConfig{Clock: clockwork.NewFakeClockAt(start)})
	require.NoError(t, err)
	_, err = w.Write([]byte("after\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "before\nafter\n", read(t, fsys, "/ferry.log"))
}

func TestDefaultRotationConfig(t *testing.T) {
	cfg := DefaultRotationConfig()
	assert.Equal(t, int64(10<<20), cfg.MaxSize)
	assert.Equal(t, 5, cfg.MaxBackups)
	assert.True(t, cfg.Daily)
}
