package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	// MaxSize is the size in bytes that triggers rotation. Zero uses the
	// default of 10 MiB.
	MaxSize int64

	// MaxAge removes rotated files older than this many days. Zero keeps
	// them regardless of age.
	MaxAge int

	// MaxBackups is how many rotated files to keep. Zero keeps all.
	MaxBackups int

	// Daily also rotates when the date changes.
	Daily bool

	// Clock is used for daily rotation, file names and MaxAge.
	Clock clockwork.Clock
}

// DefaultRotationConfig returns 10 MiB files, 5 backups, 30 days, daily.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{
		MaxSize:    10 << 20,
		MaxAge:     30,
		MaxBackups: 5,
		Daily:      true,
	}
}

// rotatedLayout stamps rotated files: ferry.2026-01-20-150405.log.
const rotatedLayout = "2006-01-02-150405"

// RotatingWriter is an append-only log file that is renamed aside when it
// grows past MaxSize or the day changes. It is safe for concurrent use.
type RotatingWriter struct {
	fs   afero.Fs
	path string
	cfg  RotationConfig

	mu     sync.Mutex
	file   afero.File
	size   int64
	opened time.Time
}

// NewRotatingWriter opens path for appending, creating parent directories,
// and removes rotated files that are past retention.
func NewRotatingWriter(fsys afero.Fs, path string, cfg RotationConfig) (*RotatingWriter, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultRotationConfig().MaxSize
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{fs: fsys, path: path, cfg: cfg}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.prune()
	return w, nil
}

// Write appends p, rotating first when needed.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.due(int64(len(p))) {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotating log file: %w", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing to log file: %w", err)
	}
	return n, nil
}

// Close syncs and closes the file. Later writes fail with os.ErrClosed.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("syncing log file: %w", err)
	}
	return f.Close()
}

func (w *RotatingWriter) open() error {
	f, err := w.fs.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.file = f
	w.size = info.Size()
	w.opened = w.cfg.Clock.Now()
	if info.Size() > 0 {
		w.opened = info.ModTime()
	}
	return nil
}

// due reports whether writing n more bytes needs a rotation first. An
// empty file is never rotated for size, so oversized records still land.
func (w *RotatingWriter) due(n int64) bool {
	if w.size > 0 && w.size+n > w.cfg.MaxSize {
		return true
	}
	if w.cfg.Daily && w.size > 0 {
		now := w.cfg.Clock.Now()
		y1, m1, d1 := now.Date()
		y2, m2, d2 := w.opened.In(now.Location()).Date()
		return y1 != y2 || m1 != m2 || d1 != d2
	}
	return false
}

func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing current file: %w", err)
	}
	w.file = nil

	if err := w.fs.Rename(w.path, w.rotatedName(w.cfg.Clock.Now())); err != nil {
		return fmt.Errorf("renaming log file: %w", err)
	}
	if err := w.open(); err != nil {
		return err
	}
	w.prune()
	return nil
}

func (w *RotatingWriter) rotatedName(at time.Time) string {
	ext := filepath.Ext(w.path)
	base := strings.TrimSuffix(w.path, ext)
	name := fmt.Sprintf("%s.%s%s", base, at.Format(rotatedLayout), ext)
	for i := 1; ; i++ {
		if _, err := w.fs.Stat(name); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s.%s-%d%s", base, at.Format(rotatedLayout), i, ext)
	}
}

// rotated lists rotated siblings of the log file, newest first.
func (w *RotatingWriter) rotated() []os.FileInfo {
	dir, base := filepath.Split(w.path)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "."

	infos, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		return nil
	}
	var out []os.FileInfo
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || name == base || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b os.FileInfo) int {
		return b.ModTime().Compare(a.ModTime())
	})
	return out
}

// prune applies MaxBackups and MaxAge. Failures are ignored.
func (w *RotatingWriter) prune() {
	dir := filepath.Dir(w.path)
	maxAge := time.Duration(w.cfg.MaxAge) * 24 * time.Hour
	now := w.cfg.Clock.Now()

	for i, info := range w.rotated() {
		tooMany := w.cfg.MaxBackups > 0 && i >= w.cfg.MaxBackups
		tooOld := w.cfg.MaxAge > 0 && now.Sub(info.ModTime()) > maxAge
		if tooMany || tooOld {
			_ = w.fs.Remove(filepath.Join(dir, info.Name()))
		}
	}
}
