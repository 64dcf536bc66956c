package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initMem initializes logging into an in-memory file and returns a reader
// for its content.
func initMem(t *testing.T, cfg Config) func() string {
	t.Helper()
	fsys := afero.NewMemMapFs()
	cfg.Fs = fsys
	cfg.Path = "/state/ferry.log"
	require.NoError(t, Init(cfg))
	t.Cleanup(func() { _ = Close() })

	return func() string {
		data, err := afero.ReadFile(fsys, cfg.Path)
		require.NoError(t, err)
		return string(data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{" error ", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidLevel)

	assert.Equal(t, "warn", LevelWarn.String())
	assert.Equal(t, "unknown", Level(9).String())
}

func TestInitRejectsBadLevels(t *testing.T) {
	assert.ErrorIs(t, Init(Config{Level: "nope", Fs: afero.NewMemMapFs(), Path: "/x.log"}), ErrInvalidLevel)
	assert.ErrorIs(t, Init(Config{Level: "info", Components: map[string]string{"a": "?"}, Fs: afero.NewMemMapFs(), Path: "/x.log"}), ErrInvalidLevel)
	assert.ErrorIs(t, Init(Config{Level: "info", ConsoleLevel: "?", Fs: afero.NewMemMapFs(), Path: "/x.log"}), ErrInvalidLevel)
}

func TestLoggerWritesToFile(t *testing.T) {
	content := initMem(t, Config{Level: "info"})

	log := Get("operation")
	log.Debug("hidden")
	log.Info("copy started", "source", "/src")
	log.Warn("close failed", "path", "/x")

	out := content()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "copy started")
	assert.Contains(t, out, "source=/src")
	assert.Contains(t, out, "operation")
	assert.Contains(t, out, "close failed")
}

func TestComponentLevelOverride(t *testing.T) {
	content := initMem(t, Config{Level: "warn", Components: map[string]string{"journal": "debug"}})

	Get("journal").Debug("journal detail")
	Get("cli").Info("cli detail")

	out := content()
	assert.Contains(t, out, "journal detail")
	assert.NotContains(t, out, "cli detail")
}

func TestGetBeforeInitIsRewired(t *testing.T) {
	early := Get("early-component")
	early.Info("dropped")

	content := initMem(t, Config{Level: "info"})
	assert.Same(t, early, Get("early-component"))
	early.Info("kept")

	out := content()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestWithAddsFields(t *testing.T) {
	content := initMem(t, Config{Level: "debug"})

	Get("operation").With("op", "copy", "id", "1234abcd").Debug("slice")
	out := content()
	assert.Contains(t, out, "op=copy")
	assert.Contains(t, out, "id=1234abcd")
}

func TestConsoleMirror(t *testing.T) {
	var console bytes.Buffer
	content := initMem(t, Config{Level: "debug", ConsoleLevel: "warn", Console: &console})

	log := Get("cli")
	log.Info("file only")
	log.Error("both")

	assert.Contains(t, content(), "file only")
	assert.NotContains(t, console.String(), "file only")
	assert.Contains(t, console.String(), "both")
}

func TestCloseSilences(t *testing.T) {
	content := initMem(t, Config{Level: "info"})
	log := Get("cli")
	log.Info("before close")
	require.NoError(t, Close())
	log.Info("after close")
	require.NoError(t, Close())

	out := content()
	assert.Contains(t, out, "before close")
	assert.NotContains(t, out, "after close")
}

func TestConcurrentWrites(t *testing.T) {
	content := initMem(t, Config{Level: "info"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log := Get("operation")
			for j := 0; j < 50; j++ {
				log.Info("tick", "worker", i, "n", j)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, strings.Count(content(), "tick"))
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	assert.True(t, strings.HasSuffix(path, "/ferry/ferry.log"), path)
	assert.Equal(t, path, DefaultConfig().Path)
}
