package filter

import (
	"testing"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/fsentry"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamePattern(t *testing.T) {
	tests := []struct {
		term  string
		name  string
		match bool
	}{
		{"", "anything.txt", true},
		{"note", "notes.txt", true},
		{"note", "my-notes", true},
		{"Note", "notes.txt", false},
		{"*.go", "main.go", true},
		{"*.go", "main.gox", true},
		{"a?c", "xabcx", true},
		{"a?c", "ac", false},
		{"[abc]", "[abc].txt", true},
		{"[abc]", "a.txt", false},
		{"a.b", "axb", false},
		{"a.b", "a.b", true},
		{"{x,y}", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.term+"/"+tt.name, func(t *testing.T) {
			g, err := NamePattern(tt.term)
			require.NoError(t, err)
			assert.Equal(t, tt.match, g.Match(tt.name))
		})
	}
}

func searchTree(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/data/logs", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/data/small.log", make([]byte, 10), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/big.log", make([]byte, 5000), 0o644))

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, fsys.Chtimes("/data/small.log", old, old))
	return fsys
}

func TestFilterMatch(t *testing.T) {
	fsys := searchTree(t)
	small := fsentry.New(fsys, "/data/small.log")
	big := fsentry.New(fsys, "/data/big.log")
	dir := fsentry.New(fsys, "/data/logs")

	cutoff := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		opts  []Option
		small bool
		big   bool
		dir   bool
	}{
		{name: "no criteria", small: true, big: true, dir: true},
		{name: "name", opts: []Option{WithName(".log")}, small: true, big: true},
		{name: "files only", opts: []Option{WithType(TypeFile)}, small: true, big: true},
		{name: "dirs only", opts: []Option{WithType(TypeDir)}, dir: true},
		{name: "min size", opts: []Option{WithMinSize(100)}, big: true},
		{name: "max size", opts: []Option{WithMaxSize(100)}, small: true},
		{name: "modified before", opts: []Option{WithModifiedBefore(cutoff)}, small: true},
		{name: "modified after", opts: []Option{WithModifiedAfter(cutoff)}, big: true, dir: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := New(tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.small, f.Match(small), "small.log")
			assert.Equal(t, tt.big, f.Match(big), "big.log")
			assert.Equal(t, tt.dir, f.Match(dir), "logs/")
		})
	}
}

func TestFilterContent(t *testing.T) {
	f, err := New()
	require.NoError(t, err)
	assert.Nil(t, f.Content())
	assert.Equal(t, DefaultWindow, f.Window())

	f, err = New(WithContent("NeedLE"))
	require.NoError(t, err)
	require.NotNil(t, f.Content())
	assert.True(t, f.Content().MatchString("a needle here"))
	assert.Equal(t, 6, f.Carry())

	long := make([]byte, 20000)
	for i := range long {
		long[i] = 'x'
	}
	f, err = New(WithContent(string(long)))
	require.NoError(t, err)
	assert.Equal(t, 40000, f.Window())

	_, err = New(WithContent("("))
	assert.Error(t, err)
}

func TestFilterString(t *testing.T) {
	f, err := New(WithName("x"), WithType(TypeFile), WithMinSize(1))
	require.NoError(t, err)
	assert.Equal(t, `name="x" type=file min=1`, f.String())
}
