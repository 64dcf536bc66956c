package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/jamesainslie/ferry/pkg/ferry/fsentry"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// sampleTree builds /data with a small file, and a directory holding a
// large file and a nested directory.
func sampleTree(t *testing.T) *operation.Node {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/data/big/inner", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/data/small.txt", []byte("hi"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/big/blob.bin", make([]byte, 4096), 0o644))

	e := func(p string) entry.Entry { return fsentry.New(fsys, p) }
	root := &operation.Node{Entry: e("/data"), Count: 5, Size: 4098}
	small := &operation.Node{Entry: e("/data/small.txt"), Parent: root, Count: 1, Size: 2}
	big := &operation.Node{Entry: e("/data/big"), Parent: root, Count: 3, Size: 4096}
	blob := &operation.Node{Entry: e("/data/big/blob.bin"), Parent: big, Count: 1, Size: 4096}
	inner := &operation.Node{Entry: e("/data/big/inner"), Parent: big, Count: 1}
	root.Children = []*operation.Node{small, big}
	big.Children = []*operation.Node{blob, inner}
	return root
}

func paths(r *Result) []string {
	out := make([]string, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Path
	}
	return out
}

func TestFromTreeOrdersBySize(t *testing.T) {
	r := FromTree(sampleTree(t), -1)

	assert.Equal(t, operation.KindScan, r.Operation)
	assert.True(t, r.Listing())
	assert.Equal(t, []string{"/data", "/data/big", "/data/big/blob.bin", "/data/big/inner", "/data/small.txt"}, paths(r))
	assert.Equal(t, int64(5), r.Totals.Nodes)
	assert.Equal(t, int64(4098), r.Totals.Bytes)

	big := r.Items[1]
	assert.Equal(t, TypeDir, big.Type)
	assert.Equal(t, int64(3), big.Count)
	assert.Equal(t, 1, big.Depth)
	assert.Equal(t, "4.0 KiB", big.SizeHuman)

	assert.Equal(t, TypeFile, r.Items[2].Type)
	assert.Zero(t, r.Items[2].Count)
}

func TestFromTreeDepthLimit(t *testing.T) {
	assert.Equal(t, []string{"/data"}, paths(FromTree(sampleTree(t), 0)))
	assert.Equal(t, []string{"/data", "/data/big", "/data/small.txt"}, paths(FromTree(sampleTree(t), 1)))
}

func TestFromSearch(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/a.log", []byte("12345"), 0o644))
	require.NoError(t, fsys.Mkdir("/logs", 0o755))

	hits := []entry.Entry{fsentry.New(fsys, "/logs"), fsentry.New(fsys, "/a.log")}
	r := FromSearch("/", hits, time.Second, true)

	assert.Equal(t, []string{"/logs", "/a.log"}, paths(r))
	assert.Equal(t, 2, r.Totals.Matches)
	assert.Equal(t, int64(5), r.Totals.Bytes)
	assert.True(t, r.Aborted)
}

func sampleSummary() *Result {
	return FromSummary(operation.Summary{
		ID:   uuid.MustParse("12345678-9abc-4def-8123-456789abcdef"),
		Kind: operation.KindCopy, Source: "/src", Target: "/dst",
		Nodes: 10, Bytes: 2048, Done: 2048, Completed: 9, Skipped: 1,
		Elapsed: 1500 * time.Millisecond,
	})
}

func TestFromSummary(t *testing.T) {
	r := sampleSummary()
	assert.False(t, r.Listing())
	assert.Equal(t, "12345678-9abc-4def-8123-456789abcdef", r.ID)
	assert.Equal(t, int64(9), r.Totals.Completed)
	assert.Empty(t, r.Items)
}

func format(t *testing.T, name string, r *Result) string {
	t.Helper()
	f, err := Get(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}

func TestRegistry(t *testing.T) {
	assert.Equal(t,
		[]string{"csv", "json", "jsonl", "markdown", "null", "paths", "plain", "pretty", "template", "tsv", "yaml"},
		Available())

	_, err := Get("xml")
	assert.Error(t, err)

	reg := NewRegistry()
	reg.Register("x", func() Formatter { return &PathsFormatter{} })
	assert.Equal(t, []string{"x"}, reg.Available())
}

func TestJSON(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(format(t, "json", FromTree(sampleTree(t), 1))), &doc))

	assert.Equal(t, "scan", doc["operation"])
	items := doc["items"].([]any)
	assert.Len(t, items, 3)
	totals := doc["totals"].(map[string]any)
	assert.EqualValues(t, 4098, totals["bytes"])
	assert.Equal(t, "4.0 KiB", totals["bytes_human"])

	require.NoError(t, json.Unmarshal([]byte(format(t, "json", sampleSummary())), &doc))
	assert.Equal(t, "1.5s", doc["totals"].(map[string]any)["elapsed"])
}

func TestJSONL(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(format(t, "jsonl", FromTree(sampleTree(t), -1))), "\n")
	require.Len(t, lines, 5)
	var it Item
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &it))
	assert.Equal(t, "/data/big/blob.bin", it.Path)

	lines = strings.Split(strings.TrimSpace(format(t, "jsonl", sampleSummary())), "\n")
	assert.Len(t, lines, 1)
}

func TestYAML(t *testing.T) {
	var doc struct {
		Operation string `yaml:"operation"`
		Target    string `yaml:"target"`
		Totals    struct {
			Nodes     int64  `yaml:"nodes"`
			Completed int64  `yaml:"completed"`
			Elapsed   string `yaml:"elapsed"`
		} `yaml:"totals"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(format(t, "yaml", sampleSummary())), &doc))
	assert.Equal(t, "copy", doc.Operation)
	assert.Equal(t, "/dst", doc.Target)
	assert.Equal(t, int64(10), doc.Totals.Nodes)
	assert.Equal(t, int64(9), doc.Totals.Completed)
	assert.Equal(t, "1.5s", doc.Totals.Elapsed)
}

func TestPlain(t *testing.T) {
	out := format(t, "plain", FromTree(sampleTree(t), 1))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "SIZE")
	assert.Contains(t, lines[2], "dir")
	assert.True(t, strings.HasSuffix(lines[2], "  /data/big"))

	out = format(t, "plain", sampleSummary())
	assert.Contains(t, out, "target:")
	assert.Contains(t, out, "/dst")
	assert.Contains(t, out, "skipped:")
	assert.Contains(t, out, "finished")
}

func TestTabular(t *testing.T) {
	tsv := format(t, "tsv", FromTree(sampleTree(t), 0))
	assert.Equal(t, "SIZE\tTYPE\tPATH\n4.0 KiB\tdir\t/data\n", tsv)

	records, err := csv.NewReader(strings.NewReader(format(t, "csv", sampleSummary()))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "OPERATION", records[0][0])
	assert.Equal(t, []string{"copy", "/src", "/dst", "10", "2048", "9", "1", "false"}, records[1])

	r := &Result{Operation: operation.KindSearch, Items: []Item{{Path: "/a|b", SizeHuman: "1 B", Type: TypeFile}}}
	md := format(t, "markdown", r)
	assert.Equal(t, "| SIZE | TYPE | PATH |\n| --- | --- | --- |\n| 1 B | file | /a\\|b |\n", md)
}

func TestPathsAndNull(t *testing.T) {
	r := FromTree(sampleTree(t), 1)
	assert.Equal(t, "/data\n/data/big\n/data/small.txt\n", format(t, "paths", r))
	assert.Equal(t, "/data\x00/data/big\x00/data/small.txt\x00", format(t, "null", r))
	assert.Empty(t, format(t, "paths", sampleSummary()))
}

func TestTemplate(t *testing.T) {
	out := format(t, "template", FromTree(sampleTree(t), 1))
	assert.Equal(t, "4.0 KiB\t/data\n4.0 KiB\t  /data/big\n2 B\t  /data/small.txt\n", out)

	f := NewTemplateFormatter("{{.Source}} {{bytes .Totals.Bytes}}")
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, sampleSummary()))
	assert.Equal(t, "/src 2.0 KiB", buf.String())

	f.SetTemplate("{{.Missing")
	assert.Error(t, f.Format(&buf, sampleSummary()))
}

func TestPretty(t *testing.T) {
	out := format(t, "pretty", FromTree(sampleTree(t), -1))
	for _, want := range []string{"SCAN", "/data", "big/", "blob.bin", "inner/", "Entries:", "(2)"} {
		assert.Contains(t, out, want)
	}

	r := sampleSummary()
	r.Aborted = true
	r.Warnings = []string{"1 entry skipped"}
	out = format(t, "pretty", r)
	for _, want := range []string{"COPY", "12345678", "/dst", "Aborted", "Skipped:", "1.5s", "Warnings:"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "SIZE")
	assert.Contains(t, out, "Aborted before completion")

	out = format(t, "pretty", sampleSummary())
	assert.NotContains(t, out, "Aborted")

	out = format(t, "pretty", &Result{Operation: operation.KindSearch, Source: "/"})
	assert.Contains(t, out, "No entries found")
	assert.Contains(t, out, "Matches:")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{350 * time.Millisecond, "350ms"},
		{4200 * time.Millisecond, "4.2s"},
		{185 * time.Second, "3m 5s"},
		{130 * time.Minute, "2h 10m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}
