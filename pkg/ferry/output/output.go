// Package output renders ferry results: scan trees, search hits and
// operation summaries, in several formats (pretty, plain, json, yaml, ...).
//
// Formatters are looked up by name in a registry:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromTree(root, 2)); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"cmp"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/entry"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
	"github.com/jamesainslie/ferry/pkg/ferry/types"
)

// Item types.
const (
	TypeFile = "file"
	TypeDir  = "dir"
	TypeLink = "link"
)

// Item is one listed entry.
type Item struct {
	Path      string    `json:"path" yaml:"path"`
	Name      string    `json:"name" yaml:"name"`
	Type      string    `json:"type" yaml:"type"`
	Size      int64     `json:"size" yaml:"size"`
	SizeHuman string    `json:"size_human" yaml:"size_human"`
	// Count is the number of entries in a directory subtree, itself
	// included. Zero for search hits.
	Count   int64     `json:"count,omitempty" yaml:"count,omitempty"`
	ModTime time.Time `json:"mod_time,omitempty" yaml:"mod_time,omitempty"`
	Depth   int       `json:"depth" yaml:"depth"`
}

// Totals are the counters of a run.
type Totals struct {
	Nodes     int64         `json:"nodes" yaml:"nodes"`
	Bytes     int64         `json:"bytes" yaml:"bytes"`
	Completed int64         `json:"completed,omitempty" yaml:"completed,omitempty"`
	Skipped   int64         `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Matches   int           `json:"matches,omitempty" yaml:"matches,omitempty"`
	Elapsed   time.Duration `json:"-" yaml:"-"`
}

// Result is what a formatter renders.
type Result struct {
	Operation operation.Kind
	ID        string
	Source    string
	Target    string

	// Items is the listing of a scan or search; empty for summaries.
	Items  []Item
	Totals Totals

	Warnings []string
	Aborted  bool
}

// Listing reports whether the result lists entries rather than summarizing
// a delete, copy or move.
func (r *Result) Listing() bool {
	return r.Operation == operation.KindScan || r.Operation == operation.KindSearch
}

func itemType(e entry.Entry) string {
	switch {
	case e.IsSymlink():
		return TypeLink
	case e.Supports(entry.Children):
		return TypeDir
	default:
		return TypeFile
	}
}

func newItem(e entry.Entry, size int64, depth int) Item {
	it := Item{
		Path:      e.Path(),
		Name:      e.Name(),
		Type:      itemType(e),
		Size:      size,
		SizeHuman: types.FormatSize(size),
		Depth:     depth,
	}
	if ts, ok := e.ModTime(); ok {
		it.ModTime = ts
	}
	return it
}

// FromTree lists a scanned tree down to maxDepth levels below the root; a
// negative maxDepth lists everything. Siblings are ordered by size,
// largest first.
func FromTree(root *operation.Node, maxDepth int) *Result {
	r := &Result{
		Operation: operation.KindScan,
		Source:    root.Entry.Path(),
		Totals:    Totals{Nodes: root.Count, Bytes: root.Size},
	}
	largestFirst := func(a, b *operation.Node) int {
		return cmp.Compare(b.Size, a.Size)
	}
	root.WalkSorted(largestFirst, func(n *operation.Node, depth int) bool {
		it := newItem(n.Entry, n.Size, depth)
		if it.Type == TypeDir {
			it.Count = n.Count
		}
		r.Items = append(r.Items, it)
		return maxDepth < 0 || depth < maxDepth
	})
	return r
}

// FromSearch lists search hits in the order they were found.
func FromSearch(source string, hits []entry.Entry, elapsed time.Duration, aborted bool) *Result {
	r := &Result{
		Operation: operation.KindSearch,
		Source:    source,
		Items:     make([]Item, 0, len(hits)),
		Aborted:   aborted,
	}
	for _, e := range hits {
		size, _ := e.Size()
		r.Items = append(r.Items, newItem(e, size, 0))
		r.Totals.Bytes += size
	}
	r.Totals.Nodes = int64(len(hits))
	r.Totals.Matches = len(hits)
	r.Totals.Elapsed = elapsed
	return r
}

// FromSummary wraps the outcome of a delete, copy or move.
func FromSummary(s operation.Summary) *Result {
	return &Result{
		Operation: s.Kind,
		ID:        s.ID.String(),
		Source:    s.Source,
		Target:    s.Target,
		Totals: Totals{
			Nodes:     s.Nodes,
			Bytes:     s.Bytes,
			Completed: s.Completed,
			Skipped:   s.Skipped,
			Elapsed:   s.Elapsed,
		},
		Aborted: s.Aborted,
	}
}

// Formatter renders a result.
type Formatter interface {
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps names to formatter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available lists the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}
