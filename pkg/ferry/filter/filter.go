package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/jamesainslie/ferry/pkg/ferry/entry"
)

// DefaultWindow is the smallest content read for pattern tests.
const DefaultWindow = 16 * 1024

// Filter is a compiled set of search criteria.
type Filter struct {
	name    string
	content string
	typ     Type

	minSize, maxSize int64
	hasMin, hasMax   bool

	after, before time.Time

	nameGlob  glob.Glob
	contentRE *regexp.Regexp
}

// Option is a functional option for configuring a Filter.
type Option func(*Filter)

// New compiles a Filter from the given options. With no options every entry
// matches.
func New(opts ...Option) (*Filter, error) {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}

	g, err := NamePattern(f.name)
	if err != nil {
		return nil, err
	}
	f.nameGlob = g

	if f.content != "" {
		re, err := regexp.Compile("(?i)" + f.content)
		if err != nil {
			return nil, fmt.Errorf("compiling content pattern %q: %w", f.content, err)
		}
		f.contentRE = re
	}
	return f, nil
}

// WithName sets the name term. "*" and "?" are wildcards, every other
// character is literal, and the term may match anywhere in the name.
func WithName(term string) Option {
	return func(f *Filter) {
		f.name = term
	}
}

// WithContent sets a case-insensitive regular expression that file content
// must contain.
func WithContent(pattern string) Option {
	return func(f *Filter) {
		f.content = pattern
	}
}

// WithType restricts matches to files or directories.
func WithType(t Type) Option {
	return func(f *Filter) {
		f.typ = t
	}
}

// WithMinSize excludes entries smaller than n bytes. Entries with no size,
// such as directories, never pass a size bound.
func WithMinSize(n int64) Option {
	return func(f *Filter) {
		f.minSize, f.hasMin = n, true
	}
}

// WithMaxSize excludes entries larger than n bytes.
func WithMaxSize(n int64) Option {
	return func(f *Filter) {
		f.maxSize, f.hasMax = n, true
	}
}

// WithModifiedAfter excludes entries modified before t.
func WithModifiedAfter(t time.Time) Option {
	return func(f *Filter) {
		f.after = t
	}
}

// WithModifiedBefore excludes entries modified after t.
func WithModifiedBefore(t time.Time) Option {
	return func(f *Filter) {
		f.before = t
	}
}

// NamePattern compiles a name term into a glob matching names that contain
// it. Separators get no special treatment since only base names are tested.
func NamePattern(term string) (glob.Glob, error) {
	var b strings.Builder
	b.WriteByte('*')
	for _, r := range term {
		switch r {
		case '*', '?':
			b.WriteRune(r)
		default:
			b.WriteString(glob.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('*')

	g, err := glob.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compiling name pattern %q: %w", term, err)
	}
	return g, nil
}

// Match reports whether the entry passes the metadata criteria: name, type,
// size window and modification-time window, in that order.
func (f *Filter) Match(e entry.Entry) bool {
	if !f.nameGlob.Match(e.Name()) {
		return false
	}

	container := e.Supports(entry.Children)
	switch f.typ {
	case TypeFile:
		if container {
			return false
		}
	case TypeDir:
		if !container {
			return false
		}
	}

	if f.hasMin || f.hasMax {
		size, ok := e.Size()
		if !ok {
			return false
		}
		if f.hasMin && size < f.minSize {
			return false
		}
		if f.hasMax && size > f.maxSize {
			return false
		}
	}

	if !f.after.IsZero() || !f.before.IsZero() {
		ts, ok := e.ModTime()
		if !ok {
			return false
		}
		if !f.after.IsZero() && ts.Before(f.after) {
			return false
		}
		if !f.before.IsZero() && ts.After(f.before) {
			return false
		}
	}
	return true
}

// Content returns the compiled content pattern, or nil when none was set.
func (f *Filter) Content() *regexp.Regexp {
	return f.contentRE
}

// Carry is the number of trailing bytes kept between content reads so a
// match spanning two reads is still found.
func (f *Filter) Carry() int {
	return len(f.content)
}

// Window returns the content read size: twice the pattern length, at least
// DefaultWindow.
func (f *Filter) Window() int {
	return max(2*len(f.content), DefaultWindow)
}

// String summarises the criteria for logs and history records.
func (f *Filter) String() string {
	parts := []string{fmt.Sprintf("name=%q", f.name)}
	if f.content != "" {
		parts = append(parts, fmt.Sprintf("content=%q", f.content))
	}
	if f.typ != TypeAny {
		parts = append(parts, "type="+f.typ.String())
	}
	if f.hasMin {
		parts = append(parts, fmt.Sprintf("min=%d", f.minSize))
	}
	if f.hasMax {
		parts = append(parts, fmt.Sprintf("max=%d", f.maxSize))
	}
	if !f.after.IsZero() {
		parts = append(parts, "after="+f.after.Format(time.RFC3339))
	}
	if !f.before.IsZero() {
		parts = append(parts, "before="+f.before.Format(time.RFC3339))
	}
	return strings.Join(parts, " ")
}
