package operation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Category keys the remembered blanket decisions of an operation. The same
// category may be raised with different option sets; it is only a key.
type Category string

// Issue categories raised by the built-in operations.
const (
	CategoryDelete    Category = "delete"
	CategoryCreate    Category = "create"
	CategoryOverwrite Category = "overwrite"
	CategoryRead      Category = "read"
	CategoryWrite     Category = "write"
	CategoryLink      Category = "ln"
)

// Decision is an operator answer to an Issue.
type Decision int

// Decisions. None is the zero value and is never offered.
const (
	None Decision = iota
	Retry
	Overwrite
	OverwriteAll
	Skip
	SkipAll
	Abort
)

var decisionNames = map[Decision]string{
	None:         "none",
	Retry:        "retry",
	Overwrite:    "overwrite",
	OverwriteAll: "overwrite-all",
	Skip:         "skip",
	SkipAll:      "skip-all",
	Abort:        "abort",
}

// String returns the decision token, e.g. "skip-all".
func (d Decision) String() string {
	if s, ok := decisionNames[d]; ok {
		return s
	}
	return "unknown"
}

// ErrInvalidDecision is returned by ParseDecision for unknown tokens.
var ErrInvalidDecision = errors.New("invalid decision")

// ParseDecision parses a decision token. Underscores and spaces are
// accepted in place of the dash.
func ParseDecision(s string) (Decision, error) {
	norm := strings.NewReplacer("_", "-", " ", "-").Replace(strings.ToLower(strings.TrimSpace(s)))
	for d, name := range decisionNames {
		if d != None && name == norm {
			return d, nil
		}
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidDecision, s)
}

// Issue describes a failed step waiting for a decision.
type Issue struct {
	Operation Kind
	Category  Category
	// Subject is the path the failed step worked on.
	Subject string
	// Err is the failure; nil for an overwrite question.
	Err     error
	Title   string
	Text    string
	Options []Decision
}

// Offers reports whether d is one of the issue's options.
func (i Issue) Offers(d Decision) bool {
	return slices.Contains(i.Options, d)
}

// Resolver answers issues. Resolve blocks until a decision is made; the
// operation gives up its scheduler turn while it waits. An error or an
// answer outside Issue.Options aborts the operation.
type Resolver interface {
	Resolve(ctx context.Context, issue Issue) (Decision, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, issue Issue) (Decision, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, issue Issue) (Decision, error) {
	return f(ctx, issue)
}

// AutoResolver answers issues from a fixed policy, for runs without an
// operator.
type AutoResolver struct {
	// OnError answers failures: Retry, Skip, SkipAll or Abort.
	OnError Decision
	// OnExists answers overwrite questions: Overwrite, OverwriteAll, Skip,
	// SkipAll or Abort.
	OnExists Decision
	// MaxRetries bounds Retry per subject and category; afterwards the
	// issue is skipped.
	MaxRetries int

	mu      sync.Mutex
	retries map[string]int
}

// NewAutoResolver returns a policy resolver.
func NewAutoResolver(onError, onExists Decision, maxRetries int) *AutoResolver {
	return &AutoResolver{OnError: onError, OnExists: onExists, MaxRetries: maxRetries}
}

// Resolve applies the policy.
func (r *AutoResolver) Resolve(_ context.Context, issue Issue) (Decision, error) {
	want := r.OnError
	if issue.Category == CategoryOverwrite {
		want = r.OnExists
	}

	if want == Retry {
		r.mu.Lock()
		if r.retries == nil {
			r.retries = make(map[string]int)
		}
		key := string(issue.Category) + "\x00" + issue.Subject
		r.retries[key]++
		exhausted := r.retries[key] > r.MaxRetries
		r.mu.Unlock()
		if exhausted {
			want = Skip
		}
	}

	if !issue.Offers(want) {
		return Abort, nil
	}
	return want, nil
}

// Texts looks up user-facing strings. Unknown keys should be returned as
// is.
type Texts interface {
	Text(key string, args ...any) string
}

// TextTable is a Texts backed by fmt formats.
type TextTable map[string]string

// Text formats the entry for key, or returns key when there is none.
func (t TextTable) Text(key string, args ...any) string {
	format, ok := t[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// English is the default text table.
var English = TextTable{
	"error":           "Error",
	"error.delete":    "Cannot delete %s: %v",
	"error.create":    "Cannot create %s: %v",
	"error.read":      "Cannot read %s: %v",
	"error.write":     "Cannot write %s: %v",
	"error.ln":        "Cannot create symbolic link %s: %v",
	"error.overwrite": "Cannot overwrite %s: %v",
	"error.exists":    "%s already exists. Overwrite?",

	"scan.title":     "Scanning",
	"scan.working":   "Scanning:",
	"delete.title":   "Deleting",
	"delete.working": "Deleting:",
	"copy.title":     "Copying",
	"copy.working":   "Copying:",
	"copy.to":        "To:",
	"move.title":     "Moving",
	"move.working":   "Moving:",
	"move.to":        "To:",
	"search.title":   "Searching",
	"search.working": "Searching:",

	"progress.total": "Total:",
	"progress.file":  "File:",
}
