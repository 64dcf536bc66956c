package operation

import (
	"context"
	"time"

	"github.com/jamesainslie/ferry/pkg/ferry/linker"
	"github.com/jamesainslie/ferry/pkg/ferry/logging"
	"github.com/jonboulle/clockwork"
)

// Timing and transfer defaults.
const (
	DefaultSliceBudget   = 150 * time.Millisecond
	DefaultProgressDelay = 500 * time.Millisecond
	DefaultChunkSize     = 1 << 20

	// MaxChunkSize bounds the bytes a copy moves per iteration.
	MaxChunkSize = DefaultChunkSize
)

// Linker recreates symbolic links for copy and move.
type Linker interface {
	// Locate finds the link helper.
	Locate() (string, error)
	// Link creates dest as a link to source.
	Link(ctx context.Context, source, dest string) error
}

// Options configures an operation. The zero value is usable: every unset
// field is filled with its default.
type Options struct {
	// Scheduler is shared by operations that must not run concurrently.
	// Nil gives the operation a scheduler of its own.
	Scheduler *Scheduler

	// Clock drives slicing and the progress delay.
	Clock clockwork.Clock

	// Resolver answers issues. Nil aborts on the first issue.
	Resolver Resolver

	// Observer creates the progress observer. Nil means progress is only
	// kept in memory.
	Observer ObserverFactory

	// Texts provides titles, labels and issue texts.
	Texts Texts

	// Linker recreates symlinks during copy.
	Linker Linker

	// ChunkSize bounds one copy read.
	ChunkSize int

	// SliceBudget is how long a slice may run before yielding.
	SliceBudget time.Duration

	// ProgressDelay is how long an operation runs before its observer is
	// created.
	ProgressDelay time.Duration

	// Logger receives engine diagnostics.
	Logger *logging.Logger
}

// DefaultOptions returns options with every default filled in.
func DefaultOptions() Options {
	var o Options
	o.applyDefaults()
	return o
}

func (o *Options) applyDefaults() {
	if o.Scheduler == nil {
		o.Scheduler = NewScheduler()
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Resolver == nil {
		o.Resolver = ResolverFunc(func(context.Context, Issue) (Decision, error) {
			return Abort, nil
		})
	}
	if o.Texts == nil {
		o.Texts = English
	}
	if o.Linker == nil {
		o.Linker = linker.New(linker.DefaultHelper, linker.DefaultTimeout)
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	o.ChunkSize = min(o.ChunkSize, MaxChunkSize)
	if o.SliceBudget <= 0 {
		o.SliceBudget = DefaultSliceBudget
	}
	if o.ProgressDelay <= 0 {
		o.ProgressDelay = DefaultProgressDelay
	}
	if o.Logger == nil {
		o.Logger = logging.Get("operation")
	}
}
