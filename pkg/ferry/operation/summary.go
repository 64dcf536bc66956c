package operation

import (
	"time"

	"github.com/google/uuid"
)

// Summary is the outcome of a delete, copy or move. Aborted runs return the
// counters reached so far together with ErrAborted.
type Summary struct {
	ID     uuid.UUID
	Kind   Kind
	Source string
	Target string

	// Nodes and Bytes describe the scanned source tree.
	Nodes int64
	Bytes int64

	// Done is the progress numerator: nodes for delete, bytes for copy and
	// move.
	Done int64
	// Completed counts nodes handled successfully.
	Completed int64
	// Skipped counts nodes left alone after an issue.
	Skipped int64

	Started time.Time
	Elapsed time.Duration
	Aborted bool
}
