// Package journal keeps the history of ferry operations in a Badger store.
package journal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jamesainslie/ferry/pkg/ferry/operation"
)

// Outcome is how an operation ended.
type Outcome string

const (
	// OutcomeFinished means the operation ran to completion. Skipped nodes
	// do not change this.
	OutcomeFinished Outcome = "finished"
	// OutcomeAborted means the operation was aborted by the operator or by
	// an unanswerable issue.
	OutcomeAborted Outcome = "aborted"
	// OutcomeFailed means the operation could not start.
	OutcomeFailed Outcome = "failed"
)

// Record is one journal entry.
type Record struct {
	ID      uuid.UUID      `json:"id"`
	Kind    operation.Kind `json:"kind"`
	Source  string         `json:"source"`
	Target  string         `json:"target,omitempty"`
	Started time.Time      `json:"started"`
	Elapsed time.Duration  `json:"elapsed"`
	Outcome Outcome        `json:"outcome"`

	Nodes     int64 `json:"nodes"`
	Bytes     int64 `json:"bytes"`
	Completed int64 `json:"completed"`
	Skipped   int64 `json:"skipped"`

	// Matches is set for searches.
	Matches int    `json:"matches,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FromSummary builds the record of a delete, copy or move.
func FromSummary(s operation.Summary) Record {
	outcome := OutcomeFinished
	if s.Aborted {
		outcome = OutcomeAborted
	}
	return Record{
		ID:        s.ID,
		Kind:      s.Kind,
		Source:    s.Source,
		Target:    s.Target,
		Started:   s.Started,
		Elapsed:   s.Elapsed,
		Outcome:   outcome,
		Nodes:     s.Nodes,
		Bytes:     s.Bytes,
		Completed: s.Completed,
		Skipped:   s.Skipped,
	}
}

func (r *Record) encode() ([]byte, error) {
	return json.Marshal(r)
}

func (r *Record) decode(data []byte) error {
	return json.Unmarshal(data, r)
}
