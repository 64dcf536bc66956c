// Package config provides configuration management for ferry.
package config

import "time"

// Default configuration values.
const (
	DefaultSliceBudget   = 150 * time.Millisecond
	DefaultProgressDelay = 500 * time.Millisecond
	DefaultChunkSize     = "1MiB"
	MaxChunkBytes        = 1 << 20

	// ChunkAuto as engine.chunk_size sizes copy buffers from host memory.
	ChunkAuto = "auto"

	DefaultLinkHelper  = "/bin/ln"
	DefaultLinkTimeout = 30 * time.Second

	// DefaultOnError and DefaultOverwrite ask the operator.
	DefaultOnError    = PolicyAsk
	DefaultOverwrite  = PolicyAsk
	DefaultMaxRetries = 3

	// DefaultRetentionDays is how long journal records are kept.
	DefaultRetentionDays = 90

	DefaultOutput = "pretty"
)

// Issue policies for issues.on_error and issues.overwrite.
const (
	PolicyAsk   = "ask"
	PolicyRetry = "retry"
	PolicySkip  = "skip"
	PolicyAbort = "abort"
	PolicyAll   = "all"
)

// Allowed policy values per key.
var (
	ErrorPolicies     = []string{PolicyAsk, PolicyRetry, PolicySkip, PolicyAbort}
	OverwritePolicies = []string{PolicyAsk, PolicyAll, PolicySkip, PolicyAbort}
)
