// Package manifest records a history of sieve runs on the filesystem.
package manifest

import "time"

// OperationType represents the type of operation.
type OperationType string

const (
	// OpRun represents a sieve run.
	OpRun OperationType = "run"
	// OpVerify represents a run checked against the reference sieve.
	OpVerify OperationType = "verify"
)

// Entry represents a single history entry.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Operation OperationType `json:"operation"`
	Params    Params        `json:"params"`
	Summary   Summary       `json:"summary"`
	Error     string        `json:"error,omitempty"`
}

// Params holds the inputs of a run.
type Params struct {
	Limit     int    `json:"limit"`
	Workers   int    `json:"workers"`
	TopK      int    `json:"top_k"`
	Partition string `json:"partition"`
}

// Summary contains the outcome of a run.
type Summary struct {
	Count   int64  `json:"count"`
	Sum     string `json:"sum"`
	Largest []int  `json:"largest,omitempty"`
	Elapsed string `json:"elapsed"`
	Cached  bool   `json:"cached,omitempty"`
	Gap     string `json:"gap,omitempty"`
}

// Failed reports whether the run ended in an error.
func (e *Entry) Failed() bool {
	return e.Error != ""
}
