package domain

import "time"

// RunState is the lifecycle state of a background ingestion run.
type RunState string

const (
	// RunQueued means the run is recorded but not yet executing.
	RunQueued RunState = "queued"

	// RunRunning means the run is executing.
	RunRunning RunState = "running"

	// RunSucceeded means the run finished; individual documents may still
	// have failed and been skipped (see ErrorCount).
	RunSucceeded RunState = "succeeded"

	// RunFailed means the run aborted before completing.
	RunFailed RunState = "failed"
)

// IngestRun is the durable status record for one background ingestion run.
// Callers poll it instead of waiting on the run itself.
type IngestRun struct {
	// ID is the unique identifier for the run.
	ID string

	// UserID is the user whose sources were ingested.
	UserID string

	// State is the current lifecycle state.
	State RunState

	// DocumentsProcessed counts documents fully stored during this run.
	DocumentsProcessed int

	// DocumentsSkipped counts documents already processed or claimed.
	DocumentsSkipped int

	// ChunksStored counts chunks written during this run.
	ChunksStored int

	// ErrorCount counts documents that failed and were skipped.
	ErrorCount int

	// Error holds the abort cause when State is RunFailed.
	Error string

	// StartedAt is when the run began executing.
	StartedAt time.Time

	// FinishedAt is when the run reached a terminal state.
	FinishedAt time.Time

	// CreatedAt is when the run was queued.
	CreatedAt time.Time
}

// Terminal reports whether the run has finished.
func (r *IngestRun) Terminal() bool {
	return r.State == RunSucceeded || r.State == RunFailed
}
