package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoData indicates a well-defined empty state, such as style
	// analysis for a user with no email chunks. It is surfaced to callers
	// as a payload, never as a pipeline failure.
	ErrNoData = errors.New("no data available")

	// ErrEmbeddingService indicates the remote embedding capability is
	// unreachable or returned a malformed or partial result.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrStorage indicates a write or read failure against the chunk store.
	ErrStorage = errors.New("storage error")

	// ErrRetrieval indicates a query-time storage failure. Zero matching
	// chunks is not a retrieval error.
	ErrRetrieval = errors.New("retrieval error")

	// ErrGeneration indicates the remote generation capability failed.
	ErrGeneration = errors.New("generation error")

	// ErrMailboxUnavailable indicates the mailbox source is not configured
	// or unreachable.
	ErrMailboxUnavailable = errors.New("mailbox source unavailable")

	// ErrIngestInProgress indicates an ingestion run is already active for
	// the user.
	ErrIngestInProgress = errors.New("ingestion already in progress")

	// ErrClaimHeld indicates another run currently holds the processing
	// claim for a document.
	ErrClaimHeld = errors.New("document claim held")
)
