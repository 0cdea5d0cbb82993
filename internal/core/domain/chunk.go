package domain

import (
	"fmt"
	"time"
)

// SourceKind identifies the system a document was ingested from.
type SourceKind string

const (
	// SourceEmail is a Gmail message.
	SourceEmail SourceKind = "email"

	// SourceDrive is a Google Drive file.
	SourceDrive SourceKind = "drive"

	// SourceCalendar is a Google Calendar event.
	SourceCalendar SourceKind = "calendar"
)

// ParseSourceKind validates a source kind string.
func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(s) {
	case SourceEmail, SourceDrive, SourceCalendar:
		return SourceKind(s), nil
	default:
		return "", fmt.Errorf("%w: unknown source kind %q", ErrInvalidInput, s)
	}
}

// Chunk represents a bounded span of source text paired with its embedding
// vector and provenance metadata. A chunk is immutable once embedded.
//
// The tuple (UserID, Source, SourceID, Position) uniquely identifies a
// chunk's logical slot within a source document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// UserID is the owning user. Chunks are never shared across users.
	UserID string

	// Source is the kind of system the chunk was ingested from.
	Source SourceKind

	// SourceID is the originating document identifier (e.g. Gmail message ID).
	SourceID string

	// Position is the zero-based ordinal within the source document.
	Position int

	// Content is the text content of this chunk.
	Content string

	// Metadata contains provenance key-value pairs (subject, sender,
	// timestamp, thread id, etc).
	Metadata map[string]any

	// Embedding is the vector representation for similarity search.
	// All embeddings for one user share a fixed dimension.
	Embedding []float32

	// CreatedAt is when the chunk was embedded and stored.
	CreatedAt time.Time
}

// ScoredChunk pairs a chunk with its distance to a query vector.
// Smaller distances rank first.
type ScoredChunk struct {
	Chunk Chunk

	// Distance is the dissimilarity between the chunk embedding and the
	// query embedding under the configured metric.
	Distance float64
}

// SourceDocument is the processing-state record for one ingested document.
// It is created when document metadata is first observed and its Processed
// flag flips to true only after every chunk for the document has been
// durably stored. The flag is never reverted.
type SourceDocument struct {
	// UserID is the owning user.
	UserID string

	// Source is the kind of system the document came from.
	Source SourceKind

	// SourceID is the document identifier within its source system.
	SourceID string

	// ThreadID groups related documents (e.g. Gmail thread).
	ThreadID string

	// Subject is the document subject or title.
	Subject string

	// Sender is the originating address, if any.
	Sender string

	// Recipients are the destination addresses, if any.
	Recipients []string

	// Timestamp is when the document was produced at the source.
	Timestamp time.Time

	// Labels are source-side labels (e.g. Gmail label IDs).
	Labels []string

	// Processed reports whether the document's content has been segmented,
	// embedded and stored.
	Processed bool

	// ClaimedAt is set while an ingestion run holds the processing claim
	// for this document. Nil when unclaimed.
	ClaimedAt *time.Time

	// CreatedAt is when the metadata record was first stored.
	CreatedAt time.Time
}
