package domain

import "time"

// DefaultK is the default number of chunks retrieved for a query.
const DefaultK = 5

// QueryContext carries one retrieval request. It is ephemeral and never
// persisted.
type QueryContext struct {
	// UserID scopes retrieval to one user's chunks.
	UserID string

	// Query is the natural-language question.
	Query string

	// K is the number of chunks to retrieve. Zero means DefaultK.
	K int

	// TimeWindowDays restricts candidates to chunks created within the
	// last N days. Nil means no time filter.
	TimeWindowDays *int

	// Source restricts candidates to one source kind. Nil means all kinds.
	Source *SourceKind
}

// Limit returns the effective result count.
func (q *QueryContext) Limit() int {
	if q.K <= 0 {
		return DefaultK
	}
	return q.K
}

// Filter translates the query's optional constraints into a chunk filter.
func (q *QueryContext) Filter(now time.Time) ChunkFilter {
	f := ChunkFilter{Source: q.Source}
	if q.TimeWindowDays != nil {
		cutoff := now.AddDate(0, 0, -*q.TimeWindowDays)
		f.CreatedAfter = &cutoff
	}
	return f
}

// ChunkFilter narrows the retrieval candidate set before ranking.
// Both fields are optional; nil means the constraint does not apply.
// The store adapter translates the filter into its own predicate form so
// that filter combinations stay independently testable.
type ChunkFilter struct {
	// CreatedAfter keeps only chunks created at or after this instant.
	CreatedAfter *time.Time

	// Source keeps only chunks of this kind.
	Source *SourceKind
}

// Matches reports whether a chunk satisfies the filter.
func (f ChunkFilter) Matches(c *Chunk) bool {
	if f.CreatedAfter != nil && c.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.Source != nil && c.Source != *f.Source {
		return false
	}
	return true
}

// StyleProfile is the structured output of writing-style analysis.
type StyleProfile struct {
	// Tone describes the overall register (formal, casual, ...).
	Tone string `json:"tone,omitempty"`

	// CommonPhrases are recurring phrases or expressions.
	CommonPhrases []string `json:"common_phrases,omitempty"`

	// Greetings are typical opening lines.
	Greetings []string `json:"greetings,omitempty"`

	// SignOffs are typical closing lines.
	SignOffs []string `json:"sign_offs,omitempty"`

	// Vocabulary captures word-choice preferences.
	Vocabulary []string `json:"vocabulary,omitempty"`

	// SentencePatterns describes sentence-structure habits.
	SentencePatterns []string `json:"sentence_patterns,omitempty"`

	// Raw holds the model's unparsed output when it did not return
	// well-formed JSON. The other fields are empty in that case.
	Raw string `json:"raw_analysis,omitempty"`
}

// StyleSampleLimit is the number of most recent email chunks fed to style
// analysis.
const StyleSampleLimit = 50
