// Package segmenter splits raw message text into overlapping,
// sentence-aware chunks suitable for embedding.
package segmenter

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the default character budget per chunk.
const DefaultChunkSize = 500

// DefaultOverlap is the default trailing overlap budget in characters.
const DefaultOverlap = 50

// Normalisation heuristics for email bodies. Signature blocks follow a
// standalone "--" delimiter line; quoted replies follow a "wrote:"
// attribution or nested quote markers.
var (
	signatureRe   = regexp.MustCompile(`(?m)^--\s*$`)
	attributionRe = regexp.MustCompile(`On [^\n]*wrote:`)
	nestedQuoteRe = regexp.MustCompile(`(?m)^\s*>\s*>`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Segmenter splits normalised text into greedy sentence-packed chunks.
type Segmenter struct {
	chunkSize int
	overlap   int
}

// Option configures the segmenter.
type Option func(*Segmenter)

// WithChunkSize sets the chunk character budget.
func WithChunkSize(size int) Option {
	return func(s *Segmenter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the trailing overlap budget in characters.
func WithOverlap(overlap int) Option {
	return func(s *Segmenter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a segmenter with the given options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// Segment normalises the text and packs its sentences into chunks.
// Empty or whitespace-only input produces no chunks. A single sentence
// longer than the budget is emitted whole rather than split mid-sentence.
func (s *Segmenter) Segment(text string) []string {
	text = normalise(text)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		addLen := len(sentence)
		if currentLen > 0 {
			addLen++ // joining space
		}

		if currentLen > 0 && currentLen+addLen > s.chunkSize {
			// Close the current chunk and seed the next one with the
			// trailing overlap window.
			chunks = append(chunks, strings.Join(current, " "))

			current = s.overlapTail(current)
			current = append(current, sentence)
			currentLen = joinedLen(current)
			continue
		}

		current = append(current, sentence)
		currentLen += addLen
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}

// overlapTail selects the trailing sentences carried into the next chunk.
// Sentences are taken from the end while their joined length fits the
// overlap budget. When the budget admits no full sentence, the last
// sentence is carried whole so consecutive chunks stay anchored; sentences
// are never cut to a character slice.
func (s *Segmenter) overlapTail(sentences []string) []string {
	if s.overlap <= 0 || len(sentences) == 0 {
		return nil
	}

	total := 0
	start := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		add := len(sentences[i])
		if total > 0 {
			add++
		}
		if total+add > s.overlap {
			break
		}
		total += add
		start = i
	}

	if start == len(sentences) {
		// No full sentence fits the budget; keep the last one anyway.
		start = len(sentences) - 1
	}

	tail := make([]string, len(sentences)-start)
	copy(tail, sentences[start:])
	return tail
}

// normalise strips signature blocks, quoted-reply content and redundant
// whitespace from raw message text.
func normalise(text string) string {
	if loc := signatureRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	if loc := attributionRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	if loc := nestedQuoteRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// splitSentences splits on boundary punctuation followed by whitespace.
// This is a heuristic, not a full sentence parser.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text)-1; i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && isSpace(text[i+1]) {
			sentence := strings.TrimSpace(text[start : i+1])
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = i + 1
		}
	}

	if tail := strings.TrimSpace(text[start:]); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// joinedLen is the length of the sentences joined with single spaces.
func joinedLen(sentences []string) int {
	if len(sentences) == 0 {
		return 0
	}
	n := len(sentences) - 1
	for _, s := range sentences {
		n += len(s)
	}
	return n
}
