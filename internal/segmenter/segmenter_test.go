package segmenter

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		s := New()
		if s.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, s.chunkSize)
		}
		if s.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, s.overlap)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		s := New(WithChunkSize(200), WithOverlap(30))
		if s.chunkSize != 200 || s.overlap != 30 {
			t.Errorf("expected 200/30, got %d/%d", s.chunkSize, s.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		s := New(WithChunkSize(100), WithOverlap(150))
		if s.overlap >= s.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		s := New(WithChunkSize(0), WithOverlap(-1))
		if s.chunkSize != DefaultChunkSize || s.overlap != DefaultOverlap {
			t.Errorf("expected defaults, got %d/%d", s.chunkSize, s.overlap)
		}
	})
}

func TestSegment_Empty(t *testing.T) {
	s := New()
	for _, input := range []string{"", "   ", "\n\t\n"} {
		if chunks := s.Segment(input); len(chunks) != 0 {
			t.Errorf("Segment(%q): expected no chunks, got %d", input, len(chunks))
		}
	}
}

func TestSegment_UnderBudget(t *testing.T) {
	s := New()
	input := "Short note about the meeting. Nothing else to add."

	chunks := s.Segment(input)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != input {
		t.Errorf("expected chunk to equal normalised input, got %q", chunks[0])
	}
}

func TestSegment_NormalisedSingleChunk(t *testing.T) {
	s := New()
	input := "Short  note\nabout the   meeting."

	chunks := s.Segment(input)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "Short note about the meeting." {
		t.Errorf("whitespace not collapsed: %q", chunks[0])
	}
}

func TestSegment_StripsSignature(t *testing.T) {
	s := New()
	input := "See you tomorrow.\n--\nAlice Smith\nVP of Everything"

	chunks := s.Segment(input)
	if len(chunks) != 1 || chunks[0] != "See you tomorrow." {
		t.Errorf("signature block not stripped: %v", chunks)
	}
}

func TestSegment_StripsQuotedReply(t *testing.T) {
	s := New()

	t.Run("attribution line", func(t *testing.T) {
		input := "Sounds good to me.\n\nOn Mon, Mar 4 at 9:00 AM Bob wrote:\n> let's meet tomorrow"
		chunks := s.Segment(input)
		if len(chunks) != 1 || chunks[0] != "Sounds good to me." {
			t.Errorf("quoted reply not stripped: %v", chunks)
		}
	})

	t.Run("nested quote markers", func(t *testing.T) {
		input := "Agreed.\n> > earlier message\n> > more context"
		chunks := s.Segment(input)
		if len(chunks) != 1 || chunks[0] != "Agreed." {
			t.Errorf("nested quotes not stripped: %v", chunks)
		}
	})
}

func TestSegment_ChunkLengthBound(t *testing.T) {
	s := New(WithChunkSize(100), WithOverlap(20))

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This sentence is about forty characters. ")
	}

	chunks := s.Segment(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if len(chunk) > 100+20 {
			t.Errorf("chunk %d exceeds budget plus overlap: %d chars", i, len(chunk))
		}
	}
}

func TestSegment_OversizedSentencePassedWhole(t *testing.T) {
	s := New(WithChunkSize(50), WithOverlap(10))
	big := "This single sentence runs well past the fifty character budget without a break."
	input := "Short lead. " + big + " Short tail."

	chunks := s.Segment(input)
	found := false
	for _, chunk := range chunks {
		if strings.Contains(chunk, big) {
			found = true
		}
	}
	if !found {
		t.Error("oversized sentence was split mid-sentence")
	}
}

func TestSegment_OverlapPrefix(t *testing.T) {
	s := New(WithChunkSize(80), WithOverlap(30))

	input := "First point here. Second point follows. Third point now. Fourth point appears. Fifth point wraps up. Sixth point ends."
	chunks := s.Segment(input)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Each chunk after the first starts with trailing sentences of its
	// predecessor, carried verbatim.
	for i := 1; i < len(chunks); i++ {
		firstSentence := chunks[i]
		if idx := strings.IndexAny(firstSentence, ".!?"); idx >= 0 {
			firstSentence = firstSentence[:idx+1]
		}
		if !strings.Contains(chunks[i-1], firstSentence) {
			t.Errorf("chunk %d does not start with overlap from chunk %d:\n%q\n%q",
				i, i-1, chunks[i], chunks[i-1])
		}
	}
}

func TestSegment_WorkedExample(t *testing.T) {
	s := New(WithChunkSize(40), WithOverlap(10))
	input := "Hello there. This is a test sentence that is somewhat short. Another short one."

	chunks := s.Segment(input)
	if len(chunks) < 3 {
		t.Fatalf("expected 3+ chunks, got %d: %v", len(chunks), chunks)
	}

	if chunks[0] != "Hello there." {
		t.Errorf("unexpected first chunk: %q", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "Hello there.") {
		t.Errorf("chunk 2 should start with overlap from chunk 1's tail: %q", chunks[1])
	}
}

func TestSegment_NoTrailingEmptyChunk(t *testing.T) {
	s := New(WithChunkSize(30), WithOverlap(5))
	chunks := s.Segment("One short sentence. Two short ones.")
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
}
