package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitSmallDocumentSingleChunk(t *testing.T) {
	text := "This is a short document that easily fits inside one chunk."

	chunks, err := Split(text, nil, 500, 50, StrategyRecursive)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(chunks))
	}
	if chunks[0].Content != text {
		t.Errorf("content = %q, want %q", chunks[0].Content, text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("index = %d, want 0", chunks[0].Index)
	}
}

func TestSplitCleansWhitespace(t *testing.T) {
	text := "First paragraph with    extra spaces here.\n\n\n\n\nSecond paragraph after too many blank lines."

	chunks, err := Split(text, nil, 500, 50, StrategyRecursive)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(chunks))
	}
	want := "First paragraph with extra spaces here.\n\nSecond paragraph after too many blank lines."
	if chunks[0].Content != want {
		t.Errorf("content = %q, want %q", chunks[0].Content, want)
	}
}

func TestSplitDiscardsShortFragmentsAndReindexes(t *testing.T) {
	// Paragraph two is under 20 characters and must be dropped; the retained
	// chunks are re-indexed contiguously.
	long1 := strings.Repeat("alpha beta gamma delta. ", 4)
	long2 := strings.Repeat("epsilon zeta eta theta. ", 4)
	text := long1 + "\n\n" + "tiny bit" + "\n\n" + long2

	chunks, err := Split(text, nil, 100, 0, StrategyRecursive)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}

	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d, want %d", i, c.Index, i)
		}
		if utf8.RuneCountInString(c.Content) < 20 {
			t.Errorf("chunk %d is %d chars, want >= 20", i, utf8.RuneCountInString(c.Content))
		}
	}
}

func TestSplitProperties(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)

	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		strategy  Strategy
	}{
		{"recursive small", 40, 10, StrategyRecursive},
		{"recursive medium", 200, 40, StrategyRecursive},
		{"recursive large", 1000, 200, StrategyRecursive},
		{"markdown", 200, 40, StrategyMarkdown},
		{"token", 50, 10, StrategyToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Split(text, nil, tt.chunkSize, tt.overlap, tt.strategy)
			if err != nil {
				t.Fatalf("Split returned error: %v", err)
			}
			if len(chunks) == 0 {
				t.Fatal("no chunks returned")
			}
			for i, c := range chunks {
				if c.Index != i {
					t.Errorf("chunk %d has index %d, want contiguous from 0", i, c.Index)
				}
				if utf8.RuneCountInString(c.Content) < 20 {
					t.Errorf("chunk %d is %d chars, want >= 20", i, utf8.RuneCountInString(c.Content))
				}
			}
		})
	}
}

func TestSplitMetadataAndTokenCount(t *testing.T) {
	text := "A reasonably sized paragraph used to check metadata handling."

	chunks, err := Split(text, map[string]interface{}{"source": "unit"}, 500, 0, StrategyRecursive)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(chunks))
	}

	c := chunks[0]
	if c.Metadata["source"] != "unit" {
		t.Errorf("caller metadata not preserved: %v", c.Metadata)
	}
	if c.Metadata["strategy"] != "recursive" {
		t.Errorf("strategy = %v, want recursive", c.Metadata["strategy"])
	}
	charCount := utf8.RuneCountInString(c.Content)
	if c.Metadata["char_count"] != charCount {
		t.Errorf("char_count = %v, want %d", c.Metadata["char_count"], charCount)
	}
	wantTokens := (charCount + 3) / 4
	if c.TokenCount != wantTokens {
		t.Errorf("TokenCount = %d, want %d", c.TokenCount, wantTokens)
	}
}

func TestSplitMarkdownPrefersHeadingBoundaries(t *testing.T) {
	section := strings.Repeat("Body text for this section goes on for a while. ", 5)
	text := "# Title\n" + section + "\n## Second\n" + section

	chunks, err := Split(text, nil, 260, 0, StrategyMarkdown)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("chunk count = %d, want >= 2", len(chunks))
	}
}

func TestSplitUnknownStrategy(t *testing.T) {
	if _, err := Split("some text", nil, 100, 10, Strategy("semantic")); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestSplitOutputOrderMatchesInput(t *testing.T) {
	text := "first segment of the document here.\n\nsecond segment of the document here.\n\nthird segment of the document here."

	chunks, err := Split(text, nil, 40, 0, StrategyRecursive)
	if err != nil {
		t.Fatalf("Split returned error: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("chunk count = %d, want >= 3", len(chunks))
	}
	if !strings.Contains(chunks[0].Content, "first") {
		t.Errorf("chunk 0 = %q, want the first segment", chunks[0].Content)
	}
	if !strings.Contains(chunks[len(chunks)-1].Content, "third") {
		t.Errorf("last chunk = %q, want the third segment", chunks[len(chunks)-1].Content)
	}
}
