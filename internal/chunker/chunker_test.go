package chunker

import (
	"strings"
	"testing"
)

func TestEmbeddingBlocks_EmptyInput(t *testing.T) {
	result := EmbeddingBlocks("", DefaultOptions())
	if result != nil {
		t.Errorf("expected nil, got %v", result)
	}
}

func TestEmbeddingBlocks_ShortBodyIsOneBlock(t *testing.T) {
	text := "This is a short chunk body."
	result := EmbeddingBlocks(text, DefaultOptions())
	if len(result) != 1 {
		t.Fatalf("expected 1 block, got %d", len(result))
	}
	if result[0].Text != text {
		t.Errorf("expected %q, got %q", text, result[0].Text)
	}
	if result[0].StartLine != 1 {
		t.Errorf("expected StartLine 1, got %d", result[0].StartLine)
	}
}

func TestEmbeddingBlocks_SplitsOnHeadings(t *testing.T) {
	// Each section needs to be long enough that total exceeds MaxSize
	section := strings.Repeat("Some content filling space. ", 12) // ~336 chars
	text := "# Section One\n\n" + section + "\n\n# Section Two\n\n" + section + "\n\n# Section Three\n\n" + section

	result := EmbeddingBlocks(text, DefaultOptions())
	if len(result) < 2 {
		t.Fatalf("expected at least 2 blocks, got %d", len(result))
	}

	// First block should contain "Section One"
	if !strings.Contains(result[0].Text, "Section One") {
		t.Errorf("first block should contain 'Section One', got %q", result[0].Text)
	}
}

func TestEmbeddingBlocks_RespectsMaxSize(t *testing.T) {
	opts := Options{TargetSize: 200, MinSize: 50, MaxSize: 300}
	// Generate text >300 chars with line breaks
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "This is a line of text that is about fifty characters long.")
	}
	text := strings.Join(lines, "\n") // ~1200 chars
	result := EmbeddingBlocks(text, opts)
	if len(result) < 2 {
		t.Fatalf("expected at least 2 blocks, got %d", len(result))
	}
}

func TestEmbeddingBlocks_MergesSmallBlocks(t *testing.T) {
	text := `# A

Short.

# B

Also short.`

	opts := Options{TargetSize: 400, MinSize: 100, MaxSize: 600}
	result := EmbeddingBlocks(text, opts)
	// The whole thing is under MaxSize, so should be 1 block
	if len(result) != 1 {
		t.Errorf("expected 1 merged block, got %d", len(result))
	}
}

func TestEmbeddingBlocks_DoubleNewlineSplit(t *testing.T) {
	// Build paragraphs that together exceed MaxSize
	para := strings.Repeat("This is a sentence. ", 15) // ~300 chars each
	text := para + "\n\n" + para + "\n\n" + para

	opts := Options{TargetSize: 400, MinSize: 100, MaxSize: 500}
	result := EmbeddingBlocks(text, opts)
	if len(result) < 2 {
		t.Fatalf("expected at least 2 blocks from paragraph splits, got %d", len(result))
	}
}

// TestEmbeddingBlocks_FeedsMeanPool is a thin reminder that this package's
// sole caller (engine.embedBody) relies on every returned block's Text
// being independently embeddable — no block should be empty.
func TestEmbeddingBlocks_FeedsMeanPool(t *testing.T) {
	para := strings.Repeat("Long conversation content. ", 20)
	text := para + "\n\n" + para + "\n\n" + para
	opts := Options{TargetSize: 300, MinSize: 50, MaxSize: 400}

	result := EmbeddingBlocks(text, opts)
	if len(result) < 2 {
		t.Fatalf("expected a multi-block split, got %d", len(result))
	}
	for i, b := range result {
		if strings.TrimSpace(b.Text) == "" {
			t.Errorf("block %d has empty text", i)
		}
	}
}
