package navigation

import (
	"testing"

	"github.com/rlm-memory/rlm-memory/internal/model"
	"github.com/rlm-memory/rlm-memory/internal/rlmerr"
)

func TestGrepFindsMatchesAcrossChunks(t *testing.T) {
	bodies := []ChunkBody{
		{Chunk: model.Chunk{ID: "c1"}, Content: "line one\nfind me here\nline three"},
		{Chunk: model.Chunk{ID: "c2"}, Content: "nothing interesting"},
	}
	matches, err := Grep("find me", bodies, 10)
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(matches) != 1 || matches[0].ChunkID != "c1" || matches[0].Line != 2 {
		t.Fatalf("unexpected matches: %v", matches)
	}
}

func TestGrepCaseInsensitive(t *testing.T) {
	bodies := []ChunkBody{{Chunk: model.Chunk{ID: "c1"}, Content: "Hello World"}}
	matches, err := Grep("hello world", bodies, 10)
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected case-insensitive match, got %v", matches)
	}
}

func TestGrepInvalidPatternReturnsInvalidPattern(t *testing.T) {
	_, err := Grep("(unclosed", nil, 10)
	if !rlmerr.Is(err, rlmerr.KindInvalidPattern) {
		t.Errorf("expected InvalidPattern, got %v", err)
	}
}

func TestGrepRespectsLimit(t *testing.T) {
	bodies := []ChunkBody{{Chunk: model.Chunk{ID: "c1"}, Content: "x\nx\nx\nx"}}
	matches, err := Grep("x", bodies, 2)
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected limit=2 matches, got %d", len(matches))
	}
}

func TestGrepFuzzyFindsApproximateMatch(t *testing.T) {
	bodies := []ChunkBody{
		{Chunk: model.Chunk{ID: "c1"}, Content: "database migration completed successfully"},
		{Chunk: model.Chunk{ID: "c2"}, Content: "totally unrelated text"},
	}
	matches := GrepFuzzy("migraton", 10, bodies, 10)
	found := false
	for _, m := range matches {
		if m.ChunkID == "c1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fuzzy match against c1, got %v", matches)
	}
}

func TestGrepFuzzyThresholdFiltersLowScores(t *testing.T) {
	bodies := []ChunkBody{{Chunk: model.Chunk{ID: "c1"}, Content: "completely different content"}}
	matches := GrepFuzzy("zzz", 99, bodies, 10)
	if len(matches) != 0 {
		t.Errorf("expected no matches above high threshold, got %v", matches)
	}
}
