package engine

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rlm-memory/rlm-memory/internal/insight"
	"github.com/rlm-memory/rlm-memory/internal/navigation"
	"github.com/rlm-memory/rlm-memory/internal/search"
	"github.com/rlm-memory/rlm-memory/internal/store"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	t.Setenv("RLM_EMBEDDING_PROVIDER", "disabled")
	dir := t.TempDir()
	e, err := New(dir, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestCreateChunkRegistersSessionAndIsPeekable(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.CreateChunk(context.Background(), store.CreateParams{Content: "hello world", Project: "demo", Domain: "backend"})
	if err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}

	body, _, err := e.Peek(res.Chunk.ID, 0, 0)
	if err != nil {
		t.Fatalf("Peek: %v", err)
	}
	if body != "hello world" {
		t.Errorf("got %q", body)
	}

	sessions, err := e.Sessions("demo", "", 0)
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if len(sessions[0].ChunkIDs) != 1 || sessions[0].ChunkIDs[0] != res.Chunk.ID {
		t.Errorf("expected session to list the new chunk, got %v", sessions[0].ChunkIDs)
	}
}

func TestSearchFindsCreatedChunk(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.CreateChunk(context.Background(), store.CreateParams{Content: "grpc transport redesign notes", Summary: "grpc transport redesign", Project: "demo"}); err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}

	results, err := e.Search(context.Background(), "grpc transport", 10, search.Filters{}, true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %v", results)
	}
}

func TestRememberRecallForget(t *testing.T) {
	e := newTestEngine(t)
	ins, err := e.Remember("decided to use postgres", "decision", "high", nil)
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}

	got, err := e.Recall(insight.RecallParams{Query: "postgres"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(got) != 1 || got[0].ID != ins.ID {
		t.Fatalf("expected recall to find it, got %v", got)
	}

	if err := e.Forget(ins.ID); err != nil {
		t.Fatalf("Forget: %v", err)
	}
}

func TestGrepFindsLineInCreatedChunk(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.CreateChunk(context.Background(), store.CreateParams{Content: "line one\nneedle here\nline three", Project: "demo"}); err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}

	matches, err := e.Grep("needle", navigation.Filters{Project: "demo"}, 10)
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %v", matches)
	}
}

func TestStatusReportsCounts(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.CreateChunk(context.Background(), store.CreateParams{Content: "stuff", Project: "demo"}); err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}
	if _, err := e.Remember("note", "general", "low", nil); err != nil {
		t.Fatalf("Remember: %v", err)
	}

	status, err := e.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.ChunkCount != 1 || status.InsightCount != 1 {
		t.Errorf("unexpected status: %+v", status)
	}
	if status.ProviderAvailable {
		t.Errorf("expected provider disabled in test env")
	}
}

func TestRetentionPreviewAndRun(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.CreateChunk(context.Background(), store.CreateParams{Content: "stuff", Project: "demo"}); err != nil {
		t.Fatalf("CreateChunk: %v", err)
	}

	preview, err := e.RetentionPreview()
	if err != nil {
		t.Fatalf("RetentionPreview: %v", err)
	}
	if len(preview.ArchiveCandidates) != 0 {
		t.Errorf("expected no archive candidates for a fresh chunk, got %v", preview.ArchiveCandidates)
	}

	result, err := e.RetentionRun(true, false)
	if err != nil {
		t.Fatalf("RetentionRun: %v", err)
	}
	if result.Archived != 0 {
		t.Errorf("expected nothing archived yet, got %d", result.Archived)
	}
}
