package retention

import (
	"os"
	"testing"
	"time"

	"github.com/rlm-memory/rlm-memory/internal/config"
	"github.com/rlm-memory/rlm-memory/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *store.ChunkStore) {
	t.Helper()
	dir := t.TempDir()
	cs := store.NewChunkStore(store.NewLayout(dir))
	return NewManager(cs, config.Default().Retention), cs
}

func TestArchiveCandidateRequiresAgeAndZeroAccess(t *testing.T) {
	m, cs := newTestManager(t)
	res, err := cs.Create(store.CreateParams{Content: "old stuff", Project: "demo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	now := time.Now().UTC()
	preview, err := m.Preview(now)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(preview.ArchiveCandidates) != 0 {
		t.Fatalf("expected no archive candidates for fresh chunk, got %v", preview.ArchiveCandidates)
	}

	future := now.Add(40 * 24 * time.Hour)
	preview, err = m.Preview(future)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(preview.ArchiveCandidates) != 1 || preview.ArchiveCandidates[0].ID != res.Chunk.ID {
		t.Fatalf("expected chunk to be an archive candidate 40 days later, got %v", preview.ArchiveCandidates)
	}
}

func TestAccessedChunkIsImmuneFromArchiving(t *testing.T) {
	m, cs := newTestManager(t)
	res, err := cs.Create(store.CreateParams{Content: "stuff", Project: "demo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := cs.Peek(res.Chunk.ID, 0, 0, nil); err != nil {
		t.Fatalf("Peek: %v", err)
	}

	future := time.Now().UTC().Add(40 * 24 * time.Hour)
	preview, err := m.Preview(future)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(preview.ArchiveCandidates) != 0 {
		t.Fatalf("expected accessed chunk to be excluded, got %v", preview.ArchiveCandidates)
	}
}

func TestProtectedTagGrantsImmunity(t *testing.T) {
	m, cs := newTestManager(t)
	if _, err := cs.Create(store.CreateParams{Content: "stuff", Project: "demo", Tags: []string{"critical"}}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	future := time.Now().UTC().Add(40 * 24 * time.Hour)
	preview, err := m.Preview(future)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(preview.ArchiveCandidates) != 0 {
		t.Fatalf("expected protected-tag chunk to be excluded, got %v", preview.ArchiveCandidates)
	}
}

func TestProtectedKeywordGrantsImmunity(t *testing.T) {
	m, cs := newTestManager(t)
	if _, err := cs.Create(store.CreateParams{Content: "DECISION: use postgres", Project: "demo"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	future := time.Now().UTC().Add(40 * 24 * time.Hour)
	preview, err := m.Preview(future)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(preview.ArchiveCandidates) != 0 {
		t.Fatalf("expected protected-keyword chunk to be excluded, got %v", preview.ArchiveCandidates)
	}
}

// TestProtectedKeywordGrantsImmunityAccentFolded covers spec §4.9's
// "ASCII-folded, uppercased" keyword match: accented French content must
// still trip the unaccented "A RETENIR:" keyword.
func TestProtectedKeywordGrantsImmunityAccentFolded(t *testing.T) {
	m, cs := newTestManager(t)
	if _, err := cs.Create(store.CreateParams{Content: "À RETENIR: garder ce contexte", Project: "demo"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	future := time.Now().UTC().Add(40 * 24 * time.Hour)
	preview, err := m.Preview(future)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(preview.ArchiveCandidates) != 0 {
		t.Fatalf("expected accented protected-keyword chunk to be excluded, got %v", preview.ArchiveCandidates)
	}
}

func TestRunArchivesAndRestoreRoundTrips(t *testing.T) {
	m, cs := newTestManager(t)
	res, err := cs.Create(store.CreateParams{Content: "archive me please", Project: "demo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	future := time.Now().UTC().Add(40 * 24 * time.Hour)
	result, err := m.Run(true, false, future)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Archived != 1 {
		t.Fatalf("expected 1 archived, got %d (errors: %v)", result.Archived, result.Errors)
	}

	if _, err := os.Stat(cs.Layout().ChunkPath(res.Chunk.ID)); !os.IsNotExist(err) {
		t.Fatalf("expected original chunk file removed")
	}
	if _, err := os.Stat(cs.Layout().ArchivePath(res.Chunk.ID)); err != nil {
		t.Fatalf("expected archived .gz file to exist: %v", err)
	}

	if err := m.Restore(res.Chunk.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	body, _, err := cs.Peek(res.Chunk.ID, 0, 0, nil)
	if err != nil {
		t.Fatalf("Peek after restore: %v", err)
	}
	if body != "archive me please" {
		t.Errorf("got %q after restore", body)
	}
}

func TestPeekAutoRestoresArchivedChunk(t *testing.T) {
	m, cs := newTestManager(t)
	res, err := cs.Create(store.CreateParams{Content: "needs auto restore", Project: "demo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	future := time.Now().UTC().Add(40 * 24 * time.Hour)
	if _, err := m.Run(true, false, future); err != nil {
		t.Fatalf("Run: %v", err)
	}

	body, _, err := cs.Peek(res.Chunk.ID, 0, 0, m.Restore)
	if err != nil {
		t.Fatalf("Peek with auto-restore: %v", err)
	}
	if body != "needs auto restore" {
		t.Errorf("got %q", body)
	}
}
