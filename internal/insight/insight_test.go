package insight

import (
	"path/filepath"
	"testing"

	"github.com/rlm-memory/rlm-memory/internal/rlmerr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(filepath.Join(dir, "session_memory.json"))
}

func TestRememberValidatesEnums(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Remember("note", "bogus-category", "high", nil); !rlmerr.Is(err, rlmerr.KindInvalidPattern) {
		t.Errorf("expected InvalidPattern for bad category, got %v", err)
	}
	if _, err := s.Remember("note", "decision", "bogus-importance", nil); !rlmerr.Is(err, rlmerr.KindInvalidPattern) {
		t.Errorf("expected InvalidPattern for bad importance, got %v", err)
	}
}

func TestRememberAssignsIDAndRecallReturnsIt(t *testing.T) {
	s := newTestStore(t)
	ins, err := s.Remember("we decided to use postgres", "decision", "high", []string{"DB"})
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if ins.ID == "" {
		t.Fatalf("expected non-empty id")
	}
	if len(ins.Tags) != 1 || ins.Tags[0] != "db" {
		t.Errorf("expected normalized tag, got %v", ins.Tags)
	}

	got, err := s.Recall(RecallParams{})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(got) != 1 || got[0].ID != ins.ID {
		t.Fatalf("expected recalled insight to match, got %v", got)
	}
}

func TestRecallRanksByTokenOverlap(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.Remember("the api redesign uses grpc for transport", "finding", "medium", nil)
	_, _ = s.Remember("unrelated note about lunch", "general", "low", nil)

	got, err := s.Recall(RecallParams{Query: "grpc transport"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 match, got %d: %v", len(got), got)
	}
}

func TestRecallStopwordOnlyFallsBackToSubstring(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.Remember("the quick brown fox", "general", "low", nil)

	got, err := s.Recall(RecallParams{Query: "the"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected substring fallback to match, got %v", got)
	}
}

func TestForgetRemovesInsight(t *testing.T) {
	s := newTestStore(t)
	ins, _ := s.Remember("temp note", "general", "low", nil)

	if err := s.Forget(ins.ID); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	got, _ := s.Recall(RecallParams{})
	if len(got) != 0 {
		t.Fatalf("expected no insights left, got %v", got)
	}
}

func TestForgetUnknownIDReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.Forget("nonexistent"); !rlmerr.Is(err, rlmerr.KindNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}
