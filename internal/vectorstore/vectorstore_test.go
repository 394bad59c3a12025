package vectorstore

import (
	"math"
	"path/filepath"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b Vector
		want float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1},
		{"orthogonal", Vector{1, 0}, Vector{0, 1}, 0},
		{"opposite", Vector{1, 0}, Vector{-1, 0}, -1},
		{"zero vector", Vector{0, 0}, Vector{1, 1}, 0},
		{"mismatched lengths", Vector{1, 2}, Vector{1, 2, 3}, 0},
	}
	for _, c := range cases {
		got := CosineSimilarity(c.a, c.b)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: got %v want %v", c.name, got, c.want)
		}
	}
}

func TestStoreAddGetPersist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.json")

	s, err := Open(path, "model2vec", 3)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Add("chunk-1", Vector{1, 0, 0}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add("chunk-2", Vector{0, 1, 0}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	v, ok := s.Get("chunk-1")
	if !ok || v[0] != 1 {
		t.Fatalf("Get(chunk-1) = %v, %v", v, ok)
	}

	reopened, err := Open(path, "model2vec", 3)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 2 {
		t.Fatalf("reopened Len = %d, want 2", reopened.Len())
	}
}

func TestStoreRebuildsEmptyOnProviderMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.json")

	s, _ := Open(path, "model2vec", 3)
	_ = s.Add("chunk-1", Vector{1, 0, 0})

	reopened, err := Open(path, "fastembed", 384)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Len() != 0 {
		t.Fatalf("expected empty store on provider/dim mismatch, got Len=%d", reopened.Len())
	}
}

func TestCosineAll(t *testing.T) {
	dir := t.TempDir()
	s, _ := Open(filepath.Join(dir, "e.json"), "model2vec", 2)
	_ = s.Add("a", Vector{1, 0})
	_ = s.Add("b", Vector{0, 1})

	scores := s.CosineAll(Vector{1, 0})
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	for _, sc := range scores {
		if sc.ID == "a" && math.Abs(sc.Score-1) > 1e-9 {
			t.Errorf("expected score 1 for a, got %v", sc.Score)
		}
		if sc.ID == "b" && math.Abs(sc.Score-0) > 1e-9 {
			t.Errorf("expected score 0 for b, got %v", sc.Score)
		}
	}
}
