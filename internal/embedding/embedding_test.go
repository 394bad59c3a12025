package embedding

import (
	"context"
	"os"
	"testing"
)

func TestDisabledProvider(t *testing.T) {
	p := NewDisabled()
	if p.Dim() != 0 {
		t.Errorf("Dim() = %d, want 0", p.Dim())
	}
	if p.Name() != "disabled" {
		t.Errorf("Name() = %q, want disabled", p.Name())
	}
	rows, err := p.Encode(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestNewFromEnvExplicitDisabled(t *testing.T) {
	t.Setenv("RLM_EMBEDDING_PROVIDER", "disabled")
	p := NewFromEnv()
	if p.Name() != "disabled" {
		t.Errorf("expected disabled provider, got %q", p.Name())
	}
}

func TestNewFromEnvUnsetFallsBackGracefully(t *testing.T) {
	os.Unsetenv("RLM_EMBEDDING_PROVIDER")
	os.Setenv("RLM_MODEL2VEC_URL", "http://127.0.0.1:1") // guaranteed unreachable
	os.Setenv("RLM_FASTEMBED_URL", "http://127.0.0.1:1")
	defer os.Unsetenv("RLM_MODEL2VEC_URL")
	defer os.Unsetenv("RLM_FASTEMBED_URL")

	p := NewFromEnv()
	if p.Name() != "disabled" {
		t.Errorf("expected graceful degradation to disabled, got %q", p.Name())
	}
}
