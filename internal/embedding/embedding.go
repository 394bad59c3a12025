// Package embedding provides the pluggable EmbeddingProvider boundary
// (spec §4.4): a narrow interface with two interchangeable backends
// selected by environment variable, and a third "disabled" implementation
// used when no backend is reachable. Dynamic dispatch is confined to this
// boundary — no provider-specific type leaks past it.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rlm-memory/rlm-memory/internal/vectorstore"
)

// Vector is a dense embedding row, aliasing vectorstore's type so callers
// never need to convert between packages.
type Vector = vectorstore.Vector

// Provider is the EmbeddingProvider trait: encode a batch of texts into a
// matrix of equal-length vectors, report the fixed dimension, and name
// the active backend (used in status output and the vector store's
// provider-tag mismatch check).
type Provider interface {
	Encode(ctx context.Context, texts []string) ([]Vector, error)
	Dim() int
	Name() string
}

// EncodeOne is a convenience wrapper around Encode for the common
// single-text case.
func EncodeOne(ctx context.Context, p Provider, text string) (Vector, error) {
	rows, err := p.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("embedding provider returned no rows")
	}
	return rows[0], nil
}

// --- model2vec backend: a small static-embedding model, ~256 dims, sub
// 100ms cold start, served over a local HTTP sidecar. ---

type model2vecProvider struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewModel2Vec builds the primary static-embedding backend. baseURL
// defaults to a local sidecar at http://localhost:8931.
func NewModel2Vec(baseURL string) Provider {
	if baseURL == "" {
		baseURL = "http://localhost:8931"
	}
	return &model2vecProvider{baseURL: baseURL, dim: 256, client: &http.Client{Timeout: 10 * time.Second}}
}

type encodeRequest struct {
	Texts []string `json:"texts"`
}

type encodeResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

func (p *model2vecProvider) Encode(ctx context.Context, texts []string) ([]Vector, error) {
	return postEncode(ctx, p.client, p.baseURL+"/embed", texts)
}

func (p *model2vecProvider) Dim() int     { return p.dim }
func (p *model2vecProvider) Name() string { return "model2vec" }

// --- fastembed backend: a transformer-based embedder, ~384 dims,
// fallback when model2vec is unavailable. ---

type fastembedProvider struct {
	baseURL string
	dim     int
	client  *http.Client
}

// NewFastEmbed builds the fallback transformer-based backend. baseURL
// defaults to a local sidecar at http://localhost:8932.
func NewFastEmbed(baseURL string) Provider {
	if baseURL == "" {
		baseURL = "http://localhost:8932"
	}
	return &fastembedProvider{baseURL: baseURL, dim: 384, client: &http.Client{Timeout: 10 * time.Second}}
}

func (p *fastembedProvider) Encode(ctx context.Context, texts []string) ([]Vector, error) {
	return postEncode(ctx, p.client, p.baseURL+"/embed", texts)
}

func (p *fastembedProvider) Dim() int     { return p.dim }
func (p *fastembedProvider) Name() string { return "fastembed" }

func postEncode(ctx context.Context, client *http.Client, url string, texts []string) ([]Vector, error) {
	body, err := json.Marshal(encodeRequest{Texts: texts})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding provider error %d: %s", resp.StatusCode, string(b))
	}

	var result encodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	out := make([]Vector, len(result.Vectors))
	for i, v := range result.Vectors {
		out[i] = v
	}
	return out, nil
}

// --- disabled backend: the "no provider" case. Every semantic step is
// skipped and search degrades to BM25-only; this is a graceful path, not
// an error. ---

type disabledProvider struct{}

// NewDisabled returns the third concrete EmbeddingProvider implementation:
// empty matrices, dimension 0.
func NewDisabled() Provider { return disabledProvider{} }

func (disabledProvider) Encode(ctx context.Context, texts []string) ([]Vector, error) {
	return make([]Vector, len(texts)), nil
}
func (disabledProvider) Dim() int     { return 0 }
func (disabledProvider) Name() string { return "disabled" }

// NewFromEnv selects a backend from RLM_EMBEDDING_PROVIDER ∈ {model2vec,
// fastembed, disabled, unset}. Unset (or any other value) attempts model2vec first, falling back to
// fastembed, and finally disabled if neither health-checks; callers that
// want a synchronous, no-I/O construction should pass an explicit value.
func NewFromEnv() Provider {
	switch os.Getenv("RLM_EMBEDDING_PROVIDER") {
	case "model2vec":
		return NewModel2Vec(os.Getenv("RLM_MODEL2VEC_URL"))
	case "fastembed":
		return NewFastEmbed(os.Getenv("RLM_FASTEMBED_URL"))
	case "disabled":
		return NewDisabled()
	default:
		return bestAvailable()
	}
}

// bestAvailable probes model2vec then fastembed with a short timeout,
// falling back to disabled. Probing failures are expected and silent —
// this is the specified graceful-degradation path, not an error.
func bestAvailable() Provider {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	candidates := []Provider{
		NewModel2Vec(os.Getenv("RLM_MODEL2VEC_URL")),
		NewFastEmbed(os.Getenv("RLM_FASTEMBED_URL")),
	}
	for _, c := range candidates {
		if _, err := EncodeOne(ctx, c, "ping"); err == nil {
			return c
		}
	}
	return NewDisabled()
}
