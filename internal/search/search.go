// Package search implements C8: a BM25 index built lazily over chunks and
// insights, optionally fused with cosine similarity from an embedding
// provider and vector store, per spec §4.8.
package search

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rlm-memory/rlm-memory/internal/embedding"
	"github.com/rlm-memory/rlm-memory/internal/model"
	"github.com/rlm-memory/rlm-memory/internal/tokenizer"
	"github.com/rlm-memory/rlm-memory/internal/vectorstore"
)

// DocKind distinguishes the two corpus sources.
type DocKind string

const (
	KindChunk   DocKind = "chunk"
	KindInsight DocKind = "insight"
)

// doc is one corpus entry: a tokenized document plus the metadata the
// filter pipeline and result formatting need.
type doc struct {
	id       string
	kind     DocKind
	tokens   []string
	preview  string
	project  string
	domain   string
	created  string
	entities model.Entities
}

// Result is one ranked search hit.
type Result struct {
	ID      string  `json:"id"`
	Type    DocKind `json:"type"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
}

// Filters narrows the corpus before scoring is finalized.
type Filters struct {
	Project  string
	Domain   string
	DateFrom string
	DateTo   string
	Entity   string
}

// Engine answers search(); it is stateless across calls — the corpus is
// rebuilt from the current chunk and insight snapshots every time, which
// keeps it always consistent with concurrent writers at the cost of
// redoing BM25's term-frequency pass per query. Given the corpus sizes
// this system targets (thousands of documents), that cost is negligible.
type Engine struct {
	k1    float64
	b     float64
	alpha float64
}

func NewEngine(k1, b, alpha float64) *Engine {
	return &Engine{k1: k1, b: b, alpha: alpha}
}

// Query runs the full search pipeline described in spec §4.8.
func (e *Engine) Query(
	ctx context.Context,
	query string,
	limit int,
	filters Filters,
	includeInsights bool,
	chunks []model.Chunk,
	bodies map[string]string,
	insights []model.Insight,
	provider embedding.Provider,
	vstore *vectorstore.Store,
) ([]Result, error) {
	// A blank query with no filters returns no results.
	if strings.TrimSpace(query) == "" && filters == (Filters{}) {
		return []Result{}, nil
	}

	docs := buildCorpus(chunks, bodies, insights, includeInsights)
	if len(docs) == 0 {
		return []Result{}, nil
	}

	queryTokens := tokenizer.Tokenize(query, true)
	bm25Raw := computeBM25(docs, queryTokens, e.k1, e.b)
	bm25Norm := minMaxNormalize(bm25Raw)

	cosine := make([]float64, len(docs))
	if provider != nil && provider.Dim() > 0 && vstore != nil && vstore.Len() > 0 {
		qv, err := embedding.EncodeOne(ctx, provider, query)
		if err == nil && len(qv) > 0 {
			scoredByID := make(map[string]float64, vstore.Len())
			for _, sid := range vstore.CosineAll(qv) {
				scoredByID[sid.ID] = clamp01(sid.Score)
			}
			for i, d := range docs {
				cosine[i] = scoredByID[d.id]
			}
		}
	}

	final := make([]float64, len(docs))
	for i := range docs {
		final[i] = e.alpha*cosine[i] + (1-e.alpha)*bm25Norm[i]
	}

	results := make([]Result, 0, len(docs))
	for i, d := range docs {
		if !passesFilters(d, filters) {
			continue
		}
		results = append(results, Result{ID: d.id, Type: d.kind, Score: final[i], Preview: d.preview})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if limit <= 0 {
		limit = 10
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func buildCorpus(chunks []model.Chunk, bodies map[string]string, insights []model.Insight, includeInsights bool) []doc {
	docs := make([]doc, 0, len(chunks)+len(insights))
	for _, c := range chunks {
		// spec §4.8 step 1: summary + tags + project + domain + content,
		// so a query term that only occurs in a chunk's body still ranks it.
		text := strings.Join([]string{c.Summary, strings.Join(c.Tags, " "), c.Project, c.Domain, bodies[c.ID]}, " ")
		docs = append(docs, doc{
			id:       c.ID,
			kind:     KindChunk,
			tokens:   tokenizer.Tokenize(text, true),
			preview:  c.Summary,
			project:  c.Project,
			domain:   c.Domain,
			created:  createdDate(c),
			entities: c.Entities,
		})
	}
	if includeInsights {
		for _, ins := range insights {
			docs = append(docs, doc{
				id:      ins.ID,
				kind:    KindInsight,
				tokens:  tokenizer.Tokenize(ins.Content, true),
				preview: preview(ins.Content, 120),
				created: ins.CreatedAt,
			})
		}
	}
	return docs
}

// createdDate extracts the leading date from a legacy chunk's ID when
// created_at is absent.
func createdDate(c model.Chunk) string {
	if c.CreatedAt != "" {
		return c.CreatedAt
	}
	parts := strings.SplitN(c.ID, "_", 2)
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// computeBM25 scores every document against queryTokens using Okapi BM25.
func computeBM25(docs []doc, queryTokens []string, k1, b float64) []float64 {
	scores := make([]float64, len(docs))
	if len(queryTokens) == 0 {
		return scores
	}

	n := len(docs)
	avgLen := 0.0
	for _, d := range docs {
		avgLen += float64(len(d.tokens))
	}
	if n > 0 {
		avgLen /= float64(n)
	}

	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]bool)
		for _, t := range d.tokens {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	idf := make(map[string]float64, len(queryTokens))
	for _, qt := range queryTokens {
		nq := df[qt]
		idf[qt] = math.Log(1 + (float64(n)-float64(nq)+0.5)/(float64(nq)+0.5))
	}

	for i, d := range docs {
		tf := make(map[string]int)
		for _, t := range d.tokens {
			tf[t]++
		}
		dl := float64(len(d.tokens))
		var score float64
		for _, qt := range queryTokens {
			f := float64(tf[qt])
			if f == 0 {
				continue
			}
			denom := f + k1*(1-b+b*dl/maxFloat(avgLen, 1))
			score += idf[qt] * (f * (k1 + 1) / denom)
		}
		scores[i] = score
	}
	return scores
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// minMaxNormalize scales scores into [0, 1] over the current result set.
// A constant-but-nonzero score set (every document matched equally, or
// there is a single document) normalizes to all ones, per spec scenario
// 1's "rank 1 and BM25-normalized score 1.0" for a single matching chunk
// — there is nothing to distinguish the top score from, so it stays the
// maximum rather than collapsing to zero. An all-zero set (no query term
// matched anything) still normalizes to all zeros.
func minMaxNormalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}
	min, max := scores[0], scores[0]
	for _, s := range scores {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	if max == min {
		if max > 0 {
			for i := range out {
				out[i] = 1
			}
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - min) / (max - min)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func passesFilters(d doc, f Filters) bool {
	if f.Project != "" && d.project != f.Project {
		return false
	}
	if f.Domain != "" && d.domain != f.Domain {
		return false
	}
	// Dates compare on their YYYY-MM-DD prefix, so date_to includes the
	// whole of that day.
	created := d.created
	if len(created) > 10 {
		created = created[:10]
	}
	if f.DateFrom != "" && created < f.DateFrom {
		return false
	}
	if f.DateTo != "" && created > f.DateTo {
		return false
	}
	if f.Entity != "" && !entityMatch(d.entities, f.Entity) {
		return false
	}
	return true
}

func entityMatch(e model.Entities, needle string) bool {
	needle = strings.ToLower(needle)
	for _, group := range [][]string{e.Files, e.Versions, e.Modules, e.Tickets, e.Functions} {
		for _, v := range group {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
	}
	return false
}
