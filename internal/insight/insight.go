// Package insight implements C7: the small structured-memo store kept
// entirely inside session_memory.json (no per-insight files).
package insight

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rlm-memory/rlm-memory/internal/model"
	"github.com/rlm-memory/rlm-memory/internal/pathsafe"
	"github.com/rlm-memory/rlm-memory/internal/rlmerr"
	"github.com/rlm-memory/rlm-memory/internal/tokenizer"
)

type memoryFile struct {
	Version     string          `json:"version"`
	CreatedAt   string          `json:"created_at"`
	LastUpdated string          `json:"last_updated"`
	Insights    []model.Insight `json:"insights"`
}

// Store manages session_memory.json.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Remember validates category/importance, assigns a fresh UUID and
// created_at, and appends the insight.
func (s *Store) Remember(content, category, importance string, tags []string) (model.Insight, error) {
	if !model.ValidCategories[category] {
		return model.Insight{}, rlmerr.New(rlmerr.KindInvalidPattern, "invalid insight category: "+category)
	}
	if !model.ValidImportance[importance] {
		return model.Insight{}, rlmerr.New(rlmerr.KindInvalidPattern, "invalid insight importance: "+importance)
	}

	ins := model.Insight{
		ID:         uuid.NewString(),
		Content:    content,
		Category:   category,
		Importance: importance,
		Tags:       normalizeTags(tags),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	err := pathsafe.WithExclusiveLock(s.path, func() error {
		mem, err := s.load()
		if err != nil {
			return err
		}
		mem.Insights = append(mem.Insights, ins)
		return s.save(mem)
	})
	if err != nil {
		return model.Insight{}, err
	}
	return ins, nil
}

// RecallParams filters Recall's output.
type RecallParams struct {
	Query      string
	Category   string
	Importance string
	Limit      int
}

type scoredInsight struct {
	insight model.Insight
	score   float64
}

// Recall ranks insights by tokenized-query overlap when a query is given,
// falls back to substring match for stopword-only/empty queries, and
// otherwise returns insights sorted by created_at desc.
func (s *Store) Recall(p RecallParams) ([]model.Insight, error) {
	mem, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]model.Insight, 0, len(mem.Insights))
	for _, ins := range mem.Insights {
		if p.Category != "" && ins.Category != p.Category {
			continue
		}
		if p.Importance != "" && ins.Importance != p.Importance {
			continue
		}
		out = append(out, ins)
	}

	queryTokens := tokenizer.Tokenize(p.Query, true)

	switch {
	case strings.TrimSpace(p.Query) == "":
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	case len(queryTokens) == 0:
		// Query was non-empty but entirely stopwords: substring fallback.
		needle := strings.ToLower(strings.TrimSpace(p.Query))
		filtered := out[:0]
		for _, ins := range out {
			if strings.Contains(strings.ToLower(ins.Content), needle) {
				filtered = append(filtered, ins)
			}
		}
		out = filtered
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	default:
		scored := make([]scoredInsight, 0, len(out))
		for _, ins := range out {
			contentTokens := tokenizer.Tokenize(ins.Content, true)
			ratio := overlapRatio(queryTokens, contentTokens)
			if ratio > 0 {
				scored = append(scored, scoredInsight{insight: ins, score: ratio})
			}
		}
		sort.Slice(scored, func(i, j int) bool {
			if scored[i].score != scored[j].score {
				return scored[i].score > scored[j].score
			}
			return scored[i].insight.CreatedAt > scored[j].insight.CreatedAt
		})
		out = out[:0]
		for _, si := range scored {
			out = append(out, si.insight)
		}
	}

	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

// overlapRatio is the fraction of queryTokens present (by set membership)
// in contentTokens.
func overlapRatio(queryTokens, contentTokens []string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	contentSet := make(map[string]bool, len(contentTokens))
	for _, t := range contentTokens {
		contentSet[t] = true
	}
	hits := 0
	for _, t := range queryTokens {
		if contentSet[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

// Forget removes an insight by ID.
func (s *Store) Forget(id string) error {
	return pathsafe.WithExclusiveLock(s.path, func() error {
		mem, err := s.load()
		if err != nil {
			return err
		}
		idx := -1
		for i, ins := range mem.Insights {
			if ins.ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return rlmerr.ErrNotFound
		}
		mem.Insights = append(mem.Insights[:idx], mem.Insights[idx+1:]...)
		return s.save(mem)
	})
}

// All returns every insight, unsorted, for the search engine's corpus.
func (s *Store) All() ([]model.Insight, error) {
	mem, err := s.load()
	if err != nil {
		return nil, err
	}
	return mem.Insights, nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		lt := strings.ToLower(strings.TrimSpace(t))
		if lt == "" || seen[lt] {
			continue
		}
		seen[lt] = true
		out = append(out, lt)
	}
	return out
}

func (s *Store) load() (memoryFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			now := time.Now().UTC().Format(time.RFC3339)
			return memoryFile{Version: "1.0.0", CreatedAt: now, LastUpdated: now, Insights: []model.Insight{}}, nil
		}
		return memoryFile{}, err
	}
	var mem memoryFile
	if err := json.Unmarshal(data, &mem); err != nil {
		return memoryFile{}, err
	}
	if mem.Insights == nil {
		mem.Insights = []model.Insight{}
	}
	return mem, nil
}

func (s *Store) save(mem memoryFile) error {
	if mem.CreatedAt == "" {
		mem.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	mem.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(mem, "", "  ")
	if err != nil {
		return err
	}
	return pathsafe.AtomicWrite(s.path, data)
}
