// Package navigation implements C9's regex and fuzzy line search over the
// active chunk corpus. The list_chunks projection is not here: the engine
// serves it straight from the store package.
package navigation

import (
	"regexp"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/rlm-memory/rlm-memory/internal/model"
	"github.com/rlm-memory/rlm-memory/internal/rlmerr"
)

// Filters narrows the chunk set grep/grep_fuzzy scan, mirroring the
// project/domain filters search.Filters applies to its own corpus.
type Filters struct {
	Project string
	Domain  string
}

// Match is one grep/grep_fuzzy hit.
type Match struct {
	ChunkID string  `json:"chunk_id"`
	Line    int     `json:"line_number"`
	Text    string  `json:"text"`
	Score   float64 `json:"score,omitempty"`
}

// ChunkBody supplies a chunk's content alongside its ID, so callers can
// batch-read bodies (e.g. via store.ChunkStore.ReadBody) ahead of a scan.
type ChunkBody struct {
	Chunk   model.Chunk
	Content string
}

// Grep compiles pattern once (case-insensitive) and scans chunks in the
// order given, returning matches capped at limit.
func Grep(pattern string, bodies []ChunkBody, limit int) ([]Match, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, rlmerr.Wrap(rlmerr.KindInvalidPattern, "invalid grep pattern", err)
	}

	var out []Match
	for _, b := range bodies {
		for i, line := range strings.Split(b.Content, "\n") {
			if re.MatchString(line) {
				out = append(out, Match{ChunkID: b.Chunk.ID, Line: i + 1, Text: line})
				if limit > 0 && len(out) >= limit {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// fuzzyScale converts sahilm/fuzzy's unbounded match score into an
// approximate 0-100 partial-ratio, scaled by pattern length since that
// library's score grows with matched-character count and consecutive-run
// bonuses rather than being pre-normalized.
func fuzzyScale(rawScore, patternLen int) float64 {
	if patternLen == 0 {
		return 0
	}
	scaled := float64(rawScore) / float64(patternLen*6) * 100
	if scaled > 100 {
		scaled = 100
	}
	if scaled < 0 {
		scaled = 0
	}
	return scaled
}

// GrepFuzzy scores every line of every chunk with a partial-ratio-style
// similarity via sahilm/fuzzy and returns matches at or above threshold,
// sorted by score desc.
func GrepFuzzy(pattern string, threshold float64, bodies []ChunkBody, limit int) []Match {
	type candidate struct {
		chunkID string
		line    int
		text    string
	}
	var lines []string
	var meta []candidate
	for _, b := range bodies {
		for i, line := range strings.Split(b.Content, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			lines = append(lines, line)
			meta = append(meta, candidate{chunkID: b.Chunk.ID, line: i + 1, text: line})
		}
	}
	if len(lines) == 0 {
		return []Match{}
	}

	found := fuzzy.Find(pattern, lines)
	out := make([]Match, 0, len(found))
	for _, m := range found {
		score := fuzzyScale(m.Score, len(pattern))
		if score < threshold {
			continue
		}
		c := meta[m.Index]
		out = append(out, Match{ChunkID: c.chunkID, Line: c.line, Text: c.text, Score: score})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
