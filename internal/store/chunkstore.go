package store

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rlm-memory/rlm-memory/internal/model"
	"github.com/rlm-memory/rlm-memory/internal/pathsafe"
	"github.com/rlm-memory/rlm-memory/internal/rlmerr"
)

const maxChunkContentSize = 2 * 1024 * 1024 // 2 MiB

// ChunkStore implements C5's public contract over a Layout.
type ChunkStore struct {
	layout Layout
	cache  *lru.Cache[string, parsedChunk]
}

func NewChunkStore(layout Layout) *ChunkStore {
	return &ChunkStore{layout: layout, cache: newFrontmatterCache()}
}

// CreateParams carries the optional inputs to Create.
type CreateParams struct {
	Content string
	Summary string
	Tags    []string
	Project string
	Ticket  string
	Domain  string
}

// CreateResult mirrors spec §4.5's chunk() output contract.
type CreateResult struct {
	Chunk     model.Chunk
	Duplicate bool
}

// Create validates, deduplicates, generates an ID, writes the chunk file
// atomically, and updates index.json under its exclusive lock. It does
// not register the session or attempt embedding — the engine (C11)
// orchestrates those per spec's data-flow diagram.
func (s *ChunkStore) Create(p CreateParams) (CreateResult, error) {
	if len(p.Content) > maxChunkContentSize {
		return CreateResult{}, rlmerr.New(rlmerr.KindInvalidSize, "chunk content exceeds 2 MiB")
	}

	contentHash := pathsafe.SHA256Normalized(p.Content)

	var result CreateResult
	err := withIndex(s.layout.IndexPath(), func(idx *indexFile) error {
		for _, c := range idx.Chunks {
			if c.ContentHash == contentHash {
				result = CreateResult{Chunk: c, Duplicate: true}
				return nil
			}
		}

		project := p.Project
		if project == "" {
			project = DetectProject()
		}

		now := time.Now().UTC()
		id, err := nextChunkID(idx.Chunks, now, project, p.Ticket, p.Domain)
		if err != nil {
			return err
		}

		summary := p.Summary
		if summary == "" {
			summary = autoSummary(p.Content)
		}

		chunk := model.Chunk{
			ID:             id,
			Path:           "chunks/" + id + ".md",
			Summary:        summary,
			Tags:           normalizeTags(p.Tags),
			Project:        project,
			Domain:         p.Domain,
			Ticket:         p.Ticket,
			CreatedAt:      now.Format(time.RFC3339),
			TokensEstimate: len(p.Content) / 4,
			ContentHash:    contentHash,
			Entities:       ExtractEntities(p.Content),
		}

		path, perr := pathsafe.ResolveIn(s.layout.ChunksDir(), id, ".md")
		if perr != nil {
			return perr
		}
		raw, serr := serializeChunkFile(&chunk, p.Content)
		if serr != nil {
			return serr
		}
		if werr := pathsafe.AtomicWrite(path, raw); werr != nil {
			return werr
		}

		idx.Chunks = append(idx.Chunks, chunk)
		result = CreateResult{Chunk: chunk, Duplicate: false}
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}
	return result, nil
}

// normalizeTags lowercases and deduplicates tags at the write boundary,
// per original_source behavior supplemented into SPEC_FULL.md.
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

// autoSummary takes the first non-empty, non-heading line, truncated to
// ~80 chars, per spec §4.5.
func autoSummary(content string) string {
	const maxLen = 80
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if len(trimmed) > maxLen {
			return trimmed[:maxLen-3] + "..."
		}
		return trimmed
	}
	return "Empty content"
}

// nextChunkID generates {date}_{project}_{NNN}[_{ticket}][_{domain}],
// sequence = max existing sequence for that date+project, plus one.
func nextChunkID(existing []model.Chunk, now time.Time, project, ticket, domain string) (string, error) {
	date := now.Format("2006-01-02")
	maxSeq := 0
	for _, c := range existing {
		if !strings.HasPrefix(c.ID, date+"_"+project+"_") {
			continue
		}
		parts := strings.Split(c.ID, "_")
		if len(parts) < 3 {
			continue
		}
		if seq, err := strconv.Atoi(parts[2]); err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}

	idParts := []string{date, project, fmt.Sprintf("%03d", maxSeq+1)}
	if ticket != "" {
		idParts = append(idParts, ticket)
	}
	if domain != "" {
		idParts = append(idParts, domain)
	}
	id := strings.Join(idParts, "_")
	if err := pathsafe.ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

// Peek reads a chunk's content, auto-restoring from archive if needed,
// slices by an inclusive 1-based line range, and increments access_count.
// restoreFn is supplied by the engine to avoid an import cycle with the
// retention package; pass nil when the caller knows the chunk is active.
func (s *ChunkStore) Peek(id string, startLine, endLine int, restoreFn func(id string) error) (string, int, error) {
	if err := pathsafe.ValidateID(id); err != nil {
		return "", 0, err
	}

	path, err := pathsafe.ResolveIn(s.layout.ChunksDir(), id, ".md")
	if err != nil {
		return "", 0, err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		if !os.IsNotExist(statErr) {
			return "", 0, rlmerr.Wrap(rlmerr.KindIO, "stat chunk file", statErr)
		}
		if restoreFn == nil {
			return "", 0, rlmerr.ErrNotFound
		}
		if rerr := restoreFn(id); rerr != nil {
			return "", 0, rerr
		}
	}

	pc, err := s.readParsed(id, path)
	if err != nil {
		return "", 0, err
	}
	body := pc.body

	lines := strings.Split(body, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	start := startLine
	end := endLine
	if start <= 0 {
		start = 1
	}
	if end <= 0 || end > len(lines) {
		end = len(lines)
	}
	var slice []string
	if start <= end && start <= len(lines) {
		slice = lines[start-1 : end]
	}

	var newAccessCount int
	err = withIndex(s.layout.IndexPath(), func(idx *indexFile) error {
		for i := range idx.Chunks {
			if idx.Chunks[i].ID == id {
				idx.Chunks[i].AccessCount++
				idx.Chunks[i].LastAccessed = time.Now().UTC().Format(time.RFC3339)
				newAccessCount = idx.Chunks[i].AccessCount
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}

	return strings.Join(slice, "\n"), newAccessCount, nil
}

// Get returns a chunk's index metadata.
func (s *ChunkStore) Get(id string) (model.Chunk, bool, error) {
	idx, err := loadIndexFile(s.layout.IndexPath())
	if err != nil {
		return model.Chunk{}, false, err
	}
	for _, c := range idx.Chunks {
		if c.ID == id {
			return c, true, nil
		}
	}
	return model.Chunk{}, false, nil
}

// ListParams filters List's output.
type ListParams struct {
	Project string
	Domain  string
	Limit   int
}

// List returns chunk metadata ordered by created_at desc.
func (s *ChunkStore) List(p ListParams) ([]model.Chunk, error) {
	idx, err := loadIndexFile(s.layout.IndexPath())
	if err != nil {
		return nil, err
	}

	out := make([]model.Chunk, 0, len(idx.Chunks))
	for _, c := range idx.Chunks {
		if p.Project != "" && c.Project != p.Project {
			continue
		}
		if p.Domain != "" && c.Domain != p.Domain {
			continue
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })

	if p.Limit > 0 && len(out) > p.Limit {
		out = out[:p.Limit]
	}
	return out, nil
}

// All returns every chunk's index metadata, unsorted and unfiltered, for
// use by the search and retention components. Archived chunks are included
// (with Archived set); callers that want only active chunks must skip them.
func (s *ChunkStore) All() ([]model.Chunk, error) {
	idx, err := loadIndexFile(s.layout.IndexPath())
	if err != nil {
		return nil, err
	}
	return idx.Chunks, nil
}

// ReadBody returns a chunk's content with frontmatter stripped.
func (s *ChunkStore) ReadBody(id string) (string, error) {
	path, err := pathsafe.ResolveIn(s.layout.ChunksDir(), id, ".md")
	if err != nil {
		return "", err
	}
	pc, err := s.readParsed(id, path)
	if err != nil {
		return "", err
	}
	return pc.body, nil
}

// Layout exposes the underlying storage layout for components (retention,
// search, navigation) that must read the same files directly.
func (s *ChunkStore) Layout() Layout { return s.layout }

// MutateIndex runs fn under index.json's lock, for callers (retention)
// that need to remove/update chunk entries directly.
func (s *ChunkStore) MutateIndex(fn func(idx *[]model.Chunk) error) error {
	return withIndex(s.layout.IndexPath(), func(idx *indexFile) error {
		return fn(&idx.Chunks)
	})
}
