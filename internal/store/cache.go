package store

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rlm-memory/rlm-memory/internal/rlmerr"
)

// parsedChunk is the in-memory decode of a chunk file: frontmatter plus
// body, keyed by chunk ID. Chunk files are immutable once written (only
// their zone — active vs. archived — ever changes), so caching the
// parsed form is safe as long as it is invalidated whenever a chunk moves
// between zones.
type parsedChunk struct {
	fm   frontmatter
	body string
}

const frontmatterCacheSize = 512

// newFrontmatterCache avoids re-parsing YAML front matter on every
// peek/grep within a session — a chunk's content is read far more often
// than it is written.
func newFrontmatterCache() *lru.Cache[string, parsedChunk] {
	c, err := lru.New[string, parsedChunk](frontmatterCacheSize)
	if err != nil {
		// Only fails for a non-positive size, which frontmatterCacheSize
		// never is; a nil cache degrades to always-miss rather than panic.
		return nil
	}
	return c
}

func (s *ChunkStore) readParsed(id, path string) (parsedChunk, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(id); ok {
			return cached, nil
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return parsedChunk{}, rlmerr.ErrNotFound
		}
		return parsedChunk{}, rlmerr.Wrap(rlmerr.KindIO, "read chunk file", err)
	}
	fm, body, err := parseChunkFile(raw)
	if err != nil {
		return parsedChunk{}, err
	}
	pc := parsedChunk{fm: fm, body: body}
	if s.cache != nil {
		s.cache.Add(id, pc)
	}
	return pc, nil
}

// InvalidateCache drops a chunk's cached parse, used whenever it moves
// between the active and archived zones.
func (s *ChunkStore) InvalidateCache(id string) {
	if s.cache != nil {
		s.cache.Remove(id)
	}
}

// InvalidateAllCache drops every cached parse, used when an external
// writer (a second process sharing this storage root) changes index.json
// underneath this process.
func (s *ChunkStore) InvalidateAllCache() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
