// Package retention implements C10: the three-zone chunk lifecycle
// (active -> archived -> purged), its immunity predicate, and the
// preview/run/restore operations described in spec §4.9.
package retention

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rlm-memory/rlm-memory/internal/config"
	"github.com/rlm-memory/rlm-memory/internal/model"
	"github.com/rlm-memory/rlm-memory/internal/pathsafe"
	"github.com/rlm-memory/rlm-memory/internal/rlmerr"
	"github.com/rlm-memory/rlm-memory/internal/store"
	"github.com/rlm-memory/rlm-memory/internal/tokenizer"
)

const keywordScanBytes = 4 * 1024

// Manager runs the retention lifecycle over a single storage root.
type Manager struct {
	chunks *store.ChunkStore
	cfg    config.RetentionConfig
}

func NewManager(chunks *store.ChunkStore, cfg config.RetentionConfig) *Manager {
	return &Manager{chunks: chunks, cfg: cfg}
}

// Preview enumerates both candidate sets with no side effects.
type Preview struct {
	ArchiveCandidates      []model.Chunk
	PurgeCandidates        []model.ArchiveEntry
	ArchiveCandidateBytes  int64
	ArchiveCandidatesHuman string
}

func (m *Manager) Preview(now time.Time) (Preview, error) {
	chunks, err := m.chunks.All()
	if err != nil {
		return Preview{}, err
	}
	archiveCandidates := make([]model.Chunk, 0)
	for _, c := range chunks {
		if c.Archived {
			continue
		}
		if m.isArchiveCandidate(c, now) {
			archiveCandidates = append(archiveCandidates, c)
		}
	}

	idx, err := loadArchiveIndex(m.chunks.Layout().ArchiveIndexPath())
	if err != nil {
		return Preview{}, err
	}
	purgeCandidates := make([]model.ArchiveEntry, 0)
	for _, entry := range idx.Entries {
		c, ok := findByID(chunks, entry.ID)
		if !ok {
			continue
		}
		if m.isPurgeCandidate(entry, c, now) {
			purgeCandidates = append(purgeCandidates, entry)
		}
	}

	sortArchiveEntries(purgeCandidates)

	var archiveBytes int64
	for _, c := range archiveCandidates {
		archiveBytes += int64(c.TokensEstimate) * 4
	}

	return Preview{
		ArchiveCandidates:      archiveCandidates,
		PurgeCandidates:        purgeCandidates,
		ArchiveCandidateBytes:  archiveBytes,
		ArchiveCandidatesHuman: humanize.Bytes(uint64(archiveBytes)),
	}, nil
}

// RunResult reports per-zone counts and per-item errors.
type RunResult struct {
	Archived int
	Purged   int
	Errors   []string
}

// Run archives every archive candidate, and — when purge is true — purges
// every purge candidate. All writes go through the lock + atomic-write
// discipline shared with the rest of the storage layer.
func (m *Manager) Run(archive, purge bool, now time.Time) (RunResult, error) {
	var result RunResult

	if archive {
		preview, err := m.Preview(now)
		if err != nil {
			return result, err
		}
		for _, c := range preview.ArchiveCandidates {
			if err := m.archiveOne(c, now); err != nil {
				result.Errors = append(result.Errors, c.ID+": "+err.Error())
				continue
			}
			result.Archived++
		}
	}

	if purge {
		preview, err := m.Preview(now)
		if err != nil {
			return result, err
		}
		for _, entry := range preview.PurgeCandidates {
			if err := m.purgeOne(entry, now); err != nil {
				result.Errors = append(result.Errors, entry.ID+": "+err.Error())
				continue
			}
			result.Purged++
		}
	}

	return result, nil
}

// archiveOne gzip-compresses the chunk file, removes the original, and
// updates both index.json (archived=true) and archive_index.json.
func (m *Manager) archiveOne(c model.Chunk, now time.Time) error {
	layout := m.chunks.Layout()
	chunkPath := layout.ChunkPath(c.ID)
	raw, err := os.ReadFile(chunkPath)
	if err != nil {
		return rlmerr.Wrap(rlmerr.KindIO, "read chunk before archiving", err)
	}
	gz, err := pathsafe.GzipBytes(raw)
	if err != nil {
		return err
	}
	archivePath := layout.ArchivePath(c.ID)
	if err := pathsafe.AtomicWrite(archivePath, gz); err != nil {
		return err
	}
	if err := os.Remove(chunkPath); err != nil && !os.IsNotExist(err) {
		return rlmerr.Wrap(rlmerr.KindIO, "remove original chunk after archiving", err)
	}
	m.chunks.InvalidateCache(c.ID)

	if err := m.chunks.MutateIndex(func(idx *[]model.Chunk) error {
		for i := range *idx {
			if (*idx)[i].ID == c.ID {
				(*idx)[i].Archived = true
			}
		}
		return nil
	}); err != nil {
		return err
	}

	entry := model.ArchiveEntry{
		ID:           c.ID,
		OriginalPath: c.Path,
		ArchivedPath: "archive/" + c.ID + ".md.gz",
		ArchivedAt:   now.UTC().Format(time.RFC3339),
	}
	return mutateArchiveIndex(layout.ArchiveIndexPath(), func(idx *archiveIndexFile) error {
		idx.Entries = append(idx.Entries, entry)
		return nil
	})
}

// purgeOne appends a metadata-only record to purge_log.json, deletes the
// .gz file, and removes the entry from archive_index.json.
func (m *Manager) purgeOne(entry model.ArchiveEntry, now time.Time) error {
	layout := m.chunks.Layout()

	c, _, err := m.chunks.Get(entry.ID)
	if err != nil {
		return err
	}

	purgeEntry := model.PurgeEntry{
		ID:        entry.ID,
		Summary:   c.Summary,
		Tags:      c.Tags,
		CreatedAt: c.CreatedAt,
		PurgedAt:  now.UTC().Format(time.RFC3339),
	}
	if err := mutatePurgeLog(layout.PurgeLogPath(), func(log *purgeLogFile) error {
		log.Entries = append(log.Entries, purgeEntry)
		return nil
	}); err != nil {
		return err
	}

	archivePath := layout.ArchivePath(entry.ID)
	if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		return rlmerr.Wrap(rlmerr.KindIO, "remove archived file during purge", err)
	}
	m.chunks.InvalidateCache(entry.ID)

	if err := mutateArchiveIndex(layout.ArchiveIndexPath(), func(idx *archiveIndexFile) error {
		out := idx.Entries[:0]
		for _, e := range idx.Entries {
			if e.ID != entry.ID {
				out = append(out, e)
			}
		}
		idx.Entries = out
		return nil
	}); err != nil {
		return err
	}

	return m.chunks.MutateIndex(func(idx *[]model.Chunk) error {
		out := (*idx)[:0]
		for _, c := range *idx {
			if c.ID != entry.ID {
				out = append(out, c)
			}
		}
		*idx = out
		return nil
	})
}

// Restore decompresses an archived chunk back to the active zone,
// matching spec's auto-restore-on-peek path exactly. It is idempotent:
// if the chunk is already active, it is a no-op.
func (m *Manager) Restore(id string) error {
	layout := m.chunks.Layout()
	chunkPath := layout.ChunkPath(id)
	if _, err := os.Stat(chunkPath); err == nil {
		return nil
	}

	archivePath := layout.ArchivePath(id)
	if _, err := os.Stat(archivePath); err != nil {
		if os.IsNotExist(err) {
			return rlmerr.ErrNotFound
		}
		return rlmerr.Wrap(rlmerr.KindIO, "stat archived chunk", err)
	}
	raw, err := pathsafe.GunzipBounded(archivePath, 0)
	if err != nil {
		return err
	}
	if err := pathsafe.AtomicWrite(chunkPath, raw); err != nil {
		return err
	}
	if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		return rlmerr.Wrap(rlmerr.KindIO, "remove archived file after restore", err)
	}
	m.chunks.InvalidateCache(id)

	if err := m.chunks.MutateIndex(func(idx *[]model.Chunk) error {
		for i := range *idx {
			if (*idx)[i].ID == id {
				(*idx)[i].Archived = false
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return mutateArchiveIndex(layout.ArchiveIndexPath(), func(idx *archiveIndexFile) error {
		out := idx.Entries[:0]
		for _, e := range idx.Entries {
			if e.ID != id {
				out = append(out, e)
			}
		}
		idx.Entries = out
		return nil
	})
}

func (m *Manager) isArchiveCandidate(c model.Chunk, now time.Time) bool {
	if c.AccessCount != 0 {
		return false
	}
	created, err := time.Parse(time.RFC3339, c.CreatedAt)
	if err != nil {
		return false
	}
	if now.Sub(created) < m.cfg.ArchiveAfter() {
		return false
	}
	return !m.isImmune(c)
}

func (m *Manager) isPurgeCandidate(entry model.ArchiveEntry, c model.Chunk, now time.Time) bool {
	archivedAt, err := time.Parse(time.RFC3339, entry.ArchivedAt)
	if err != nil {
		return false
	}
	if now.Sub(archivedAt) < m.cfg.PurgeAfter() {
		return false
	}
	return !m.isImmune(c)
}

// isImmune evaluates spec §4.9's immunity predicate: protected tag,
// access_count >= threshold, or a protected keyword in the first ~4KiB of
// content.
func (m *Manager) isImmune(c model.Chunk) bool {
	for _, tag := range c.Tags {
		for _, pt := range m.cfg.ProtectedTags {
			if strings.EqualFold(tag, pt) {
				return true
			}
		}
	}
	if c.AccessCount >= m.cfg.ImmuneAccessCount {
		return true
	}

	body, err := m.chunks.ReadBody(c.ID)
	if err != nil {
		// An archived chunk has no active file; scan its gzip copy instead.
		raw, gerr := pathsafe.GunzipBounded(m.chunks.Layout().ArchivePath(c.ID), 0)
		if gerr != nil {
			return false
		}
		body = string(raw)
	}
	if len(body) > keywordScanBytes {
		body = body[:keywordScanBytes]
	}
	// spec §4.9: protected keywords are matched ASCII-folded, uppercased —
	// "À RETENIR:" must still trip the "A RETENIR:" keyword.
	folded := strings.ToUpper(tokenizer.FoldAccents(body))
	for _, kw := range m.cfg.ProtectedKeywords {
		if strings.Contains(folded, strings.ToUpper(tokenizer.FoldAccents(kw))) {
			return true
		}
	}
	return false
}

func findByID(chunks []model.Chunk, id string) (model.Chunk, bool) {
	for _, c := range chunks {
		if c.ID == id {
			return c, true
		}
	}
	return model.Chunk{}, false
}

// --- archive_index.json / purge_log.json persistence ---

type archiveIndexFile struct {
	Version string               `json:"version"`
	Entries []model.ArchiveEntry `json:"entries"`
}

type purgeLogFile struct {
	Version string             `json:"version"`
	Entries []model.PurgeEntry `json:"entries"`
}

func loadArchiveIndex(path string) (archiveIndexFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return archiveIndexFile{Version: "1.0.0", Entries: []model.ArchiveEntry{}}, nil
		}
		return archiveIndexFile{}, err
	}
	var idx archiveIndexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return archiveIndexFile{}, err
	}
	if idx.Entries == nil {
		idx.Entries = []model.ArchiveEntry{}
	}
	return idx, nil
}

func mutateArchiveIndex(path string, fn func(idx *archiveIndexFile) error) error {
	return pathsafe.WithExclusiveLock(path, func() error {
		idx, err := loadArchiveIndex(path)
		if err != nil {
			return err
		}
		if err := fn(&idx); err != nil {
			return err
		}
		data, err := json.MarshalIndent(idx, "", "  ")
		if err != nil {
			return err
		}
		return pathsafe.AtomicWrite(path, data)
	})
}

func loadPurgeLog(path string) (purgeLogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return purgeLogFile{Version: "1.0.0", Entries: []model.PurgeEntry{}}, nil
		}
		return purgeLogFile{}, err
	}
	var log purgeLogFile
	if err := json.Unmarshal(data, &log); err != nil {
		return purgeLogFile{}, err
	}
	if log.Entries == nil {
		log.Entries = []model.PurgeEntry{}
	}
	return log, nil
}

func mutatePurgeLog(path string, fn func(log *purgeLogFile) error) error {
	return pathsafe.WithExclusiveLock(path, func() error {
		log, err := loadPurgeLog(path)
		if err != nil {
			return err
		}
		if err := fn(&log); err != nil {
			return err
		}
		data, err := json.MarshalIndent(log, "", "  ")
		if err != nil {
			return err
		}
		return pathsafe.AtomicWrite(path, data)
	})
}

// sortArchiveEntries orders entries by ArchivedAt ascending, used when
// displaying purge candidates oldest-first.
func sortArchiveEntries(entries []model.ArchiveEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ArchivedAt < entries[j].ArchivedAt })
}
