// Package store implements C5 (index & chunk storage): index.json, the
// chunks/ directory of Markdown files, deduplication, entity extraction,
// auto-summary, and chunk ID generation. Sessions, insights, search, and
// retention all read the same on-disk Layout to stay consistent with the
// spec's single-storage-root model (spec §6).
package store

import "path/filepath"

// Layout names every file and directory under the storage root spec §6
// defines.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout { return Layout{Root: root} }

func (l Layout) ChunksDir() string         { return filepath.Join(l.Root, "chunks") }
func (l Layout) ArchiveDir() string        { return filepath.Join(l.Root, "archive") }
func (l Layout) IndexPath() string         { return filepath.Join(l.Root, "index.json") }
func (l Layout) ArchiveIndexPath() string  { return filepath.Join(l.Root, "archive_index.json") }
func (l Layout) PurgeLogPath() string      { return filepath.Join(l.Root, "purge_log.json") }
func (l Layout) SessionsPath() string      { return filepath.Join(l.Root, "sessions.json") }
func (l Layout) DomainsPath() string       { return filepath.Join(l.Root, "domains.json") }
func (l Layout) SessionMemoryPath() string { return filepath.Join(l.Root, "session_memory.json") }
func (l Layout) EmbeddingsPath() string    { return filepath.Join(l.Root, "embeddings.json") }
func (l Layout) ConfigPath() string        { return filepath.Join(l.Root, "config.toml") }

func (l Layout) ChunkPath(id string) string   { return filepath.Join(l.ChunksDir(), id+".md") }
func (l Layout) ArchivePath(id string) string { return filepath.Join(l.ArchiveDir(), id+".md.gz") }
