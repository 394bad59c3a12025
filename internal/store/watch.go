package store

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchIndex watches index.json for writes from outside this process — a
// second process sharing the same storage root, per spec §5's
// multi-writer concurrency model — and purges the frontmatter cache
// whenever one is observed, so a stale parse is never served after an
// external append/archive/purge. It blocks until ctx is cancelled or the
// watcher itself fails; callers run it in its own goroutine and treat a
// returned error as non-fatal: the cache stays in use, invalidated only by
// this process's own zone changes.
func (s *ChunkStore) WatchIndex(ctx context.Context, log zerolog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(s.layout.Root); err != nil {
		return err
	}

	indexName := filepath.Base(s.layout.IndexPath())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != indexName {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.InvalidateAllCache()
			}
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(werr).Msg("index watch error")
		}
	}
}
