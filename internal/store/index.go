package store

import (
	"encoding/json"
	"os"

	"github.com/rlm-memory/rlm-memory/internal/model"
	"github.com/rlm-memory/rlm-memory/internal/pathsafe"
)

// indexFile is the persisted shape of index.json, per spec §6.
type indexFile struct {
	Version             string        `json:"version"`
	Chunks              []model.Chunk `json:"chunks"`
	TotalTokensEstimate int           `json:"total_tokens_estimate"`
}

const indexVersion = "1.0.0"

func emptyIndex() indexFile {
	return indexFile{Version: indexVersion, Chunks: []model.Chunk{}}
}

func loadIndexFile(path string) (indexFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyIndex(), nil
		}
		return indexFile{}, err
	}
	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return indexFile{}, err
	}
	if idx.Chunks == nil {
		idx.Chunks = []model.Chunk{}
	}
	return idx, nil
}

func saveIndexFile(path string, idx indexFile) error {
	total := 0
	for _, c := range idx.Chunks {
		total += c.TokensEstimate
	}
	idx.TotalTokensEstimate = total

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return pathsafe.AtomicWrite(path, data)
}

// withIndex runs fn under index.json's exclusive lock, loading current
// state before the call and persisting whatever fn leaves behind,
// matching the read-modify-write-under-lock discipline spec §5 mandates.
func withIndex(path string, fn func(idx *indexFile) error) error {
	return pathsafe.WithExclusiveLock(path, func() error {
		idx, err := loadIndexFile(path)
		if err != nil {
			return err
		}
		if err := fn(&idx); err != nil {
			return err
		}
		return saveIndexFile(path, idx)
	})
}
