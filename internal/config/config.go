// Package config loads the optional config.toml of tunables that spec.md
// calls out as recorded decisions rather than guesses (BM25 parameters,
// fusion weight, retention thresholds, protected tags/keywords). Absent a
// config file, the pinned defaults apply.
package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every tunable constant the engine consults. Zero-value
// Config is invalid; use Default() or Load().
type Config struct {
	BM25 BM25Config `toml:"bm25"`

	FusionAlpha float64 `toml:"fusion_alpha"`

	Retention RetentionConfig `toml:"retention"`
}

// BM25Config carries the k1/b parameters, fixed per spec §9 as a recorded
// decision (k1=1.5, b=0.75).
type BM25Config struct {
	K1 float64 `toml:"k1"`
	B  float64 `toml:"b"`
}

// RetentionConfig carries the three-zone lifecycle thresholds and immunity
// rules from spec §4.9.
type RetentionConfig struct {
	ArchiveAfterDays  int      `toml:"archive_after_days"`
	PurgeAfterDays    int      `toml:"purge_after_days"`
	ImmuneAccessCount int      `toml:"immune_access_count"`
	ProtectedTags     []string `toml:"protected_tags"`
	ProtectedKeywords []string `toml:"protected_keywords"`
}

// Default returns the pinned defaults spec.md records.
func Default() Config {
	return Config{
		BM25:        BM25Config{K1: 1.5, B: 0.75},
		FusionAlpha: 0.6,
		Retention: RetentionConfig{
			ArchiveAfterDays:  30,
			PurgeAfterDays:    180,
			ImmuneAccessCount: 3,
			ProtectedTags:     []string{"critical", "decision", "keep", "important"},
			ProtectedKeywords: []string{"DECISION:", "IMPORTANT:", "A RETENIR:"},
		},
	}
}

// Load reads path if it exists, overlaying values onto Default(); a
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ArchiveAfter returns the archive threshold as a duration.
func (r RetentionConfig) ArchiveAfter() time.Duration {
	return time.Duration(r.ArchiveAfterDays) * 24 * time.Hour
}

// PurgeAfter returns the purge threshold as a duration.
func (r RetentionConfig) PurgeAfter() time.Duration {
	return time.Duration(r.PurgeAfterDays) * 24 * time.Hour
}
