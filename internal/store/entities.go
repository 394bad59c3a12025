package store

import (
	"regexp"

	"github.com/rlm-memory/rlm-memory/internal/model"
)

var (
	fileRe     = regexp.MustCompile(`\b[\w./-]+/[\w.-]+\.[A-Za-z0-9]{1,6}\b|\b[\w-]+\.(?:go|py|js|ts|md|json|yaml|yml|toml|sql|rs|java|rb)\b`)
	versionRe  = regexp.MustCompile(`\bv\d+(?:\.\d+){0,3}\b`)
	moduleRe   = regexp.MustCompile(`\b[a-z][a-z0-9]*(?:_[a-z0-9]+)+\b|\b[a-z][a-z0-9]*(?:\.[a-z][a-z0-9]*){1,}\b`)
	ticketRe   = regexp.MustCompile(`\b[A-Z]{2,}-\d+\b|#\d+\b`)
	functionRe = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\(\)`)
)

// ExtractEntities regex-scans text for the five typed entity categories
// spec §4.5 names, deduplicating within each category while preserving
// first-seen order.
func ExtractEntities(text string) model.Entities {
	return model.Entities{
		Files:     uniqueMatches(fileRe, text),
		Versions:  uniqueMatches(versionRe, text),
		Modules:   uniqueMatches(moduleRe, text),
		Tickets:   uniqueMatches(ticketRe, text),
		Functions: uniqueMatches(functionRe, text),
	}
}

func uniqueMatches(re *regexp.Regexp, text string) []string {
	matches := re.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
