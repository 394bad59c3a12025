package store

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var idSanitizer = regexp.MustCompile(`[^A-Za-z0-9_.&-]+`)

// DetectProject resolves the active project name: RLM_PROJECT env var
// override, else the nearest git root's directory name, else the CWD
// basename — sanitized to the chunk-ID allowlist.
func DetectProject() string {
	if p := os.Getenv("RLM_PROJECT"); p != "" {
		return sanitizeProjectName(p)
	}

	if root := gitRoot(); root != "" {
		return sanitizeProjectName(filepath.Base(root))
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return sanitizeProjectName(filepath.Base(cwd))
}

func gitRoot() string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func sanitizeProjectName(name string) string {
	sanitized := idSanitizer.ReplaceAllString(name, "-")
	sanitized = strings.Trim(sanitized, "-")
	if sanitized == "" {
		return "unknown"
	}
	return sanitized
}
