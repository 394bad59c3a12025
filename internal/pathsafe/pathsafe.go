// Package pathsafe implements the I/O safety primitives every index and
// chunk file write goes through: ID validation, traversal-safe path
// resolution, atomic write-then-rename, exclusive file locking, content
// hashing for deduplication, and bounded gzip decompression.
package pathsafe

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/rlm-memory/rlm-memory/internal/rlmerr"
)

// idPattern is the chunk/insight ID allowlist from the spec: alphanumeric,
// underscore, dot, ampersand, hyphen.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_.&-]+$`)

const maxIDLength = 200

// ValidateID reports whether s is a well-formed chunk/insight identifier.
func ValidateID(s string) error {
	if s == "" || len(s) > maxIDLength {
		return rlmerr.ErrInvalidID
	}
	if !idPattern.MatchString(s) {
		return rlmerr.ErrInvalidID
	}
	return nil
}

// ResolveIn builds base/id+ext and guarantees the lexically cleaned path
// still lives under base. Returns PathEscape if not. Symlinks are not
// resolved: a symlink inside base that points elsewhere is not detected.
func ResolveIn(base, id, ext string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", rlmerr.Wrap(rlmerr.KindIO, "resolve base dir", err)
	}
	candidate := filepath.Join(absBase, id+ext)

	// The allowlist excludes "/", so id is a single path element, but it
	// still admits "." and ".."; with an empty ext a bare ".." would name
	// the parent of base, which this check rejects.
	rel, err := filepath.Rel(absBase, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", rlmerr.ErrPathEscape
	}
	return candidate, nil
}

// AtomicWrite writes data to a sibling tempfile in dir(path) and renames it
// over path, fsyncing before rename. On any failure the tempfile is removed
// and the target is left untouched.
func AtomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return rlmerr.Wrap(rlmerr.KindIO, "create parent dir", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return rlmerr.Wrap(rlmerr.KindIO, "create temp file", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, werr := tmp.Write(data); werr != nil {
		tmp.Close()
		return rlmerr.Wrap(rlmerr.KindIO, "write temp file", werr)
	}
	if serr := tmp.Sync(); serr != nil {
		tmp.Close()
		return rlmerr.Wrap(rlmerr.KindIO, "fsync temp file", serr)
	}
	if cerr := tmp.Close(); cerr != nil {
		return rlmerr.Wrap(rlmerr.KindIO, "close temp file", cerr)
	}
	if rerr := os.Rename(tmpPath, path); rerr != nil {
		return rlmerr.Wrap(rlmerr.KindIO, "rename temp file", rerr)
	}
	return nil
}

// WithExclusiveLock acquires a blocking exclusive flock on a ".lock"
// sibling of path and runs fn, releasing the lock on every exit path
// including a panic unwind.
func WithExclusiveLock(path string, fn func() error) (err error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return rlmerr.Wrap(rlmerr.KindIO, "create lock dir", err)
	}
	lf, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return rlmerr.Wrap(rlmerr.KindIO, "open lock file", err)
	}
	defer lf.Close()

	if ferr := unix.Flock(int(lf.Fd()), unix.LOCK_EX); ferr != nil {
		return rlmerr.Wrap(rlmerr.KindIO, "acquire exclusive lock", ferr)
	}
	defer func() {
		_ = unix.Flock(int(lf.Fd()), unix.LOCK_UN)
	}()

	return fn()
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SHA256Normalized hashes text after lowercasing and collapsing runs of
// whitespace to single spaces, for content-based deduplication.
func SHA256Normalized(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

const defaultMaxDecompressed = 10 * 1024 * 1024 // 10 MiB

// GunzipBounded decompresses a gzip file, aborting with InvalidSize if the
// produced size would exceed maxBytes (defaults to 10 MiB when 0).
func GunzipBounded(path string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxDecompressed
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, rlmerr.Wrap(rlmerr.KindIO, "open archive file", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, rlmerr.Wrap(rlmerr.KindIO, "open gzip stream", err)
	}
	defer gz.Close()

	var buf bytes.Buffer
	limited := io.LimitReader(gz, maxBytes+1)
	n, err := io.Copy(&buf, limited)
	if err != nil {
		return nil, rlmerr.Wrap(rlmerr.KindIO, "decompress gzip stream", err)
	}
	if n > maxBytes {
		return nil, rlmerr.New(rlmerr.KindInvalidSize, "decompressed content exceeds bound")
	}
	return buf.Bytes(), nil
}

// GzipBytes compresses data into a fresh gzip stream.
func GzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		return nil, rlmerr.Wrap(rlmerr.KindIO, "gzip write", err)
	}
	if err := gw.Close(); err != nil {
		return nil, rlmerr.Wrap(rlmerr.KindIO, "gzip close", err)
	}
	return buf.Bytes(), nil
}
