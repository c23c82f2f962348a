// Package filesystem resolves zipstream archive names to directories under
// the archive root. Lookups go through an os.Root, so names (and symlinks)
// that would escape the root are never resolved.
package filesystem

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sagarc03/zipstream"
)

// Store provides read-only lookups in the archive root.
type Store struct {
	root *os.Root
	dir  string
}

// NewDirectoryStore creates a Store for the given root. dir is the path the
// root was opened from; it is used to build subprocess working directories
// and should be absolute.
func NewDirectoryStore(root *os.Root, dir string) *Store {
	return &Store{root: root, dir: dir}
}

// Resolve returns the directory for name. It returns zipstream.ErrNotFound if
// the entry does not exist, is not a directory, or lies outside the root.
func (s *Store) Resolve(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := s.root.Stat(name)
	if err != nil {
		// os.Root reports escapes with a plain error rather than ErrNotExist;
		// both mean there is nothing to serve under this name.
		slog.Debug("archive directory lookup failed", "archive", name, "err", err)
		return "", fmt.Errorf("resolve %s: %w", name, zipstream.ErrNotFound)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("resolve %s: not a directory: %w", name, zipstream.ErrNotFound)
	}

	return filepath.Join(s.dir, name), nil
}
