// Package attach implements the org-attach storage convention: an
// attachment for node ID lives at <root>/<first two chars of ID>/<ID>/<name>.
package attach

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PrefixLen is the length of the bucket directory segment.
const PrefixLen = 2

// Prefix returns the bucket segment for a node ID, or "" when the ID is too
// short to shard.
func Prefix(id string) string {
	if len(id) < PrefixLen {
		return ""
	}
	return id[:PrefixLen]
}

// SourcePath returns the sharded path of an attachment relative to the
// attachments root.
func SourcePath(id, name string) string {
	return filepath.Join(Prefix(id), id, name)
}

// safeName rejects attachment names carrying path separators or traversal
// segments.
func safeName(name string) error {
	if name == "" {
		return fmt.Errorf("attach: name is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return fmt.Errorf("attach: invalid name: %s", name)
	}
	return nil
}

// Store resolves and copies sharded attachments from a source directory.
type Store struct {
	root string
}

// NewStore creates a Store over the given attachments directory. The
// directory does not need to exist yet; lookups on a missing root simply
// find nothing.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("attach: resolve root: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute attachments root.
func (s *Store) Root() string {
	return s.root
}

// Resolve returns the absolute path of an attachment if it exists on disk.
func (s *Store) Resolve(id, name string) (string, error) {
	if err := safeName(name); err != nil {
		return "", err
	}
	abs := filepath.Join(s.root, SourcePath(id, name))
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("attach: %s for node %s: %w", name, id, err)
	}
	return abs, nil
}

// Copy copies one attachment of the node into destDir, creating it as
// needed. The destination keeps the attachment's base name.
func (s *Store) Copy(id, name, destDir string) error {
	src, err := s.Resolve(id, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("attach: mkdir dest: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("attach: open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(filepath.Join(destDir, name))
	if err != nil {
		return fmt.Errorf("attach: create dest: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("attach: copy %s: %w", name, err)
	}
	return nil
}
