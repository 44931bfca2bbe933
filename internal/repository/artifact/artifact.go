// Package artifact stores downloaded filing documents on the local
// filesystem under a configured root directory.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store writes and reads raw filing artifacts by relative path.
type Store struct {
	root string
}

// New creates the root directory if needed and returns a store rooted there.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &Store{root: root}, nil
}

// Exists reports whether an artifact is already on disk.
func (s *Store) Exists(relPath string) bool {
	info, err := os.Stat(filepath.Join(s.root, relPath))
	return err == nil && !info.IsDir()
}

// Write stores an artifact, creating intermediate directories.
func (s *Store) Write(relPath string, data []byte) (string, error) {
	full := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return full, nil
}

// Read returns the artifact bytes.
func (s *Store) Read(relPath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, relPath))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}
