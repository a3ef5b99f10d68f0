// Package checkpoint persists intermediate pipeline artifacts. Presence of an
// artifact is the resume signal: a stage whose artifact exists is skipped on
// re-run, and the artifact is reloaded verbatim without validation.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store is the checkpoint surface of a pipeline run.
type Store interface {
	// Has reports whether a named artifact exists. Existence alone is
	// checked, never content.
	Has(name string) bool
	// Load returns an artifact's raw bytes.
	Load(name string) ([]byte, error)
	// Save writes an artifact atomically with respect to Has: a partial
	// write never registers as an existing checkpoint.
	Save(name string, data []byte) error
	// Path returns the on-disk location for a named artifact, for stages
	// that manage their own storage format under the same root.
	Path(name string) string
}

// DirStore keeps artifacts as files in an output directory.
type DirStore struct {
	dir string
}

// NewDirStore creates a directory-backed store, creating the directory if
// needed.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) Has(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && !info.IsDir()
}

func (s *DirStore) Load(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("load checkpoint %s: %w", name, err)
	}
	return data, nil
}

func (s *DirStore) Save(name string, data []byte) error {
	tmp := s.Path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", name, err)
	}
	if err := os.Rename(tmp, s.Path(name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save checkpoint %s: %w", name, err)
	}
	return nil
}

func (s *DirStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Dir returns the store's root directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	artifacts map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{artifacts: make(map[string][]byte)}
}

func (s *MemStore) Has(name string) bool {
	_, ok := s.artifacts[name]
	return ok
}

func (s *MemStore) Load(name string) ([]byte, error) {
	data, ok := s.artifacts[name]
	if !ok {
		return nil, fmt.Errorf("load checkpoint %s: not found", name)
	}
	return data, nil
}

func (s *MemStore) Save(name string, data []byte) error {
	s.artifacts[name] = append([]byte(nil), data...)
	return nil
}

func (s *MemStore) Path(name string) string {
	return name
}
