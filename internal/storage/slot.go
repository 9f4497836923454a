// Package storage provides the durable key-value slots backing the ledger.
// Each slot holds one whole serialized value under a fixed name; writes
// replace the previous content atomically (tmp file + rename) so a crash
// mid-write never corrupts the existing state.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Slot reads and rewrites one named durable value wholesale.
type Slot interface {
	// Read returns the stored bytes. ok is false when nothing has ever been
	// written under name; that is not an error.
	Read(name string) (data []byte, ok bool, err error)

	// Write replaces the stored value under name.
	Write(name string, data []byte) error
}

// FileSlot stores each slot as a JSON file inside a directory.
type FileSlot struct {
	dir string
}

// NewFileSlot creates the directory if needed and returns a slot over it.
func NewFileSlot(dir string) (*FileSlot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir %s: %w", dir, err)
	}
	return &FileSlot{dir: dir}, nil
}

func (s *FileSlot) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileSlot) Read(name string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: read slot %s: %w", name, err)
	}
	return data, true, nil
}

func (s *FileSlot) Write(name string, data []byte) error {
	path := s.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("storage: write slot %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("storage: replace slot %s: %w", name, err)
	}
	return nil
}

var _ Slot = (*FileSlot)(nil)
