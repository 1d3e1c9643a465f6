package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ngoctd/storefront/internal/model"
)

var _ model.StateStore = (*StateRepository)(nil)

// StateRepository persists state blobs as files under a directory, one file
// per state name. Writes go through a temp file and rename so a crash never
// leaves a half-written state behind.
type StateRepository struct {
	dir string
}

// NewStateRepository creates the directory if needed and returns the
// repository.
func NewStateRepository(dir string) (*StateRepository, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &StateRepository{dir: dir}, nil
}

// Load returns the saved blob for name, or model.ErrNotFound when nothing
// has been saved yet.
func (r *StateRepository) Load(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(r.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state %s: %w", name, err)
	}
	return data, nil
}

// Save atomically replaces the blob for name.
func (r *StateRepository) Save(_ context.Context, name string, data []byte) error {
	target := r.path(name)
	tmp, err := os.CreateTemp(r.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state %s: %w", name, err)
	}
	return nil
}

func (r *StateRepository) path(name string) string {
	return filepath.Join(r.dir, name+".json")
}
