package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Persister loads and saves the whole collection. Implementations must return
// an empty collection, not an error, when nothing has been saved yet.
type Persister interface {
	Load() (Collection, error)
	Save(Collection) error
}

// FileStore keeps the collection in a single JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the collection from disk. A missing file yields an empty
// collection.
func (f *FileStore) Load() (Collection, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Collection{Presets: []Preset{}}, nil
		}
		return Collection{}, err
	}
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return Collection{}, fmt.Errorf("decode %s: %w", f.path, err)
	}
	if c.Presets == nil {
		c.Presets = []Preset{}
	}
	return c, nil
}

// Save writes to a temp file then renames it over the target path.
func (f *FileStore) Save(c Collection) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp := f.path + ".tmp"
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
