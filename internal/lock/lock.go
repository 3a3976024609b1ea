// Package lock persists what the last prepare run embedded, so later runs and
// inspect can tell whether the Dockerfile still matches apb.yml. The lock is
// analogous to go.sum: derived state, safe to delete, recreated on prepare.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/papapumpkin/apb/internal/fsutil"
)

// DefaultPath is the conventional lock location relative to the project.
const DefaultPath = ".apb.lock"

// CurrentVersion is the lock format version written by Save.
const CurrentVersion = 1

// File is the persisted record of one prepare run.
type File struct {
	Version     int       `toml:"version"`
	GeneratedAt time.Time `toml:"generated_at"`
	Spec        Spec      `toml:"spec"`
	Block       Block     `toml:"block"`
}

// Spec identifies the spec that was embedded.
type Spec struct {
	ID   string `toml:"id"`
	Path string `toml:"path"`
	Hash string `toml:"hash"`
}

// Block records where and how the spec was embedded.
type Block struct {
	Dockerfile string `toml:"dockerfile"`
	Label      string `toml:"label"`
	BlobLength int    `toml:"blob_length"`
	Lines      int    `toml:"lines"`
}

// Load reads a lock file. A missing file yields nil and no error.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return &f, nil
}

// Save writes the lock file, creating parent directories as needed.
func Save(path string, f *File) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	if f.Version == 0 {
		f.Version = CurrentVersion
	}
	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}

	if err := fsutil.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Stale reports whether the lock does not describe a spec with the given
// hash. A nil lock is always stale.
func (f *File) Stale(hash string) bool {
	return f == nil || f.Spec.Hash != hash
}
