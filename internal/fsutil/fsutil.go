// Package fsutil holds file helpers shared by the packages that rewrite
// project files in place.
package fsutil

import (
	"os"
	"path/filepath"
)

// DefaultFileMode is used when the file being replaced does not exist yet.
const DefaultFileMode os.FileMode = 0o644

// WriteFileAtomic replaces path with data through a temporary file in the
// same directory and a rename. The permission bits of an existing file are
// kept. On failure path is left as it was and the temporary file is removed.
func WriteFileAtomic(path string, data []byte) error {
	mode := DefaultFileMode
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	success = true
	return nil
}
