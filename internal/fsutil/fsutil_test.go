package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		existing *os.FileMode
		wantMode os.FileMode
	}{
		{name: "new file", wantMode: DefaultFileMode},
		{name: "keeps mode of replaced file", existing: ptr(os.FileMode(0o600)), wantMode: 0o600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			path := filepath.Join(dir, "apb.yml")
			if tt.existing != nil {
				if err := os.WriteFile(path, []byte("old\n"), *tt.existing); err != nil {
					t.Fatal(err)
				}
				if err := os.Chmod(path, *tt.existing); err != nil {
					t.Fatal(err)
				}
			}

			if err := WriteFileAtomic(path, []byte("id: x\nname: demo\n")); err != nil {
				t.Fatalf("WriteFileAtomic: %v", err)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != "id: x\nname: demo\n" {
				t.Errorf("content = %q", got)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm() != tt.wantMode {
				t.Errorf("mode = %v, want %v", info.Mode().Perm(), tt.wantMode)
			}
			assertNoTempFiles(t, dir)
		})
	}
}

func TestWriteFileAtomic_MissingDirectory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "missing", "Dockerfile")

	if err := WriteFileAtomic(path, []byte("FROM scratch\n")); err == nil {
		t.Fatal("expected an error for a missing parent directory")
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.Name() != "apb.yml" {
			t.Errorf("leftover file %s", e.Name())
		}
	}
}

func ptr[T any](v T) *T { return &v }
