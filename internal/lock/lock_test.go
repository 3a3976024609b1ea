package lock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSaveLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", DefaultPath)

	want := &File{
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Spec:        Spec{ID: "2f1c", Path: "apb.yml", Hash: "abcd"},
		Block:       Block{Dockerfile: "Dockerfile", Label: "com.redhat.apb.spec", BlobLength: 300, Lines: 4},
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if want.Version != CurrentVersion {
		t.Errorf("Save did not stamp version, got %d", want.Version)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lock mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()
	got, err := Load(filepath.Join(t.TempDir(), DefaultPath))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("Load = %+v, want nil", got)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), DefaultPath)
	if err := os.WriteFile(path, []byte("version = [[["), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "parsing") {
		t.Errorf("Load error = %v, want parse error", err)
	}
}

func TestStale(t *testing.T) {
	t.Parallel()

	var missing *File
	if !missing.Stale("abcd") {
		t.Error("nil lock should be stale")
	}

	f := &File{Spec: Spec{Hash: "abcd"}}
	if f.Stale("abcd") {
		t.Error("lock with matching hash reported stale")
	}
	if !f.Stale("ef01") {
		t.Error("lock with different hash not reported stale")
	}
}
