package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/apb/internal/specembed"
)

func TestSubcommandFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		register func(*cobra.Command)
		flags    map[string]string
	}{
		{
			name:     "init",
			register: addInitFlags,
			flags:    map[string]string{"base-path": ".", "force": "false"},
		},
		{
			name:     "prepare",
			register: addPrepareFlags,
			flags:    map[string]string{"base-path": ".", "watch": "false"},
		},
		{
			name:     "inspect",
			register: addInspectFlags,
			flags:    map[string]string{"base-path": ".", "check": "false"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cmd := &cobra.Command{Use: "test"}
			tc.register(cmd)
			for name, def := range tc.flags {
				f := cmd.Flags().Lookup(name)
				if f == nil {
					t.Errorf("flag --%s not registered", name)
					continue
				}
				if f.DefValue != def {
					t.Errorf("--%s default = %q, want %q", name, f.DefValue, def)
				}
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	t.Parallel()

	want := map[string]bool{"init": false, "prepare": false, "inspect": false, "validate": false, "telemetry": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetOut(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitPrepareInspect(t *testing.T) {
	base := t.TempDir()
	project := filepath.Join(base, "demo-apb")

	if _, err := execute(t, "init", "demo-apb", "--base-path", base); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := execute(t, "init", "demo-apb", "--base-path", base); err == nil {
		t.Fatal("second init without --force should fail")
	}

	if _, err := execute(t, "prepare", "--base-path", project); err != nil {
		t.Fatalf("prepare: %v", err)
	}

	spec, err := os.ReadFile(filepath.Join(project, "apb.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(spec), "id: ") {
		t.Errorf("prepare did not assign an id:\n%s", spec)
	}

	out, err := execute(t, "inspect", "--base-path", project, "--check")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if out != string(spec) {
		t.Errorf("inspect output differs from apb.yml:\n%s", out)
	}

	if err := os.WriteFile(filepath.Join(project, "apb.yml"), append(spec, "bindable: True\n"...), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "inspect", "--base-path", project, "--check"); !errors.Is(err, errStale) {
		t.Errorf("inspect --check on stale project = %v, want errStale", err)
	}
	// Reset the sticky flag for later invocations.
	if _, err := execute(t, "inspect", "--base-path", project, "--check=false"); err != nil {
		t.Fatalf("inspect: %v", err)
	}
}

func TestPrepare_MissingMarker(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "apb.yml"), []byte("name: x\nid: y\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := execute(t, "prepare", "--base-path", dir)
	if !errors.Is(err, specembed.ErrMarkerNotFound) {
		t.Errorf("prepare error = %v, want ErrMarkerNotFound", err)
	}
}

func TestValidate(t *testing.T) {
	base := t.TempDir()
	project := filepath.Join(base, "check-apb")
	if _, err := execute(t, "init", "check-apb", "--base-path", base); err != nil {
		t.Fatalf("init: %v", err)
	}

	// A fresh project has no id and no embedded spec yet; both are warnings.
	if _, err := execute(t, "validate", "--base-path", project); err != nil {
		t.Errorf("validate on fresh project: %v", err)
	}

	if err := os.WriteFile(filepath.Join(project, "Dockerfile"), []byte("FROM scratch\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "validate", "--base-path", project); err == nil {
		t.Error("validate should fail when the Dockerfile has no spec label")
	}
}

func TestTelemetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log := `{"ts":"2026-10-19T08:00:00Z","kind":"spec_embedded","project":"demo","spec_id":"abc","data":{"lines":3,"blob_length":180}}
not json

{"ts":"2026-10-19T08:00:05Z","kind":"spec_unchanged","project":"demo"}
`
	if err := os.WriteFile(path, []byte(log), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "telemetry", "--path", path)
	if err != nil {
		t.Fatalf("telemetry: %v", err)
	}
	want := "[2026-10-19 08:00:00] spec_embedded project=demo spec=abc blob_length=180 lines=3\n" +
		"??? not json\n" +
		"[2026-10-19 08:00:05] spec_unchanged project=demo\n"
	if out != want {
		t.Errorf("telemetry output:\n%s\nwant:\n%s", out, want)
	}
}

func TestPrintEvent_NonMapData(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printEvent(&buf, `{"ts":"2026-10-19T08:00:00Z","kind":"prepare_failed","data":["a","b"]}`)
	if got, want := buf.String(), "[2026-10-19 08:00:00] prepare_failed [\"a\",\"b\"]\n"; got != want {
		t.Errorf("printEvent = %q, want %q", got, want)
	}
}
