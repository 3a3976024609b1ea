package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinter_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		print func(p *Printer)
		want  []string
	}{
		{
			name:  "error",
			print: func(p *Printer) { p.Error("spec file not found") },
			want:  []string{"error:", "spec file not found"},
		},
		{
			name:  "warn",
			print: func(p *Printer) { p.Warn("lock is stale") },
			want:  []string{"lock is stale"},
		},
		{
			name:  "project created",
			print: func(p *Printer) { p.ProjectCreated("/tmp/demo") },
			want:  []string{"initialized APB project", "/tmp/demo"},
		},
		{
			name:  "spec id",
			print: func(p *Printer) { p.SpecIDAssigned("1234", "apb.yml") },
			want:  []string{"1234", "apb.yml"},
		},
		{
			name:  "embedded",
			print: func(p *Printer) { p.Embedded("Dockerfile", 310, 5, true) },
			want:  []string{"embedded spec into Dockerfile", "310 chars", "5 lines"},
		},
		{
			name:  "unchanged",
			print: func(p *Printer) { p.Embedded("Dockerfile", 310, 5, false) },
			want:  []string{"Dockerfile already up to date"},
		},
		{
			name:  "watching",
			print: func(p *Printer) { p.Watching("apb.yml") },
			want:  []string{"watching apb.yml"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			tc.print(NewWithWriter(&buf))
			out := buf.String()
			for _, w := range tc.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
			if !strings.HasSuffix(out, "\n") {
				t.Errorf("output %q not newline terminated", out)
			}
		})
	}
}
