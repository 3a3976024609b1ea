package bundle

import (
	"errors"
	"os"
	"testing"

	"github.com/papapumpkin/apb/internal/apbspec"
	"github.com/papapumpkin/apb/internal/specembed"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		spec       string
		dockerfile string
		prepare    bool
		edit       string // appended to apb.yml after prepare
		want       []error
		wantErrors bool
	}{
		{
			name:       "fresh scaffold",
			spec:       spec,
			dockerfile: dockerfile,
			want:       []error{ErrMissingID, ErrNotPrepared},
		},
		{
			name:       "prepared",
			spec:       spec,
			dockerfile: dockerfile,
			prepare:    true,
		},
		{
			name:       "spec edited after prepare",
			spec:       spec,
			dockerfile: dockerfile,
			prepare:    true,
			edit:       "tags:\n  - demo\n",
			want:       []error{ErrStaleEmbed},
		},
		{
			name:       "spec missing",
			dockerfile: dockerfile,
			want:       []error{ErrSpecNotFound, ErrNotPrepared},
			wantErrors: true,
		},
		{
			name:       "label missing",
			spec:       spec,
			dockerfile: "FROM scratch\n",
			want:       []error{ErrMissingID, specembed.ErrMarkerNotFound},
			wantErrors: true,
		},
		{
			name:       "invalid spec without id",
			spec:       "name: [a, b]\n",
			dockerfile: dockerfile,
			want:       []error{ErrMissingID, apbspec.ErrInvalidSpec, ErrNotPrepared},
			wantErrors: true,
		},
		{
			name:       "non-string id",
			spec:       "id: 42\n" + spec,
			dockerfile: dockerfile,
			want:       []error{apbspec.ErrInvalidID, ErrNotPrepared},
			wantErrors: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newProject(t, tt.spec, tt.dockerfile)
			if tt.prepare {
				if _, err := p.Prepare(); err != nil {
					t.Fatalf("Prepare: %v", err)
				}
			}
			if tt.edit != "" {
				f, err := os.OpenFile(p.SpecPath(), os.O_APPEND|os.O_WRONLY, 0)
				if err != nil {
					t.Fatal(err)
				}
				if _, err := f.WriteString(tt.edit); err != nil {
					t.Fatal(err)
				}
				f.Close()
			}

			findings := p.Check()
			if len(findings) != len(tt.want) {
				t.Fatalf("got %d findings %v, want %d", len(findings), findings, len(tt.want))
			}
			for i, want := range tt.want {
				if !errors.Is(findings[i].Err, want) {
					t.Errorf("finding %d = %v, want %v", i, findings[i].Err, want)
				}
			}
			if got := HasErrors(findings); got != tt.wantErrors {
				t.Errorf("HasErrors = %v, want %v", got, tt.wantErrors)
			}
		})
	}
}

func TestCheckDoesNotModifyProject(t *testing.T) {
	t.Parallel()
	p := newProject(t, spec, dockerfile)

	p.Check()

	got, err := os.ReadFile(p.SpecPath())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != spec {
		t.Errorf("Check rewrote apb.yml:\n%s", got)
	}
	if _, err := os.Stat(p.LockPath()); !os.IsNotExist(err) {
		t.Errorf("Check wrote a lock file: %v", err)
	}
}
