package bundle

import (
	"errors"
	"fmt"
	"os"

	"github.com/papapumpkin/apb/internal/apbspec"
	"github.com/papapumpkin/apb/internal/specembed"
)

// Errors reported by Check.
var (
	// ErrNotPrepared means the Dockerfile carries the label but no spec yet.
	ErrNotPrepared = errors.New("spec not embedded yet")
	// ErrMissingID means apb.yml has no id; prepare assigns one.
	ErrMissingID = errors.New("spec has no id")
	// ErrStaleEmbed means the embedded spec differs from apb.yml.
	ErrStaleEmbed = errors.New("embedded spec differs from spec file")
)

// Finding is one problem reported by Check.
type Finding struct {
	File    string
	Err     error
	Warning bool // Prepare resolves warnings; errors need a manual fix.
}

// Error formats the finding with its file.
func (f Finding) Error() string {
	return fmt.Sprintf("%s: %v", f.File, f.Err)
}

// Check inspects the project without modifying it. Warnings describe state
// that the next prepare fixes; the remaining findings would make prepare fail.
func (p *Project) Check() []Finding {
	var findings []Finding

	spec, err := apbspec.Load(p.SpecPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
		findings = append(findings, Finding{File: p.SpecFile, Err: ErrSpecNotFound})
	case err != nil:
		findings = append(findings, Finding{File: p.SpecFile, Err: err})
	default:
		if !spec.HasID() {
			findings = append(findings, Finding{File: p.SpecFile, Err: ErrMissingID, Warning: true})
		}
		if err := apbspec.Validate(spec); err != nil {
			findings = append(findings, Finding{File: p.SpecFile, Err: err})
		}
	}

	doc, err := os.ReadFile(p.DockerfilePath())
	if err != nil {
		return append(findings, Finding{File: p.Dockerfile, Err: err})
	}
	block, err := specembed.Extract(specembed.SplitLines(doc), p.Label)
	switch {
	case errors.Is(err, specembed.ErrNoEmbeddedSpec):
		return append(findings, Finding{File: p.Dockerfile, Err: ErrNotPrepared, Warning: true})
	case err != nil:
		return append(findings, Finding{File: p.Dockerfile, Err: err})
	}

	blob, err := specembed.Unformat(block)
	if err != nil {
		return append(findings, Finding{File: p.Dockerfile, Err: err})
	}
	raw, err := specembed.Decode(blob)
	if err != nil {
		return append(findings, Finding{File: p.Dockerfile, Err: fmt.Errorf("%w: %v", specembed.ErrMalformedBlock, err)})
	}
	if spec != nil && apbspec.Hash(raw) != apbspec.Hash(spec.Source) {
		findings = append(findings, Finding{File: p.Dockerfile, Err: ErrStaleEmbed, Warning: true})
	}
	return findings
}

// HasErrors reports whether any finding is more than a warning.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if !f.Warning {
			return true
		}
	}
	return false
}
