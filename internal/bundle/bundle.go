// Package bundle runs the prepare and inspect pipelines of an APB project:
// load apb.yml, give it an id, embed it into the Dockerfile and record the
// result in the lock file.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/papapumpkin/apb/internal/apbspec"
	"github.com/papapumpkin/apb/internal/lock"
	"github.com/papapumpkin/apb/internal/specembed"
	"github.com/papapumpkin/apb/internal/telemetry"
)

// ErrSpecNotFound indicates the project has no spec file.
var ErrSpecNotFound = errors.New("spec file not found")

// Project locates the files of one APB project. Relative file names are
// resolved against Dir.
type Project struct {
	Dir        string
	SpecFile   string
	Dockerfile string
	LockFile   string
	Label      string

	Logger    *zap.Logger
	Telemetry *telemetry.Emitter

	now func() time.Time
}

// SpecPath returns the absolute-or-relative path of the spec file.
func (p *Project) SpecPath() string { return p.resolve(p.SpecFile) }

// DockerfilePath returns the path of the build descriptor.
func (p *Project) DockerfilePath() string { return p.resolve(p.Dockerfile) }

// LockPath returns the path of the lock file.
func (p *Project) LockPath() string { return p.resolve(p.LockFile) }

func (p *Project) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.Dir, name)
}

func (p *Project) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Project) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// Report summarizes a prepare run.
type Report struct {
	SpecID     string
	IDAssigned bool
	Embed      *specembed.Result
	// UpToDate is set when neither the Dockerfile nor the lock needed changes.
	UpToDate bool
}

// Prepare loads the spec, assigns an id when it has none, checks it, embeds
// it into the Dockerfile and refreshes the lock.
func (p *Project) Prepare() (*Report, error) {
	rep, err := p.prepare()
	if err != nil {
		p.emit(telemetry.Event{Kind: telemetry.KindPrepareFailed, Data: map[string]string{"error": err.Error()}})
	}
	return rep, err
}

func (p *Project) prepare() (*Report, error) {
	specPath := p.SpecPath()
	if _, err := os.Stat(specPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: [ %s ]", ErrSpecNotFound, specPath)
		}
		return nil, &specembed.SourceReadError{Path: specPath, Err: err}
	}

	spec, err := apbspec.Load(specPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec: %w", err)
	}

	id, assigned, err := apbspec.EnsureID(spec)
	if err != nil {
		return nil, err
	}
	if assigned {
		p.logger().Info("assigned spec id", zap.String("id", id), zap.String("spec", specPath))
		p.emit(telemetry.Event{Kind: telemetry.KindSpecIDAssigned, SpecID: id})
	}

	if err := apbspec.Validate(spec); err != nil {
		return nil, fmt.Errorf("spec file [ %s ] failed validation: %w", specPath, err)
	}

	res, err := specembed.NewEmbedder(p.Label, p.logger()).Embed(specPath, p.DockerfilePath())
	if err != nil {
		return nil, err
	}

	hash := apbspec.Hash(res.Spec)
	prev, err := lock.Load(p.LockPath())
	if err != nil {
		p.logger().Warn("ignoring unreadable lock", zap.String("lock", p.LockPath()), zap.Error(err))
		prev = nil
	}

	rep := &Report{SpecID: id, IDAssigned: assigned, Embed: res}
	rep.UpToDate = !res.Changed && !prev.Stale(hash) && prev.Block.Lines == res.BlockLines

	if rep.UpToDate {
		p.emit(telemetry.Event{Kind: telemetry.KindSpecUnchanged, SpecID: id})
		return rep, nil
	}

	if err := lock.Save(p.LockPath(), &lock.File{
		GeneratedAt: p.clock().UTC(),
		Spec:        lock.Spec{ID: id, Path: p.SpecFile, Hash: hash},
		Block: lock.Block{
			Dockerfile: p.Dockerfile,
			Label:      p.Label,
			BlobLength: res.BlobLength,
			Lines:      res.BlockLines,
		},
	}); err != nil {
		return nil, err
	}

	p.emit(telemetry.Event{
		Kind:   telemetry.KindSpecEmbedded,
		SpecID: id,
		Data: map[string]any{
			"dockerfile":  p.Dockerfile,
			"blob_length": res.BlobLength,
			"lines":       res.BlockLines,
			"changed":     res.Changed,
		},
	})
	return rep, nil
}

// Inspection is the result of recovering a spec from the Dockerfile.
type Inspection struct {
	Spec []byte
	// MatchesSpecFile reports whether the recovered spec equals apb.yml on disk.
	MatchesSpecFile bool
	// SpecFileMissing is set when the project has no spec file to compare with.
	SpecFileMissing bool
	// Lock is the recorded prepare state, nil when no lock exists.
	Lock *lock.File
	// MatchesLock reports whether the lock describes the recovered spec.
	MatchesLock bool
}

// Inspect recovers the spec embedded in the Dockerfile and compares it
// against apb.yml and the lock.
func (p *Project) Inspect() (*Inspection, error) {
	raw, err := specembed.NewEmbedder(p.Label, p.logger()).Recover(p.DockerfilePath())
	if err != nil {
		return nil, err
	}

	ins := &Inspection{Spec: raw}
	current, err := os.ReadFile(p.SpecPath())
	switch {
	case err == nil:
		ins.MatchesSpecFile = apbspec.Hash(current) == apbspec.Hash(raw)
	case os.IsNotExist(err):
		ins.SpecFileMissing = true
	default:
		return nil, &specembed.SourceReadError{Path: p.SpecPath(), Err: err}
	}

	lf, err := lock.Load(p.LockPath())
	if err != nil {
		return nil, err
	}
	ins.Lock = lf
	ins.MatchesLock = !lf.Stale(apbspec.Hash(raw))
	return ins, nil
}

func (p *Project) emit(evt telemetry.Event) {
	if evt.Project == "" {
		evt.Project = filepath.Base(p.Dir)
	}
	if err := p.Telemetry.Emit(evt); err != nil {
		p.logger().Warn("telemetry emit failed", zap.Error(err))
	}
}
