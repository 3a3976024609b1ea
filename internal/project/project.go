// Package project scaffolds a new APB project directory.
package project

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// Well-known entries of a scaffolded project.
const (
	PlaybooksDir = "playbooks"
	RolesDir     = "roles"

	templateSuffix   = ".tmpl"
	specTemplate     = "apb.yml"
	dockerfileTmpl   = "Dockerfile"
	defaultFileMode  = 0o644
	defaultDirMode   = 0o755
	stagingDirSuffix = ".tmp"
)

var (
	// ErrProjectExists indicates the project directory already exists and Force was not set.
	ErrProjectExists = errors.New("project directory already exists")
	// ErrInvalidName indicates a project name that cannot be used as a directory name.
	ErrInvalidName = errors.New("invalid project name")
	// ErrBadIgnorePattern indicates a template ignore entry that is not a valid glob.
	ErrBadIgnorePattern = errors.New("invalid template ignore pattern")
)

//go:embed all:templates
var builtin embed.FS

// Options controls how Init lays out a project.
type Options struct {
	BasePath string
	Name     string
	Force    bool // Rebuild an existing project directory from scratch.

	// TemplateDir replaces the built-in templates when set. Files ending in
	// .tmpl are rendered with text/template, everything else is copied.
	TemplateDir string
	// Ignore holds doublestar patterns, relative to the template root, of
	// template files to skip.
	Ignore []string

	SpecFile     string
	Dockerfile   string
	SpecLabel    string
	VersionLabel string

	Logger *zap.Logger
}

// templateData is exposed to .tmpl files.
type templateData struct {
	Name         string
	SpecLabel    string
	VersionLabel string
}

// Init creates <BasePath>/<Name> holding the spec file, the Dockerfile and
// the playbooks and roles directories. The project is assembled in a staging
// directory and renamed into place, so a failed Init leaves nothing behind.
func Init(opts Options) (string, error) {
	if err := validateName(opts.Name); err != nil {
		return "", err
	}
	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return "", fmt.Errorf("%w: %q", ErrBadIgnorePattern, pattern)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	project := filepath.Join(opts.BasePath, opts.Name)
	if _, err := os.Stat(project); err == nil && !opts.Force {
		return "", fmt.Errorf("%w: %s; use --force to reinitialize", ErrProjectExists, project)
	}

	fsys, err := templateFS(opts.TemplateDir)
	if err != nil {
		return "", err
	}

	staging := project + stagingDirSuffix
	if err := os.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("cleaning staging directory: %w", err)
	}

	success := false
	defer func() {
		if !success {
			os.RemoveAll(staging)
		}
	}()

	if err := os.MkdirAll(staging, defaultDirMode); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}

	data := templateData{Name: opts.Name, SpecLabel: opts.SpecLabel, VersionLabel: opts.VersionLabel}
	rename := map[string]string{specTemplate: opts.SpecFile, dockerfileTmpl: opts.Dockerfile}
	written, err := render(fsys, staging, data, opts.Ignore, rename)
	if err != nil {
		return "", err
	}
	logger.Debug("rendered templates", zap.String("project", project), zap.Strings("files", written))

	for _, dir := range []string{PlaybooksDir, RolesDir} {
		if err := os.MkdirAll(filepath.Join(staging, dir), defaultDirMode); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	if opts.Force {
		if err := os.RemoveAll(project); err != nil {
			return "", fmt.Errorf("removing existing project: %w", err)
		}
	}
	if err := os.Rename(staging, project); err != nil {
		return "", fmt.Errorf("moving project into place: %w", err)
	}

	success = true
	return project, nil
}

func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

func templateFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(builtin, "templates")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("template directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template directory %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

// render writes every template file of fsys below dst and returns the
// relative paths written. Top-level entries named in rename are written
// under their mapped names.
func render(fsys fs.FS, dst string, data templateData, ignore []string, rename map[string]string) ([]string, error) {
	var written []string
	err := doublestar.GlobWalk(fsys, "**", func(rel string, d fs.DirEntry) error {
		if rel == "." || d.IsDir() {
			return nil
		}
		for _, pattern := range ignore {
			if doublestar.MatchUnvalidated(pattern, rel) {
				return nil
			}
		}

		content, err := fs.ReadFile(fsys, rel)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", rel, err)
		}

		out := rel
		if strings.HasSuffix(rel, templateSuffix) {
			out = strings.TrimSuffix(rel, templateSuffix)
			content, err = execute(rel, content, data)
			if err != nil {
				return err
			}
		}
		if mapped, ok := rename[out]; ok && mapped != "" {
			out = mapped
		}

		target := filepath.Join(dst, filepath.FromSlash(out))
		if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
			return fmt.Errorf("creating directory for %s: %w", out, err)
		}
		if err := os.WriteFile(target, content, defaultFileMode); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		written = append(written, path.Clean(out))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

func execute(name string, content []byte, data templateData) ([]byte, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
