// Package apbspec loads the apb.yml spec of an Ansible Playbook Bundle and
// assigns it a stable identifier.
package apbspec

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/apb/internal/fsutil"
)

// DefaultFile is the conventional spec file name inside a project.
const DefaultFile = "apb.yml"

var (
	// ErrInvalidSpec indicates the spec file is not a YAML mapping or a known
	// field has the wrong shape.
	ErrInvalidSpec = errors.New("invalid spec")
	// ErrInvalidID indicates the spec carries an id that is not a non-empty string.
	ErrInvalidID = errors.New("spec id must be a non-empty string")
)

// Spec is a loaded apb.yml. Only the fields the tool itself reads are typed;
// everything else stays in Fields.
type Spec struct {
	Path   string
	Source []byte
	Fields map[string]any

	Name    string
	ID      string
	Version string
}

// Load reads and parses the spec at path.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec: %w", err)
	}
	return Parse(path, data)
}

// Parse parses spec contents that were read from path.
func Parse(path string, data []byte) (*Spec, error) {
	var fields map[string]any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, path, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: %s: empty document", ErrInvalidSpec, path)
	}

	s := &Spec{Path: path, Source: data, Fields: fields}
	s.Name = scalar(fields["name"])
	s.ID = scalar(fields["id"])
	s.Version = scalar(fields["version"])
	return s, nil
}

// HasID reports whether the spec declares an id key.
func (s *Spec) HasID() bool {
	_, ok := s.Fields["id"]
	return ok
}

// Validate performs the structural checks prepare depends on. It is not a
// schema validator.
func Validate(s *Spec) error {
	if s == nil || s.Fields == nil {
		return fmt.Errorf("%w: nothing loaded", ErrInvalidSpec)
	}
	for _, key := range []string{"name", "version"} {
		switch s.Fields[key].(type) {
		case map[string]any, []any:
			return fmt.Errorf("%w: %s: %s must be a scalar", ErrInvalidSpec, s.Path, key)
		}
	}
	if s.HasID() {
		if _, ok := s.Fields["id"].(string); !ok || s.ID == "" {
			return fmt.Errorf("%w: %s", ErrInvalidID, s.Path)
		}
	}
	return nil
}

// EnsureID assigns a UUIDv4 id to a spec without one and persists it. It
// returns the id and whether it was newly assigned. The rewritten file must
// parse to the original mapping plus the id, otherwise nothing is written.
func EnsureID(s *Spec) (string, bool, error) {
	if s.HasID() {
		return s.ID, false, nil
	}

	id := uuid.NewString()
	updated, err := insertID(s.Source, id, s.Fields)
	if err != nil {
		return "", false, fmt.Errorf("%w: %s: adding id: %v", ErrInvalidSpec, s.Path, err)
	}
	if err := fsutil.WriteFileAtomic(s.Path, updated); err != nil {
		return "", false, fmt.Errorf("writing spec id: %w", err)
	}

	s.Source = updated
	s.ID = id
	s.Fields["id"] = id
	return id, true, nil
}

// insertID adds an id key to the top-level mapping of src. An "id:" line
// ahead of the first key keeps every other byte of the file; flow mappings
// and other layouts where that line does not parse back are re-encoded
// from the node tree, which keeps comments but not formatting.
func insertID(src []byte, id string, fields map[string]any) ([]byte, error) {
	if out := insertIDLine(src, id); keepsFields(out, id, fields) {
		return out, nil
	}
	out, err := insertIDNode(src, id)
	if err != nil {
		return nil, err
	}
	if !keepsFields(out, id, fields) {
		return nil, errors.New("id would change the parsed spec")
	}
	return out, nil
}

// insertIDLine places "id: <id>" before the first content line, skipping
// leading blank lines, comments, directives and the "---" marker.
func insertIDLine(src []byte, id string) []byte {
	lines := strings.SplitAfter(string(src), "\n")
	at := 0
	for at < len(lines) {
		trimmed := strings.TrimSpace(lines[at])
		if trimmed == "---" {
			at++
			break
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "%") {
			break
		}
		at++
	}
	if at > 0 && !strings.HasSuffix(lines[at-1], "\n") {
		lines[at-1] += "\n"
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, "id: "+id+"\n")
	out = append(out, lines[at:]...)
	return []byte(strings.Join(out, ""))
}

func insertIDNode(src []byte, id string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("top level is not a mapping")
	}

	root := doc.Content[0]
	root.Content = append([]*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "id"},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: id},
	}, root.Content...)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// keepsFields reports whether out parses to fields plus the given id.
func keepsFields(out []byte, id string, fields map[string]any) bool {
	var got map[string]any
	if err := yaml.Unmarshal(out, &got); err != nil {
		return false
	}
	if got["id"] != id {
		return false
	}
	delete(got, "id")
	return reflect.DeepEqual(got, fields)
}

// Hash returns the hex BLAKE3-256 digest of spec contents.
func Hash(raw []byte) string {
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
