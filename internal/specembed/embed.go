// Package specembed embeds an APB spec into a Dockerfile LABEL and recovers it.
//
// The spec is base64 encoded, wrapped into 76-character continuation lines
// and spliced directly after the line carrying the spec label:
//
//	LABEL "com.redhat.apb.spec"=\
//	"dmVyc2lvbjogMS4wCm5hbWU6IGRlbW8tYXBiCmRlc2NyaXB0aW9uOiBUaGlzIGlzIGEgc2Ft\
//	cGxlIGFwcGxpY2F0aW9uCg=="
//
// Re-running the embedding replaces the previous block in place.
package specembed

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/papapumpkin/apb/internal/fsutil"
)

// Embedder drives encode, format and splice against files on disk.
type Embedder struct {
	Marker string
	logger *zap.Logger
}

// Result describes one embedding run.
type Result struct {
	Spec       []byte // Spec bytes as read and embedded.
	BlobLength int
	BlockLines int
	Changed    bool // False when the document already carried this exact block.
}

// NewEmbedder returns an Embedder splicing at marker. A nil logger is
// replaced with a no-op logger.
func NewEmbedder(marker string, logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{Marker: marker, logger: logger}
}

// Embed encodes the spec at specPath into the document at documentPath. The
// document is rewritten through a temporary file and a rename, so it is left
// untouched on every failure.
func (e *Embedder) Embed(specPath, documentPath string) (*Result, error) {
	raw, err := os.ReadFile(specPath)
	if err != nil {
		return nil, &SourceReadError{Path: specPath, Err: err}
	}

	blob := Encode(raw)
	block := Format(blob)

	data, err := os.ReadFile(documentPath)
	if err != nil {
		return nil, fmt.Errorf("reading build descriptor: %w", err)
	}

	spliced, err := Splice(SplitLines(data), block, e.Marker)
	if err != nil {
		var notFound *MarkerNotFoundError
		if errors.As(err, &notFound) {
			notFound.Path = documentPath
		}
		return nil, err
	}

	out := JoinLines(spliced)
	res := &Result{
		Spec:       raw,
		BlobLength: len(blob),
		BlockLines: len(block),
		Changed:    !bytes.Equal(out, data),
	}

	e.logger.Debug("spliced spec block",
		zap.String("spec", specPath),
		zap.String("document", documentPath),
		zap.Int("blob_length", res.BlobLength),
		zap.Int("block_lines", res.BlockLines),
		zap.Bool("changed", res.Changed))

	if !res.Changed {
		return res, nil
	}
	if err := fsutil.WriteFileAtomic(documentPath, out); err != nil {
		return nil, &DestinationWriteError{Path: documentPath, Err: err}
	}
	return res, nil
}

// Recover reads the document at documentPath and decodes the spec embedded
// after the marker.
func (e *Embedder) Recover(documentPath string) ([]byte, error) {
	data, err := os.ReadFile(documentPath)
	if err != nil {
		return nil, fmt.Errorf("reading build descriptor: %w", err)
	}

	block, err := Extract(SplitLines(data), e.Marker)
	if err != nil {
		var notFound *MarkerNotFoundError
		if errors.As(err, &notFound) {
			notFound.Path = documentPath
		}
		return nil, err
	}

	blob, err := Unformat(block)
	if err != nil {
		return nil, err
	}
	return Decode(blob)
}

// SplitLines breaks file contents into lines without their terminators.
func SplitLines(data []byte) []string {
	s := strings.TrimSuffix(string(data), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// JoinLines renders lines as file contents, newline-terminating every line.
func JoinLines(lines []string) []byte {
	if len(lines) == 0 {
		return nil
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}
