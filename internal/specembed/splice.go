package specembed

import (
	"fmt"
	"strings"
)

// Labels recognized in APB build descriptors.
const (
	SpecLabel    = "com.redhat.apb.spec"
	VersionLabel = "com.redhat.apb.version"
)

// Splice returns a copy of doc with block placed directly after the first
// line containing marker, followed by one blank line. A block left by an
// earlier Splice is removed first, together with its blank separator, so
// repeated calls converge on the same document. doc is never modified.
func Splice(doc, block []string, marker string) ([]string, error) {
	m := markerIndex(doc, marker)
	if m < 0 {
		return nil, &MarkerNotFoundError{Marker: marker}
	}

	end, found, err := blockEnd(doc, m)
	if err != nil {
		return nil, err
	}

	tail := m + 1
	if found {
		tail = end + 1
	}
	if tail < len(doc) && strings.TrimSpace(doc[tail]) == "" {
		tail++
	}

	out := make([]string, 0, m+1+len(block)+1+len(doc)-tail)
	out = append(out, doc[:m+1]...)
	out = append(out, block...)
	out = append(out, "")
	out = append(out, doc[tail:]...)
	return out, nil
}

// Extract returns the block lines currently embedded after marker.
func Extract(doc []string, marker string) ([]string, error) {
	m := markerIndex(doc, marker)
	if m < 0 {
		return nil, &MarkerNotFoundError{Marker: marker}
	}

	end, found, err := blockEnd(doc, m)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoEmbeddedSpec
	}

	block := make([]string, end-m)
	copy(block, doc[m+1:end+1])
	return block, nil
}

func markerIndex(doc []string, marker string) int {
	for i, line := range doc {
		if strings.Contains(line, marker) {
			return i
		}
	}
	return -1
}

// blockEnd finds the line that closes the block following the marker at m.
// A block exists only when the line right after the marker opens a quoted
// value; from there every line must continue with a backslash until one
// closes with a quote. Lines further down that merely end in a quote are
// never mistaken for the end of a block.
func blockEnd(doc []string, m int) (int, bool, error) {
	start := m + 1
	if start >= len(doc) || !strings.HasPrefix(doc[start], quote) {
		return 0, false, nil
	}

	for i := start; i < len(doc); i++ {
		line := strings.TrimRight(doc[i], "\r")
		switch {
		case closesValue(line, i == start):
			return i, true, nil
		case strings.HasSuffix(line, continuation):
			continue
		default:
			return 0, false, fmt.Errorf("%w: line %d neither continues nor closes the value", ErrMalformedBlock, i+1)
		}
	}
	return 0, false, fmt.Errorf("%w: value opened on line %d is never closed", ErrMalformedBlock, start+1)
}

// closesValue reports whether line ends a quoted value. The opening line needs
// a second quote of its own to close.
func closesValue(line string, opening bool) bool {
	if !strings.HasSuffix(line, quote) {
		return false
	}
	return !opening || len(line) >= 2
}
