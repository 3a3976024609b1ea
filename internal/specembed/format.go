package specembed

import (
	"fmt"
	"strings"
)

// LineWidth is the number of blob characters carried by each block line.
const LineWidth = 76

const (
	quote        = `"`
	continuation = `\`
)

// Format splits an encoded blob into the lines of a quoted, backslash-continued
// LABEL value. Lines carry no trailing newline; the caller joins them.
//
//	"<first 76>\
//	<next 76>\
//	<rest>"
//
// A blob that fits on one line, including the empty blob, becomes a single
// "<blob>" line.
func Format(blob string) []string {
	chunks := len(blob) / LineWidth
	rem := len(blob) % LineWidth

	if chunks == 0 || (chunks == 1 && rem == 0) {
		return []string{quote + blob + quote}
	}

	lines := make([]string, 0, chunks+1)
	for i := range chunks {
		chunk := blob[i*LineWidth : (i+1)*LineWidth]
		switch {
		case i == 0:
			lines = append(lines, quote+chunk+continuation)
		case i == chunks-1 && rem == 0:
			lines = append(lines, chunk+quote)
		default:
			lines = append(lines, chunk+continuation)
		}
	}
	if rem != 0 {
		lines = append(lines, blob[chunks*LineWidth:]+quote)
	}
	return lines
}

// Unformat strips the decoration added by Format and returns the blob.
func Unformat(lines []string) (string, error) {
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: empty block", ErrMalformedBlock)
	}

	first := strings.TrimRight(lines[0], "\r")
	if !strings.HasPrefix(first, quote) {
		return "", fmt.Errorf("%w: first line does not open a quoted value", ErrMalformedBlock)
	}

	if len(lines) == 1 {
		if len(first) < 2 || !strings.HasSuffix(first, quote) {
			return "", fmt.Errorf("%w: single line is not a closed quoted value", ErrMalformedBlock)
		}
		return first[1 : len(first)-1], nil
	}

	var b strings.Builder
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		last := i == len(lines)-1
		if i == 0 {
			line = line[1:]
		}
		if last {
			if !strings.HasSuffix(line, quote) {
				return "", fmt.Errorf("%w: line %d does not close the quoted value", ErrMalformedBlock, i+1)
			}
			line = strings.TrimSuffix(line, quote)
		} else {
			if !strings.HasSuffix(line, continuation) {
				return "", fmt.Errorf("%w: line %d is missing its continuation", ErrMalformedBlock, i+1)
			}
			line = strings.TrimSuffix(line, continuation)
		}
		b.WriteString(line)
	}
	return b.String(), nil
}
