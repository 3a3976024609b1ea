package specembed

import (
	"encoding/base64"
	"fmt"
)

// Encode converts raw spec bytes into a single line of standard base64. The
// alphabet contains no quotes, backslashes or newlines, so the result can be
// placed inside a quoted Dockerfile LABEL value as is.
func Encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// Decode reverses Encode.
func Decode(blob string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding spec blob: %w", err)
	}
	return raw, nil
}
