package fetch

import (
	"encoding/base64"
	"io"
	"strings"
)

// Encode streams r through a standard base64 encoder and returns the text.
// The bytes are never held in memory twice.
func Encode(r io.Reader) (string, error) {
	var buf strings.Builder
	enc := base64.NewEncoder(base64.StdEncoding, &buf)
	if _, err := io.Copy(enc, r); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// contentType picks the declared type, then the caller's hint, then the default.
func contentType(declared, hint, fallback string) string {
	if ct := strings.TrimSpace(declared); ct != "" {
		return ct
	}
	if ct := strings.TrimSpace(hint); ct != "" {
		return ct
	}
	return fallback
}
