package pdf4ofd

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxInputSize caps every document or image set accepted by Convert and
// the readers below (default 256MB).
var MaxInputSize = 256 << 20

func checkSize(n int) error {
	if n > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, n, MaxInputSize)
	}
	return nil
}

// ReadDocument reads a PDF, OFD or image file.
func ReadDocument(path string) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// ReadAll reads r to the end, failing once more than MaxInputSize bytes
// arrive.
func ReadAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(MaxInputSize)+1))
	if err != nil {
		return nil, err
	}
	if err := checkSize(len(data)); err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeBase64 decodes a document sent as base64 text. Standard and URL
// alphabets are accepted, with or without padding, and a data URI prefix
// ("data:application/pdf;base64,") is skipped.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if err := checkSize(base64.StdEncoding.DecodedLen(len(s))); err != nil {
		return nil, err
	}

	trimmed := strings.TrimRight(s, "=")
	if trimmed == "" {
		return nil, ErrEmptyDocument
	}
	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.RawURLEncoding} {
		if data, err := enc.DecodeString(trimmed); err == nil {
			return data, nil
		}
	}
	return nil, ErrInvalidBase64
}
