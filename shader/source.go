package shader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errNotUTF8 = errors.New("not valid UTF-8 text")

// Source is a shader file and its text decoded to UTF-8.
type Source struct {
	Path string
	Text string
}

// ReadSource reads the file at path. A UTF-8 or UTF-16 byte order mark
// selects the encoding and is stripped; files without one must be UTF-8.
// Errors wrap ErrSourceRead.
func ReadSource(path string) (Source, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %w", ErrSourceRead, err)
	}
	text, err := decodeText(raw)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: %w", ErrSourceRead, path, err)
	}
	return Source{Path: path, Text: text}, nil
}

func decodeText(raw []byte) (string, error) {
	if !hasUTF16BOM(raw) && !utf8.Valid(raw) {
		return "", errNotUTF8
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func hasUTF16BOM(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte{0xFE, 0xFF}) || bytes.HasPrefix(raw, []byte{0xFF, 0xFE})
}
