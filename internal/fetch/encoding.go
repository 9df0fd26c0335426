package fetch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names the character set of a dataset body.
type Encoding string

// Supported encodings. The Census estimate files are Latin-1.
const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin1 Encoding = "latin1"
)

// ParseEncoding accepts the config spellings of an encoding. The empty string
// means UTF-8.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q", s)
	}
}

// Decode converts body to a Go string.
func (e Encoding) Decode(body []byte) (string, error) {
	switch e {
	case EncodingLatin1:
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(body)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return string(out), nil
	case EncodingUTF8, "":
		if !utf8.Valid(body) {
			return "", fmt.Errorf("%w: invalid UTF-8", ErrDecode)
		}
		return string(body), nil
	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", ErrDecode, string(e))
	}
}
