package source

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"leadrelay/internal/config"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts an export in the given encoding to UTF-8 text. A UTF-8 byte
// order mark is removed.
func Decode(data []byte, enc string) (string, error) {
	var dec *encoding.Decoder

	switch config.NormalizeEncoding(enc) {
	case "", "utf-8":
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: invalid utf-8", ErrMalformedSource)
		}

		return string(data), nil
	case "shift_jis":
		dec = japanese.ShiftJIS.NewDecoder()
	case "euc-jp":
		dec = japanese.EUCJP.NewDecoder()
	default:
		return "", fmt.Errorf("%w: unsupported encoding %q", ErrMalformedSource, enc)
	}

	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), dec))
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %w", ErrMalformedSource, enc, err)
	}

	return string(bytes.TrimPrefix(out, utf8BOM)), nil
}
