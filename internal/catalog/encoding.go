package catalog

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dimchansky/utfbom"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/bnema/dockcatalog/internal/domain"
)

// Supported descriptor encodings.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF8Sig     = "utf-8-sig"
	EncodingUTF16       = "utf-16"
	EncodingWindows1252 = "windows-1252"
	EncodingLatin1      = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textDecoder turns raw descriptor bytes into UTF-8 text. It returns an error
// wrapping domain.ErrEncodingMismatch when the bytes are not in its encoding.
type textDecoder func(data []byte) ([]byte, error)

// lookupDecoder resolves an encoding name. Names are case-insensitive and
// accept the usual aliases.
func lookupDecoder(name string) (textDecoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return decodeUTF8, nil
	case "utf-8-sig", "utf8-sig", "utf-8-bom":
		return decodeUTF8Sig, nil
	case "utf-16", "utf16":
		return transformDecoder(EncodingUTF16, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)), nil
	case "windows-1252", "cp1252":
		return transformDecoder(EncodingWindows1252, charmap.Windows1252), nil
	case "iso-8859-1", "latin-1", "latin1":
		return transformDecoder(EncodingLatin1, charmap.ISO8859_1), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEncoding, name)
	}
}

// ValidateEncoding reports whether name is a supported descriptor encoding.
func ValidateEncoding(name string) error {
	_, err := lookupDecoder(name)
	return err
}

// decodeUTF8 accepts strictly valid UTF-8 without a byte order mark.
func decodeUTF8(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return nil, fmt.Errorf("%w: utf-8: unexpected byte order mark", domain.ErrEncodingMismatch)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: utf-8: invalid byte sequence", domain.ErrEncodingMismatch)
	}
	return data, nil
}

// decodeUTF8Sig accepts UTF-8 with or without a leading signature.
func decodeUTF8Sig(data []byte) ([]byte, error) {
	rd, enc := utfbom.Skip(bytes.NewReader(data))
	if enc != utfbom.Unknown && enc != utfbom.UTF8 {
		return nil, fmt.Errorf("%w: utf-8-sig: found %s byte order mark", domain.ErrEncodingMismatch, enc)
	}
	out, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("%w: utf-8-sig: %v", domain.ErrEncodingMismatch, err)
	}
	if !utf8.Valid(out) {
		return nil, fmt.Errorf("%w: utf-8-sig: invalid byte sequence", domain.ErrEncodingMismatch)
	}
	return out, nil
}

func transformDecoder(name string, enc encoding.Encoding) textDecoder {
	return func(data []byte) ([]byte, error) {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrEncodingMismatch, name, err)
		}
		return out, nil
	}
}
