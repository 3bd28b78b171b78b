package csb19

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Separator ends every line but the last.
const Separator = "\r\n"

// Compose joins encoded lines into the file text. There is no trailing
// separator after the last line.
func Compose(lines []string) string {
	return strings.Join(lines, Separator)
}

// SplitLines splits a composed file back into its lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, Separator)
}

// Charsets supported for the written file.
const (
	CharsetUTF8        = "utf-8"
	CharsetISO88591    = "iso-8859-1"
	CharsetWindows1252 = "windows-1252"
)

// Transcode converts the file text to the bytes of the given charset. Banks
// usually expect ISO-8859-1; characters the charset cannot represent are an
// error rather than being replaced.
func Transcode(text, charset string) ([]byte, error) {
	var enc encoding.Encoding
	switch strings.ToLower(charset) {
	case "", CharsetUTF8, "utf8":
		return []byte(text), nil
	case CharsetISO88591, "latin1", "latin-1":
		enc = charmap.ISO8859_1
	case CharsetWindows1252, "cp1252":
		enc = charmap.Windows1252
	default:
		return nil, fmt.Errorf("unsupported charset: %s", charset)
	}

	out, err := enc.NewEncoder().String(text)
	if err != nil {
		return nil, fmt.Errorf("failed to encode file as %s: %w", charset, err)
	}
	return []byte(out), nil
}
