// Package textutil holds the byte-level checks and excerpts used when
// loading and printing source files.
package textutil

import (
	"bytes"
	"unicode/utf8"

	"github.com/Enter-tainer/tree-sitter/pkg/safeconv"
)

// BinarySniffLength is how many leading bytes IsBinary inspects, the same
// window Git uses.
const BinarySniffLength = 8000

const ellipsis = "..."

// IsBinary reports whether data has a NUL byte in its first
// BinarySniffLength bytes.
func IsBinary(data []byte) bool {
	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// CountLines counts newline-terminated lines, plus a trailing partial one.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})

	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}

// Snippet returns source[start:end] clamped to the source, cut to at most
// limit bytes on a rune boundary with "..." appended when shortened.
func Snippet(source []byte, start, end uint32, limit int) string {
	end = min(end, safeconv.MustOffset(len(source)))
	start = min(start, end)
	text := source[start:end]

	if len(text) <= limit {
		return string(text)
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	return string(text[:cut]) + ellipsis
}
