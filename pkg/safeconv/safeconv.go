// Package safeconv converts between the int lengths Go works with and the
// uint32 byte offsets syntax trees report. Conversions panic when the value
// does not fit; callers use them only where that cannot happen.
package safeconv

import "math"

// MaxOffset is the largest byte offset a syntax tree can report.
const MaxOffset = math.MaxUint32

// MustOffset converts a length or index to a byte offset.
func MustOffset(v int) uint32 {
	if v < 0 || v > MaxOffset {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}

// MustUint32 converts a byte offset reported by tree-sitter as uint.
func MustUint32(v uint) uint32 {
	if v > MaxOffset {
		panic("safeconv: uint to uint32 overflow")
	}

	return uint32(v)
}

// MustInt converts a byte offset to int, which cannot overflow on 64-bit
// platforms.
func MustInt(v uint32) int {
	if uint64(v) > uint64(math.MaxInt) {
		panic("safeconv: uint32 to int overflow")
	}

	return int(v)
}

// Size converts a length to the uint64 byte count humanize expects.
func Size(n int) uint64 {
	if n < 0 {
		panic("safeconv: negative size")
	}

	return uint64(n)
}
