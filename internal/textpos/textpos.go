// Package textpos converts between the byte offsets of UTF-8 text and the
// UTF-16 code-unit offsets the core protocol uses for carets and style
// ranges.
//
// All conversions are total: offsets that fall outside the string clamp to
// its ends, and offsets that fall inside a multi-byte sequence or between
// the halves of a surrogate pair round down to the start of the enclosing
// code point.
package textpos

import "unicode/utf8"

// UTF16Len returns the length of s in UTF-16 code units: one unit per
// code point in the basic multilingual plane, two for code points that
// need a surrogate pair.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16Units(r)
	}
	return n
}

// ToUTF16Offset converts a byte offset in s to a UTF-16 code-unit offset.
func ToUTF16Offset(s string, byteOff int) int {
	if byteOff <= 0 {
		return 0
	}
	if byteOff >= len(s) {
		return UTF16Len(s)
	}
	off := 0
	for i, r := range s {
		if i+utf8.RuneLen(r) > byteOff {
			break
		}
		off += utf16Units(r)
	}
	return off
}

// ToByteOffset converts a UTF-16 code-unit offset to a byte offset in s.
// It is the inverse of ToUTF16Offset for any offset on a code-point
// boundary.
func ToByteOffset(s string, utf16Off int) int {
	if utf16Off <= 0 {
		return 0
	}
	units := 0
	for i, r := range s {
		if units >= utf16Off {
			return i
		}
		if units+utf16Units(r) > utf16Off {
			// Offset splits a surrogate pair.
			return i
		}
		units += utf16Units(r)
	}
	return len(s)
}

func utf16Units(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
