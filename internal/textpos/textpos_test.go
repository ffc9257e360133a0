package textpos

import "testing"

func TestUTF16Len(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"two byte", "é", 1},
		{"three byte", "€", 1},
		{"surrogate pair", "𐐀", 2},
		{"mixed", "a€𐐀b", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UTF16Len(tt.in); got != tt.want {
				t.Errorf("UTF16Len(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToUTF16Offset_ASCII(t *testing.T) {
	s := "hello"
	for i := 0; i <= len(s); i++ {
		if got := ToUTF16Offset(s, i); got != i {
			t.Errorf("ToUTF16Offset(%q, %d) = %d, want %d", s, i, got, i)
		}
	}
}

func TestToUTF16Offset_SurrogatePair(t *testing.T) {
	// "a" + U+10400 (4 bytes, 2 code units) + "b"
	s := "a𐐀b"

	before := ToUTF16Offset(s, 1) // boundary before the pair
	after := ToUTF16Offset(s, 5)  // boundary after the pair
	if before != 1 {
		t.Errorf("offset before pair = %d, want 1", before)
	}
	if after-before != 2 {
		t.Errorf("pair advanced %d code units, want 2", after-before)
	}
	if 5-1 != 4 {
		t.Fatal("test setup: surrogate-pair character should occupy 4 bytes")
	}
}

func TestToUTF16Offset_MidSequenceRoundsDown(t *testing.T) {
	s := "a𐐀b"
	// Byte offsets 2, 3, 4 fall inside the 4-byte sequence starting at 1.
	for _, off := range []int{2, 3, 4} {
		if got := ToUTF16Offset(s, off); got != 1 {
			t.Errorf("ToUTF16Offset(%q, %d) = %d, want 1 (round down)", s, off, got)
		}
	}
}

func TestToByteOffset_MidSurrogateRoundsDown(t *testing.T) {
	s := "a𐐀b"
	// Code unit 2 is the low surrogate of the pair starting at byte 1.
	if got := ToByteOffset(s, 2); got != 1 {
		t.Errorf("ToByteOffset(%q, 2) = %d, want 1", s, got)
	}
}

func TestToByteOffset_Clamps(t *testing.T) {
	s := "ab"
	if got := ToByteOffset(s, -1); got != 0 {
		t.Errorf("ToByteOffset(s, -1) = %d, want 0", got)
	}
	if got := ToByteOffset(s, 99); got != len(s) {
		t.Errorf("ToByteOffset(s, 99) = %d, want %d", got, len(s))
	}
	if got := ToUTF16Offset(s, -1); got != 0 {
		t.Errorf("ToUTF16Offset(s, -1) = %d, want 0", got)
	}
	if got := ToUTF16Offset(s, 99); got != 2 {
		t.Errorf("ToUTF16Offset(s, 99) = %d, want 2", got)
	}
}

func TestRoundTrip(t *testing.T) {
	strings := []string{"", "hello", "héllo wörld", "𐐀𐐁𐐂", "a€𐐀b\n"}
	for _, s := range strings {
		for i := 0; i <= len(s); i++ {
			// Only valid boundaries are required to round-trip.
			if i < len(s) && !isBoundary(s, i) {
				continue
			}
			w := ToUTF16Offset(s, i)
			back := ToByteOffset(s, w)
			if back != i {
				t.Errorf("round trip %q byte %d -> u16 %d -> byte %d", s, i, w, back)
			}
		}
	}
}

func isBoundary(s string, i int) bool {
	return i == 0 || i == len(s) || (s[i]&0xC0) != 0x80
}
