package jvm

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// encodeModifiedUTF8 encodes s as the modified UTF-8 used by CONSTANT_Utf8:
// U+0000 takes two bytes and supplementary characters are written as
// surrogate pairs.
func encodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		units := []uint16{uint16(r)}
		if r >= 0x10000 {
			r1, r2 := utf16.EncodeRune(r)
			units = []uint16{uint16(r1), uint16(r2)}
		}
		for _, u := range units {
			switch {
			case u != 0 && u < 0x80:
				out = append(out, byte(u))
			case u < 0x800:
				out = append(out, byte(0xc0|u>>6), byte(0x80|u&0x3f))
			default:
				out = append(out, byte(0xe0|u>>12), byte(0x80|(u>>6)&0x3f), byte(0x80|u&0x3f))
			}
		}
	}
	return out
}

// ModifiedUTF8Len returns the length of s once encoded as modified UTF-8.
func ModifiedUTF8Len(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r != 0 && r < 0x80:
			n++
		case r < 0x800:
			n += 2
		case r < 0x10000:
			n += 3
		default:
			n += 6
		}
	}
	return n
}

// decodeModifiedUTF8 is the inverse of encodeModifiedUTF8.
func decodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			units = append(units, uint16(c))
			i++
		case c&0xe0 == 0xc0:
			if i+1 >= len(b) {
				return "", fmt.Errorf("truncated modified UTF-8 at %d", i)
			}
			units = append(units, uint16(c&0x1f)<<6|uint16(b[i+1]&0x3f))
			i += 2
		case c&0xf0 == 0xe0:
			if i+2 >= len(b) {
				return "", fmt.Errorf("truncated modified UTF-8 at %d", i)
			}
			units = append(units, uint16(c&0x0f)<<12|uint16(b[i+1]&0x3f)<<6|uint16(b[i+2]&0x3f))
			i += 3
		default:
			return "", fmt.Errorf("invalid modified UTF-8 byte %#x at %d", c, i)
		}
	}
	runes := utf16.Decode(units)
	buf := make([]byte, 0, len(runes))
	for _, r := range runes {
		buf = utf8.AppendRune(buf, r)
	}
	return string(buf), nil
}
