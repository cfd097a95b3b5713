package kmeta

import (
	"errors"
	"fmt"
)

// utf8ModeMarker prefixes the first d1 string when bytes are stored one per
// char.
const utf8ModeMarker = '\u0000'

// maxStringBytes bounds the modified UTF-8 length of a class file constant.
const maxStringBytes = 65535

// EncodeBytes stores data in annotation strings, one char per byte shifted
// by 0x7f, split so every string fits a class file constant.
func EncodeBytes(data []byte) []string {
	var (
		out  []string
		cur  = []rune{utf8ModeMarker}
		size = 2
	)
	for _, b := range data {
		c := rune(b + 0x7f)
		n := 2
		if c != 0 && c < 0x80 {
			n = 1
		}
		if size+n > maxStringBytes {
			out = append(out, string(cur))
			cur, size = cur[:0], 0
		}
		cur = append(cur, c)
		size += n
	}
	return append(out, string(cur))
}

// DecodeBytes inverts EncodeBytes.
func DecodeBytes(strs []string) ([]byte, error) {
	if len(strs) == 0 {
		return nil, errors.New("no metadata strings")
	}
	var out []byte
	for i, s := range strs {
		runes := []rune(s)
		if i == 0 {
			if len(runes) == 0 || runes[0] != utf8ModeMarker {
				return nil, errors.New("unsupported metadata encoding")
			}
			runes = runes[1:]
		}
		for _, c := range runes {
			if c > 0xff {
				return nil, fmt.Errorf("metadata char %U out of range", c)
			}
			out = append(out, byte(c)-0x7f)
		}
	}
	return out, nil
}
