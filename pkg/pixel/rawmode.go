package pixel

import (
	"fmt"
	"strings"
)

// channels is the number of samples one stored pixel expands to.
func channels(rawMode string) int {
	switch rawMode {
	case "RGB", "BGR":
		return 3
	default:
		return 1
	}
}

func inverted(rawMode string) bool {
	return strings.HasSuffix(rawMode, ";I")
}

// unpackRow expands one stored row into width*channels samples. Set bits of a
// "1" row become 255 when bilevel is true and 1 otherwise (palette indices).
func unpackRow(rawMode string, src, dst []byte, width int, bilevel bool) error {
	on := byte(1)
	if bilevel {
		on = 0xFF
	}
	switch rawMode {
	case "1", "1;I":
		inv := rawMode == "1;I"
		for x := 0; x < width; x++ {
			set := src[x>>3]&(0x80>>(x&7)) != 0
			if set != inv {
				dst[x] = on
			} else {
				dst[x] = 0
			}
		}
	case "P;4":
		for x := 0; x < width; x++ {
			v := src[x>>1]
			if x&1 == 0 {
				dst[x] = v >> 4
			} else {
				dst[x] = v & 0x0F
			}
		}
	case "RGB":
		copy(dst[:width*3], src[:width*3])
	case "BGR":
		for x := 0; x < width; x++ {
			dst[x*3], dst[x*3+1], dst[x*3+2] = src[x*3+2], src[x*3+1], src[x*3]
		}
	default:
		if len(rawMode) == 0 {
			return fmt.Errorf("%w: empty raw mode", ErrUnsupported)
		}
		if inverted(rawMode) {
			for x := 0; x < width; x++ {
				dst[x] = 0xFF - src[x]
			}
		} else {
			copy(dst[:width], src[:width])
		}
	}
	return nil
}

// packRow is the inverse of unpackRow; dst must be zeroed and at least the
// tightly packed row length.
func packRow(rawMode string, src, dst []byte, width int) error {
	switch rawMode {
	case "1", "1;I":
		inv := rawMode == "1;I"
		for x := 0; x < width; x++ {
			if (src[x] != 0) != inv {
				dst[x>>3] |= 0x80 >> (x & 7)
			}
		}
	case "P;4":
		for x := 0; x < width; x++ {
			v := src[x] & 0x0F
			if x&1 == 0 {
				dst[x>>1] |= v << 4
			} else {
				dst[x>>1] |= v
			}
		}
	case "RGB":
		copy(dst[:width*3], src[:width*3])
	case "BGR":
		for x := 0; x < width; x++ {
			dst[x*3], dst[x*3+1], dst[x*3+2] = src[x*3+2], src[x*3+1], src[x*3]
		}
	default:
		if len(rawMode) == 0 {
			return fmt.Errorf("%w: empty raw mode", ErrUnsupported)
		}
		if inverted(rawMode) {
			for x := 0; x < width; x++ {
				dst[x] = 0xFF - src[x]
			}
		} else {
			copy(dst[:width], src[:width])
		}
	}
	return nil
}
