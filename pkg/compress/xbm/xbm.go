// Package xbm packs and unpacks the C array body of X11 bitmaps: a comma
// separated list of 0xNN literals, rows padded to whole bytes, least
// significant bit first.
package xbm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrTruncated is returned when the array ends before every row was read.
var ErrTruncated = errors.New("xbm: truncated bitmap data")

const perLine = 12

// RowBytes returns the packed size of one row.
func RowBytes(width int) int {
	return (width + 7) / 8
}

// Decode reads width*height bits and returns one byte per pixel, 1 for set bits.
func Decode(r io.Reader, width, height int) ([]byte, error) {
	br := bufio.NewReader(r)
	stride := RowBytes(width)
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for bx := 0; bx < stride; bx++ {
			v, err := nextLiteral(br)
			if err != nil {
				return nil, fmt.Errorf("%w at row %d: %v", ErrTruncated, y, err)
			}
			for bit := 0; bit < 8; bit++ {
				x := bx*8 + bit
				if x >= width {
					break
				}
				if v&(1<<bit) != 0 {
					pix[y*width+x] = 1
				}
			}
		}
	}
	return pix, nil
}

// nextLiteral skips to the next 0x prefix and parses the hex digits after it.
func nextLiteral(br *bufio.Reader) (byte, error) {
	prev := byte(0)
	for {
		c, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if prev == '0' && (c == 'x' || c == 'X') {
			break
		}
		prev = c
	}
	var v, digits int
	for digits < 2 {
		c, err := br.ReadByte()
		if err != nil {
			if digits > 0 && errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		d, ok := hexDigit(c)
		if !ok {
			if err := br.UnreadByte(); err != nil {
				return 0, err
			}
			break
		}
		v = v<<4 | d
		digits++
	}
	if digits == 0 {
		return 0, fmt.Errorf("empty hex literal")
	}
	return byte(v), nil
}

func hexDigit(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// Encode writes pix (one byte per pixel, non-zero means set) as hex literals.
func Encode(w io.Writer, pix []byte, width, height int) error {
	if len(pix) < width*height {
		return fmt.Errorf("xbm: %d pixels for a %dx%d bitmap", len(pix), width, height)
	}
	stride := RowBytes(width)
	total := stride * height
	var sb strings.Builder
	n := 0
	for y := 0; y < height; y++ {
		for bx := 0; bx < stride; bx++ {
			var v byte
			for bit := 0; bit < 8; bit++ {
				x := bx*8 + bit
				if x < width && pix[y*width+x] != 0 {
					v |= 1 << bit
				}
			}
			n++
			fmt.Fprintf(&sb, "0x%02x", v)
			switch {
			case n == total:
				sb.WriteByte('\n')
			case n%perLine == 0:
				sb.WriteString(",\n")
			default:
				sb.WriteByte(',')
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
