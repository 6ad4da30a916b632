// Package rle implements PackBits, the byte oriented run-length scheme used for
// the row data of layered documents.
//
// A control byte n is followed by n+1 literal bytes when 0 <= n <= 127, or by a
// single byte repeated 1-n times when -127 <= n <= -1. -128 is a no-op.
package rle

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrTruncatedLiteral is returned when a literal run is cut short.
	ErrTruncatedLiteral = errors.New("rle: compressed data truncated in literal run")
	// ErrTruncatedReplicate is returned when a replicate run lacks its value byte.
	ErrTruncatedReplicate = errors.New("rle: compressed data truncated in replicate run")
)

const maxRun = 128

// Encode compresses data. Runs of two or more equal bytes become replicate
// runs; literals stop at the next run of three.
func Encode(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	var buf bytes.Buffer
	i := 0
	for i < len(data) {
		run := 1
		for i+run < len(data) && run < maxRun && data[i+run] == data[i] {
			run++
		}
		if run > 1 {
			buf.WriteByte(byte(int8(-(run - 1))))
			buf.WriteByte(data[i])
			i += run
			continue
		}

		lit := 1
		for i+lit < len(data) && lit < maxRun {
			if i+lit+2 < len(data) && data[i+lit] == data[i+lit+1] && data[i+lit] == data[i+lit+2] {
				break
			}
			lit++
		}
		buf.WriteByte(byte(lit - 1))
		buf.Write(data[i : i+lit])
		i += lit
	}
	return buf.Bytes()
}

// DecodeBytes decodes an in-memory PackBits stream. When expectedLen > 0
// decoding stops as soon as that many bytes were produced.
func DecodeBytes(data []byte, expectedLen int) ([]byte, error) {
	out, err := Decode(bytes.NewReader(data), expectedLen)
	if errors.Is(err, io.EOF) {
		return out, nil
	}
	return out, err
}

// Decode reads PackBits data from r until expectedLen bytes were produced.
// It returns io.EOF, together with what was decoded, when r ends cleanly on a
// control byte boundary before expectedLen was reached or when expectedLen is 0.
func Decode(r io.ByteReader, expectedLen int) ([]byte, error) {
	var buf bytes.Buffer
	if expectedLen > 0 {
		buf.Grow(expectedLen)
	}
	for expectedLen <= 0 || buf.Len() < expectedLen {
		c, err := r.ReadByte()
		if err != nil {
			return buf.Bytes(), err
		}
		n := int8(c)
		switch {
		case n == -128:
			continue
		case n >= 0:
			count := int(n) + 1
			for k := 0; k < count; k++ {
				b, err := r.ReadByte()
				if err != nil {
					return buf.Bytes(), fmt.Errorf("%w (wanted %d, got %d)", ErrTruncatedLiteral, count, k)
				}
				buf.WriteByte(b)
			}
		default:
			count := int(-n) + 1
			b, err := r.ReadByte()
			if err != nil {
				return buf.Bytes(), ErrTruncatedReplicate
			}
			for k := 0; k < count; k++ {
				buf.WriteByte(b)
			}
		}
	}
	return buf.Bytes(), nil
}

// RowWriter packs one row at a time and remembers each row's compressed size,
// which is what the layered document byte-count table stores.
type RowWriter struct {
	w      io.Writer
	counts []uint16
}

// NewRowWriter wraps w.
func NewRowWriter(w io.Writer) *RowWriter {
	return &RowWriter{w: w}
}

// WriteRow compresses and writes a single row.
func (rw *RowWriter) WriteRow(row []byte) error {
	packed := Encode(row)
	if len(packed) > 0xFFFF {
		return fmt.Errorf("rle: packed row of %d bytes overflows a 16-bit count", len(packed))
	}
	if _, err := rw.w.Write(packed); err != nil {
		return err
	}
	rw.counts = append(rw.counts, uint16(len(packed)))
	return nil
}

// Counts returns the compressed size of every row written so far.
func (rw *RowWriter) Counts() []uint16 {
	return rw.counts
}

// NewReader buffers r for Decode.
func NewReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}
