// Package binio provides fixed-width integer readers and writers over raw byte
// buffers. Every call takes the byte order explicitly; container formats pick
// their own (bitmaps are little endian, layered documents big endian).
package binio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated is returned when a buffer or stream ends before a required field.
var ErrTruncated = errors.New("binio: truncated input")

// Common byte orders, re-exported so callers only import one package.
var (
	LittleEndian binary.ByteOrder = binary.LittleEndian
	BigEndian    binary.ByteOrder = binary.BigEndian
)

func need(buf []byte, off, n int) error {
	if off < 0 || off+n > len(buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, off, len(buf))
	}
	return nil
}

// ReadU16 reads an unsigned 16-bit value at off.
func ReadU16(buf []byte, off int, order binary.ByteOrder) (uint16, error) {
	if err := need(buf, off, 2); err != nil {
		return 0, err
	}
	return order.Uint16(buf[off:]), nil
}

// ReadU32 reads an unsigned 32-bit value at off.
func ReadU32(buf []byte, off int, order binary.ByteOrder) (uint32, error) {
	if err := need(buf, off, 4); err != nil {
		return 0, err
	}
	return order.Uint32(buf[off:]), nil
}

// ReadI32 reads a signed 32-bit value at off.
func ReadI32(buf []byte, off int, order binary.ByteOrder) (int32, error) {
	v, err := ReadU32(buf, off, order)
	return int32(v), err
}

// WriteU16 stores v at off.
func WriteU16(buf []byte, off int, v uint16, order binary.ByteOrder) error {
	if err := need(buf, off, 2); err != nil {
		return err
	}
	order.PutUint16(buf[off:], v)
	return nil
}

// WriteU32 stores v at off.
func WriteU32(buf []byte, off int, v uint32, order binary.ByteOrder) error {
	if err := need(buf, off, 4); err != nil {
		return err
	}
	order.PutUint32(buf[off:], v)
	return nil
}

// ReadFull reads exactly n bytes from r. Short reads are reported as ErrTruncated.
func ReadFull(r io.Reader, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrTruncated, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: wanted %d bytes: %v", ErrTruncated, n, err)
		}
		return nil, err
	}
	return buf, nil
}

// Uint16 reads a 16-bit value straight from a stream.
func Uint16(r io.Reader, order binary.ByteOrder) (uint16, error) {
	b, err := ReadFull(r, 2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

// Uint32 reads a 32-bit value straight from a stream.
func Uint32(r io.Reader, order binary.ByteOrder) (uint32, error) {
	b, err := ReadFull(r, 4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

// Remaining returns the number of bytes between the current position of r and
// its end. The position is left unchanged.
func Remaining(r io.Seeker) (int64, error) {
	cur, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := r.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end - cur, nil
}

// ReadBounded reads n bytes from r after checking that the stream still holds
// them, so a corrupt length never drives an allocation.
func ReadBounded(r io.ReadSeeker, n int64) ([]byte, error) {
	left, err := Remaining(r)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > left {
		return nil, fmt.Errorf("%w: wanted %d bytes, %d left", ErrTruncated, n, left)
	}
	return ReadFull(r, int(n))
}
