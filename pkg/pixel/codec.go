package pixel

import (
	"bufio"
	"fmt"
	"io"

	"github.com/jpfielding/imagefile.go/pkg/binio"
	"github.com/jpfielding/imagefile.go/pkg/compress/rle"
	"github.com/jpfielding/imagefile.go/pkg/compress/xbm"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
)

// Codec moves the pixels of one tile between a buffer and a byte stream.
type Codec interface {
	// Name is the codec name tiles refer to (e.g., "raw")
	Name() string
	// Decode reads the tile starting at its offset in r into buf
	Decode(buf *Buffer, t tile.Tile, r io.ReadSeeker) error
	// Encode writes the tile's region of buf to w
	Encode(buf *Buffer, t tile.Tile, w io.Writer) error
}

// rowIndex maps the i-th stored row to a buffer row.
func rowIndex(t tile.Tile, i int) int {
	if t.Args.BottomUp() {
		return t.Box.Max.Y - 1 - i
	}
	return t.Box.Min.Y + i
}

func checkTile(buf *Buffer, t tile.Tile) error {
	if !t.Within(buf.size) {
		return fmt.Errorf("pixel: tile %v outside buffer %v", t.Box, buf.size)
	}
	if t.Args.IsPlanar() {
		if t.Args.Plane < 0 || t.Args.Plane >= buf.bands {
			return fmt.Errorf("pixel: plane %d out of range for %d bands", t.Args.Plane, buf.bands)
		}
		if channels(t.Args.RawMode) != 1 {
			return fmt.Errorf("%w: planar tile with raw mode %q", ErrUnsupported, t.Args.RawMode)
		}
		return nil
	}
	if n := channels(t.Args.RawMode); n != buf.bands {
		return fmt.Errorf("%w: raw mode %q has %d channels, buffer %d", ErrUnsupported, t.Args.RawMode, n, buf.bands)
	}
	return nil
}

// scatter stores one row of samples into the tile's region of buf.
func scatter(buf *Buffer, t tile.Tile, y int, samples []byte) {
	w := t.Box.Dx()
	start := (y*buf.size.X + t.Box.Min.X) * buf.bands
	if !t.Args.IsPlanar() {
		copy(buf.Pix[start:start+w*buf.bands], samples)
		return
	}
	for x := 0; x < w; x++ {
		buf.Pix[start+x*buf.bands+t.Args.Plane] = samples[x]
	}
}

// gather is the inverse of scatter.
func gather(buf *Buffer, t tile.Tile, y int, samples []byte) {
	w := t.Box.Dx()
	start := (y*buf.size.X + t.Box.Min.X) * buf.bands
	if !t.Args.IsPlanar() {
		copy(samples, buf.Pix[start:start+w*buf.bands])
		return
	}
	for x := 0; x < w; x++ {
		samples[x] = buf.Pix[start+x*buf.bands+t.Args.Plane]
	}
}

// rawCodec handles uncompressed rows
type rawCodec struct{}

func (rawCodec) Name() string { return tile.Raw }

func (rawCodec) Decode(buf *Buffer, t tile.Tile, r io.ReadSeeker) error {
	if err := checkTile(buf, t); err != nil {
		return err
	}
	if _, err := r.Seek(t.Offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to tile data: %w", err)
	}
	w, h := t.Box.Dx(), t.Box.Dy()
	br := bufio.NewReader(r)
	row := make([]byte, t.Args.RowStride(w))
	samples := make([]byte, w*channels(t.Args.RawMode))
	bilevel := buf.mode == mode.Bilevel
	for i := 0; i < h; i++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return fmt.Errorf("%w: raw row %d of %d: %v", binio.ErrTruncated, i, h, err)
		}
		if err := unpackRow(t.Args.RawMode, row, samples, w, bilevel); err != nil {
			return err
		}
		scatter(buf, t, rowIndex(t, i), samples)
	}
	return nil
}

func (rawCodec) Encode(buf *Buffer, t tile.Tile, w io.Writer) error {
	if err := checkTile(buf, t); err != nil {
		return err
	}
	width, h := t.Box.Dx(), t.Box.Dy()
	bw := bufio.NewWriter(w)
	row := make([]byte, t.Args.RowStride(width))
	samples := make([]byte, width*channels(t.Args.RawMode))
	for i := 0; i < h; i++ {
		gather(buf, t, rowIndex(t, i), samples)
		clear(row)
		if err := packRow(t.Args.RawMode, samples, row, width); err != nil {
			return err
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// packBitsCodec handles rows compressed one at a time with PackBits
type packBitsCodec struct{}

func (packBitsCodec) Name() string { return tile.PackBits }

func (packBitsCodec) Decode(buf *Buffer, t tile.Tile, r io.ReadSeeker) error {
	if err := checkTile(buf, t); err != nil {
		return err
	}
	if _, err := r.Seek(t.Offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to tile data: %w", err)
	}
	w, h := t.Box.Dx(), t.Box.Dy()
	stride := t.Args.RowStride(w)
	br := rle.NewReader(r)
	samples := make([]byte, w*channels(t.Args.RawMode))
	bilevel := buf.mode == mode.Bilevel
	for i := 0; i < h; i++ {
		row, err := rle.Decode(br, stride)
		if err != nil {
			return fmt.Errorf("%w: packbits row %d of %d: %v", binio.ErrTruncated, i, h, err)
		}
		if err := unpackRow(t.Args.RawMode, row, samples, w, bilevel); err != nil {
			return err
		}
		scatter(buf, t, rowIndex(t, i), samples)
	}
	return nil
}

func (packBitsCodec) Encode(buf *Buffer, t tile.Tile, w io.Writer) error {
	if err := checkTile(buf, t); err != nil {
		return err
	}
	width, h := t.Box.Dx(), t.Box.Dy()
	rw := rle.NewRowWriter(w)
	row := make([]byte, t.Args.RowStride(width))
	samples := make([]byte, width*channels(t.Args.RawMode))
	for i := 0; i < h; i++ {
		gather(buf, t, rowIndex(t, i), samples)
		clear(row)
		if err := packRow(t.Args.RawMode, samples, row, width); err != nil {
			return err
		}
		if err := rw.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

// xbmCodec handles the hex array body of X11 bitmaps
type xbmCodec struct{}

func (xbmCodec) Name() string { return tile.XBM }

func (xbmCodec) Decode(buf *Buffer, t tile.Tile, r io.ReadSeeker) error {
	if buf.bands != 1 {
		return fmt.Errorf("%w: xbm tile into %d bands", ErrUnsupported, buf.bands)
	}
	if !t.Within(buf.size) {
		return fmt.Errorf("pixel: tile %v outside buffer %v", t.Box, buf.size)
	}
	if _, err := r.Seek(t.Offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to tile data: %w", err)
	}
	w, h := t.Box.Dx(), t.Box.Dy()
	pix, err := xbm.Decode(r, w, h)
	if err != nil {
		return fmt.Errorf("%w: %v", binio.ErrTruncated, err)
	}
	on := byte(1)
	if buf.mode == mode.Bilevel {
		on = 0xFF
	}
	for y := 0; y < h; y++ {
		row := buf.Row(t.Box.Min.Y + y)[t.Box.Min.X:]
		for x := 0; x < w; x++ {
			row[x] = 0
			if pix[y*w+x] != 0 {
				row[x] = on
			}
		}
	}
	return nil
}

func (xbmCodec) Encode(buf *Buffer, t tile.Tile, w io.Writer) error {
	if buf.bands != 1 {
		return fmt.Errorf("%w: xbm tile from %d bands", ErrUnsupported, buf.bands)
	}
	if !t.Within(buf.size) {
		return fmt.Errorf("pixel: tile %v outside buffer %v", t.Box, buf.size)
	}
	width, h := t.Box.Dx(), t.Box.Dy()
	pix := make([]byte, width*h)
	for y := 0; y < h; y++ {
		copy(pix[y*width:(y+1)*width], buf.Row(t.Box.Min.Y + y)[t.Box.Min.X:])
	}
	return xbm.Encode(w, pix, width, h)
}
