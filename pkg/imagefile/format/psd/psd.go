// Package psd reads the flattened image of layered documents: a big-endian
// 26-byte header, three length-prefixed blocks and planar channel data that is
// either raw or PackBits compressed row by row.
package psd

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/jpfielding/imagefile.go/pkg/binio"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/format"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/palette"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
)

// ID is the registry id
const ID = "PSD"

const (
	headerLen  = 26
	magic      = "8BPS"
	paletteLen = 768
)

// Compression selectors
const (
	CompressionRaw      = 0
	CompressionPackBits = 1
)

var be = binio.BigEndian

// Plugin registers the layered document opener. There is no saver.
var Plugin = format.Plugin{
	ID:          ID,
	Description: "Adobe Photoshop",
	Open:        Open,
	Sniff:       Accept,
	Extensions:  []string{".psd"},
}

// modes maps the header mode code to a Mode
var modes = map[uint16]mode.Mode{
	0: mode.Bilevel,
	1: mode.Gray,
	2: mode.Palette,
	3: mode.RGB,
	4: mode.CMYK,
	7: mode.MultiLayer,
	8: mode.Gray, // duotone, read as its grey channel
}

// Accept reports whether prefix starts with the layered document magic.
func Accept(prefix []byte) bool {
	return bytes.HasPrefix(prefix, []byte(magic))
}

// Open parses the header and builds one tile per channel.
func Open(r io.ReadSeeker) (*format.Header, error) {
	s, err := binio.ReadFull(r, headerLen)
	if err != nil {
		return nil, fmt.Errorf("reading psd header: %w", err)
	}
	version, _ := binio.ReadU16(s, 4, be)
	if string(s[:4]) != magic || version != 1 {
		return nil, fmt.Errorf("%w: not a PSD file", format.ErrSignatureMismatch)
	}
	channels, _ := binio.ReadU16(s, 12, be)
	height, _ := binio.ReadU32(s, 14, be)
	width, _ := binio.ReadU32(s, 18, be)
	depth, _ := binio.ReadU16(s, 22, be)
	code, _ := binio.ReadU16(s, 24, be)

	h := format.NewHeader(ID)
	h.Size = image.Pt(int(width), int(height))
	h.Info[format.InfoLayers] = int(channels)

	m, ok := modes[code]
	if !ok {
		return nil, fmt.Errorf("%w: PSD mode %d", format.ErrUnsupportedMode, code)
	}
	if m == mode.RGB && channels >= 4 {
		m = mode.RGBA
	}
	h.Mode = m
	if m == mode.MultiLayer {
		h.Layers = int(channels)
	}
	bands := h.Bands()
	if bands == 0 || int(channels) < bands {
		return nil, fmt.Errorf("%w: %d channels for PSD mode %d", format.ErrUnsupportedMode, channels, code)
	}
	wantDepth := uint16(8)
	if m == mode.Bilevel {
		wantDepth = 1
	}
	if depth != wantDepth {
		return nil, fmt.Errorf("%w: PSD depth %d for mode %v", format.ErrUnsupportedDepth, depth, m)
	}

	// colour mode data
	data, err := readBlock(r)
	if err != nil {
		return nil, fmt.Errorf("reading psd colour mode data: %w", err)
	}
	if m == mode.Palette && len(data) == paletteLen {
		h.Palette = palette.NewRaw(palette.OrderPlanarRGB, data)
	}
	// image resources, then layer and mask information; neither is parsed
	for _, name := range []string{"image resources", "layer and mask information"} {
		if err := skipBlock(r); err != nil {
			return nil, fmt.Errorf("skipping psd %s: %w", name, err)
		}
	}

	compression, err := binio.Uint16(r, be)
	if err != nil {
		return nil, fmt.Errorf("reading psd compression: %w", err)
	}
	h.Info[format.InfoCompression] = compression

	names := rawModes(h)
	rowBytes := (h.Size.X*int(depth) + 7) / 8
	box := image.Rectangle{Max: h.Size}
	empty := box.Empty()

	switch compression {
	case CompressionRaw:
		offset, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		for i, name := range names {
			if empty {
				break
			}
			t, err := tile.New(tile.Raw, box, offset, tile.Args{RawMode: name, Stride: rowBytes, Planar: true, Plane: i})
			if err != nil {
				return nil, err
			}
			h.Tiles = append(h.Tiles, t)
			offset += int64(rowBytes) * int64(h.Size.Y)
		}
	case CompressionPackBits:
		rows := h.Size.Y
		counts, err := binio.ReadBounded(r, int64(channels)*int64(rows)*2)
		if err != nil {
			return nil, fmt.Errorf("reading psd row byte counts: %w", err)
		}
		offset, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		for i, name := range names {
			if empty {
				break
			}
			t, err := tile.New(tile.PackBits, box, offset, tile.Args{RawMode: name, Stride: rowBytes, Planar: true, Plane: i})
			if err != nil {
				return nil, err
			}
			h.Tiles = append(h.Tiles, t)
			offset += channelLength(counts, i, rows)
		}
	default:
		return nil, fmt.Errorf("%w: PSD compression %d", format.ErrUnsupportedMode, compression)
	}
	return h, nil
}

// channelLength sums the compressed row sizes of one channel.
func channelLength(counts []byte, channel, rows int) int64 {
	var n int64
	for y := 0; y < rows; y++ {
		v, _ := binio.ReadU16(counts, (channel*rows+y)*2, be)
		n += int64(v)
	}
	return n
}

// rawModes names the stored layout of each band's plane.
func rawModes(h *format.Header) []string {
	switch h.Mode {
	case mode.Bilevel:
		return []string{"1;I"}
	case mode.CMYK:
		names := mode.CMYK.BandNames()
		for i := range names {
			names[i] += ";I"
		}
		return names
	case mode.MultiLayer:
		names := make([]string, h.Layers)
		for i := range names {
			names[i] = "L"
		}
		return names
	default:
		return h.Mode.BandNames()
	}
}

func readBlock(r io.ReadSeeker) ([]byte, error) {
	n, err := binio.Uint32(r, be)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return binio.ReadBounded(r, int64(n))
}

func skipBlock(r io.ReadSeeker) error {
	n, err := binio.Uint32(r, be)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	left, err := binio.Remaining(r)
	if err != nil {
		return err
	}
	if int64(n) > left {
		return fmt.Errorf("%w: block of %d bytes, %d left", format.ErrTruncated, n, left)
	}
	_, err = r.Seek(int64(n), io.SeekCurrent)
	return err
}
