package bmp

import (
	"fmt"
	"image"
	"io"

	"github.com/jpfielding/imagefile.go/pkg/binio"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/format"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/palette"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
)

// 72 dpi
const defaultPPM = 2835

var saveModes = map[mode.Mode]struct {
	rawMode string
	bits    int
	colors  int
}{
	mode.Bilevel: {"1", 1, 2},
	mode.Gray:    {"L", 8, 256},
	mode.Palette: {"P", 8, 256},
	mode.RGB:     {"BGR", 24, 0},
}

// Save writes src as an uncompressed bitmap with a 40-byte info header. Rows are
// always written bottom to top and padded to 4 bytes.
func Save(w io.Writer, src format.Source) error {
	sm, ok := saveModes[src.Mode()]
	if !ok {
		return fmt.Errorf("%w: cannot write mode %v as BMP", format.ErrUnsupportedSaveMode, src.Mode())
	}
	lut, err := colorTable(src, sm.colors)
	if err != nil {
		return err
	}
	colors := len(lut) / 4

	size := src.Size()
	stride := tile.PaddedStride(size.X, sm.bits)
	offset := fileHeaderLen + infoHeaderLen + len(lut)
	imageLen := stride * size.Y

	hdr := make([]byte, fileHeaderLen+infoHeaderLen)
	copy(hdr, magic)
	fields := []struct {
		off   int
		v     uint32
		short bool
	}{
		{2, uint32(offset + imageLen), false}, // file size
		{6, 0, false},                         // reserved
		{10, uint32(offset), false},           // pixel data offset
		{14, infoHeaderLen, false},            // info header size
		{18, uint32(size.X), false},           // width
		{22, uint32(size.Y), false},           // height
		{26, 1, true},                         // planes
		{28, uint32(sm.bits), true},           // depth
		{30, 0, false},                        // compression
		{34, uint32(imageLen), false},         // size of bitmap
		{38, defaultPPM, false},               // horizontal resolution
		{42, defaultPPM, false},               // vertical resolution
		{46, uint32(colors), false},           // colors used
		{50, uint32(colors), false},           // colors important
	}
	for _, f := range fields {
		if f.short {
			err = binio.WriteU16(hdr, f.off, uint16(f.v), le)
		} else {
			err = binio.WriteU32(hdr, f.off, f.v, le)
		}
		if err != nil {
			return err
		}
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if _, err := w.Write(lut); err != nil {
		return err
	}
	if size.X == 0 || size.Y == 0 {
		return nil
	}
	t, err := tile.New(tile.Raw, image.Rectangle{Max: size}, 0, tile.Args{
		RawMode:     sm.rawMode,
		Stride:      stride,
		Orientation: tile.BottomUp,
	})
	if err != nil {
		return err
	}
	return src.EncodeTiles(w, []tile.Tile{t})
}

// colorTable returns the BGRX colour table to write for src.
func colorTable(src format.Source, colors int) ([]byte, error) {
	switch src.Mode() {
	case mode.Bilevel, mode.Gray:
		return palette.Grayscale(colors).Bytes(palette.OrderBGRX)
	case mode.Palette:
		p := src.Palette()
		if p == nil || p.Len() == 0 {
			return nil, fmt.Errorf("%w: palette image without a palette", format.ErrUnsupportedSaveMode)
		}
		if p.Len() > colors {
			return nil, fmt.Errorf("%w: %d palette entries", format.ErrUnsupportedSaveMode, p.Len())
		}
		return p.Bytes(palette.OrderBGRX)
	default:
		return nil, nil
	}
}
