// Package gd reads the uncompressed GD 1.x image format. It is a demonstration
// format and is not meant for interchange; there is no saver.
package gd

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

// ID is the registry id
const ID = "GD"

// InfoColors is the number of palette entries in use
const InfoColors = "colors"

const (
	headerLen     = 775
	paletteOffset = 7
	// indices at or above this mean no transparent colour
	noTransparency = 256
)

var be = binio.BigEndian

// Plugin registers the GD opener. The format has no magic, so there is no sniffer.
var Plugin = format.Plugin{
	ID:          ID,
	Description: "GD uncompressed images",
	Open:        Open,
	Extensions:  []string{".gd"},
}

// Open reads the fixed header. Because any stream could carry one, the total
// stream length must equal the header plus width*height bytes.
func Open(r io.ReadSeeker) (*format.Header, error) {
	s, err := binio.ReadFull(r, headerLen)
	if err != nil {
		return nil, fmt.Errorf("reading gd header: %w", err)
	}
	width, _ := binio.ReadU16(s, 0, be)
	height, _ := binio.ReadU16(s, 2, be)
	tindex, _ := binio.ReadU16(s, 5, be)

	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	if want := int64(headerLen) + int64(width)*int64(height); end != want {
		return nil, fmt.Errorf("%w: %d bytes for a %dx%d GD image", format.ErrSignatureMismatch, end, width, height)
	}

	h := format.NewHeader(ID)
	h.Mode = mode.Palette
	h.Size = image.Pt(int(width), int(height))
	h.Info[InfoColors] = int(s[4])
	if tindex < noTransparency {
		h.Info[format.InfoTransparency] = int(tindex)
	}
	// 256 interleaved RGB triples
	h.Palette = palette.NewRaw(palette.OrderRGB, s[paletteOffset:])
	if width > 0 && height > 0 {
		// rows are stored last row first
		t, err := tile.New(tile.Raw, image.Rectangle{Max: h.Size}, headerLen, tile.Args{RawMode: "L", Orientation: tile.BottomUp})
		if err != nil {
			return nil, err
		}
		h.Tiles = []tile.Tile{t}
	}
	return h, nil
}
