// Package tile describes how a region of an image maps to a codec and a byte
// range of the source stream. Tiles are built once by a format parser and are
// read-only afterwards, so they can be handed to a pixel engine as-is.
package tile

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidTile is returned for empty or inverted destination boxes.
var ErrInvalidTile = errors.New("tile: invalid tile")

// Codec names understood by the pixel engine
const (
	Raw      = "raw"
	PackBits = "packbits"
	XBM      = "xbm"
)

// Row order
const (
	TopDown  = 1
	BottomUp = -1
)

// Args carries codec specific parameters.
type Args struct {
	// RawMode is the on-disk pixel layout, e.g. "BGR", "P;4", "L;I".
	RawMode string `json:"rawmode"`
	// Stride is the row length in bytes; 0 means tightly packed.
	Stride int `json:"stride"`
	// Orientation is TopDown or BottomUp; 0 reads as TopDown.
	Orientation int `json:"orientation"`
	// Planar tiles fill the single band Plane; others fill every band.
	Planar bool `json:"planar,omitempty"`
	Plane  int  `json:"plane,omitempty"`
}

// Tile is one decode/encode unit.
type Tile struct {
	Codec  string          `json:"codec"`
	Box    image.Rectangle `json:"box"`
	Offset int64           `json:"offset"`
	Args   Args            `json:"args"`
}

// New builds a tile, rejecting empty or inverted boxes.
func New(codec string, box image.Rectangle, offset int64, args Args) (Tile, error) {
	if box.Dx() <= 0 || box.Dy() <= 0 {
		return Tile{}, fmt.Errorf("%w: empty or inverted box %v", ErrInvalidTile, box)
	}
	if offset < 0 {
		return Tile{}, fmt.Errorf("%w: negative offset %d", ErrInvalidTile, offset)
	}
	if args.Orientation == 0 {
		args.Orientation = TopDown
	}
	return Tile{Codec: codec, Box: box, Offset: offset, Args: args}, nil
}

// Within reports whether the tile's box lies inside an image of the given size
func (t Tile) Within(size image.Point) bool {
	return t.Box.In(image.Rectangle{Max: size})
}

// BottomUp reports whether rows are stored last row first.
func (a Args) BottomUp() bool {
	return a.Orientation == BottomUp
}

// IsPlanar reports whether the tile targets a single band.
func (a Args) IsPlanar() bool {
	return a.Planar
}

// RowStride returns the number of bytes per stored row for a tile width.
func (a Args) RowStride(width int) int {
	if a.Stride > 0 {
		return a.Stride
	}
	return (width*BitsPerPixel(a.RawMode) + 7) / 8
}

// BitsPerPixel returns the stored bit depth of a raw mode. Unknown modes
// report 8 bits, matching single band plane names like "R" or "C;I".
func BitsPerPixel(rawMode string) int {
	switch rawMode {
	case "1", "1;I":
		return 1
	case "P;4":
		return 4
	case "RGB", "BGR":
		return 24
	case "RGBX", "BGRX", "RGBA":
		return 32
	default:
		return 8
	}
}

// PaddedStride is the 4 byte aligned row length used by bitmap containers.
func PaddedStride(width, bits int) int {
	return ((width*bits + 31) / 32) * 4
}
