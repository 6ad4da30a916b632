// Package engine declares what the image session needs from a pixel engine:
// somewhere to put pixels, and codecs that move them between a buffer and a
// stream as directed by tile descriptors.
package engine

import (
	"image"
	"io"

	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/palette"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
)

// Buffer is a decoded pixel store.
type Buffer interface {
	image.Image
	Mode() mode.Mode
	Size() image.Point
}

// Engine performs the pixel arithmetic behind load and save.
type Engine interface {
	// NewBuffer allocates a zeroed buffer. bands is only consulted for multi-layer modes.
	NewBuffer(m mode.Mode, size image.Point, bands int) (Buffer, error)
	// Decode applies each tile's codec against r into buf.
	Decode(buf Buffer, tiles []tile.Tile, r io.ReadSeeker) error
	// Encode is the inverse of Decode; tile offsets are ignored and data is written sequentially.
	Encode(buf Buffer, tiles []tile.Tile, w io.Writer) error
	// RealizePalette converts a raw table and attaches it to buf.
	RealizePalette(buf Buffer, p *palette.Raw) (*palette.Realized, error)
	// AttachPalette attaches an already realized table to buf.
	AttachPalette(buf Buffer, p *palette.Realized) error
}
