// Package format holds the contract shared by every container parser: the
// header a parser produces, the open/sniff/save function types, the error
// taxonomy and the registry that dispatches between formats.
package format

import (
	"fmt"
	"image"
	"io"

	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/palette"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
)

// Info keys populated by the parsers
const (
	InfoCompression  = "compression"
	InfoTransparency = "transparency"
	InfoDPI          = "dpi"
	InfoLayers       = "layers"
)

// Header is everything a parser learns before any pixel is decoded.
type Header struct {
	Format  string         `json:"format"`
	Mode    mode.Mode      `json:"mode"`
	Size    image.Point    `json:"size"`
	Layers  int            `json:"layers,omitempty"`
	Palette *palette.Raw   `json:"-"`
	Tiles   []tile.Tile    `json:"tiles"`
	Info    map[string]any `json:"info,omitempty"`
}

// NewHeader returns an empty header for a format.
func NewHeader(id string) *Header {
	return &Header{Format: id, Info: map[string]any{}}
}

// Bands returns the number of bands a buffer for this header needs.
func (h *Header) Bands() int {
	if h.Mode == mode.MultiLayer {
		return h.Layers
	}
	return h.Mode.Bands()
}

// Validate checks the invariants every parser must leave behind.
func (h *Header) Validate() error {
	if !h.Mode.IsValid() {
		return fmt.Errorf("%w: invalid mode %v", ErrMalformedHeader, h.Mode)
	}
	if h.Size.X < 0 || h.Size.Y < 0 {
		return fmt.Errorf("%w: negative size %v", ErrMalformedHeader, h.Size)
	}
	if h.Mode == mode.MultiLayer && h.Layers <= 0 {
		return fmt.Errorf("%w: multi-layer image without layers", ErrMalformedHeader)
	}
	for i, t := range h.Tiles {
		if !t.Within(h.Size) {
			return fmt.Errorf("%w: tile %d box %v outside %v", ErrMalformedHeader, i, t.Box, h.Size)
		}
	}
	return nil
}

// OpenFunc parses a header from a stream positioned at offset 0.
type OpenFunc func(r io.ReadSeeker) (*Header, error)

// SniffFunc reports whether a stream prefix could be this format.
type SniffFunc func(prefix []byte) bool

// Source is an in-memory image handed to a SaveFunc.
type Source interface {
	Mode() mode.Mode
	Size() image.Point
	// Palette returns the colour table for palette images, or nil.
	Palette() *palette.Realized
	// EncodeTiles writes pixel data laid out by tiles to w.
	EncodeTiles(w io.Writer, tiles []tile.Tile) error
}

// SaveFunc writes src to w in one format.
type SaveFunc func(w io.Writer, src Source) error

// Plugin bundles everything a format registers.
type Plugin struct {
	ID          string
	Description string
	Open        OpenFunc
	Sniff       SniffFunc
	Save        SaveFunc
	Extensions  []string
	MIMETypes   []string
}
