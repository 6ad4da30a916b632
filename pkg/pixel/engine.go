// Package pixel is the reference pixel engine: 8-bit interleaved buffers and
// the raw, packbits and xbm tile codecs.
package pixel

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/jpfielding/imagefile.go/pkg/imagefile/engine"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/palette"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
)

// ErrUnsupported is returned for modes, raw modes and codecs the engine cannot handle.
var ErrUnsupported = errors.New("pixel: unsupported")

var _ engine.Engine = (*Engine)(nil)

// Engine dispatches tiles to codecs by name.
type Engine struct {
	codecs map[string]Codec
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for per-tile events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine with the built-in codecs.
func New(opts ...Option) *Engine {
	e := &Engine{codecs: map[string]Codec{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	for _, c := range []Codec{rawCodec{}, packBitsCodec{}, xbmCodec{}} {
		e.Register(c)
	}
	return e
}

// Register adds or replaces a codec.
func (e *Engine) Register(c Codec) {
	e.codecs[c.Name()] = c
}

// CodecByName returns a codec, or nil if not found
func (e *Engine) CodecByName(name string) Codec {
	return e.codecs[name]
}

// NewBuffer implements engine.Engine.
func (e *Engine) NewBuffer(m mode.Mode, size image.Point, bands int) (engine.Buffer, error) {
	return NewBuffer(m, size, bands)
}

func asBuffer(buf engine.Buffer) (*Buffer, error) {
	b, ok := buf.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("%w: foreign buffer %T", ErrUnsupported, buf)
	}
	return b, nil
}

func (e *Engine) codec(name string) (Codec, error) {
	c := e.CodecByName(name)
	if c == nil {
		return nil, fmt.Errorf("%w: codec %q", ErrUnsupported, name)
	}
	return c, nil
}

// Decode implements engine.Engine.
func (e *Engine) Decode(buf engine.Buffer, tiles []tile.Tile, r io.ReadSeeker) error {
	b, err := asBuffer(buf)
	if err != nil {
		return err
	}
	for i, t := range tiles {
		c, err := e.codec(t.Codec)
		if err != nil {
			return err
		}
		e.logger.Debug("decoding tile", "index", i, "codec", t.Codec, "box", t.Box, "offset", t.Offset, "rawmode", t.Args.RawMode)
		if err := c.Decode(b, t, r); err != nil {
			return fmt.Errorf("decoding tile %d: %w", i, err)
		}
	}
	return nil
}

// Encode implements engine.Engine.
func (e *Engine) Encode(buf engine.Buffer, tiles []tile.Tile, w io.Writer) error {
	b, err := asBuffer(buf)
	if err != nil {
		return err
	}
	for i, t := range tiles {
		c, err := e.codec(t.Codec)
		if err != nil {
			return err
		}
		e.logger.Debug("encoding tile", "index", i, "codec", t.Codec, "box", t.Box, "rawmode", t.Args.RawMode)
		if err := c.Encode(b, t, w); err != nil {
			return fmt.Errorf("encoding tile %d: %w", i, err)
		}
	}
	return nil
}

// RealizePalette implements engine.Engine.
func (e *Engine) RealizePalette(buf engine.Buffer, p *palette.Raw) (*palette.Realized, error) {
	rp, err := p.Realize()
	if err != nil {
		return nil, err
	}
	if err := e.AttachPalette(buf, rp); err != nil {
		return nil, err
	}
	return rp, nil
}

// AttachPalette implements engine.Engine.
func (e *Engine) AttachPalette(buf engine.Buffer, p *palette.Realized) error {
	b, err := asBuffer(buf)
	if err != nil {
		return err
	}
	b.palette = p
	return nil
}
