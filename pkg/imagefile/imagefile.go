// Package imagefile opens raster image containers. Open identifies the format
// and parses only the header; Load hands the tiles to a pixel engine and
// returns the decoded Image, which can be saved to any format with a saver.
package imagefile

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/jpfielding/imagefile.go/pkg/imagefile/format"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/palette"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
)

// PrefixLen is the number of leading bytes handed to sniffers.
const PrefixLen = 16

// Header is an opened image whose pixels have not been decoded.
type Header struct {
	meta *format.Header
	src  io.ReadSeeker
	o    options

	img *Image
	err error
}

// Open identifies the container in r and parses its header. Formats already
// in the registry are tried first; if none accepts the stream, discovery runs
// once and the new formats are tried. r must stay readable until Load.
func Open(r io.ReadSeeker, opts ...Option) (*Header, error) {
	o := newOptions(opts)
	prefix, err := readPrefix(r)
	if err != nil {
		return nil, err
	}
	tried := map[string]bool{}
	meta, err := identify(o, prefix, r, tried)
	if err != nil {
		return nil, err
	}
	if meta == nil && !o.registry.Discovered() {
		o.logger.Debug("no preinstalled format matched, running discovery")
		o.registry.Discover()
		if meta, err = identify(o, prefix, r, tried); err != nil {
			return nil, err
		}
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: tried %d formats", format.ErrUnrecognizedFormat, len(tried))
	}
	o.logger.Debug("opened image", "format", meta.Format, "mode", meta.Mode, "size", meta.Size, "tiles", len(meta.Tiles))
	return &Header{meta: meta, src: r, o: o}, nil
}

// OpenFile reads the whole file into memory and opens it.
func OpenFile(path string, opts ...Option) (*Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Open(bytes.NewReader(data), opts...)
}

func readPrefix(r io.ReadSeeker) ([]byte, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	prefix := make([]byte, PrefixLen)
	n, err := io.ReadFull(r, prefix)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading prefix: %w", err)
	}
	return prefix[:n], nil
}

// identify runs every matching opener not already in tried. A nil header and
// nil error means nothing matched.
func identify(o options, prefix []byte, r io.ReadSeeker, tried map[string]bool) (*format.Header, error) {
	for id, open := range o.registry.Identify(prefix) {
		if tried[id] {
			continue
		}
		tried[id] = true
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		meta, err := open(r)
		if err != nil {
			if format.Recoverable(err) {
				o.logger.Debug("format rejected stream", "format", id, "error", err)
				continue
			}
			return nil, fmt.Errorf("opening %s: %w", id, err)
		}
		if meta == nil {
			return nil, fmt.Errorf("opening %s: %w: no header", id, format.ErrMalformedHeader)
		}
		if err := meta.Validate(); err != nil {
			return nil, fmt.Errorf("opening %s: %w", id, err)
		}
		return meta, nil
	}
	return nil, nil
}

// Format returns the id of the format that opened the stream.
func (h *Header) Format() string { return h.meta.Format }

// Describe returns the human readable name of the format.
func (h *Header) Describe() string { return h.o.registry.Describe(h.meta.Format) }

// Mode returns the declared pixel mode.
func (h *Header) Mode() mode.Mode { return h.meta.Mode }

// Size returns the declared width and height.
func (h *Header) Size() image.Point { return h.meta.Size }

// Palette returns the raw colour table, or nil.
func (h *Header) Palette() *palette.Raw { return h.meta.Palette }

// Tiles returns the tile descriptors, in decode order.
func (h *Header) Tiles() []tile.Tile { return h.meta.Tiles }

// Info returns the format specific header values.
func (h *Header) Info() map[string]any { return h.meta.Info }

// Meta returns the parsed header.
func (h *Header) Meta() *format.Header { return h.meta }

// Load decodes the pixels. The first call does the work; later calls return
// the same Image, or the same error.
func (h *Header) Load() (*Image, error) {
	if h.img == nil && h.err == nil {
		h.img, h.err = h.load()
	}
	return h.img, h.err
}

func (h *Header) load() (*Image, error) {
	m := h.meta
	e := h.o.engine
	buf, err := e.NewBuffer(m.Mode, m.Size, m.Bands())
	if err != nil {
		return nil, fmt.Errorf("allocating %v buffer: %w", m.Mode, err)
	}
	if err := e.Decode(buf, m.Tiles, h.src); err != nil {
		return nil, fmt.Errorf("loading %s image: %w", m.Format, err)
	}
	img := &Image{buf: buf, info: m.Info, o: h.o}
	if m.Palette != nil {
		if img.pal, err = e.RealizePalette(buf, m.Palette); err != nil {
			return nil, fmt.Errorf("realizing %s palette: %w", m.Format, err)
		}
	}
	h.o.logger.Debug("loaded image", "format", m.Format, "mode", m.Mode, "size", m.Size)
	return img, nil
}
