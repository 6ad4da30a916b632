package imagefile

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jpfielding/imagefile.go/pkg/imagefile/engine"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/format"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/palette"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
)

var _ format.Source = (*Image)(nil)

// Image is a decoded image bound to a pixel buffer.
type Image struct {
	buf  engine.Buffer
	pal  *palette.Realized
	info map[string]any
	o    options
}

// NewImage wraps a buffer built outside of Load, e.g. by the pixel package.
// A non-nil palette is attached to the buffer.
func NewImage(buf engine.Buffer, pal *palette.Realized, opts ...Option) (*Image, error) {
	if buf == nil {
		return nil, errors.New("imagefile: nil buffer")
	}
	o := newOptions(opts)
	if pal != nil {
		if err := o.engine.AttachPalette(buf, pal); err != nil {
			return nil, err
		}
	}
	return &Image{buf: buf, pal: pal, info: map[string]any{}, o: o}, nil
}

// Mode implements format.Source.
func (im *Image) Mode() mode.Mode { return im.buf.Mode() }

// Size implements format.Source.
func (im *Image) Size() image.Point { return im.buf.Size() }

// Palette implements format.Source.
func (im *Image) Palette() *palette.Realized { return im.pal }

// Info returns the header values of the image this was loaded from.
func (im *Image) Info() map[string]any { return im.info }

// Buffer returns the engine buffer; it is also an image.Image.
func (im *Image) Buffer() engine.Buffer { return im.buf }

// EncodeTiles implements format.Source.
func (im *Image) EncodeTiles(w io.Writer, tiles []tile.Tile) error {
	return im.o.engine.Encode(im.buf, tiles, w)
}

// Save writes the image in format id. If no saver is registered for id,
// discovery runs once before giving up.
func (im *Image) Save(w io.Writer, id string) error {
	reg := im.o.registry
	save, ok := reg.Saver(id)
	if !ok && !reg.Discovered() {
		reg.Discover()
		save, ok = reg.Saver(id)
	}
	if !ok {
		return fmt.Errorf("%w: no saver for %q", format.ErrUnrecognizedFormat, id)
	}
	im.o.logger.Debug("saving image", "format", strings.ToUpper(id), "mode", im.Mode(), "size", im.Size())
	return save(w, im)
}

// SaveFile creates path and saves into it. An empty id is resolved from the
// file extension.
func (im *Image) SaveFile(path, id string) error {
	if id == "" {
		var err error
		if id, err = im.idForPath(path); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := im.Save(f, id); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (im *Image) idForPath(path string) (string, error) {
	reg := im.o.registry
	ext := filepath.Ext(path)
	id, ok := reg.IDForExtension(ext)
	if !ok && !reg.Discovered() {
		reg.Discover()
		id, ok = reg.IDForExtension(ext)
	}
	if !ok {
		return "", fmt.Errorf("%w: unknown extension %q", format.ErrUnrecognizedFormat, ext)
	}
	return id, nil
}
