// Package xbm reads and writes X11 bitmaps, C source fragments holding two
// #define lines and a hex byte array.
package xbm

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"regexp"
	"strconv"

	"github.com/jpfielding/imagefile.go/pkg/imagefile/format"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
)

// ID is the registry id
const ID = "XBM"

// MIMEType is registered for the format
const MIMEType = "image/xbm"

// InfoHotspot holds the optional [x, y] hotspot
const InfoHotspot = "hotspot"

// headers longer than this are not recognised
const headerWindow = 512

var header = regexp.MustCompile(`^\s*` +
	`#define[ \t]+.*_width[ \t]+(?P<width>[0-9]+)[\r\n]+` +
	`#define[ \t]+.*_height[ \t]+(?P<height>[0-9]+)[\r\n]+` +
	`(?:#define[ \t]+[^_]*_x_hot[ \t]+(?P<xhot>[0-9]+)[\r\n]+` +
	`#define[ \t]+[^_]*_y_hot[ \t]+(?P<yhot>[0-9]+)[\r\n]+)?` +
	`(?s:.*)_bits\[\]`)

// Plugin registers the X11 bitmap opener, saver, extension and MIME type.
var Plugin = format.Plugin{
	ID:          ID,
	Description: "X11 Bitmap",
	Open:        Open,
	Sniff:       Accept,
	Save:        Save,
	Extensions:  []string{".xbm"},
	MIMETypes:   []string{MIMEType},
}

// Accept reports whether prefix starts with a #define, after leading whitespace.
func Accept(prefix []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(prefix, " \t\r\n\v\f"), []byte("#define"))
}

// Open matches the header in the first 512 bytes and places the single xbm
// tile right after it.
func Open(r io.ReadSeeker) (*format.Header, error) {
	buf := make([]byte, headerWindow)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	buf = buf[:n]
	m := header.FindSubmatchIndex(buf)
	if m == nil {
		return nil, fmt.Errorf("%w: not an XBM file", format.ErrSignatureMismatch)
	}
	group := func(name string) (int, bool, error) {
		i := header.SubexpIndex(name)
		if m[2*i] < 0 {
			return 0, false, nil
		}
		v, err := strconv.Atoi(string(buf[m[2*i]:m[2*i+1]]))
		if err != nil {
			return 0, true, fmt.Errorf("%w: %s: %v", format.ErrMalformedHeader, name, err)
		}
		return v, true, nil
	}
	width, _, err := group("width")
	if err != nil {
		return nil, err
	}
	height, _, err := group("height")
	if err != nil {
		return nil, err
	}

	h := format.NewHeader(ID)
	h.Mode = mode.Bilevel
	h.Size = image.Pt(width, height)
	xhot, ok, err := group("xhot")
	if err != nil {
		return nil, err
	}
	if ok {
		yhot, _, err := group("yhot")
		if err != nil {
			return nil, err
		}
		h.Info[InfoHotspot] = [2]int{xhot, yhot}
	}
	if width > 0 && height > 0 {
		t, err := tile.New(tile.XBM, image.Rectangle{Max: h.Size}, int64(m[1]), tile.Args{})
		if err != nil {
			return nil, err
		}
		h.Tiles = []tile.Tile{t}
	}
	return h, nil
}

// Save writes a bilevel image as an X11 bitmap named "im".
func Save(w io.Writer, src format.Source) error {
	if src.Mode() != mode.Bilevel {
		return fmt.Errorf("%w: cannot write mode %v as XBM", format.ErrUnsupportedSaveMode, src.Mode())
	}
	size := src.Size()
	if _, err := fmt.Fprintf(w, "#define im_width %d\n#define im_height %d\n", size.X, size.Y); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "static char im_bits[] = {\n"); err != nil {
		return err
	}
	if size.X > 0 && size.Y > 0 {
		t, err := tile.New(tile.XBM, image.Rectangle{Max: size}, 0, tile.Args{})
		if err != nil {
			return err
		}
		if err := src.EncodeTiles(w, []tile.Tile{t}); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "};\n")
	return err
}
