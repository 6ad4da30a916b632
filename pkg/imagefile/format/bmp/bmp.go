// Package bmp reads and writes Windows and OS/2 bitmaps: a 14-byte file header
// followed by a 12-byte core header or a 40/64-byte info header, an optional
// colour table and uncompressed little-endian pixel rows padded to 4 bytes.
package bmp

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
const ID = "BMP"

const (
	fileHeaderLen = 14
	coreHeaderLen = 12
	infoHeaderLen = 40
	os2HeaderLen  = 64
	magic         = "BM"
)

var le = binio.LittleEndian

// Plugin registers the bitmap opener, saver and extension.
var Plugin = format.Plugin{
	ID:          ID,
	Description: "Windows Bitmap",
	Open:        Open,
	Sniff:       Accept,
	Save:        Save,
	Extensions:  []string{".bmp"},
}

// depths maps bits per pixel to the initial mode and the on-disk raw mode
var depths = map[int]struct {
	mode    mode.Mode
	rawMode string
}{
	1:  {mode.Palette, "1"},
	4:  {mode.Palette, "P;4"},
	8:  {mode.Palette, "P"},
	24: {mode.RGB, "BGR"},
}

// Accept reports whether prefix starts with the bitmap magic.
func Accept(prefix []byte) bool {
	return bytes.HasPrefix(prefix, []byte(magic))
}

// Open parses the file header and the bitmap header that follows it.
func Open(r io.ReadSeeker) (*format.Header, error) {
	fh, err := binio.ReadFull(r, fileHeaderLen)
	if err != nil {
		return nil, fmt.Errorf("reading bmp file header: %w", err)
	}
	if string(fh[:2]) != magic {
		return nil, fmt.Errorf("%w: not a BMP file", format.ErrSignatureMismatch)
	}
	offset, _ := binio.ReadU32(fh, 10, le)
	return readBitmap(r, int64(offset))
}

type bitmapInfo struct {
	width, height int
	topDown       bool
	bits          int
	compression   uint32
	colors        int
	lutSize       int
	xppm, yppm    uint32
}

// readInfo reads the core or info header whose first field is its own length.
func readInfo(r io.Reader) (*bitmapInfo, error) {
	lb, err := binio.ReadFull(r, 4)
	if err != nil {
		return nil, fmt.Errorf("reading bmp header length: %w", err)
	}
	n, _ := binio.ReadU32(lb, 0, le)
	if n != coreHeaderLen && n != infoHeaderLen && n != os2HeaderLen {
		return nil, fmt.Errorf("%w: unknown BMP header type (%d bytes)", format.ErrMalformedHeader, n)
	}
	rest, err := binio.ReadFull(r, int(n)-4)
	if err != nil {
		return nil, fmt.Errorf("reading bmp header: %w", err)
	}
	s := append(lb, rest...)

	bi := &bitmapInfo{}
	if n == coreHeaderLen {
		w, _ := binio.ReadU16(s, 4, le)
		h, _ := binio.ReadU16(s, 6, le)
		bits, _ := binio.ReadU16(s, 10, le)
		bi.width, bi.height, bi.bits = int(w), int(h), int(bits)
		bi.lutSize = 3
		return bi, nil
	}

	w, _ := binio.ReadI32(s, 4, le)
	h, _ := binio.ReadI32(s, 8, le)
	bits, _ := binio.ReadU16(s, 14, le)
	bi.compression, _ = binio.ReadU32(s, 16, le)
	bi.xppm, _ = binio.ReadU32(s, 24, le)
	bi.yppm, _ = binio.ReadU32(s, 28, le)
	colors, _ := binio.ReadU32(s, 32, le)
	if h < 0 {
		h, bi.topDown = -h, true
	}
	if w < 0 {
		return nil, fmt.Errorf("%w: negative width %d", format.ErrMalformedHeader, w)
	}
	bi.width, bi.height, bi.bits = int(w), int(h), int(bits)
	bi.colors = int(colors)
	bi.lutSize = 4
	return bi, nil
}

func readBitmap(r io.ReadSeeker, offset int64) (*format.Header, error) {
	bi, err := readInfo(r)
	if err != nil {
		return nil, err
	}
	h := format.NewHeader(ID)
	h.Size = image.Pt(bi.width, bi.height)
	h.Info[format.InfoCompression] = bi.compression
	if bi.xppm > 0 && bi.yppm > 0 {
		h.Info[format.InfoDPI] = [2]int{ppmToDPI(bi.xppm), ppmToDPI(bi.yppm)}
	}

	depth, ok := depths[bi.bits]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported BMP pixel depth %d", format.ErrUnsupportedDepth, bi.bits)
	}
	if bi.compression != 0 {
		return nil, fmt.Errorf("%w: BMP compression %d", format.ErrUnsupportedMode, bi.compression)
	}
	h.Mode = depth.mode
	rawMode := depth.rawMode

	if h.Mode == mode.Palette {
		colors := bi.colors
		if colors == 0 {
			colors = 1 << bi.bits
		}
		if colors > 256 {
			return nil, fmt.Errorf("%w: %d palette entries", format.ErrMalformedHeader, colors)
		}
		pal, gray, err := readColorTable(r, colors, bi.lutSize)
		if err != nil {
			return nil, err
		}
		switch {
		case gray && colors == 2 && bi.bits == 1:
			h.Mode = mode.Bilevel
		case gray && colors != 2:
			h.Mode = mode.Gray
			if rawMode == "P" {
				rawMode = "L"
			}
		default:
			h.Palette = palette.NewRaw(palette.OrderBGR, pal)
		}
	}

	if offset == 0 {
		if offset, err = r.Seek(0, io.SeekCurrent); err != nil {
			return nil, err
		}
	}

	if bi.width > 0 && bi.height > 0 {
		orientation := tile.BottomUp
		if bi.topDown {
			orientation = tile.TopDown
		}
		t, err := tile.New(tile.Raw, image.Rect(0, 0, bi.width, bi.height), offset, tile.Args{
			RawMode:     rawMode,
			Stride:      tile.PaddedStride(bi.width, bi.bits),
			Orientation: orientation,
		})
		if err != nil {
			return nil, err
		}
		h.Tiles = []tile.Tile{t}
	}
	return h, nil
}

// readColorTable reads colors entries of lutSize bytes, keeping 3 bytes each.
// It also reports whether entry i equals (i,i,i) for every probed index. A
// 2-entry table is probed against {0, 255}, the convention for exported
// black and white bitmaps, instead of {0, 1}.
func readColorTable(r io.Reader, colors, lutSize int) ([]byte, bool, error) {
	raw, err := binio.ReadFull(r, colors*lutSize)
	if err != nil {
		return nil, false, fmt.Errorf("reading bmp colour table: %w", err)
	}
	pal := make([]byte, 0, colors*3)
	gray := true
	for i := range colors {
		probe := byte(i)
		if colors == 2 && i == 1 {
			probe = 0xFF
		}
		rgb := raw[i*lutSize : i*lutSize+3]
		if rgb[0] != probe || rgb[1] != probe || rgb[2] != probe {
			gray = false
		}
		pal = append(pal, rgb...)
	}
	return pal, gray, nil
}

func ppmToDPI(ppm uint32) int {
	return int(float64(ppm)*0.0254 + 0.5)
}
