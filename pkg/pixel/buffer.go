package pixel

import (
	"fmt"
	"image"
	"image/color"
	"math/bits"

	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/palette"
)

// Buffer stores 8-bit bands interleaved, row major, with no row padding.
// Bilevel pixels are stored as 0 or 255.
type Buffer struct {
	mode    mode.Mode
	size    image.Point
	bands   int
	Pix     []byte
	palette *palette.Realized
}

// MaxBytes bounds the pixel storage of a single buffer.
const MaxBytes = 1 << 30

// NewBuffer allocates a zeroed buffer. bands is only used for multi-layer modes.
func NewBuffer(m mode.Mode, size image.Point, bands int) (*Buffer, error) {
	if m.BandType() != mode.Uint8 || !m.IsValid() {
		return nil, fmt.Errorf("%w: mode %v", ErrUnsupported, m)
	}
	if m != mode.MultiLayer {
		bands = m.Bands()
	}
	if bands <= 0 {
		return nil, fmt.Errorf("%w: %d bands", ErrUnsupported, bands)
	}
	if size.X < 0 || size.Y < 0 {
		return nil, fmt.Errorf("pixel: negative size %v", size)
	}
	n, err := storage(size, bands)
	if err != nil {
		return nil, err
	}
	return &Buffer{
		mode:  m,
		size:  size,
		bands: bands,
		Pix:   make([]byte, n),
	}, nil
}

// storage returns width*height*bands, failing on overflow or above MaxBytes.
func storage(size image.Point, bands int) (int, error) {
	hi, n := bits.Mul64(uint64(size.X), uint64(size.Y))
	if hi == 0 {
		hi, n = bits.Mul64(n, uint64(bands))
	}
	if hi != 0 || n > MaxBytes {
		return 0, fmt.Errorf("%w: %dx%d with %d bands exceeds %d bytes", ErrUnsupported, size.X, size.Y, bands, MaxBytes)
	}
	return int(n), nil
}

// Mode returns the pixel interpretation
func (b *Buffer) Mode() mode.Mode { return b.mode }

// Size returns width and height
func (b *Buffer) Size() image.Point { return b.size }

// Bands returns the number of samples per pixel
func (b *Buffer) Bands() int { return b.bands }

// Palette returns the attached colour table, or nil.
func (b *Buffer) Palette() *palette.Realized { return b.palette }

// Stride is the distance in bytes between two rows.
func (b *Buffer) Stride() int { return b.size.X * b.bands }

// Row returns the samples of row y.
func (b *Buffer) Row(y int) []byte {
	s := b.Stride()
	return b.Pix[y*s : (y+1)*s]
}

// Bounds implements image.Image.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rectangle{Max: b.size}
}

// ColorModel implements image.Image.
func (b *Buffer) ColorModel() color.Model {
	switch b.mode {
	case mode.Palette:
		if b.palette != nil {
			return b.palette.Colors()
		}
		return color.GrayModel
	case mode.RGB:
		return color.RGBAModel
	case mode.RGBA:
		return color.NRGBAModel
	case mode.CMYK:
		return color.CMYKModel
	default:
		return color.GrayModel
	}
}

// At implements image.Image.
func (b *Buffer) At(x, y int) color.Color {
	if !image.Pt(x, y).In(b.Bounds()) {
		return color.Gray{}
	}
	p := b.Pix[(y*b.size.X+x)*b.bands:]
	switch b.mode {
	case mode.Palette:
		if b.palette != nil && int(p[0]) < b.palette.Len() {
			return b.palette.Colors()[p[0]]
		}
		return color.Gray{Y: p[0]}
	case mode.RGB:
		return color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xFF}
	case mode.RGBA:
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	case mode.CMYK:
		return color.CMYK{C: p[0], M: p[1], Y: p[2], K: p[3]}
	default:
		return color.Gray{Y: p[0]}
	}
}

// FromImage copies img into a buffer of mode m. Palette buffers require an
// *image.Paletted source; bilevel thresholds grey at 128.
func FromImage(img image.Image, m mode.Mode) (*Buffer, error) {
	r := img.Bounds()
	buf, err := NewBuffer(m, r.Size(), 1)
	if err != nil {
		return nil, err
	}
	if m == mode.Palette {
		pm, ok := img.(*image.Paletted)
		if !ok {
			return nil, fmt.Errorf("%w: palette buffer needs *image.Paletted, got %T", ErrUnsupported, img)
		}
		buf.palette = palette.FromColors(pm.Palette)
	}
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			c := img.At(r.Min.X+x, r.Min.Y+y)
			p := buf.Pix[(y*buf.size.X+x)*buf.bands:]
			switch m {
			case mode.Bilevel:
				if color.GrayModel.Convert(c).(color.Gray).Y >= 128 {
					p[0] = 0xFF
				}
			case mode.Gray:
				p[0] = color.GrayModel.Convert(c).(color.Gray).Y
			case mode.Palette:
				p[0] = img.(*image.Paletted).ColorIndexAt(r.Min.X+x, r.Min.Y+y)
			case mode.RGB:
				rgba := color.RGBAModel.Convert(c).(color.RGBA)
				p[0], p[1], p[2] = rgba.R, rgba.G, rgba.B
			case mode.RGBA:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				p[0], p[1], p[2], p[3] = n.R, n.G, n.B, n.A
			case mode.CMYK:
				k := color.CMYKModel.Convert(c).(color.CMYK)
				p[0], p[1], p[2], p[3] = k.C, k.M, k.Y, k.K
			default:
				return nil, fmt.Errorf("%w: cannot convert to %v", ErrUnsupported, m)
			}
		}
	}
	return buf, nil
}
