// Package palette holds colour tables in two forms: Raw, the bytes exactly as a
// container stored them, and Realized, the engine-native color.Palette built
// from them. Realization goes one way; there is no path back to Raw.
package palette

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrInvalidPalette is returned when the raw bytes do not fit the channel order.
var ErrInvalidPalette = errors.New("palette: invalid palette")

// Channel orders
const (
	OrderRGB  = "RGB"
	OrderBGR  = "BGR"
	OrderBGRX = "BGRX"
	OrderRGBX = "RGBX"
	// OrderPlanarRGB stores all reds, then all greens, then all blues.
	OrderPlanarRGB = "RGB;L"
)

// Raw is a colour table in container byte order.
type Raw struct {
	Order string
	Data  []byte
}

// NewRaw copies data into a raw palette.
func NewRaw(order string, data []byte) *Raw {
	return &Raw{Order: order, Data: append([]byte(nil), data...)}
}

// Len returns the byte length of the raw table
func (p *Raw) Len() int {
	return len(p.Data)
}

func entrySize(order string) (int, error) {
	switch order {
	case OrderRGB, OrderBGR, OrderPlanarRGB:
		return 3, nil
	case OrderBGRX, OrderRGBX:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: unknown channel order %q", ErrInvalidPalette, order)
	}
}

// Entries returns the number of colours in the table.
func (p *Raw) Entries() int {
	n, err := entrySize(p.Order)
	if err != nil {
		return 0
	}
	return len(p.Data) / n
}

// Realize converts the raw bytes into a Realized palette.
func (p *Raw) Realize() (*Realized, error) {
	size, err := entrySize(p.Order)
	if err != nil {
		return nil, err
	}
	if len(p.Data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidPalette, len(p.Data), size)
	}
	n := len(p.Data) / size
	if n > 256 {
		return nil, fmt.Errorf("%w: %d entries", ErrInvalidPalette, n)
	}
	colors := make(color.Palette, n)
	for i := range n {
		var r, g, b byte
		switch p.Order {
		case OrderRGB, OrderRGBX:
			r, g, b = p.Data[i*size], p.Data[i*size+1], p.Data[i*size+2]
		case OrderBGR, OrderBGRX:
			b, g, r = p.Data[i*size], p.Data[i*size+1], p.Data[i*size+2]
		case OrderPlanarRGB:
			r, g, b = p.Data[i], p.Data[n+i], p.Data[2*n+i]
		}
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
	}
	return &Realized{colors: colors}, nil
}

// Realized is a palette in engine-native form.
type Realized struct {
	colors color.Palette
}

// FromColors wraps an existing colour table.
func FromColors(c color.Palette) *Realized {
	return &Realized{colors: append(color.Palette(nil), c...)}
}

// Grayscale returns a realized ramp of n grey levels spread over 0..255.
func Grayscale(n int) *Realized {
	c := make(color.Palette, n)
	for i := range c {
		v := uint8(0)
		if n > 1 {
			v = uint8(i * 255 / (n - 1))
		}
		c[i] = color.RGBA{R: v, G: v, B: v, A: 0xFF}
	}
	return &Realized{colors: c}
}

// Colors returns the colour table
func (p *Realized) Colors() color.Palette {
	return p.colors
}

// Len returns the number of entries.
func (p *Realized) Len() int {
	return len(p.colors)
}

// Bytes serialises the table in the given channel order (RGB, BGR, RGBX or BGRX).
func (p *Realized) Bytes(order string) ([]byte, error) {
	size, err := entrySize(order)
	if err != nil {
		return nil, err
	}
	if order == OrderPlanarRGB {
		return nil, fmt.Errorf("%w: cannot serialise to %s", ErrInvalidPalette, order)
	}
	out := make([]byte, 0, len(p.colors)*size)
	for _, c := range p.colors {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		switch order {
		case OrderRGB:
			out = append(out, rgba.R, rgba.G, rgba.B)
		case OrderRGBX:
			out = append(out, rgba.R, rgba.G, rgba.B, 0)
		case OrderBGR:
			out = append(out, rgba.B, rgba.G, rgba.R)
		case OrderBGRX:
			out = append(out, rgba.B, rgba.G, rgba.R, 0)
		}
	}
	return out, nil
}
