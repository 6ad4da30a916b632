// Package mode defines the closed set of pixel interpretations an image can carry.
package mode

import "fmt"

// Mode is the pixel/band interpretation of an image.
type Mode uint8

// Supported modes
const (
	Invalid    Mode = iota
	Bilevel         // 1-bit, stored as 0 or 255
	Gray            // 8-bit greyscale
	Palette         // 8-bit index into a colour table
	RGB             // truecolor
	RGBA            // truecolor with alpha
	CMYK            // colour separation
	I32             // 32-bit signed integer
	F32             // 32-bit floating point
	MultiLayer      // N independent 8-bit layers, N carried by the header
)

// BandType is the storage type of a single band.
type BandType uint8

const (
	Uint8 BandType = iota
	Int32
	Float32
)

// String returns the short name for the mode
func (m Mode) String() string {
	switch m {
	case Bilevel:
		return "1"
	case Gray:
		return "L"
	case Palette:
		return "P"
	case RGB:
		return "RGB"
	case RGBA:
		return "RGBA"
	case CMYK:
		return "CMYK"
	case I32:
		return "I"
	case F32:
		return "F"
	case MultiLayer:
		return "MLS"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Bands returns the number of bands; 0 for MultiLayer and Invalid.
func (m Mode) Bands() int {
	switch m {
	case Bilevel, Gray, Palette, I32, F32:
		return 1
	case RGB:
		return 3
	case RGBA, CMYK:
		return 4
	default:
		return 0
	}
}

// BandType returns the storage type shared by every band of the mode
func (m Mode) BandType() BandType {
	switch m {
	case I32:
		return Int32
	case F32:
		return Float32
	default:
		return Uint8
	}
}

// BandNames returns a one letter name per band, used for per-plane raw modes.
func (m Mode) BandNames() []string {
	switch m {
	case Bilevel:
		return []string{"1"}
	case Gray:
		return []string{"L"}
	case Palette:
		return []string{"P"}
	case RGB:
		return []string{"R", "G", "B"}
	case RGBA:
		return []string{"R", "G", "B", "A"}
	case CMYK:
		return []string{"C", "M", "Y", "K"}
	case I32:
		return []string{"I"}
	case F32:
		return []string{"F"}
	default:
		return nil
	}
}

// IsValid reports whether m is one of the declared modes
func (m Mode) IsValid() bool {
	return m > Invalid && m <= MultiLayer
}

// MarshalText implements encoding.TextMarshaler so modes print by name in JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Parse converts a short mode name back to a Mode
func Parse(name string) (Mode, error) {
	for m := Bilevel; m <= MultiLayer; m++ {
		if m.String() == name {
			return m, nil
		}
	}
	return Invalid, fmt.Errorf("mode: unknown mode %q", name)
}

// All returns every valid mode in declaration order.
func All() []Mode {
	res := make([]Mode, 0, int(MultiLayer))
	for m := Bilevel; m <= MultiLayer; m++ {
		res = append(res, m)
	}
	return res
}
