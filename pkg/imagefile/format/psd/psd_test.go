package psd

import (
	"bytes"
	"encoding/binary"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpfielding/imagefile.go/pkg/imagefile/format"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/palette"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/tile"
)

type layout struct {
	version     uint16
	channels    uint16
	width       uint32
	height      uint32
	depth       uint16
	mode        uint16
	colorData   []byte
	resources   []byte
	reserved    []byte
	compression uint16
	counts      []uint16
	data        []byte
}

func build(s layout) []byte {
	if s.version == 0 {
		s.version = 1
	}
	if s.depth == 0 {
		s.depth = 8
	}
	var out bytes.Buffer
	out.WriteString("8BPS")
	binary.Write(&out, binary.BigEndian, s.version)
	out.Write(make([]byte, 6))
	binary.Write(&out, binary.BigEndian, s.channels)
	binary.Write(&out, binary.BigEndian, s.height)
	binary.Write(&out, binary.BigEndian, s.width)
	binary.Write(&out, binary.BigEndian, s.depth)
	binary.Write(&out, binary.BigEndian, s.mode)
	for _, block := range [][]byte{s.colorData, s.resources, s.reserved} {
		binary.Write(&out, binary.BigEndian, uint32(len(block)))
		out.Write(block)
	}
	binary.Write(&out, binary.BigEndian, s.compression)
	for _, c := range s.counts {
		binary.Write(&out, binary.BigEndian, c)
	}
	out.Write(s.data)
	return out.Bytes()
}

// dataStart is where channel data begins for a layout without blocks or counts.
const dataStart = headerLen + 3*4 + 2

func open(t *testing.T, data []byte) *format.Header {
	t.Helper()
	h, err := Open(bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, h.Validate())
	return h
}

func TestAccept(t *testing.T) {
	assert.True(t, Accept([]byte("8BPS\x00\x01")))
	assert.False(t, Accept([]byte("8BP")))
	assert.False(t, Accept([]byte("BM")))
}

func TestSignature(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("GIF89a0123456789012345678901234")))
	assert.ErrorIs(t, err, format.ErrSignatureMismatch)

	_, err = Open(bytes.NewReader(build(layout{version: 2, channels: 1, width: 1, height: 1, mode: 1})))
	assert.ErrorIs(t, err, format.ErrSignatureMismatch)
}

func TestTruncated(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("8BPS\x00\x01")))
	assert.ErrorIs(t, err, format.ErrTruncated)
	assert.True(t, format.Recoverable(err))

	// header intact, colour mode block cut short
	data := build(layout{channels: 3, width: 2, height: 2, mode: 3})
	_, err = Open(bytes.NewReader(data[:headerLen+2]))
	assert.ErrorIs(t, err, format.ErrTruncated)
}

func TestRawRGB(t *testing.T) {
	data := build(layout{channels: 3, width: 4, height: 2, mode: 3, data: make([]byte, 24)})
	h := open(t, data)
	assert.Equal(t, mode.RGB, h.Mode)
	assert.Equal(t, image.Pt(4, 2), h.Size)
	require.Len(t, h.Tiles, 3)
	for i, tl := range h.Tiles {
		assert.Equal(t, tile.Raw, tl.Codec)
		assert.Equal(t, int64(dataStart+i*8), tl.Offset)
		assert.True(t, tl.Args.IsPlanar())
		assert.Equal(t, i, tl.Args.Plane)
		assert.Equal(t, []string{"R", "G", "B"}[i], tl.Args.RawMode)
	}
	assert.Equal(t, uint16(0), h.Info[format.InfoCompression])
	assert.Equal(t, 3, h.Info[format.InfoLayers])
}

func TestExtraChannelIsAlpha(t *testing.T) {
	h := open(t, build(layout{channels: 4, width: 1, height: 1, mode: 3}))
	assert.Equal(t, mode.RGBA, h.Mode)
	assert.Len(t, h.Tiles, 4)

	// grey with a spare channel only decodes the first
	h = open(t, build(layout{channels: 2, width: 1, height: 1, mode: 1}))
	assert.Equal(t, mode.Gray, h.Mode)
	assert.Len(t, h.Tiles, 1)
}

func TestPackBitsOffsets(t *testing.T) {
	s := layout{
		channels:    2,
		width:       4,
		height:      3,
		mode:        7,
		compression: CompressionPackBits,
		counts:      []uint16{5, 3, 8, 2, 2, 2},
	}
	h := open(t, build(s))
	assert.Equal(t, mode.MultiLayer, h.Mode)
	assert.Equal(t, 2, h.Layers)
	require.Len(t, h.Tiles, 2)
	first := int64(dataStart + len(s.counts)*2)
	assert.Equal(t, first, h.Tiles[0].Offset)
	assert.Equal(t, first+16, h.Tiles[1].Offset)
	for _, tl := range h.Tiles {
		assert.Equal(t, tile.PackBits, tl.Codec)
		assert.Equal(t, "L", tl.Args.RawMode)
	}
}

func TestPackBitsCountsTruncated(t *testing.T) {
	data := build(layout{channels: 3, width: 2, height: 4, mode: 3, compression: CompressionPackBits, counts: []uint16{1, 2}})
	_, err := Open(bytes.NewReader(data))
	assert.ErrorIs(t, err, format.ErrTruncated)
}

func TestPalette(t *testing.T) {
	lut := make([]byte, paletteLen)
	for i := range 256 {
		lut[i], lut[256+i], lut[512+i] = byte(i), byte(255-i), 7
	}
	h := open(t, build(layout{channels: 1, width: 2, height: 2, mode: 2, colorData: lut}))
	assert.Equal(t, mode.Palette, h.Mode)
	require.NotNil(t, h.Palette)
	assert.Equal(t, palette.OrderPlanarRGB, h.Palette.Order)
	assert.Equal(t, 256, h.Palette.Entries())
	assert.Equal(t, "P", h.Tiles[0].Args.RawMode)

	// any other colour data length leaves the palette unset
	h = open(t, build(layout{channels: 1, width: 2, height: 2, mode: 2, colorData: lut[:300]}))
	assert.Nil(t, h.Palette)
}

func TestBlocksSkipped(t *testing.T) {
	data := build(layout{
		channels:  1,
		width:     1,
		height:    1,
		mode:      1,
		colorData: []byte{1, 2},
		resources: []byte("8BIM resources"),
		reserved:  make([]byte, 9),
	})
	h := open(t, data)
	assert.Equal(t, int64(dataStart+2+14+9), h.Tiles[0].Offset)
	assert.Nil(t, h.Palette)
}

func TestCMYKInverted(t *testing.T) {
	h := open(t, build(layout{channels: 4, width: 1, height: 1, mode: 4}))
	assert.Equal(t, mode.CMYK, h.Mode)
	var names []string
	for _, tl := range h.Tiles {
		names = append(names, tl.Args.RawMode)
	}
	assert.Equal(t, []string{"C;I", "M;I", "Y;I", "K;I"}, names)
}

func TestBitmapMode(t *testing.T) {
	h := open(t, build(layout{channels: 1, width: 10, height: 3, depth: 1, mode: 0}))
	assert.Equal(t, mode.Bilevel, h.Mode)
	require.Len(t, h.Tiles, 1)
	assert.Equal(t, "1;I", h.Tiles[0].Args.RawMode)
	assert.Equal(t, 2, h.Tiles[0].Args.Stride)

	_, err := Open(bytes.NewReader(build(layout{channels: 1, width: 1, height: 1, depth: 8, mode: 0})))
	assert.ErrorIs(t, err, format.ErrUnsupportedDepth)
}

func TestRejects(t *testing.T) {
	cases := []struct {
		name string
		s    layout
		err  error
	}{
		{"lab", layout{channels: 3, width: 1, height: 1, mode: 9}, format.ErrUnsupportedMode},
		{"unknown mode", layout{channels: 1, width: 1, height: 1, mode: 5}, format.ErrUnsupportedMode},
		{"too few channels", layout{channels: 2, width: 1, height: 1, mode: 3}, format.ErrUnsupportedMode},
		{"no layers", layout{channels: 0, width: 1, height: 1, mode: 7}, format.ErrUnsupportedMode},
		{"16 bit", layout{channels: 1, width: 1, height: 1, depth: 16, mode: 1}, format.ErrUnsupportedDepth},
		{"zip compression", layout{channels: 1, width: 1, height: 1, mode: 1, compression: 2}, format.ErrUnsupportedMode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Open(bytes.NewReader(build(tc.s)))
			assert.ErrorIs(t, err, tc.err)
			assert.False(t, format.Recoverable(err))
		})
	}
}

func TestZeroArea(t *testing.T) {
	h := open(t, build(layout{channels: 3, width: 0, height: 5, mode: 3}))
	assert.Empty(t, h.Tiles)
}

func TestOversizedLengths(t *testing.T) {
	// count table for 65535 channels of 0xFFFFFFFF rows in a 40-byte stream
	data := build(layout{channels: 65535, width: 1, height: 0xFFFFFFFF, mode: 7, compression: CompressionPackBits})
	assert.NotPanics(t, func() {
		_, err := Open(bytes.NewReader(data))
		assert.ErrorIs(t, err, format.ErrTruncated)
	})

	// block lengths larger than the stream
	data = build(layout{channels: 1, width: 1, height: 1, mode: 1})
	for _, off := range []int{headerLen, headerLen + 4, headerLen + 8} {
		bad := bytes.Clone(data)
		binary.BigEndian.PutUint32(bad[off:], 0xFFFFFFF0)
		assert.NotPanics(t, func() {
			_, err := Open(bytes.NewReader(bad))
			assert.ErrorIs(t, err, format.ErrTruncated)
		})
	}
}
