package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	_ "golang.org/x/image/tiff"

	"github.com/jpfielding/imagefile.go/pkg/imagefile"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/format"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/pixel"
)

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	gzipMagic = []byte{0x1F, 0x8B}
)

// openInput reads path ("-" for stdin), strips a zstd or gzip wrapper and
// opens the image inside.
func openInput(path string, opts ...imagefile.Option) (*imagefile.Header, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	return imagefile.Open(bytes.NewReader(data), opts...)
}

// loadInput decodes the image at path. Inputs no registered container
// recognizes are handed to the image package decoders (PNG, GIF, JPEG, TIFF).
// The second result names the format that read the input.
func loadInput(path string, opts ...imagefile.Option) (*imagefile.Image, string, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, "", err
	}
	h, err := imagefile.Open(bytes.NewReader(data), opts...)
	switch {
	case err == nil:
		img, err := h.Load()
		return img, h.Format(), err
	case !errors.Is(err, format.ErrUnrecognizedFormat):
		return nil, "", err
	}
	decoded, name, derr := image.Decode(bytes.NewReader(data))
	if derr != nil {
		return nil, "", err
	}
	buf, err := pixel.FromImage(decoded, modeOf(decoded))
	if err != nil {
		return nil, "", fmt.Errorf("converting %s input: %w", name, err)
	}
	img, err := imagefile.NewImage(buf, buf.Palette(), opts...)
	return img, name, err
}

// modeOf picks the buffer mode that holds img without loss.
func modeOf(img image.Image) mode.Mode {
	switch img.(type) {
	case *image.Paletted:
		return mode.Palette
	case *image.Gray:
		return mode.Gray
	case *image.CMYK:
		return mode.CMYK
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return mode.RGB
	}
	return mode.RGBA
}

// readInput returns the unwrapped bytes at path.
func readInput(path string) ([]byte, error) {
	path = strings.TrimPrefix(path, "file://")
	var in io.Reader
	switch path {
	case "":
		return nil, fmt.Errorf("input path is required")
	case "-":
		in = os.Stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	return unwrap(raw)
}

// unwrap removes one layer of zstd or gzip compression, if present.
func unwrap(raw []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(raw, zstdMagic):
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		out, err := dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd input: %w", err)
		}
		return out, nil
	case bytes.HasPrefix(raw, gzipMagic):
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("gzip input: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return raw, nil
	}
}
