package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/jpfielding/imagefile.go/pkg/imagefile"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/format"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/mode"
	"github.com/jpfielding/imagefile.go/pkg/imagefile/palette"
	"github.com/jpfielding/imagefile.go/pkg/pixel"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(context.Background(), "abc123")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeBMP saves a small 8-bit palette bitmap and returns its path.
func writeBMP(t *testing.T, dir string) string {
	t.Helper()
	buf, err := pixel.NewBuffer(mode.Palette, image.Pt(8, 4), 0)
	require.NoError(t, err)
	for i := range buf.Pix {
		buf.Pix[i] = byte(i % 3)
	}
	pal := palette.FromColors(color.Palette{
		color.RGBA{R: 0xFF, A: 0xFF},
		color.RGBA{G: 0xFF, A: 0xFF},
		color.RGBA{B: 0xFF, A: 0xFF},
	})
	img, err := imagefile.NewImage(buf, pal)
	require.NoError(t, err)
	path := filepath.Join(dir, "in.bmp")
	require.NoError(t, img.SaveFile(path, ""))
	return path
}

func TestUnwrap(t *testing.T) {
	payload := []byte("BM not really a bitmap")

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zs := enc.EncodeAll(payload, nil)
	require.NoError(t, enc.Close())
	out, err := unwrap(zs)
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err = zw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	out, err = unwrap(gz.Bytes())
	require.NoError(t, err)
	assert.Equal(t, payload, out)

	out, err = unwrap(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestParseFit(t *testing.T) {
	w, h, err := parseFit("64x32")
	require.NoError(t, err)
	assert.Equal(t, [2]int{64, 32}, [2]int{w, h})
	for _, bad := range []string{"64", "x32", "0x5", "5x-1"} {
		_, _, err := parseFit(bad)
		assert.Error(t, err, bad)
	}
}

func TestInspect(t *testing.T) {
	path := writeBMP(t, t.TempDir())

	out, err := run(t, "inspect", "--palette", path)
	require.NoError(t, err)
	var rep Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "BMP", rep.Format)
	assert.Equal(t, "P", rep.Mode)
	assert.Equal(t, 8, rep.Width)
	assert.Equal(t, 4, rep.Height)
	assert.Equal(t, []string{"#ff0000", "#00ff00", "#0000ff"}, rep.Palette)
	assert.NotEmpty(t, rep.Fingerprint)

	again, err := run(t, "inspect", "-f", "text", path)
	require.NoError(t, err)
	assert.Contains(t, again, "format:      BMP (Windows Bitmap)")
	assert.Contains(t, again, "fingerprint: "+rep.Fingerprint)
}

func TestInspectCompressedInput(t *testing.T) {
	dir := t.TempDir()
	raw, err := os.ReadFile(writeBMP(t, dir))
	require.NoError(t, err)
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zpath := filepath.Join(dir, "in.bmp.zst")
	require.NoError(t, os.WriteFile(zpath, enc.EncodeAll(raw, nil), 0o644))
	require.NoError(t, enc.Close())

	out, err := run(t, "inspect", "-u", zpath)
	require.NoError(t, err)
	assert.Contains(t, out, `"format": "BMP"`)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := writeBMP(t, dir)

	_, err := run(t, "convert", in, filepath.Join(dir, "out.xbm"))
	assert.Error(t, err, "palette images cannot be written as XBM")

	out := filepath.Join(dir, "copy.img")
	_, err = run(t, "convert", "--to", "bmp", in, out)
	require.NoError(t, err)
	a, err := os.ReadFile(in)
	require.NoError(t, err)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConvertFromPNG(t *testing.T) {
	dir := t.TempDir()
	src := image.NewPaletted(image.Rect(0, 0, 3, 2), color.Palette{
		color.RGBA{R: 0xFF, A: 0xFF},
		color.RGBA{B: 0xFF, A: 0xFF},
	})
	src.SetColorIndex(2, 1, 1)
	in := filepath.Join(dir, "in.png")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "out.bmp")
	_, err = run(t, "convert", in, out)
	require.NoError(t, err)

	h, err := imagefile.OpenFile(out)
	require.NoError(t, err)
	assert.Equal(t, "BMP", h.Format())
	assert.Equal(t, mode.Palette, h.Mode())
	img, err := h.Load()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{B: 0xFF, A: 0xFF}, img.Buffer().At(2, 1))
	assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, img.Buffer().At(0, 0))

	// neither a container nor a decodable image
	junk := filepath.Join(dir, "junk.bin")
	require.NoError(t, os.WriteFile(junk, []byte("not an image at all"), 0o644))
	_, err = run(t, "convert", junk, out)
	assert.ErrorIs(t, err, format.ErrUnrecognizedFormat)
}

func TestModeOf(t *testing.T) {
	r := image.Rect(0, 0, 1, 1)
	assert.Equal(t, mode.Palette, modeOf(image.NewPaletted(r, color.Palette{color.Black})))
	assert.Equal(t, mode.Gray, modeOf(image.NewGray(r)))
	assert.Equal(t, mode.CMYK, modeOf(image.NewCMYK(r)))
	assert.Equal(t, mode.RGBA, modeOf(image.NewNRGBA(r)))

	opaque := image.NewRGBA(r)
	opaque.Set(0, 0, color.RGBA{R: 1, A: 0xFF})
	assert.Equal(t, mode.RGB, modeOf(opaque))
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	in := writeBMP(t, dir)

	pngPath := filepath.Join(dir, "out.png")
	_, err := run(t, "export", "--fit", "4x4", in, pngPath)
	require.NoError(t, err)
	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())

	tifPath := filepath.Join(dir, "out.tiff")
	_, err = run(t, "export", in, tifPath)
	require.NoError(t, err)
	data, err := os.ReadFile(tifPath)
	require.NoError(t, err)
	timg, err := tiff.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, _ := timg.At(1, 0).RGBA()
	assert.Equal(t, [3]uint32{0, 0xFFFF, 0}, [3]uint32{r, g, b})

	_, err = run(t, "export", "--type", "gif", in, filepath.Join(dir, "out.gif"))
	assert.Error(t, err)
}

func TestFormats(t *testing.T) {
	out, err := run(t, "formats")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "BMP  rw"))
	assert.True(t, strings.HasPrefix(lines[3], "GD   r "))
	assert.Contains(t, out, ".xbm")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "abc123\n", out)
}
