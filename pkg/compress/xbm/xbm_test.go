package xbm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	// 10 pixels wide: two bytes per row
	body := " = {\n   0x01, 0x02,\n0xFF,0x3 };\n"
	pix, err := Decode(strings.NewReader(body), 10, 2)
	require.NoError(t, err)

	want := []byte{
		1, 0, 0, 0, 0, 0, 0, 0, 0, 1,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	}
	assert.Equal(t, want, pix)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode(strings.NewReader("{ 0x01 };"), 8, 2)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestRoundTrip(t *testing.T) {
	width, height := 13, 5
	pix := make([]byte, width*height)
	for i := range pix {
		if i%3 == 0 {
			pix[i] = 1
		}
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, pix, width, height))
	assert.Equal(t, RowBytes(width)*height, strings.Count(buf.String(), "0x"))
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.False(t, strings.HasSuffix(buf.String(), ",\n"))

	got, err := Decode(&buf, width, height)
	require.NoError(t, err)
	assert.Equal(t, pix, got)
}

func TestEncodeShortInput(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Encode(&buf, []byte{1}, 4, 4))
}
