package tile

import (
	"fmt"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadBoxes(t *testing.T) {
	tests := []struct {
		name string
		box  image.Rectangle
	}{
		{"Empty", image.Rect(0, 0, 0, 0)},
		{"ZeroWidth", image.Rect(0, 0, 0, 10)},
		{"Inverted", image.Rectangle{Min: image.Pt(10, 10), Max: image.Pt(2, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Raw, tt.box, 0, Args{RawMode: "L"})
			assert.ErrorIs(t, err, ErrInvalidTile)
		})
	}

	_, err := New(Raw, image.Rect(0, 0, 1, 1), -1, Args{})
	assert.ErrorIs(t, err, ErrInvalidTile)
}

func TestNewDefaultsOrientation(t *testing.T) {
	tl, err := New(Raw, image.Rect(0, 0, 4, 4), 10, Args{RawMode: "L"})
	require.NoError(t, err)
	assert.Equal(t, TopDown, tl.Args.Orientation)
	assert.False(t, tl.Args.BottomUp())
	assert.False(t, tl.Args.IsPlanar())
	assert.True(t, tl.Within(image.Pt(4, 4)))
	assert.False(t, tl.Within(image.Pt(3, 4)))
}

func TestPaddedStride(t *testing.T) {
	tests := []struct {
		width, bits, want int
	}{
		{1, 1, 4},
		{7, 24, 24},
		{8, 1, 4},
		{33, 1, 8},
		{3, 4, 4},
		{9, 4, 8},
		{5, 8, 8},
		{4, 24, 12},
		{100, 24, 300},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.width, tt.bits), func(t *testing.T) {
			got := PaddedStride(tt.width, tt.bits)
			assert.Equal(t, tt.want, got)
			assert.Zero(t, got%4)
			assert.GreaterOrEqual(t, got*8, tt.width*tt.bits)
		})
	}
}

func TestRowStride(t *testing.T) {
	assert.Equal(t, 2, Args{RawMode: "1"}.RowStride(9))
	assert.Equal(t, 3, Args{RawMode: "P;4"}.RowStride(5))
	assert.Equal(t, 15, Args{RawMode: "BGR"}.RowStride(5))
	assert.Equal(t, 5, Args{RawMode: "C;I"}.RowStride(5))
	assert.Equal(t, 16, Args{RawMode: "BGR", Stride: 16}.RowStride(5))
}
