package display

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRGB565Conversion(t *testing.T) {
	testCases := []struct {
		name   string
		color  color.Color
		expect RGB565
	}{
		{"white", color.White, 0xffff},
		{"black", color.Black, 0x0000},
		{"red", color.RGBA{R: 0xff, A: 0xff}, 0xf800},
		{"green", color.RGBA{G: 0xff, A: 0xff}, 0x07e0},
		{"blue", color.RGBA{B: 0xff, A: 0xff}, 0x001f},
		{"identity", RGB565(0x1234), 0x1234},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := ToRGB565(tc.color)
			require.Equal(t, tc.expect, c)
			require.Equal(t, c, ToRGB565(color.RGBA64Model.Convert(c)))
		})
	}
}

func TestEncodeRGB565(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 12, 11))
	img.Set(10, 10, color.RGBA{R: 0xff, A: 0xff})
	img.Set(11, 10, color.RGBA{B: 0xff, A: 0xff})

	require.Equal(t, []byte{0x00, 0xf8, 0x1f, 0x00}, EncodeRGB565(img, nil))
	require.Equal(t, []byte{0xf8, 0x00, 0x00, 0x1f}, EncodeRGB565(img, binary.BigEndian))
}

func TestImageAccess(t *testing.T) {
	m := NewImage(make([]byte, 6), 2, 2)
	m.Set(1, 0, color.White)
	m.Set(5, 5, color.White)
	m.Set(1, 1, color.White)
	require.Equal(t, RGB565(0xffff), m.RGB565At(1, 0))
	require.Equal(t, RGB565(0), m.RGB565At(0, 0))
	require.Equal(t, RGB565(0), m.RGB565At(1, 1), "beyond short pixel data")
	require.Equal(t, image.Rect(0, 0, 2, 2), m.Bounds())
}

func TestFramebuffer(t *testing.T) {
	fb := NewFramebuffer(4, 2)
	require.Equal(t, 16, fb.Capacity())
	var presented int
	fb.OnUpdate = func(*Framebuffer) { presented++ }

	fb.WritePixels([]byte{1, 2, 3, 4})
	snap := fb.Snapshot()
	require.Equal(t, []byte{1, 2, 3, 4}, snap.Pix[:4])
	require.Equal(t, make([]byte, 12), snap.Pix[4:])
	require.Zero(t, presented)

	fb.WritePixels(bytes.Repeat([]byte{9}, 20))
	require.Equal(t, bytes.Repeat([]byte{9}, 16), fb.Snapshot().Pix)

	fb.Clear()
	fb.Update()
	require.Equal(t, make([]byte, 16), fb.Snapshot().Pix)
	require.Equal(t, 1, presented)

	fb.LoadDefault()
	require.Equal(t, TestPattern(4, 2), fb.Snapshot().Pix)
	require.Equal(t, 2, presented)
	require.Equal(t, uint64(2), fb.Updates())

	fb.SetDefaultImage([]byte{7, 7})
	fb.LoadDefault()
	require.Equal(t, append([]byte{7, 7}, make([]byte, 14)...), fb.Snapshot().Pix)
}

func TestTestPattern(t *testing.T) {
	pix := TestPattern(DefaultWidth, DefaultHeight)
	require.Len(t, pix, DefaultWidth*DefaultHeight*BytesPerPixel)
	m := NewImage(pix, DefaultWidth, DefaultHeight)
	require.Equal(t, RGB565(0xffff), m.RGB565At(0, 0))
	require.Equal(t, RGB565(0x0000), m.RGB565At(DefaultWidth-1, 0))
	require.Equal(t, RGB565(0xf800), m.RGB565At(DefaultWidth*5/8, 10))
	require.Equal(t, RGB565(0), m.RGB565At(0, DefaultHeight-1))
}

func TestSnapshotPNG(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "lcd.png")
	fb := NewFramebuffer(8, 4)
	fb.OnUpdate = SnapshotOnUpdate(fn)
	fb.LoadDefault()

	pix, err := LoadImage(fn)
	require.NoError(t, err)
	require.Equal(t, TestPattern(8, 4), pix)

	raw := filepath.Join(dir, "image.raw")
	require.NoError(t, os.WriteFile(raw, []byte{1, 2}, 0644))
	pix, err = LoadImage(raw)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, pix)
}
