package display

import (
	"encoding/binary"
	"image"
	"image/color"
)

// BytesPerPixel is the size of a RGB565 pixel.
const BytesPerPixel = 2

// RGB565 is a 16-bit color: 5 bits red, 6 bits green, 5 bits blue.
type RGB565 uint16

// RGBA implements color.Color.
func (c RGB565) RGBA() (r, g, b, a uint32) {
	r = uint32(c>>11) & 0x1f
	g = uint32(c>>5) & 0x3f
	b = uint32(c) & 0x1f
	// expand to 16 bits by replicating the high bits
	r = (r<<11 | r<<6 | r<<1 | r>>4)
	g = (g<<10 | g<<4 | g>>2)
	b = (b<<11 | b<<6 | b<<1 | b>>4)
	return r, g, b, 0xffff
}

// RGB565Model converts any color to RGB565.
var RGB565Model = color.ModelFunc(func(c color.Color) color.Color {
	if c, ok := c.(RGB565); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return RGB565((r>>11)<<11 | (g>>10)<<5 | b>>11)
})

// ToRGB565 converts c.
func ToRGB565(c color.Color) RGB565 {
	return RGB565Model.Convert(c).(RGB565)
}

// Image is an image.Image over RGB565 pixel bytes.
type Image struct {
	Pix    []byte
	Width  int
	Height int
	Order  binary.ByteOrder
}

// NewImage wraps pix. Order defaults to little endian.
func NewImage(pix []byte, width, height int) *Image {
	return &Image{Pix: pix, Width: width, Height: height, Order: binary.LittleEndian}
}

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model {
	return RGB565Model
}

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At implements image.Image. Pixels beyond Pix are black.
func (m *Image) At(x, y int) color.Color {
	return m.RGB565At(x, y)
}

// RGB565At returns the pixel at (x, y).
func (m *Image) RGB565At(x, y int) RGB565 {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0
	}
	off := (y*m.Width + x) * BytesPerPixel
	if off+BytesPerPixel > len(m.Pix) {
		return 0
	}
	return RGB565(m.order().Uint16(m.Pix[off:]))
}

// Set sets the pixel at (x, y).
func (m *Image) Set(x, y int, c color.Color) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	off := (y*m.Width + x) * BytesPerPixel
	if off+BytesPerPixel > len(m.Pix) {
		return
	}
	m.order().PutUint16(m.Pix[off:], uint16(ToRGB565(c)))
}

func (m *Image) order() binary.ByteOrder {
	if m.Order == nil {
		return binary.LittleEndian
	}
	return m.Order
}

// EncodeRGB565 converts img to RGB565 pixel bytes in the given byte order,
// row by row from the top left corner of its bounds.
func EncodeRGB565(img image.Image, order binary.ByteOrder) []byte {
	bounds := img.Bounds()
	out := NewImage(make([]byte, bounds.Dx()*bounds.Dy()*BytesPerPixel), bounds.Dx(), bounds.Dy())
	if order != nil {
		out.Order = order
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, img.At(x, y))
		}
	}
	return out.Pix
}
