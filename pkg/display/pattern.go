package display

import "encoding/binary"

// Color bars of the test pattern, left to right.
var testPatternBars = []RGB565{
	0xffff, // white
	0xffe0, // yellow
	0x07ff, // cyan
	0x07e0, // green
	0xf81f, // magenta
	0xf800, // red
	0x001f, // blue
	0x0000, // black
}

// TestPattern generates the built-in default image: vertical color bars
// over the top three quarters and a gray ramp at the bottom.
func TestPattern(width, height int) []byte {
	pix := make([]byte, width*height*BytesPerPixel)
	if width <= 0 || height <= 0 {
		return pix
	}
	barsHeight := height * 3 / 4
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c RGB565
			if y < barsHeight {
				c = testPatternBars[x*len(testPatternBars)/width]
			} else {
				level := uint16(x * 32 / width)
				c = RGB565(level<<11 | (level*2)<<5 | level)
			}
			binary.LittleEndian.PutUint16(pix[(y*width+x)*BytesPerPixel:], uint16(c))
		}
	}
	return pix
}
