package display

import (
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// SavePNG writes img to a PNG file, replacing it atomically.
func SavePNG(fn string, img image.Image) error {
	f, err := os.CreateTemp(filepath.Dir(fn), ".snapshot-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if err = WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), fn)
}

// SnapshotOnUpdate returns a Framebuffer.OnUpdate hook saving each presented
// frame to fn.
func SnapshotOnUpdate(fn string) func(*Framebuffer) {
	return func(fb *Framebuffer) {
		if err := SavePNG(fn, fb.Snapshot()); err != nil {
			glog.Errorf("snapshot %s error: %v", fn, err)
		}
	}
}

// LoadImage decodes an image file into RGB565 pixel bytes. Files ending
// with .png are decoded, anything else is taken as raw RGB565 little endian.
func LoadImage(fn string) ([]byte, error) {
	if filepath.Ext(fn) != ".png" {
		return os.ReadFile(fn)
	}
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	return EncodeRGB565(img, nil), nil
}
