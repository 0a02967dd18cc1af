package display

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"
)

// LCD panel size.
const (
	DefaultWidth  = 480
	DefaultHeight = 272
)

// Framebuffer is the memory scanned out to the LCD. Pixels are written by
// the poll context only, readers (snapshots, tests) take a copy via Snapshot.
type Framebuffer struct {
	Width  int
	Height int
	// OnUpdate is called after each Update.
	OnUpdate func(*Framebuffer)

	pix          []byte
	defaultImage []byte
	updates      atomic.Uint64
	lock         sync.RWMutex
}

// NewFramebuffer creates a black framebuffer with the default test pattern
// as its default image.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{
		Width:  width,
		Height: height,
		pix:    make([]byte, width*height*BytesPerPixel),
	}
	fb.defaultImage = TestPattern(width, height)
	return fb
}

// Capacity is the framebuffer size in bytes.
func (fb *Framebuffer) Capacity() int {
	return len(fb.pix)
}

// SetDefaultImage replaces the image restored by LoadDefault.
// It's truncated or zero padded to Capacity.
func (fb *Framebuffer) SetDefaultImage(pix []byte) {
	img := make([]byte, fb.Capacity())
	copy(img, pix)
	fb.defaultImage = img
}

// WritePixels copies p to the start of the framebuffer. Bytes beyond
// Capacity are ignored, the rest of the framebuffer is untouched.
func (fb *Framebuffer) WritePixels(p []byte) {
	fb.lock.Lock()
	n := copy(fb.pix, p)
	fb.lock.Unlock()
	glog.V(2).Infof("framebuffer: %d bytes written", n)
}

// Clear zeroes the framebuffer.
func (fb *Framebuffer) Clear() {
	fb.lock.Lock()
	clear(fb.pix)
	fb.lock.Unlock()
}

// LoadDefault copies the default image and presents it.
func (fb *Framebuffer) LoadDefault() {
	fb.lock.Lock()
	copy(fb.pix, fb.defaultImage)
	fb.lock.Unlock()
	fb.Update()
}

// Update presents the framebuffer content.
func (fb *Framebuffer) Update() {
	n := fb.updates.Add(1)
	glog.V(2).Infof("framebuffer: update #%d", n)
	if fn := fb.OnUpdate; fn != nil {
		fn(fb)
	}
}

// Updates returns the number of Update calls.
func (fb *Framebuffer) Updates() uint64 {
	return fb.updates.Load()
}

// Snapshot copies the current pixels.
func (fb *Framebuffer) Snapshot() *Image {
	fb.lock.RLock()
	pix := append([]byte(nil), fb.pix...)
	fb.lock.RUnlock()
	return NewImage(pix, fb.Width, fb.Height)
}

// Image returns the current content as an image.
func (fb *Framebuffer) Image() image.Image {
	return fb.Snapshot()
}
