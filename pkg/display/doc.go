// Package display implements the LCD framebuffer drawn by RPC handlers.
//
// Pixels are RGB565, 2 bytes per pixel in little endian byte order, rows
// stored top to bottom without padding.
package display
