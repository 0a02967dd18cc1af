// Package comm provides L0 link support for the framebuffer RPC device.
package comm

// L0 is the link between the host and the display device over a
// peer-to-peer byte channel (e.g. a serial port). It is strictly
// half-duplex: the host sends one frame and waits for the response frame
// before sending the next one.
//
// Each frame is a 4-byte big-endian length followed by that many bytes of
// CBOR payload. The receiver keeps no other synchronization state: after a
// framing error it discards whatever is buffered so the next length prefix
// lines up with the next frame sent by the host.
//
// Bytes arrive in interrupt context (Receiver) and are stored in a
// RingBuffer, frames are assembled in poll context (Assembler).
