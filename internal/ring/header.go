// Package ring implements the zero-copy IPC ring described in spec.md
// §4.1: a single-producer/single-consumer, triple-buffered,
// shared-memory frame handoff between the renderer process and a
// camera-extension consumer process.
//
// The wire layout is fixed and little-endian so that producer and
// consumer can be built independently and still agree on offsets; see
// header.go for the exact byte layout (spec.md §3, RingHeader).
package ring

import "encoding/binary"

const (
	// Magic identifies a valid ring region. 'SMCA' read little-endian,
	// matching spec.md's 0x41434D53.
	Magic uint32 = 0x41434D53

	// Version is the only wire layout version this package writes.
	Version uint32 = 1

	// PixelFormatBGRA is 'BGRA' read as the spec's little-endian u32.
	PixelFormatBGRA uint32 = 0x42475241

	headerSize    = 48 + headerReserved // 48 bytes of named fields + 64 reserved
	headerReserved = 64
	slotReserved   = 32
	slotEntrySize  = 4 + 8 + 8 + 4 + 4 + 8 + slotReserved // ready,ts,frame#,w,h,handle,reserved
	slotAlignment  = 64
)

// headerLayout is the true on-wire size of the fixed header: offsets
// 0..48 for the named fields plus 64 bytes reserved, per spec.md §3.
const headerLayout = 48 + headerReserved

func init() {
	if headerLayout != 112 {
		panic("ring: header layout constant drifted")
	}
}

// Header is the decoded form of the RingHeader record at offset 0 of
// the shared region. Fields mirror spec.md §3 exactly.
type Header struct {
	Magic        uint32
	Version      uint32
	BufferCount  uint32
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	ReadIndex    uint32
	WriteIndex   uint32
	FrameCount   uint64
	LastUpdateNS uint64
}

// encodeHeader writes h into the first headerLayout bytes of buf.
func encodeHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.BufferCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.Width)
	binary.LittleEndian.PutUint32(buf[16:20], h.Height)
	binary.LittleEndian.PutUint32(buf[20:24], h.PixelFormat)
	binary.LittleEndian.PutUint32(buf[24:28], h.ReadIndex)
	binary.LittleEndian.PutUint32(buf[28:32], h.WriteIndex)
	binary.LittleEndian.PutUint64(buf[32:40], h.FrameCount)
	binary.LittleEndian.PutUint64(buf[40:48], h.LastUpdateNS)
	// bytes [48:112) are the reserved block; left zeroed by the caller.
}

// decodeHeader reads a Header from the first headerLayout bytes of buf.
func decodeHeader(buf []byte) Header {
	return Header{
		Magic:        binary.LittleEndian.Uint32(buf[0:4]),
		Version:      binary.LittleEndian.Uint32(buf[4:8]),
		BufferCount:  binary.LittleEndian.Uint32(buf[8:12]),
		Width:        binary.LittleEndian.Uint32(buf[12:16]),
		Height:       binary.LittleEndian.Uint32(buf[16:20]),
		PixelFormat:  binary.LittleEndian.Uint32(buf[20:24]),
		ReadIndex:    binary.LittleEndian.Uint32(buf[24:28]),
		WriteIndex:   binary.LittleEndian.Uint32(buf[28:32]),
		FrameCount:   binary.LittleEndian.Uint64(buf[32:40]),
		LastUpdateNS: binary.LittleEndian.Uint64(buf[40:48]),
	}
}

// SlotEntry is the per-slot metadata record that follows the header,
// one per buffer_count, per spec.md §3.
type SlotEntry struct {
	Ready         uint32
	TimestampNS   uint64
	FrameNumber   uint64
	Width         uint32
	Height        uint32
	SurfaceHandle uint64
}

func encodeSlotEntry(buf []byte, s SlotEntry) {
	binary.LittleEndian.PutUint32(buf[0:4], s.Ready)
	binary.LittleEndian.PutUint64(buf[4:12], s.TimestampNS)
	binary.LittleEndian.PutUint64(buf[12:20], s.FrameNumber)
	binary.LittleEndian.PutUint32(buf[20:24], s.Width)
	binary.LittleEndian.PutUint32(buf[24:28], s.Height)
	binary.LittleEndian.PutUint64(buf[28:36], s.SurfaceHandle)
}

func decodeSlotEntry(buf []byte) SlotEntry {
	return SlotEntry{
		Ready:         binary.LittleEndian.Uint32(buf[0:4]),
		TimestampNS:   binary.LittleEndian.Uint64(buf[4:12]),
		FrameNumber:   binary.LittleEndian.Uint64(buf[12:20]),
		Width:         binary.LittleEndian.Uint32(buf[20:24]),
		Height:        binary.LittleEndian.Uint32(buf[24:28]),
		SurfaceHandle: binary.LittleEndian.Uint64(buf[28:36]),
	}
}

// align64 rounds n up to the next 64-byte boundary.
func align64(n int) int {
	if rem := n % slotAlignment; rem != 0 {
		n += slotAlignment - rem
	}
	return n
}

// layout precomputes the byte offsets of each region of the shared
// mapping for a given buffer_count/width/height.
type layout struct {
	headerOff     int
	slotsOff      int
	slotStride    int
	pixelsOff     int
	pixelStride   int
	bufferCount   int
	totalSize     int
}

func computeLayout(bufferCount, width, height int) layout {
	l := layout{
		headerOff:   0,
		slotsOff:    headerLayout,
		slotStride:  slotEntrySize,
		bufferCount: bufferCount,
	}
	l.pixelsOff = align64(l.slotsOff + bufferCount*l.slotStride)
	l.pixelStride = align64(width * height * 4)
	l.totalSize = l.pixelsOff + bufferCount*l.pixelStride
	return l
}

func (l layout) slotOffset(i int) int {
	return l.slotsOff + i*l.slotStride
}

func (l layout) pixelOffset(i int) int {
	return l.pixelsOff + i*l.pixelStride
}
