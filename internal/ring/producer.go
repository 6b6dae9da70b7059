package ring

import (
	"fmt"
	"sync"
)

// Producer owns a ring's shared region for its lifetime and is the
// only writer of frame payloads and write_index. It is created once
// per session and destroyed on session end (spec.md §3, Lifecycle).
type Producer struct {
	mu sync.Mutex // serializes acquire/submit; the processing executor is its only caller anyway

	region      *region
	layout      layout
	bufferCount int
	width       int
	height      int
}

// Create allocates a new ring with the given dimensions and buffer
// count, writing a fresh header. path may be empty, in which case the
// ring lives purely in this process's memory (useful for tests and
// for platforms without shared mmap, per spec.md §4.1).
func Create(path string, width, height, bufferCount int) (*Producer, error) {
	if bufferCount < 2 {
		return nil, fmt.Errorf("ring: buffer_count must be >= 2, got %d", bufferCount)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ring: invalid dimensions %dx%d", width, height)
	}

	l := computeLayout(bufferCount, width, height)
	reg, err := createRegion(path, l.totalSize)
	if err != nil {
		return nil, err
	}

	h := Header{
		Magic:       Magic,
		Version:     Version,
		BufferCount: uint32(bufferCount),
		Width:       uint32(width),
		Height:      uint32(height),
		PixelFormat: PixelFormatBGRA,
	}
	encodeHeader(reg.buf[:headerLayout], h)

	return &Producer{
		region:      reg,
		layout:      l,
		bufferCount: bufferCount,
		width:       width,
		height:      height,
	}, nil
}

// Close tears down the ring. Per spec.md §3, this happens once at
// session end.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	storeU32(p.region.buf, offMagic, 0) // consumers observe detached
	return p.region.Close()
}

// AcquireWrite returns the slot at write_index, or ok=false if that
// slot still holds a frame the consumer hasn't released yet ("full ->
// drop this frame", spec.md §4.1). All buffer_count slots are usable
// for in-flight frames; fullness is tracked per-slot via its ready
// flag rather than by comparing cursors directly, so a triple buffer
// can hold all three slots' worth of unconsumed frames at once.
func (p *Producer) AcquireWrite() (slotIdx int, pixels []byte, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	writeIdx := loadU32(p.region.buf, offWriteIndex)
	slotOff := p.layout.slotOffset(int(writeIdx))
	if loadU32(p.region.buf, slotOff+slotOffReady) != 0 {
		return 0, nil, false
	}

	off := p.layout.pixelOffset(int(writeIdx))
	return int(writeIdx), p.region.buf[off : off+p.layout.pixelStride], true
}

// SubmitWrite publishes the slot filled by the caller after
// AcquireWrite: it writes slot metadata, marks the slot ready, then
// release-advances write_index, per the ordering contract in
// spec.md §4.1 (payload must be visible before ready, ready before
// the cursor advance).
func (p *Producer) SubmitWrite(slotIdx int, timestampNS int64, frameNumber uint64, surfaceHandle uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slotOff := p.layout.slotOffset(slotIdx)
	slot := p.region.buf[slotOff : slotOff+slotEntrySize]
	encodeSlotEntry(slot, SlotEntry{
		TimestampNS:   uint64(timestampNS),
		FrameNumber:   frameNumber,
		Width:         uint32(p.width),
		Height:        uint32(p.height),
		SurfaceHandle: surfaceHandle,
	})
	// ready is stored last, after the rest of the metadata block, and
	// carries the release semantics for the payload bytes written by
	// the caller.
	storeU32(p.region.buf, slotOff+slotOffReady, 1)

	next := (uint32(slotIdx) + 1) % uint32(p.bufferCount)
	storeU32(p.region.buf, offWriteIndex, next)
	addU64(p.region.buf, offFrameCount, 1)
	storeU64(p.region.buf, offLastUpdateNS, uint64(timestampNS))
}

// Dimensions returns the ring's fixed width/height.
func (p *Producer) Dimensions() (width, height int) {
	return p.width, p.height
}

// BufferCount returns the number of triple-buffer slots.
func (p *Producer) BufferCount() int {
	return p.bufferCount
}

// FrameCount returns the monotone count of frames published so far.
func (p *Producer) FrameCount() uint64 {
	return loadU64(p.region.buf, offFrameCount)
}
