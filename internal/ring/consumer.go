package ring

import "fmt"

// Consumer reads slots published by a Producer. It may live in a
// different process (attached via Attach, mapping the same backing
// file) or, for tests and single-process use, share a Producer's
// region directly via NewLocalConsumer.
type Consumer struct {
	region      *region
	layout      layout
	bufferCount int
}

// Attach maps an existing ring's backing file for consumption. It
// validates magic and version per spec.md §3's lifecycle rules.
func Attach(path string, width, height, bufferCount int) (*Consumer, error) {
	l := computeLayout(bufferCount, width, height)
	reg, err := attachRegion(path, l.totalSize)
	if err != nil {
		return nil, err
	}

	c := &Consumer{region: reg, layout: l, bufferCount: bufferCount}
	h := decodeHeader(reg.buf[:headerLayout])
	if h.Magic != Magic {
		reg.Close()
		return nil, fmt.Errorf("ring: magic mismatch, got 0x%x want 0x%x", h.Magic, Magic)
	}
	if h.Version != Version {
		reg.Close()
		return nil, fmt.Errorf("ring: version mismatch, got %d want %d", h.Version, Version)
	}
	return c, nil
}

// NewLocalConsumer attaches a Consumer to a Producer's region within
// the same process, for tests that exercise the SPSC contract without
// a second OS process.
func NewLocalConsumer(p *Producer) *Consumer {
	return &Consumer{region: p.region, layout: p.layout, bufferCount: p.bufferCount}
}

// Close releases the consumer's mapping (not the producer's; the
// producer owns the region's lifetime).
func (c *Consumer) Close() error {
	if c.region.file == nil {
		return nil // local consumer shares the producer's region
	}
	return c.region.Close()
}

// Detached reports whether the ring has been torn down (magic == 0,
// spec.md §4.1's "Failure" clause) or the header is otherwise
// unreadable.
func (c *Consumer) Detached() bool {
	return loadU32(c.region.buf, offMagic) != Magic
}

// AcquireRead returns the slot at read_index if it is ready, with an
// acquire-ordered load of write_index/ready establishing the
// happens-before relationship with the producer's release store.
func (c *Consumer) AcquireRead() (FrameView, bool) {
	if c.Detached() {
		return FrameView{}, false
	}

	readIdx := loadU32(c.region.buf, offReadIndex)
	slotOff := c.layout.slotOffset(int(readIdx))
	ready := loadU32(c.region.buf, slotOff+slotOffReady)
	if ready == 0 {
		return FrameView{}, false
	}

	return c.viewOf(int(readIdx), slotOff), true
}

// ReleaseRead clears the current slot's ready flag and advances
// read_index, making the slot available to the producer again.
func (c *Consumer) ReleaseRead() {
	readIdx := loadU32(c.region.buf, offReadIndex)
	slotOff := c.layout.slotOffset(int(readIdx))
	storeU32(c.region.buf, slotOff+slotOffReady, 0)
	next := (readIdx + 1) % uint32(c.bufferCount)
	storeU32(c.region.buf, offReadIndex, next)
}

// PeekLatest returns the slot immediately before write_index without
// mutating any cursor, for low-latency consumers that only care about
// the most recent frame (spec.md §4.1).
func (c *Consumer) PeekLatest() (FrameView, bool) {
	if c.Detached() {
		return FrameView{}, false
	}

	writeIdx := loadU32(c.region.buf, offWriteIndex)
	latest := (writeIdx - 1 + uint32(c.bufferCount)) % uint32(c.bufferCount)
	slotOff := c.layout.slotOffset(int(latest))
	ready := loadU32(c.region.buf, slotOff+slotOffReady)
	if ready == 0 {
		return FrameView{}, false
	}
	return c.viewOf(int(latest), slotOff), true
}

func (c *Consumer) viewOf(slotIdx, slotOff int) FrameView {
	entry := decodeSlotEntry(c.region.buf[slotOff : slotOff+slotEntrySize])
	pixOff := c.layout.pixelOffset(slotIdx)
	return FrameView{
		Pixels:      c.region.buf[pixOff : pixOff+c.layout.pixelStride],
		Width:       int(entry.Width),
		Height:      int(entry.Height),
		TimestampNS: int64(entry.TimestampNS),
		FrameNumber: entry.FrameNumber,
		SlotIndex:   slotIdx,
	}
}
