package ring

import "testing"

func TestCreate_InvalidBufferCount(t *testing.T) {
	if _, err := Create("", 64, 64, 1); err == nil {
		t.Error("expected error for buffer_count < 2")
	}
}

func TestAcquireSubmitAdvancesCursors(t *testing.T) {
	p, err := Create("", 4, 4, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Close()

	slot, pixels, ok := p.AcquireWrite()
	if !ok {
		t.Fatal("expected AcquireWrite to succeed on a fresh ring")
	}
	if slot != 0 {
		t.Errorf("expected slot 0, got %d", slot)
	}
	if len(pixels) != 4*4*4 {
		t.Errorf("expected %d pixel bytes, got %d", 4*4*4, len(pixels))
	}
	for i := range pixels {
		pixels[i] = 0xAB
	}

	before := p.FrameCount()
	p.SubmitWrite(slot, 1000, 1, 0)
	after := p.FrameCount()
	if after != before+1 {
		t.Errorf("expected frame_count to increase by 1, got %d -> %d", before, after)
	}

	writeIdx := loadU32(p.region.buf, offWriteIndex)
	if writeIdx != 1 {
		t.Errorf("expected write_index 1, got %d", writeIdx)
	}
}

// TestBackpressureDropsExcessFrames exercises scenario 4 from
// spec.md §8: with buffer_count=3 and a consumer that never
// advances, exactly 3 of 10 back-to-back submits are accepted.
func TestBackpressureDropsExcessFrames(t *testing.T) {
	p, err := Create("", 2, 2, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Close()

	accepted := 0
	for i := 0; i < 10; i++ {
		slot, _, ok := p.AcquireWrite()
		if !ok {
			continue
		}
		p.SubmitWrite(slot, int64(i), uint64(i), 0)
		accepted++
	}

	if accepted != 3 {
		t.Errorf("expected 3 accepted submits, got %d", accepted)
	}

	// Consumer releases exactly one slot; the next submit must succeed.
	c := NewLocalConsumer(p)
	view, ok := c.AcquireRead()
	if !ok {
		t.Fatal("expected a ready slot for the consumer")
	}
	_ = view
	c.ReleaseRead()

	if _, _, ok := p.AcquireWrite(); !ok {
		t.Error("expected AcquireWrite to succeed after a release")
	}
}

func TestProducerConsumerRoundTrip(t *testing.T) {
	p, err := Create("", 4, 2, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Close()
	c := NewLocalConsumer(p)

	if _, ok := c.AcquireRead(); ok {
		t.Error("expected no ready slot before any submit")
	}

	slot, pixels, ok := p.AcquireWrite()
	if !ok {
		t.Fatal("AcquireWrite failed")
	}
	for i := range pixels {
		pixels[i] = byte(i)
	}
	p.SubmitWrite(slot, 42, 7, 99)

	view, ok := c.AcquireRead()
	if !ok {
		t.Fatal("expected a ready slot after submit")
	}
	if view.TimestampNS != 42 {
		t.Errorf("expected timestamp 42, got %d", view.TimestampNS)
	}
	if view.FrameNumber != 7 {
		t.Errorf("expected frame number 7, got %d", view.FrameNumber)
	}
	for i, b := range view.Pixels {
		if b != byte(i) {
			t.Fatalf("pixel mismatch at %d: got %d", i, b)
		}
	}

	c.ReleaseRead()
	if _, ok := c.AcquireRead(); ok {
		t.Error("expected no ready slot after release")
	}
}

func TestPeekLatestDoesNotMutateCursors(t *testing.T) {
	p, err := Create("", 2, 2, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer p.Close()
	c := NewLocalConsumer(p)

	slot, _, _ := p.AcquireWrite()
	p.SubmitWrite(slot, 1, 1, 0)

	readBefore := loadU32(p.region.buf, offReadIndex)
	view, ok := c.PeekLatest()
	if !ok {
		t.Fatal("expected PeekLatest to find the just-submitted slot")
	}
	if view.FrameNumber != 1 {
		t.Errorf("expected frame number 1, got %d", view.FrameNumber)
	}
	readAfter := loadU32(p.region.buf, offReadIndex)
	if readBefore != readAfter {
		t.Error("PeekLatest must not mutate read_index")
	}
}

func TestDetachedAfterClose(t *testing.T) {
	p, err := Create("", 2, 2, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	c := NewLocalConsumer(p)
	if c.Detached() {
		t.Error("expected ring to be attached before close")
	}
	p.Close()
	if !c.Detached() {
		t.Error("expected ring to be detached after producer close")
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Magic:        Magic,
		Version:      Version,
		BufferCount:  3,
		Width:        1920,
		Height:       1080,
		PixelFormat:  PixelFormatBGRA,
		ReadIndex:    1,
		WriteIndex:   2,
		FrameCount:   12345,
		LastUpdateNS: 9876543210,
	}
	buf := make([]byte, headerLayout)
	encodeHeader(buf, h)
	got := decodeHeader(buf)
	if got != h {
		t.Errorf("header round-trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestComputeLayout_PixelRegionAlignedAfterSlots(t *testing.T) {
	// Sanity check computeLayout alignment invariant used throughout
	// the package: pixel and slot regions never overlap.
	l := computeLayout(3, 7, 5)
	if l.pixelsOff < l.slotsOff+3*slotEntrySize {
		t.Error("pixel region overlaps slot metadata region")
	}
	if l.pixelsOff%slotAlignment != 0 {
		t.Error("pixel region must be 64-byte aligned")
	}
}
