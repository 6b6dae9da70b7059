package ring

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"
)

// region is the shared byte buffer backing a ring, whether it is a
// real POSIX shared-memory mapping or (on platforms without one, or
// in tests) a plain heap allocation shared by reference within the
// same process.
type region struct {
	buf  []byte
	file *os.File // nil for the in-memory fallback
}

// Close unmaps the region and closes its backing file, if any.
func (r *region) Close() error {
	var err error
	if r.file != nil {
		if hasSharedMmap {
			err = munmap(r.buf)
		}
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// createRegion allocates and zero-fills a shared region of size
// bytes, backed by path if the platform supports POSIX shared
// mmap, or by a plain slice otherwise (spec.md §4.1's memcpy-ring
// degradation path).
func createRegion(path string, size int) (*region, error) {
	if path == "" || !hasSharedMmap {
		return &region{buf: make([]byte, size)}, nil
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("ring: opening backing file: %w", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("ring: sizing backing file: %w", err)
	}

	buf, err := mmapShared(f.Fd(), size)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("ring: mapping backing file: %w", err)
	}

	return &region{buf: buf, file: f}, nil
}

// attachRegion maps an existing backing file read-write (the consumer
// still needs write access to read_index and each slot's ready flag,
// per spec.md §4.1: "maps the region read-only except for read_index
// and ready").
func attachRegion(path string, size int) (*region, error) {
	if !hasSharedMmap {
		return nil, fmt.Errorf("ring: shared attach not supported on this platform")
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("ring: opening backing file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ring: stat backing file: %w", err)
	}
	if int(info.Size()) < size {
		f.Close()
		return nil, fmt.Errorf("ring: backing file too small: %d < %d", info.Size(), size)
	}

	buf, err := mmapShared(f.Fd(), size)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ring: mapping backing file: %w", err)
	}

	return &region{buf: buf, file: f}, nil
}

// --- atomic field access into the shared region ---
//
// The ring's ordering contract (spec.md §4.1) requires the producer
// to publish payload bytes before the release-store of ready/
// write_index, and the consumer to acquire-load write_index/ready
// before reading payload bytes. Go's memory model only guarantees
// this ordering through sync/atomic, so every cursor and liveness
// flag is read and written through it rather than through plain
// encoding/binary calls.

func loadU32(buf []byte, off int) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&buf[off])))
}

func storeU32(buf []byte, off int, v uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&buf[off])), v)
}

func addU64(buf []byte, off int, delta uint64) uint64 {
	return atomic.AddUint64((*uint64)(unsafe.Pointer(&buf[off])), delta)
}

func storeU64(buf []byte, off int, v uint64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&buf[off])), v)
}

func loadU64(buf []byte, off int) uint64 {
	return atomic.LoadUint64((*uint64)(unsafe.Pointer(&buf[off])))
}

const (
	offMagic        = 0
	offVersion      = 4
	offBufferCount  = 8
	offWidth        = 12
	offHeight       = 16
	offPixelFormat  = 20
	offReadIndex    = 24
	offWriteIndex   = 28
	offFrameCount   = 32
	offLastUpdateNS = 40
)

const (
	slotOffReady         = 0
	slotOffTimestampNS   = 4
	slotOffFrameNumber   = 12
	slotOffWidth         = 20
	slotOffHeight        = 24
	slotOffSurfaceHandle = 28
)

// FrameView describes a slot's payload as handed to a consumer: the
// raw BGRA8 pixel bytes and the slot's metadata.
type FrameView struct {
	Pixels      []byte
	Width       int
	Height      int
	TimestampNS int64
	FrameNumber uint64
	SlotIndex   int
}
